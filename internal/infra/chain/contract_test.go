package chain

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"vibequiz/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contractAddr = "0x204533Dd6e6E53fb823f83E079018aB482779C93"

var txHash = common.HexToHash("0x01")

type fakeRPC struct {
	mu           sync.Mutex
	sent         []callMsg
	receipts     []any
	callResult   []byte
	sendErr      error
	receiptCalls int
}

func (f *fakeRPC) Request(_ context.Context, method string, params ...any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch method {
	case "eth_sendTransaction":
		if f.sendErr != nil {
			return nil, f.sendErr
		}
		f.sent = append(f.sent, params[0].(callMsg))
		return json.Marshal(txHash)
	case "eth_getTransactionReceipt":
		f.receiptCalls++
		if len(f.receipts) == 0 {
			return json.RawMessage("null"), nil
		}
		next := f.receipts[0]
		f.receipts = f.receipts[1:]
		return json.Marshal(next)
	case "eth_call":
		return json.Marshal(hexutil.Bytes(f.callResult))
	}
	return nil, errors.New("unexpected method " + method)
}

func receipt(status uint64) map[string]any {
	return map[string]any{
		"transactionHash": txHash.Hex(),
		"status":          hexutil.Uint64(status),
		"blockNumber":     "0x10",
	}
}

func newTestContract(t *testing.T, rpc *fakeRPC) *Contract {
	t.Helper()
	c, err := NewContract(rpc, contractAddr, time.Millisecond, nil)
	require.NoError(t, err)
	return c
}

func TestCreateQuizEncodesCallAndWaitsForReceipt(t *testing.T) {
	rpc := &fakeRPC{receipts: []any{nil, nil, receipt(1)}}
	c := newTestContract(t, rpc)

	reward := new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18))
	value, _ := new(big.Int).SetString("110000000000000000000", 10)

	hash, err := c.CreateQuiz(context.Background(), "0xabc", "quiz-1", 5, reward, value)
	require.NoError(t, err)
	assert.Equal(t, txHash, hash)
	assert.Equal(t, 3, rpc.receiptCalls)

	require.Len(t, rpc.sent, 1)
	msg := rpc.sent[0]
	assert.Equal(t, "0xabc", msg.From)
	assert.Equal(t, common.HexToAddress(contractAddr).Hex(), msg.To)
	assert.Equal(t, value, msg.Value.ToInt())

	data, err := hexutil.Decode(msg.Data)
	require.NoError(t, err)
	method, err := c.abi.MethodById(data[:4])
	require.NoError(t, err)
	assert.Equal(t, "createQuiz", method.Name)
	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, "quiz-1", args[0])
	assert.Equal(t, big.NewInt(5), args[1])
	assert.Equal(t, reward, args[2])
}

func TestJoinQuizWithoutValueOmitsValue(t *testing.T) {
	rpc := &fakeRPC{receipts: []any{receipt(1)}}
	c := newTestContract(t, rpc)

	_, err := c.JoinQuiz(context.Background(), "0xabc", big.NewInt(3), 4)
	require.NoError(t, err)
	require.Len(t, rpc.sent, 1)
	assert.Nil(t, rpc.sent[0].Value)
}

func TestRevertedReceipt(t *testing.T) {
	rpc := &fakeRPC{receipts: []any{receipt(0)}}
	c := newTestContract(t, rpc)

	_, err := c.EndQuiz(context.Background(), "0xabc", big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrTxReverted)
}

func TestSendErrorKeepsProviderError(t *testing.T) {
	rpc := &fakeRPC{sendErr: &domain.ProviderError{
		Code:    domain.CodeServerError,
		Message: "execution reverted",
		Data:    json.RawMessage(`{"message":"Quiz already ended"}`),
	}}
	c := newTestContract(t, rpc)

	_, err := c.EndQuiz(context.Background(), "0xabc", big.NewInt(1))
	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Quiz already ended", perr.RevertReason())
}

func TestTransactRequiresSender(t *testing.T) {
	c := newTestContract(t, &fakeRPC{})
	_, err := c.EndQuiz(context.Background(), "", big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrWalletNotConnected)
}

func TestWaitMinedStopsOnCancel(t *testing.T) {
	c := newTestContract(t, &fakeRPC{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.WaitMined(ctx, txHash)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetAllQuizzesUnpacks(t *testing.T) {
	c := newTestContract(t, &fakeRPC{})
	packed, err := c.abi.Methods["getAllQuizzes"].Outputs.Pack(
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
		[]string{"quiz-a", "quiz-b"},
	)
	require.NoError(t, err)

	rpc := &fakeRPC{callResult: packed}
	c = newTestContract(t, rpc)
	ids, qids, err := c.GetAllQuizzes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"quiz-a", "quiz-b"}, qids)
	assert.Equal(t, 0, ids[1].Cmp(big.NewInt(2)))

	loaded, err := c.LoadIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, qids, loaded)
}

func TestNewContractRejectsBadAddress(t *testing.T) {
	_, err := NewContract(&fakeRPC{}, "not-an-address", 0, nil)
	assert.Error(t, err)
}
