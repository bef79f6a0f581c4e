package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"vibequiz/internal/domain"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Requester sends JSON-RPC requests through the wallet.
type Requester interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

type callMsg struct {
	From  string       `json:"from,omitempty"`
	To    string       `json:"to"`
	Data  string       `json:"data"`
	Value *hexutil.Big `json:"value,omitempty"`
}

// Receipt is the part of a transaction receipt the client inspects.
type Receipt struct {
	TxHash      common.Hash    `json:"transactionHash"`
	Status      hexutil.Uint64 `json:"status"`
	BlockNumber *hexutil.Big   `json:"blockNumber"`
}

// Contract is a QuizApp binding whose transactions are signed by the wallet.
type Contract struct {
	rpc     Requester
	address common.Address
	abi     abi.ABI
	poll    time.Duration
	logger  *slog.Logger
}

func NewContract(rpc Requester, address string, poll time.Duration, logger *slog.Logger) (*Contract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}
	parsed, err := abi.JSON(strings.NewReader(quizAppABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	if poll <= 0 {
		poll = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Contract{
		rpc:     rpc,
		address: common.HexToAddress(address),
		abi:     parsed,
		poll:    poll,
		logger:  logger.With("component", "contract"),
	}, nil
}

// CreateQuiz escrows value for a quiz and waits for the transaction to be mined.
func (c *Contract) CreateQuiz(ctx context.Context, from, quizID string, questionCount int64, rewardPerScoreWei, value *big.Int) (common.Hash, error) {
	return c.transact(ctx, from, value, "createQuiz", quizID, big.NewInt(questionCount), rewardPerScoreWei)
}

// EndQuiz closes the quiz at the given on-chain index.
func (c *Contract) EndQuiz(ctx context.Context, from string, index *big.Int) (common.Hash, error) {
	return c.transact(ctx, from, nil, "endQuiz", index)
}

// JoinQuiz records a participant score for the quiz at the given on-chain index.
func (c *Contract) JoinQuiz(ctx context.Context, from string, index *big.Int, score int64) (common.Hash, error) {
	return c.transact(ctx, from, nil, "joinQuiz", index, big.NewInt(score))
}

// GetAllQuizzes reads the parallel id and quiz-id lists.
func (c *Contract) GetAllQuizzes(ctx context.Context) ([]*big.Int, []string, error) {
	data, err := c.abi.Pack("getAllQuizzes")
	if err != nil {
		return nil, nil, err
	}
	raw, err := c.rpc.Request(ctx, "eth_call", callMsg{To: c.address.Hex(), Data: hexutil.Encode(data)}, "latest")
	if err != nil {
		return nil, nil, fmt.Errorf("call getAllQuizzes: %w", err)
	}
	var out hexutil.Bytes
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, nil, fmt.Errorf("decode getAllQuizzes result: %w", err)
	}

	values, err := c.abi.Unpack("getAllQuizzes", out)
	if err != nil {
		return nil, nil, fmt.Errorf("unpack getAllQuizzes: %w", err)
	}
	if len(values) != 2 {
		return nil, nil, fmt.Errorf("getAllQuizzes returned %d values", len(values))
	}
	ids, ok := values[0].([]*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected ids type %T", values[0])
	}
	qids, ok := values[1].([]string)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected qids type %T", values[1])
	}
	return ids, qids, nil
}

// LoadIndex returns the on-chain quiz ids in contract order.
func (c *Contract) LoadIndex(ctx context.Context) ([]string, error) {
	_, qids, err := c.GetAllQuizzes(ctx)
	return qids, err
}

func (c *Contract) transact(ctx context.Context, from string, value *big.Int, method string, args ...any) (common.Hash, error) {
	if from == "" {
		return common.Hash{}, domain.ErrWalletNotConnected
	}
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := callMsg{From: from, To: c.address.Hex(), Data: hexutil.Encode(data)}
	if value != nil && value.Sign() > 0 {
		msg.Value = (*hexutil.Big)(value)
	}

	raw, err := c.rpc.Request(ctx, "eth_sendTransaction", msg)
	if err != nil {
		return common.Hash{}, fmt.Errorf("send %s: %w", method, err)
	}
	var hash common.Hash
	if err := json.Unmarshal(raw, &hash); err != nil {
		return common.Hash{}, fmt.Errorf("decode %s tx hash: %w", method, err)
	}
	c.logger.Info("transaction sent", "method", method, "tx", hash.Hex())

	receipt, err := c.WaitMined(ctx, hash)
	if err != nil {
		return hash, err
	}
	c.logger.Info("transaction mined", "method", method, "tx", hash.Hex(), "block", receipt.BlockNumber)
	return hash, nil
}

// WaitMined polls for the receipt of hash until it is available or ctx ends.
// A failed status is reported as domain.ErrTxReverted.
func (c *Contract) WaitMined(ctx context.Context, hash common.Hash) (Receipt, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		raw, err := c.rpc.Request(ctx, "eth_getTransactionReceipt", hash.Hex())
		if err != nil {
			return Receipt{}, fmt.Errorf("receipt %s: %w", hash.Hex(), err)
		}
		if len(raw) > 0 && string(raw) != "null" {
			var receipt Receipt
			if err := json.Unmarshal(raw, &receipt); err != nil {
				return Receipt{}, fmt.Errorf("decode receipt %s: %w", hash.Hex(), err)
			}
			if receipt.Status == 0 {
				return receipt, fmt.Errorf("%w: %s", domain.ErrTxReverted, hash.Hex())
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
