package app_test

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"vibequiz/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n")

type fakeBackend struct {
	mu sync.Mutex

	createID  string
	createErr error
	uploads   []domain.QuizUpload

	updateErrs []error
	updates    []domain.QuizFlags

	quiz      domain.Quiz
	verifyErr error

	joinErr error
	joins   []string

	result    domain.SubmitResult
	submitErr error
	submits   []map[string]string
}

func (f *fakeBackend) CreateFromPDF(_ context.Context, upload domain.QuizUpload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload)
	return f.createID, f.createErr
}

func (f *fakeBackend) Update(_ context.Context, _ string, flags domain.QuizFlags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, flags)
	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		return err
	}
	return nil
}

func (f *fakeBackend) Verify(context.Context, string, string) (domain.Quiz, error) {
	return f.quiz, f.verifyErr
}

func (f *fakeBackend) Join(_ context.Context, _, _, name string) error {
	f.joins = append(f.joins, name)
	return f.joinErr
}

func (f *fakeBackend) Submit(_ context.Context, _, _ string, answers map[string]string) (domain.SubmitResult, error) {
	f.submits = append(f.submits, answers)
	return f.result, f.submitErr
}

type contractCall struct {
	method string
	from   string
	quizID string
	index  int64
	score  int64
	value  *big.Int
}

type fakeContract struct {
	mu    sync.Mutex
	err   error
	calls []contractCall
}

var fakeHash = common.HexToHash("0xabc")

func (f *fakeContract) record(call contractCall) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.err != nil {
		return common.Hash{}, f.err
	}
	return fakeHash, nil
}

func (f *fakeContract) CreateQuiz(_ context.Context, from, quizID string, _ int64, _ *big.Int, value *big.Int) (common.Hash, error) {
	return f.record(contractCall{method: "createQuiz", from: from, quizID: quizID, value: value})
}

func (f *fakeContract) EndQuiz(_ context.Context, from string, index *big.Int) (common.Hash, error) {
	return f.record(contractCall{method: "endQuiz", from: from, index: index.Int64()})
}

func (f *fakeContract) JoinQuiz(_ context.Context, from string, index *big.Int, score int64) (common.Hash, error) {
	return f.record(contractCall{method: "joinQuiz", from: from, index: index.Int64(), score: score})
}

func (f *fakeContract) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeIndex struct {
	ids        domain.ChainIndex
	refreshErr error
	refreshes  int
}

func (f *fakeIndex) Resolve(_ context.Context, quizID string) (int64, error) {
	if pos, ok := f.ids.Position(quizID); ok {
		return pos, nil
	}
	return 0, domain.ErrQuizNotOnChain
}

func (f *fakeIndex) Refresh(context.Context) (domain.ChainIndex, error) {
	f.refreshes++
	return f.ids, f.refreshErr
}

var errBoom = errors.New("boom")
