package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"vibequiz/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// TakeBackend is the backend surface used by a participant.
type TakeBackend interface {
	Verify(ctx context.Context, quizID, walletAddress string) (domain.Quiz, error)
	Join(ctx context.Context, quizID, walletAddress, participantName string) error
	Submit(ctx context.Context, quizID, walletAddress string, answers map[string]string) (domain.SubmitResult, error)
}

// ScoreContract records participant scores on chain.
type ScoreContract interface {
	JoinQuiz(ctx context.Context, from string, index *big.Int, score int64) (common.Hash, error)
}

const (
	msgQuizNotFound  = "Quiz not found"
	msgFetchFailed   = "An error occurred while fetching the quiz."
	msgJoinFailed    = "An error occurred while joining the quiz."
	msgSubmitFailed  = "An error occurred while submitting the quiz."
	msgScoreTooLow   = "Score must be greater than 0 to submit."
	msgScoreRecorded = "Quiz score submitted successfully to the smart contract!"
)

// Taker drives a TakeSession against the backend, the chain index and the contract.
type Taker struct {
	backend  TakeBackend
	index    QuizIndex
	contract ScoreContract
	logger   *slog.Logger
}

func NewTaker(backend TakeBackend, index QuizIndex, contract ScoreContract, logger *slog.Logger) *Taker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Taker{
		backend:  backend,
		index:    index,
		contract: contract,
		logger:   logger.With("component", "taker"),
	}
}

// Load verifies the quiz for wallet and moves the session out of loading.
func (t *Taker) Load(ctx context.Context, s *TakeSession, wallet string) error {
	if s.Phase() != PhaseLoading {
		return ErrWrongPhase
	}
	if wallet == "" {
		return domain.ErrWalletNotConnected
	}
	quiz, err := t.backend.Verify(ctx, s.QuizID(), wallet)
	if err != nil {
		message := domain.ServerMessage(err, msgFetchFailed)
		if domain.IsNotFound(err) {
			message = msgQuizNotFound
		}
		s.LoadFailed(message)
		return fmt.Errorf("verify quiz: %w", err)
	}
	s.Loaded(quiz)
	return nil
}

// Join registers the participant and starts the countdown. A failure keeps the
// session waiting for a name. It reports true when submission should start
// immediately.
func (t *Taker) Join(ctx context.Context, s *TakeSession, wallet, name string) (bool, error) {
	if s.Phase() != PhaseAwaitingName {
		return false, ErrWrongPhase
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return false, domain.ErrNameRequired
	}
	if err := t.backend.Join(ctx, s.QuizID(), wallet, name); err != nil {
		return false, fmt.Errorf("join quiz: %w", err)
	}
	if _, err := t.index.Refresh(ctx); err != nil {
		t.logger.Warn("refreshing quiz index", "quiz", s.QuizID(), "err", err)
	}
	return s.Joined()
}

// Submit posts the answers and, for a positive score, records it on chain.
// Backend or chain failures return the session to its last question with the
// countdown paused.
func (t *Taker) Submit(ctx context.Context, s *TakeSession, wallet string) (domain.SubmitResult, error) {
	if s.Phase() != PhaseSubmitting {
		return domain.SubmitResult{}, ErrWrongPhase
	}

	result, err := t.backend.Submit(ctx, s.QuizID(), wallet, s.Answers())
	if err != nil {
		s.SubmitFailed(SubmitMessage(err))
		return domain.SubmitResult{}, fmt.Errorf("submit answers: %w", err)
	}

	if result.Score <= 0 {
		s.Finish(result.Score, msgScoreTooLow)
		return result, domain.ErrNonPositiveScore
	}

	index, err := t.index.Resolve(ctx, result.QuizID)
	if err != nil {
		s.SubmitFailed(SubmitMessage(err))
		return result, err
	}
	if _, err := t.contract.JoinQuiz(ctx, wallet, big.NewInt(index), result.Score); err != nil {
		s.SubmitFailed(SubmitMessage(err))
		return result, fmt.Errorf("record score on chain: %w", err)
	}

	s.Finish(result.Score, msgScoreRecorded)
	return result, nil
}

// SubmitMessage is the notice shown for a failed submission.
func SubmitMessage(err error) string {
	var perr *domain.ProviderError
	switch {
	case errors.As(err, &perr) && perr.Code == domain.CodeServerError:
		return "Transaction failed: " + perr.RevertReason()
	case errors.Is(err, domain.ErrQuizNotOnChain):
		return "Quiz not found on chain"
	default:
		return domain.ServerMessage(err, msgSubmitFailed)
	}
}

// JoinMessage is the notice shown for a failed join.
func JoinMessage(err error) string {
	if errors.Is(err, domain.ErrNameRequired) {
		return "Please enter your name."
	}
	return domain.ServerMessage(err, msgJoinFailed)
}
