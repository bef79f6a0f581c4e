package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"vibequiz/internal/domain"
)

var (
	ErrStartUnavailable = errors.New("start is not available right now")
	ErrStopUnavailable  = errors.New("stop is only available while the quiz is public")
)

// ShareControls is the availability state of the host's start/stop/close controls.
type ShareControls struct {
	Public      bool
	Busy        bool
	Stopping    bool
	StopUpdated bool
	Closed      bool
}

func (c ShareControls) CanStart() bool { return !c.Public && !c.Busy && !c.Stopping }
func (c ShareControls) CanStop() bool { return c.Public && !c.Busy }
func (c ShareControls) CanClose() bool { return c.StopUpdated }

// Share hosts a created quiz: the joinable link and the start/stop controls.
type Share struct {
	quizID   string
	wallet   string
	backend  CreationBackend
	contract EscrowContract
	index    QuizIndex
	logger   *slog.Logger

	mu       sync.Mutex
	controls ShareControls
}

func NewShare(quizID, wallet string, backend CreationBackend, contract EscrowContract, index QuizIndex, logger *slog.Logger) *Share {
	if logger == nil {
		logger = slog.Default()
	}
	return &Share{
		quizID:   quizID,
		wallet:   wallet,
		backend:  backend,
		contract: contract,
		index:    index,
		logger:   logger.With("component", "share", "quiz", quizID),
	}
}

// QuizID returns the hosted quiz id.
func (s *Share) QuizID() string {
	return s.quizID
}

// Link is the URL participants open to join.
func (s *Share) Link(clientURL string) string {
	return JoinLink(clientURL, s.quizID)
}

// JoinLink builds <clientURL>/quiz/<quizID>.
func JoinLink(clientURL, quizID string) string {
	return strings.TrimRight(clientURL, "/") + "/quiz/" + quizID
}

// Controls returns a snapshot of control availability.
func (s *Share) Controls() ShareControls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls
}

// Start makes the quiz public.
func (s *Share) Start(ctx context.Context) error {
	s.mu.Lock()
	if !s.controls.CanStart() {
		s.mu.Unlock()
		return ErrStartUnavailable
	}
	s.controls.Busy = true
	s.mu.Unlock()

	public := true
	err := s.backend.Update(ctx, s.quizID, domain.QuizFlags{IsPublic: &public})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.Busy = false
	if err != nil {
		s.logger.Error("starting quiz", "err", err)
		return fmt.Errorf("start quiz: %w", err)
	}
	s.controls.Public = true
	return nil
}

// Stop finishes the quiz on the backend and then ends it on chain. Start stays
// disabled if any step fails.
func (s *Share) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.controls.CanStop() {
		s.mu.Unlock()
		return ErrStopUnavailable
	}
	s.controls.Stopping = true
	s.controls.Busy = true
	s.mu.Unlock()

	err := s.stop(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.Busy = false
	if err != nil {
		s.logger.Error("stopping quiz", "err", err)
		return err
	}
	s.controls.Stopping = false
	s.controls.StopUpdated = false
	s.controls.Closed = true
	return nil
}

func (s *Share) stop(ctx context.Context) error {
	public, finished := false, true
	if err := s.backend.Update(ctx, s.quizID, domain.QuizFlags{IsPublic: &public, IsFinished: &finished}); err != nil {
		return fmt.Errorf("finish quiz: %w", err)
	}
	s.mu.Lock()
	s.controls.Public = false
	s.controls.StopUpdated = true
	s.mu.Unlock()

	index, err := s.index.Resolve(ctx, s.quizID)
	if err != nil {
		return err
	}
	if _, err := s.contract.EndQuiz(ctx, s.wallet, big.NewInt(index)); err != nil {
		return fmt.Errorf("end quiz on chain: %w", err)
	}
	return nil
}

// EndQuizMessage is the notice shown for a failed stop.
func EndQuizMessage(err error) string {
	var perr *domain.ProviderError
	if errors.As(err, &perr) && perr.Code == domain.CodeServerError {
		return "Transaction failed: " + perr.RevertReason()
	}
	return "Failed to end the quiz"
}
