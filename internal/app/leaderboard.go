package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vibequiz/internal/domain"
)

// LeaderboardSource fetches the participant view of a quiz.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error)
}

// LeaderboardWatcher polls a quiz leaderboard and fans changed snapshots out
// to subscribers.
type LeaderboardWatcher struct {
	source   LeaderboardSource
	quizID   string
	interval time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	last        *domain.Leaderboard
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardWatcher(source LeaderboardSource, quizID string, interval time.Duration, logger *slog.Logger) *LeaderboardWatcher {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardWatcher{
		source:      source,
		quizID:      quizID,
		interval:    interval,
		logger:      logger.With("component", "leaderboard", "quiz", quizID),
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Run polls immediately and then once per interval until ctx is done.
func (w *LeaderboardWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.Poll(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll fetches once and broadcasts if the participants changed.
func (w *LeaderboardWatcher) Poll(ctx context.Context) {
	board, err := w.source.Leaderboard(ctx, w.quizID)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("fetching participants", "err", err)
		}
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last != nil && w.last.Equal(board) {
		return
	}
	w.last = &board
	w.broadcastLocked(board)
}

// Subscribe returns a channel of changed snapshots, primed with the latest one.
// The caller must invoke the returned cancel function to avoid leaks.
func (w *LeaderboardWatcher) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	w.mu.Lock()
	w.subscribers[ch] = struct{}{}
	if w.last != nil {
		ch <- *w.last
	}
	w.mu.Unlock()

	cancel := func() {
		w.mu.Lock()
		if _, ok := w.subscribers[ch]; ok {
			delete(w.subscribers, ch)
			close(ch)
		}
		w.mu.Unlock()
	}
	return ch, cancel
}

func (w *LeaderboardWatcher) broadcastLocked(board domain.Leaderboard) {
	for ch := range w.subscribers {
		select {
		case ch <- board:
		default:
			// drop the oldest snapshot so a slow reader never blocks polling
			select {
			case <-ch:
			default:
			}
			ch <- board
		}
	}
}
