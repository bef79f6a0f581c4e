package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vibequiz/internal/app"
	"vibequiz/internal/domain"
)

type scriptedBoards struct {
	mu     sync.Mutex
	boards []domain.Leaderboard
	calls  int
}

func (s *scriptedBoards) Leaderboard(_ context.Context, quizID string) (domain.Leaderboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.boards) == 0 {
		return domain.Leaderboard{}, errors.New("backend down")
	}
	board := s.boards[0]
	if len(s.boards) > 1 {
		s.boards = s.boards[1:]
	}
	board.QuizID = quizID
	return board, nil
}

func score(v int64) *int64 { return &v }

func TestWatcherBroadcastsOnlyChanges(t *testing.T) {
	source := &scriptedBoards{boards: []domain.Leaderboard{
		{Participants: []domain.Participant{{WalletAddress: "0xb", ParticipantName: "Bob"}}},
		{Participants: []domain.Participant{{WalletAddress: "0xb", ParticipantName: "Bob"}}},
		{Participants: []domain.Participant{{WalletAddress: "0xb", ParticipantName: "Bob", Score: score(3)}}},
	}}
	watcher := app.NewLeaderboardWatcher(source, "quiz-1", time.Second, nil)
	ch, cancel := watcher.Subscribe()
	defer cancel()

	ctx := context.Background()
	watcher.Poll(ctx)
	watcher.Poll(ctx)
	watcher.Poll(ctx)

	first := <-ch
	if first.Participants[0].Score != nil {
		t.Fatalf("expected pending score first, got %+v", first.Participants[0])
	}
	second := <-ch
	if second.Participants[0].Score == nil || *second.Participants[0].Score != 3 {
		t.Fatalf("expected score 3, got %+v", second.Participants[0])
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected duplicate snapshot %+v", extra)
	default:
	}
}

func TestSubscribeReceivesLatestSnapshot(t *testing.T) {
	source := &scriptedBoards{boards: []domain.Leaderboard{
		{Participants: []domain.Participant{{WalletAddress: "0xa", ParticipantName: "Alice", Score: score(1)}}},
	}}
	watcher := app.NewLeaderboardWatcher(source, "quiz-1", time.Second, nil)
	watcher.Poll(context.Background())

	ch, cancel := watcher.Subscribe()
	defer cancel()
	select {
	case board := <-ch:
		if board.QuizID != "quiz-1" || len(board.Participants) != 1 {
			t.Fatalf("unexpected snapshot %+v", board)
		}
	default:
		t.Fatalf("expected primed snapshot")
	}
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	source := &scriptedBoards{}
	watcher := app.NewLeaderboardWatcher(source, "quiz-1", 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	time.Sleep(35 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("watcher did not stop")
	}

	source.mu.Lock()
	calls := source.calls
	source.mu.Unlock()
	if calls < 2 {
		t.Fatalf("expected repeated polling, got %d calls", calls)
	}
}

func TestCancelClosesChannel(t *testing.T) {
	watcher := app.NewLeaderboardWatcher(&scriptedBoards{}, "quiz-1", time.Second, nil)
	ch, cancel := watcher.Subscribe()
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
}
