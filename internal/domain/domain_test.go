package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestServerMessageFallsBack(t *testing.T) {
	err := &APIError{StatusCode: http.StatusInternalServerError}
	if got := ServerMessage(err, "An error occurred"); got != "An error occurred" {
		t.Fatalf("message = %q", got)
	}
	if got := ServerMessage(errors.New("plain"), "fallback"); got != "fallback" {
		t.Fatalf("message = %q", got)
	}
	wrapped := fmt.Errorf("join: %w", &APIError{StatusCode: http.StatusNotFound, Message: "Quiz not found"})
	if got := ServerMessage(wrapped, "fallback"); got != "Quiz not found" || !IsNotFound(wrapped) {
		t.Fatalf("wrapped message = %q", got)
	}
}

func TestRevertReason(t *testing.T) {
	withData := &ProviderError{Code: CodeServerError, Message: "execution reverted", Data: json.RawMessage(`{"message":"Quiz is not active"}`)}
	if got := withData.RevertReason(); got != "Quiz is not active" {
		t.Fatalf("reason = %q", got)
	}
	bare := &ProviderError{Code: CodeServerError, Message: "execution reverted"}
	if got := bare.RevertReason(); got != "execution reverted" {
		t.Fatalf("reason = %q", got)
	}
	if !IsProviderCode(fmt.Errorf("send: %w", withData), CodeServerError) {
		t.Fatalf("expected wrapped provider code to match")
	}
}

func TestLeaderboardEqual(t *testing.T) {
	three, four := int64(3), int64(4)
	a := Leaderboard{QuizID: "q", Participants: []Participant{{WalletAddress: "0x1", ParticipantName: "Bob", Score: &three}}}
	b := Leaderboard{QuizID: "q", Participants: []Participant{{WalletAddress: "0x1", ParticipantName: "Bob", Score: &three}}}
	if !a.Equal(b) {
		t.Fatalf("expected equal boards")
	}
	b.Participants[0].Score = &four
	if a.Equal(b) {
		t.Fatalf("expected score change to differ")
	}
	b.Participants[0].Score = nil
	if a.Equal(b) {
		t.Fatalf("expected nil score to differ")
	}
}

func TestChainIndexPositionIsOneBasedFirstMatch(t *testing.T) {
	idx := ChainIndex{"a", "b", "a"}
	if pos, ok := idx.Position("a"); !ok || pos != 1 {
		t.Fatalf("a = %d %v", pos, ok)
	}
	if pos, ok := idx.Position("b"); !ok || pos != 2 {
		t.Fatalf("b = %d %v", pos, ok)
	}
	if _, ok := idx.Position("c"); ok {
		t.Fatalf("expected miss")
	}
}
