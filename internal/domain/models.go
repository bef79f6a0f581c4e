package domain

import (
	"sort"
	"time"
)

// NoAnswer is recorded for a question whose timer ran out without a selection.
const NoAnswer = "no_answer"

// Question is a single multiple-choice question; Options maps an option label to its text.
type Question struct {
	ID      string            `json:"_id"`
	Text    string            `json:"question"`
	Options map[string]string `json:"options"`
}

// Labels returns the option labels in display order.
func (q Question) Labels() []string {
	labels := make([]string, 0, len(q.Options))
	for label := range q.Options {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// HasOption reports whether label is one of the question's options.
func (q Question) HasOption(label string) bool {
	_, ok := q.Options[label]
	return ok
}

// Quiz is the backend-owned quiz record as returned by the verify endpoint.
type Quiz struct {
	ID         string     `json:"_id"`
	Questions  []Question `json:"questions"`
	IsPublic   bool       `json:"isPublic"`
	IsFinished bool       `json:"isFinished"`
}

// Participant is one row of a quiz leaderboard. Score is nil until the participant submits.
type Participant struct {
	WalletAddress   string `json:"walletAddress"`
	ParticipantName string `json:"participantName"`
	Score           *int64 `json:"score"`
}

// Leaderboard is the polled participant view of a quiz.
type Leaderboard struct {
	QuizID       string        `json:"quizId"`
	Participants []Participant `json:"participants"`
	FetchedAt    time.Time     `json:"-"`
}

// Equal reports whether two snapshots list the same participants with the same scores.
func (l Leaderboard) Equal(other Leaderboard) bool {
	if l.QuizID != other.QuizID || len(l.Participants) != len(other.Participants) {
		return false
	}
	for i, p := range l.Participants {
		o := other.Participants[i]
		if p.WalletAddress != o.WalletAddress || p.ParticipantName != o.ParticipantName {
			return false
		}
		if (p.Score == nil) != (o.Score == nil) {
			return false
		}
		if p.Score != nil && *p.Score != *o.Score {
			return false
		}
	}
	return true
}

// CreationForm is the quiz creation input exactly as entered by the creator.
type CreationForm struct {
	CreatorName     string
	NumParticipants string
	QuestionCount   string
	RewardPerScore  string
	PDFName         string
	PDF             []byte
}

// QuizUpload is the multipart payload of a PDF quiz creation.
type QuizUpload struct {
	CreatorName     string
	CreatorWallet   string
	NumParticipants int64
	QuestionCount   int64
	RewardPerScore  string
	TotalCost       string
	PDFName         string
	PDF             []byte
}

// QuizFlags updates the public/finished flags of a quiz; nil fields are left alone.
type QuizFlags struct {
	IsPublic   *bool `json:"isPublic,omitempty"`
	IsFinished *bool `json:"isFinished,omitempty"`
}

// SubmitResult is the backend's scoring of a participant's answers.
type SubmitResult struct {
	QuizID string `json:"quizId"`
	Score  int64  `json:"score"`
}

// CreationStatus tracks how far a quiz creation got.
type CreationStatus string

const (
	CreationPending      CreationStatus = "pending"
	CreationEscrowed     CreationStatus = "escrowed"
	CreationEscrowFailed CreationStatus = "escrow_failed"
)

// CreationRecord is a ledger entry for one quiz creation attempt.
type CreationRecord struct {
	ID            string         `json:"id"`
	QuizID        string         `json:"quizId"`
	CreatorWallet string         `json:"creatorWallet"`
	TotalCostWei  string         `json:"totalCostWei"`
	TxHash        string         `json:"txHash,omitempty"`
	Status        CreationStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// ChainIndex is the contract's quiz-id list in on-chain order.
type ChainIndex []string

// Position returns the contract index of quizID: its first position plus one.
func (c ChainIndex) Position(quizID string) (int64, bool) {
	for i, qid := range c {
		if qid == quizID {
			return int64(i) + 1, true
		}
	}
	return 0, false
}
