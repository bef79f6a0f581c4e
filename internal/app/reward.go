package app

import (
	"math"
	"math/big"
	"net/http"
	"strings"

	"vibequiz/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	// MaxQuestions caps the question count of a generated quiz.
	MaxQuestions = 30
	// rewardDecimals is the fixed-point precision of the native currency.
	rewardDecimals = 18
	// surchargePercent is applied on top of the reward pool.
	surchargePercent = 110
)

// CreationPlan is a validated creation form with its reward math resolved.
type CreationPlan struct {
	CreatorName       string
	NumParticipants   int64
	QuestionCount     int64
	RewardPerScore    string
	RewardPerScoreWei *big.Int
	TotalCost         *big.Int
	PDFName           string
	PDF               []byte
}

// ValidateForm checks a creation form in the order the creator sees errors
// and computes the escrow amount. Nothing here touches the network.
func ValidateForm(form domain.CreationForm) (CreationPlan, error) {
	name := strings.TrimSpace(form.CreatorName)
	participantsRaw := strings.TrimSpace(form.NumParticipants)
	questionsRaw := strings.TrimSpace(form.QuestionCount)
	rewardRaw := strings.TrimSpace(form.RewardPerScore)

	if name == "" || participantsRaw == "" || questionsRaw == "" || rewardRaw == "" || len(form.PDF) == 0 {
		return CreationPlan{}, domain.Invalid("All fields are required")
	}

	participants, err := decimal.NewFromString(participantsRaw)
	if err != nil {
		return CreationPlan{}, domain.Invalid("Number of participants must be a number")
	}
	questions, err := decimal.NewFromString(questionsRaw)
	if err != nil {
		return CreationPlan{}, domain.Invalid("Question count must be a number")
	}
	reward, err := decimal.NewFromString(rewardRaw)
	if err != nil {
		return CreationPlan{}, domain.Invalid("Reward per score must be a number")
	}

	if questions.GreaterThan(decimal.NewFromInt(MaxQuestions)) {
		return CreationPlan{}, domain.Invalid("Question count cannot be more than 30")
	}
	if participants.IsNegative() || questions.IsNegative() || reward.IsNegative() {
		return CreationPlan{}, domain.Invalid("Numbers cannot be negative")
	}
	if !participants.IsInteger() || !questions.IsInteger() {
		return CreationPlan{}, domain.Invalid("Participants and question count must be whole numbers")
	}
	if participants.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return CreationPlan{}, domain.Invalid("Number of participants is too large")
	}
	if reward.Exponent() < -rewardDecimals && !reward.Equal(reward.Truncate(rewardDecimals)) {
		return CreationPlan{}, domain.Invalid("Reward per score supports at most 18 decimal places")
	}
	if http.DetectContentType(form.PDF) != "application/pdf" {
		return CreationPlan{}, domain.Invalid("Please select a valid PDF file")
	}

	rewardWei := ParseUnits(reward)
	numParticipants := participants.IntPart()
	questionCount := questions.IntPart()

	return CreationPlan{
		CreatorName:       name,
		NumParticipants:   numParticipants,
		QuestionCount:     questionCount,
		RewardPerScore:    rewardRaw,
		RewardPerScoreWei: rewardWei,
		TotalCost:         TotalCost(rewardWei, numParticipants, questionCount),
		PDFName:           form.PDFName,
		PDF:               form.PDF,
	}, nil
}

// ParseUnits converts a decimal amount to its 18-decimal integer form.
func ParseUnits(amount decimal.Decimal) *big.Int {
	return amount.Shift(rewardDecimals).BigInt()
}

// TotalCost is rewardPerScoreWei * participants * questions * 110 / 100,
// truncated to whole wei.
func TotalCost(rewardPerScoreWei *big.Int, participants, questions int64) *big.Int {
	total := new(big.Int).Set(rewardPerScoreWei)
	total.Mul(total, big.NewInt(participants))
	total.Mul(total, big.NewInt(questions))
	total.Mul(total, big.NewInt(surchargePercent))
	return total.Quo(total, big.NewInt(100))
}
