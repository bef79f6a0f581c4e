package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"vibequiz/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// CreationBackend is the backend surface used while creating and hosting a quiz.
type CreationBackend interface {
	CreateFromPDF(ctx context.Context, upload domain.QuizUpload) (string, error)
	Update(ctx context.Context, quizID string, flags domain.QuizFlags) error
}

// EscrowContract holds reward pools on chain.
type EscrowContract interface {
	CreateQuiz(ctx context.Context, from, quizID string, questionCount int64, rewardPerScoreWei, value *big.Int) (common.Hash, error)
	EndQuiz(ctx context.Context, from string, index *big.Int) (common.Hash, error)
}

// QuizIndex resolves backend quiz ids to contract indices.
type QuizIndex interface {
	Resolve(ctx context.Context, quizID string) (int64, error)
	Refresh(ctx context.Context) (domain.ChainIndex, error)
}

// Ledger records creation attempts.
type Ledger interface {
	Save(ctx context.Context, record domain.CreationRecord) error
	Get(ctx context.Context, id string) (domain.CreationRecord, error)
	Orphans(ctx context.Context) ([]domain.CreationRecord, error)
}

// OrphanError reports a backend quiz whose escrow transaction failed. The
// backend record is left in place.
type OrphanError struct {
	QuizID string
	Err    error
}

func (e *OrphanError) Error() string {
	return fmt.Sprintf("quiz %s was created but escrow failed: %v", e.QuizID, e.Err)
}

func (e *OrphanError) Unwrap() error {
	return e.Err
}

// Created is the outcome of a successful creation.
type Created struct {
	QuizID    string
	TotalCost *big.Int
	TxHash    common.Hash
	RecordID  string
}

// Creator runs the create-from-PDF flow: backend record first, escrow second.
type Creator struct {
	backend  CreationBackend
	contract EscrowContract
	index    QuizIndex
	ledger   Ledger
	logger   *slog.Logger
	clock    func() time.Time
	newID    func() string
}

func NewCreator(backend CreationBackend, contract EscrowContract, index QuizIndex, ledger Ledger, logger *slog.Logger) *Creator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Creator{
		backend:  backend,
		contract: contract,
		index:    index,
		ledger:   ledger,
		logger:   logger.With("component", "creator"),
		clock:    time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Create validates the form, uploads it and escrows the reward pool.
func (c *Creator) Create(ctx context.Context, wallet string, form domain.CreationForm) (Created, error) {
	if wallet == "" {
		return Created{}, domain.ErrWalletNotConnected
	}
	plan, err := ValidateForm(form)
	if err != nil {
		return Created{}, err
	}

	quizID, err := c.backend.CreateFromPDF(ctx, domain.QuizUpload{
		CreatorName:     plan.CreatorName,
		CreatorWallet:   wallet,
		NumParticipants: plan.NumParticipants,
		QuestionCount:   plan.QuestionCount,
		RewardPerScore:  plan.RewardPerScore,
		TotalCost:       plan.TotalCost.String(),
		PDFName:         plan.PDFName,
		PDF:             plan.PDF,
	})
	if err != nil {
		return Created{}, fmt.Errorf("create quiz: %w", err)
	}

	now := c.clock().UTC()
	record := domain.CreationRecord{
		ID:            c.newID(),
		QuizID:        quizID,
		CreatorWallet: wallet,
		TotalCostWei:  plan.TotalCost.String(),
		Status:        domain.CreationPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	c.record(ctx, record)

	hash, err := c.contract.CreateQuiz(ctx, wallet, quizID, plan.QuestionCount, plan.RewardPerScoreWei, plan.TotalCost)
	if err != nil {
		record.Status = domain.CreationEscrowFailed
		record.TxHash = txHex(hash)
		record.Error = err.Error()
		record.UpdatedAt = c.clock().UTC()
		c.record(ctx, record)
		return Created{}, &OrphanError{QuizID: quizID, Err: err}
	}

	record.Status = domain.CreationEscrowed
	record.TxHash = hash.Hex()
	record.UpdatedAt = c.clock().UTC()
	c.record(ctx, record)

	if _, err := c.index.Refresh(ctx); err != nil {
		c.logger.Warn("refreshing quiz index after creation", "quiz", quizID, "err", err)
	}

	return Created{QuizID: quizID, TotalCost: plan.TotalCost, TxHash: hash, RecordID: record.ID}, nil
}

// Orphans lists creations whose escrow never confirmed.
func (c *Creator) Orphans(ctx context.Context) ([]domain.CreationRecord, error) {
	return c.ledger.Orphans(ctx)
}

func (c *Creator) record(ctx context.Context, record domain.CreationRecord) {
	if err := c.ledger.Save(ctx, record); err != nil {
		c.logger.Error("writing creation ledger", "quiz", record.QuizID, "status", record.Status, "err", err)
	}
}

func txHex(hash common.Hash) string {
	if hash == (common.Hash{}) {
		return ""
	}
	return hash.Hex()
}
