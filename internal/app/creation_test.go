package app_test

import (
	"context"
	"errors"
	"testing"

	"vibequiz/internal/app"
	"vibequiz/internal/domain"
	"vibequiz/internal/infra/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const creator = "0x1111111111111111111111111111111111111111"

func TestCreateRequiresWallet(t *testing.T) {
	backend := &fakeBackend{createID: "quiz-1"}
	creatorSvc := app.NewCreator(backend, &fakeContract{}, &fakeIndex{}, memory.NewLedger(), nil)

	_, err := creatorSvc.Create(context.Background(), "", validForm())
	require.ErrorIs(t, err, domain.ErrWalletNotConnected)
	assert.Empty(t, backend.uploads)
}

func TestCreateValidationFailsBeforeNetwork(t *testing.T) {
	backend := &fakeBackend{createID: "quiz-1"}
	contract := &fakeContract{}
	creatorSvc := app.NewCreator(backend, contract, &fakeIndex{}, memory.NewLedger(), nil)

	form := validForm()
	form.QuestionCount = "40"
	_, err := creatorSvc.Create(context.Background(), creator, form)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, backend.uploads)
	assert.Zero(t, contract.count())
}

func TestCreateBackendFailureSendsNoTransaction(t *testing.T) {
	backend := &fakeBackend{createErr: &domain.APIError{StatusCode: 500, Message: "PDF could not be parsed"}}
	contract := &fakeContract{}
	ledger := memory.NewLedger()
	creatorSvc := app.NewCreator(backend, contract, &fakeIndex{}, ledger, nil)

	_, err := creatorSvc.Create(context.Background(), creator, validForm())
	require.Error(t, err)
	assert.Equal(t, "PDF could not be parsed", domain.ServerMessage(err, "fallback"))
	assert.Zero(t, contract.count())

	orphans, err := ledger.Orphans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestCreateEscrowsAndRefreshesIndex(t *testing.T) {
	backend := &fakeBackend{createID: "quiz-1"}
	contract := &fakeContract{}
	index := &fakeIndex{ids: domain.ChainIndex{"quiz-1"}}
	ledger := memory.NewLedger()
	creatorSvc := app.NewCreator(backend, contract, index, ledger, nil)

	created, err := creatorSvc.Create(context.Background(), creator, validForm())
	require.NoError(t, err)

	assert.Equal(t, "quiz-1", created.QuizID)
	assert.Equal(t, fakeHash, created.TxHash)
	require.Len(t, backend.uploads, 1)
	assert.Equal(t, creator, backend.uploads[0].CreatorWallet)
	assert.Equal(t, "110000000000000000000", backend.uploads[0].TotalCost)

	require.Len(t, contract.calls, 1)
	call := contract.calls[0]
	assert.Equal(t, "createQuiz", call.method)
	assert.Equal(t, "quiz-1", call.quizID)
	assert.Equal(t, "110000000000000000000", call.value.String())
	assert.Equal(t, 1, index.refreshes)

	record, err := ledger.Get(context.Background(), created.RecordID)
	require.NoError(t, err)
	assert.Equal(t, domain.CreationEscrowed, record.Status)
	assert.Equal(t, fakeHash.Hex(), record.TxHash)
}

func TestCreateEscrowFailureLeavesOrphan(t *testing.T) {
	rejected := &domain.ProviderError{Code: domain.CodeUserRejected, Message: "User rejected the request."}
	backend := &fakeBackend{createID: "quiz-9"}
	ledger := memory.NewLedger()
	index := &fakeIndex{}
	creatorSvc := app.NewCreator(backend, &fakeContract{err: rejected}, index, ledger, nil)

	_, err := creatorSvc.Create(context.Background(), creator, validForm())

	var orphan *app.OrphanError
	require.True(t, errors.As(err, &orphan))
	assert.Equal(t, "quiz-9", orphan.QuizID)
	assert.True(t, domain.IsProviderCode(err, domain.CodeUserRejected))
	assert.Zero(t, index.refreshes)

	orphans, err := creatorSvc.Orphans(context.Background())
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "quiz-9", orphans[0].QuizID)
	assert.Equal(t, domain.CreationEscrowFailed, orphans[0].Status)
	assert.Contains(t, orphans[0].Error, "User rejected")
}

func TestCreateIndexRefreshFailureIsNotFatal(t *testing.T) {
	backend := &fakeBackend{createID: "quiz-1"}
	index := &fakeIndex{refreshErr: errBoom}
	creatorSvc := app.NewCreator(backend, &fakeContract{}, index, memory.NewLedger(), nil)

	_, err := creatorSvc.Create(context.Background(), creator, validForm())
	require.NoError(t, err)
	assert.Equal(t, 1, index.refreshes)
}
