package app_test

import (
	"context"
	"encoding/json"
	"testing"

	"vibequiz/internal/app"
	"vibequiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinLink(t *testing.T) {
	assert.Equal(t, "http://localhost:5173/quiz/abc", app.JoinLink("http://localhost:5173/", "abc"))
}

func TestShareStartThenStop(t *testing.T) {
	backend := &fakeBackend{}
	contract := &fakeContract{}
	share := app.NewShare("quiz-2", creator, backend, contract, &fakeIndex{ids: domain.ChainIndex{"quiz-1", "quiz-2"}}, nil)
	ctx := context.Background()

	require.True(t, share.Controls().CanStart())
	require.False(t, share.Controls().CanStop())
	require.ErrorIs(t, share.Stop(ctx), app.ErrStopUnavailable)

	require.NoError(t, share.Start(ctx))
	controls := share.Controls()
	assert.True(t, controls.Public)
	assert.False(t, controls.CanStart())
	assert.True(t, controls.CanStop())
	require.Len(t, backend.updates, 1)
	assert.True(t, *backend.updates[0].IsPublic)
	assert.Nil(t, backend.updates[0].IsFinished)

	require.NoError(t, share.Stop(ctx))
	controls = share.Controls()
	assert.True(t, controls.Closed)
	assert.False(t, controls.Public)
	assert.False(t, controls.CanStart())

	require.Len(t, backend.updates, 2)
	assert.False(t, *backend.updates[1].IsPublic)
	assert.True(t, *backend.updates[1].IsFinished)

	require.Len(t, contract.calls, 1)
	assert.Equal(t, "endQuiz", contract.calls[0].method)
	assert.EqualValues(t, 2, contract.calls[0].index)
	assert.Equal(t, creator, contract.calls[0].from)
}

func TestShareStartFailureKeepsStartEnabled(t *testing.T) {
	backend := &fakeBackend{updateErrs: []error{errBoom}}
	share := app.NewShare("quiz-1", creator, backend, &fakeContract{}, &fakeIndex{}, nil)

	require.Error(t, share.Start(context.Background()))
	assert.True(t, share.Controls().CanStart())
	assert.False(t, share.Controls().Public)
}

func TestShareStopBackendFailureKeepsStartDisabled(t *testing.T) {
	backend := &fakeBackend{updateErrs: []error{nil, errBoom}}
	contract := &fakeContract{}
	share := app.NewShare("quiz-1", creator, backend, contract, &fakeIndex{ids: domain.ChainIndex{"quiz-1"}}, nil)
	ctx := context.Background()

	require.NoError(t, share.Start(ctx))
	require.Error(t, share.Stop(ctx))

	controls := share.Controls()
	assert.True(t, controls.Stopping)
	assert.False(t, controls.CanStart())
	assert.False(t, controls.CanClose())
	assert.True(t, controls.CanStop())
	assert.Zero(t, contract.count())
}

func TestShareStopChainFailureAllowsClose(t *testing.T) {
	reverted := &domain.ProviderError{
		Code:    domain.CodeServerError,
		Message: "execution reverted",
		Data:    json.RawMessage(`{"message":"Quiz already ended"}`),
	}
	share := app.NewShare("quiz-1", creator, &fakeBackend{}, &fakeContract{err: reverted}, &fakeIndex{ids: domain.ChainIndex{"quiz-1"}}, nil)
	ctx := context.Background()

	require.NoError(t, share.Start(ctx))
	err := share.Stop(ctx)
	require.Error(t, err)
	assert.Equal(t, "Transaction failed: Quiz already ended", app.EndQuizMessage(err))

	controls := share.Controls()
	assert.True(t, controls.CanClose())
	assert.False(t, controls.CanStart())
	assert.False(t, controls.Closed)
}

func TestShareStopQuizMissingOnChain(t *testing.T) {
	contract := &fakeContract{}
	share := app.NewShare("quiz-1", creator, &fakeBackend{}, contract, &fakeIndex{}, nil)
	ctx := context.Background()

	require.NoError(t, share.Start(ctx))
	err := share.Stop(ctx)
	require.ErrorIs(t, err, domain.ErrQuizNotOnChain)
	assert.Equal(t, "Failed to end the quiz", app.EndQuizMessage(err))
	assert.Zero(t, contract.count())
}
