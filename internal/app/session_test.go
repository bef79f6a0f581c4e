package app_test

import (
	"testing"

	"vibequiz/internal/app"
	"vibequiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quizWith(n int) domain.Quiz {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			ID:      string(rune('a' + i)),
			Text:    "question",
			Options: map[string]string{"A": "one", "B": "two", "C": "three"},
		}
	}
	return domain.Quiz{ID: "quiz-1", Questions: questions, IsPublic: true}
}

func joinedSession(t *testing.T, quiz domain.Quiz) *app.TakeSession {
	t.Helper()
	s := app.NewTakeSession(quiz.ID)
	s.Loaded(quiz)
	require.Equal(t, app.PhaseAwaitingName, s.Phase())
	_, err := s.Joined()
	require.NoError(t, err)
	return s
}

func expire(s *app.TakeSession) bool {
	started := false
	for i := 0; i < app.QuestionSeconds; i++ {
		started = s.Tick()
	}
	return started
}

func TestLoadedPhases(t *testing.T) {
	s := app.NewTakeSession("q")
	s.Loaded(domain.Quiz{IsPublic: true, IsFinished: true})
	assert.Equal(t, app.PhaseEnded, s.Phase())

	s = app.NewTakeSession("q")
	s.Loaded(domain.Quiz{})
	assert.Equal(t, app.PhaseNotStarted, s.Phase())

	require.NoError(t, s.Refresh())
	assert.Equal(t, app.PhaseLoading, s.Phase())
}

func TestTimeoutsRecordNoAnswer(t *testing.T) {
	s := joinedSession(t, quizWith(5))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Select("B"))
		started, err := s.Next()
		require.NoError(t, err)
		require.False(t, started)
	}
	assert.False(t, expire(s))
	assert.True(t, expire(s))
	assert.Equal(t, app.PhaseSubmitting, s.Phase())

	answers := s.Answers()
	require.Len(t, answers, 5)
	noAnswers := 0
	for _, v := range answers {
		if v == domain.NoAnswer {
			noAnswers++
		}
	}
	assert.Equal(t, 2, noAnswers)
}

func TestSubmissionStartsOnce(t *testing.T) {
	s := joinedSession(t, quizWith(1))
	require.NoError(t, s.Select("A"))

	started, err := s.Next()
	require.NoError(t, err)
	assert.True(t, started)

	_, err = s.Next()
	assert.ErrorIs(t, err, app.ErrWrongPhase)
	assert.False(t, s.Tick())

	_, idx, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestNextRequiresAnswer(t *testing.T) {
	s := joinedSession(t, quizWith(2))
	_, err := s.Next()
	assert.ErrorIs(t, err, domain.ErrNoAnswer)
	assert.ErrorIs(t, s.Select("Z"), domain.ErrUnknownOption)

	require.NoError(t, s.Select("A"))
	require.NoError(t, s.Select("C"))
	answer, _ := s.Answer("a")
	assert.Equal(t, "C", answer)
}

func TestTickResetsCountdownPerQuestion(t *testing.T) {
	s := joinedSession(t, quizWith(2))
	assert.Equal(t, app.QuestionSeconds, s.Remaining())
	s.Tick()
	assert.Equal(t, app.QuestionSeconds-1, s.Remaining())

	require.NoError(t, s.Select("A"))
	_, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, app.QuestionSeconds, s.Remaining())
}

func TestSubmitFailurePausesOnLastQuestion(t *testing.T) {
	s := joinedSession(t, quizWith(2))
	expire(s)
	require.True(t, expire(s))

	s.SubmitFailed("An error occurred while submitting the quiz.")
	assert.Equal(t, app.PhaseInProgress, s.Phase())
	assert.True(t, s.Paused())
	_, idx, _ := s.Current()
	assert.Equal(t, 1, idx)

	remaining := s.Remaining()
	assert.False(t, s.Tick())
	assert.Equal(t, remaining, s.Remaining())

	started, err := s.Next()
	require.NoError(t, err)
	assert.True(t, started)
}

func TestEmptyQuizSubmitsOnJoin(t *testing.T) {
	s := app.NewTakeSession("q")
	s.Loaded(domain.Quiz{IsPublic: true})
	started, err := s.Joined()
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, app.PhaseSubmitting, s.Phase())
}
