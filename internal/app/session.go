package app

import (
	"errors"
	"fmt"

	"vibequiz/internal/domain"
)

// QuestionSeconds is the countdown per question.
const QuestionSeconds = 30

// Phase is a step of the quiz-taking flow.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseNotStarted
	PhaseEnded
	PhaseAwaitingName
	PhaseInProgress
	PhaseSubmitting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseNotStarted:
		return "not_started"
	case PhaseEnded:
		return "ended"
	case PhaseAwaitingName:
		return "awaiting_name"
	case PhaseInProgress:
		return "in_progress"
	case PhaseSubmitting:
		return "submitting"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrWrongPhase is returned for an action the current phase does not accept.
var ErrWrongPhase = errors.New("action not available in this phase")

// TakeSession is the participant-side state of one quiz attempt. It is not
// safe for concurrent use; the owning view's event loop drives it.
type TakeSession struct {
	quizID    string
	quiz      domain.Quiz
	phase     Phase
	index     int
	answers   map[string]string
	remaining int
	paused    bool
	message   string
	score     int64
}

func NewTakeSession(quizID string) *TakeSession {
	return &TakeSession{
		quizID:  quizID,
		phase:   PhaseLoading,
		answers: make(map[string]string),
	}
}

func (s *TakeSession) QuizID() string { return s.quizID }
func (s *TakeSession) Phase() Phase { return s.phase }
func (s *TakeSession) Remaining() int { return s.remaining }
func (s *TakeSession) Paused() bool { return s.paused }
func (s *TakeSession) Message() string { return s.message }
func (s *TakeSession) Score() int64 { return s.score }
func (s *TakeSession) Quiz() domain.Quiz { return s.quiz }

// Current returns the visible question and its zero-based position.
func (s *TakeSession) Current() (domain.Question, int, bool) {
	if s.index < 0 || s.index >= len(s.quiz.Questions) {
		return domain.Question{}, s.index, false
	}
	return s.quiz.Questions[s.index], s.index, true
}

// Answer returns the recorded answer for a question.
func (s *TakeSession) Answer(questionID string) (string, bool) {
	answer, ok := s.answers[questionID]
	return answer, ok
}

// Answers returns a copy of all recorded answers.
func (s *TakeSession) Answers() map[string]string {
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Loaded applies a verified quiz record.
func (s *TakeSession) Loaded(quiz domain.Quiz) {
	s.quiz = quiz
	s.message = ""
	switch {
	case quiz.IsFinished:
		s.phase = PhaseEnded
	case !quiz.IsPublic:
		s.phase = PhaseNotStarted
	default:
		s.phase = PhaseAwaitingName
	}
}

// LoadFailed shows the not-started display with the given notice.
func (s *TakeSession) LoadFailed(message string) {
	s.phase = PhaseNotStarted
	s.message = message
}

// Refresh re-enters loading from a blocking display.
func (s *TakeSession) Refresh() error {
	if s.phase != PhaseNotStarted && s.phase != PhaseEnded {
		return ErrWrongPhase
	}
	s.phase = PhaseLoading
	s.message = ""
	return nil
}

// Joined starts the first question. It reports true when the quiz has no
// questions and submission should start straight away.
func (s *TakeSession) Joined() (bool, error) {
	if s.phase != PhaseAwaitingName {
		return false, ErrWrongPhase
	}
	s.index = 0
	s.remaining = QuestionSeconds
	s.paused = false
	if len(s.quiz.Questions) == 0 {
		s.phase = PhaseSubmitting
		return true, nil
	}
	s.phase = PhaseInProgress
	return false, nil
}

// Select records an option for the current question; it may change freely
// until the question is advanced.
func (s *TakeSession) Select(label string) error {
	if s.phase != PhaseInProgress {
		return ErrWrongPhase
	}
	question, _, ok := s.Current()
	if !ok {
		return ErrWrongPhase
	}
	if !question.HasOption(label) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownOption, label)
	}
	s.answers[question.ID] = label
	return nil
}

// Next advances on user request once an answer is recorded. It reports true
// when the advance started submission.
func (s *TakeSession) Next() (bool, error) {
	if s.phase != PhaseInProgress {
		return false, ErrWrongPhase
	}
	question, _, _ := s.Current()
	if _, ok := s.answers[question.ID]; !ok {
		return false, domain.ErrNoAnswer
	}
	return s.advance(), nil
}

// Tick counts down one second. On reaching zero the question is advanced,
// recording domain.NoAnswer when nothing was chosen. It reports true when the
// tick started submission.
func (s *TakeSession) Tick() bool {
	if s.phase != PhaseInProgress || s.paused {
		return false
	}
	s.remaining--
	if s.remaining > 0 {
		return false
	}
	return s.advance()
}

func (s *TakeSession) advance() bool {
	question, _, _ := s.Current()
	if _, ok := s.answers[question.ID]; !ok {
		s.answers[question.ID] = domain.NoAnswer
	}
	if s.index < len(s.quiz.Questions)-1 {
		s.index++
		s.remaining = QuestionSeconds
		return false
	}
	s.phase = PhaseSubmitting
	s.remaining = 0
	return true
}

// SubmitFailed returns to the last question with the countdown paused so the
// participant can retry by hand.
func (s *TakeSession) SubmitFailed(message string) {
	if s.phase != PhaseSubmitting {
		return
	}
	s.phase = PhaseInProgress
	s.paused = true
	s.message = message
}

// Finish ends the session with the backend score.
func (s *TakeSession) Finish(score int64, message string) {
	s.phase = PhaseDone
	s.score = score
	s.message = message
}
