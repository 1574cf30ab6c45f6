package app

import (
	"math/rand"
	"time"

	"quiz-player/internal/domain"
)

// State of a quiz session.
type State int

const (
	StateIdle State = iota
	StateInProgress
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	default:
		return "idle"
	}
}

// Answer is what was recorded for one question.
type Answer struct {
	Value    string        `json:"value,omitempty"`
	Answered bool          `json:"answered"`
	TimedOut bool          `json:"timedOut,omitempty"`
	Correct  bool          `json:"correct"`
	Duration time.Duration `json:"duration"`
}

// Session holds one playthrough of a quiz. It is owned by a single controller and
// is not safe for concurrent use.
type Session struct {
	now func() time.Time
	rnd *rand.Rand

	quiz          *domain.Quiz
	questions     []domain.Question
	index         int
	score         int
	answers       []Answer
	recorded      []bool
	questionStart time.Time
	elapsed       time.Duration
	stopTimer     func()
}

func NewSession() *Session {
	return NewSessionWithClock(time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSessionWithClock allows deterministic timing and shuffling in tests.
func NewSessionWithClock(now func() time.Time, rnd *rand.Rand) *Session {
	return &Session{now: now, rnd: rnd}
}

// Start begins a new playthrough. Questions are shuffled once, and so are the
// options of every choice question.
func (s *Session) Start(quiz domain.Quiz, questions []domain.Question) {
	s.Reset()
	s.quiz = &quiz
	s.questions = ShuffleQuestions(s.rnd, questions)
	s.answers = make([]Answer, len(s.questions))
	s.recorded = make([]bool, len(s.questions))
}

func (s *Session) State() State {
	switch {
	case s.quiz == nil:
		return StateIdle
	case s.index >= len(s.questions):
		return StateComplete
	default:
		return StateInProgress
	}
}

// Quiz returns the active quiz.
func (s *Session) Quiz() (domain.Quiz, bool) {
	if s.quiz == nil {
		return domain.Quiz{}, false
	}
	return *s.quiz, true
}

func (s *Session) Index() int { return s.index }

func (s *Session) Len() int { return len(s.questions) }

func (s *Session) Score() int { return s.score }

func (s *Session) Elapsed() time.Duration { return s.elapsed }

// Questions returns the questions in play order.
func (s *Session) Questions() []domain.Question {
	out := make([]domain.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Answers returns the recorded answers, indexed like Questions.
func (s *Session) Answers() []Answer {
	out := make([]Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

// Current returns the question at the current index.
func (s *Session) Current() (domain.Question, bool) {
	if s.State() != StateInProgress {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// Answered reports whether the question at index has a recorded answer.
func (s *Session) Answered(index int) bool {
	return index >= 0 && index < len(s.recorded) && s.recorded[index]
}

// BeginQuestion starts the clock for the current question.
func (s *Session) BeginQuestion() {
	s.questionStart = s.now()
}

// RecordAnswer stores the answer for the question at index and stops its clock.
// A question is recorded at most once; later calls return false. The score only
// grows for answers that match the correct content of a scorable question.
func (s *Session) RecordAnswer(index int, answer Answer) bool {
	if s.quiz == nil || index < 0 || index >= len(s.questions) || s.recorded[index] {
		return false
	}
	q := s.questions[index]
	answer.Correct = answer.Answered && q.IsCorrect(answer.Value)

	if !s.questionStart.IsZero() {
		answer.Duration = s.now().Sub(s.questionStart)
		s.elapsed += answer.Duration
		s.questionStart = time.Time{}
	}
	if answer.Correct {
		s.score++
	}
	s.answers[index] = answer
	s.recorded[index] = true
	return true
}

// Advance moves to the next question. Once complete, it is a no-op.
func (s *Session) Advance() {
	if s.State() != StateInProgress {
		return
	}
	s.index++
	s.questionStart = time.Time{}
}

// AttachTimer registers the countdown of the current question, stopping any
// previously attached one.
func (s *Session) AttachTimer(stop func()) {
	s.StopTimer()
	s.stopTimer = stop
}

// StopTimer cancels the attached countdown, if any.
func (s *Session) StopTimer() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

// Reset returns to Idle, clearing all session state and the pending timer.
func (s *Session) Reset() {
	s.StopTimer()
	s.quiz = nil
	s.questions = nil
	s.index = 0
	s.score = 0
	s.answers = nil
	s.recorded = nil
	s.questionStart = time.Time{}
	s.elapsed = 0
}
