package app

import (
	"errors"
	"math/rand"
	"testing"

	"quiz-player/internal/domain"
)

func optionIndex(t *testing.T, view QuestionView, value string) int {
	t.Helper()
	for i, o := range view.Options {
		if o == value {
			return i
		}
	}
	t.Fatalf("option %q not in %v", value, view.Options)
	return -1
}

func wrongIndex(t *testing.T, view QuestionView, correct string) int {
	t.Helper()
	for i, o := range view.Options {
		if o != correct {
			return i
		}
	}
	t.Fatalf("no wrong option in %v", view.Options)
	return -1
}

func TestPresenterCorrectAnswer(t *testing.T) {
	s, _ := startedSession(t, arithmeticQuiz())
	p := NewPresenter(s, Settings{TimeLimit: 20}, nil)

	view, ok := p.Present()
	if !ok {
		t.Fatalf("expected a question")
	}
	if view.Total != 3 || view.Index != 0 || view.TimeLimit != 20 || view.Kind != domain.KindChoice {
		t.Fatalf("unexpected view %+v", view)
	}
	q, _ := s.Current()
	fb, err := p.Submit(optionIndex(t, view, q.Correct))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fb.Outcome != OutcomeCorrect || fb.Score != 1 || fb.Reveal != "" {
		t.Fatalf("unexpected feedback %+v", fb)
	}
	if _, err := p.Submit(0); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	if remaining, fb := p.Tick(); fb != nil || remaining != 20 {
		t.Fatalf("countdown must stop once answered, remaining=%d fb=%v", remaining, fb)
	}
}

func TestPresenterIncorrectAnswerWithShowResponse(t *testing.T) {
	s, _ := startedSession(t, arithmeticQuiz())
	p := NewPresenter(s, Settings{ShowResponse: true}, nil)

	view, _ := p.Present()
	q, _ := s.Current()
	fb, err := p.Submit(wrongIndex(t, view, q.Correct))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fb.Outcome != OutcomeIncorrect || fb.Reveal != q.Correct || fb.Score != 0 {
		t.Fatalf("unexpected feedback %+v", fb)
	}
}

func TestPresenterTimeout(t *testing.T) {
	s, _ := startedSession(t, arithmeticQuiz())
	p := NewPresenter(s, Settings{TimeLimit: MinTimeLimit}, nil)
	p.Present()

	for want := MinTimeLimit - 1; want > 0; want-- {
		remaining, fb := p.Tick()
		if fb != nil || remaining != want {
			t.Fatalf("expected %d remaining without feedback, got %d %v", want, remaining, fb)
		}
	}
	remaining, fb := p.Tick()
	if fb == nil || remaining != 0 {
		t.Fatalf("expected timeout feedback")
	}
	if fb.Outcome != OutcomeTimeout || fb.Reveal != "" {
		t.Fatalf("timeout without free mode must not reveal: %+v", fb)
	}
	a := s.Answers()[0]
	if a.Answered || !a.TimedOut || a.Correct {
		t.Fatalf("unexpected recorded answer %+v", a)
	}
}

func TestPresenterFreeModeRevealsOnTimeout(t *testing.T) {
	s, _ := startedSession(t, arithmeticQuiz())
	p := NewPresenter(s, Settings{TimeLimit: MinTimeLimit, FreeMode: true}, nil)
	p.Present()
	q, _ := s.Current()

	var fb *Feedback
	for i := 0; i < MinTimeLimit; i++ {
		_, fb = p.Tick()
	}
	if fb == nil || fb.Outcome != OutcomeTimeout || fb.Reveal != q.Correct {
		t.Fatalf("expected reveal on timeout, got %+v", fb)
	}
}

func TestPresenterInformationalQuestion(t *testing.T) {
	quiz := domain.Quiz{
		ID:     "kindness",
		Config: domain.QuizConfig{Title: "Kindness", FreeMode: true},
		Questions: []domain.Question{
			{Prompt: "Take a breath", Kind: domain.KindInformational, Correct: "Good job", Explanation: "calm"},
		},
	}
	s, _ := startedSession(t, quiz)
	p := NewPresenter(s, Settings{}, nil)

	view, _ := p.Present()
	if view.Kind != domain.KindInformational || len(view.Options) != 0 {
		t.Fatalf("unexpected view %+v", view)
	}
	fb, err := p.Submit(99)
	if err != nil {
		t.Fatalf("informational acknowledge: %v", err)
	}
	if fb.Outcome != OutcomeInfo || fb.Score != 0 || fb.Reveal != "Good job" {
		t.Fatalf("unexpected feedback %+v", fb)
	}
	if _, ok := p.Next(); ok {
		t.Fatalf("single question quiz must complete")
	}
	if sum := Summarize(s); sum.Scorable != 0 || sum.Percentage != 0 {
		t.Fatalf("informational questions are not scorable: %+v", sum)
	}
}

func TestPresenterSpoilerObscuresImage(t *testing.T) {
	quiz := arithmeticQuiz()
	quiz.Config.SpoilerMode = true
	for i := range quiz.Questions {
		quiz.Questions[i].ImageURL = "img.png"
	}
	s, _ := startedSession(t, quiz)
	p := NewPresenter(s, Settings{}, nil)

	view, _ := p.Present()
	if !view.ImageObscured {
		t.Fatalf("spoiler mode must obscure the image")
	}
	fb, _ := p.Submit(0)
	if !fb.RevealImage {
		t.Fatalf("image must be revealed after answering")
	}
}

func TestPresenterRejectsInvalidOption(t *testing.T) {
	s, _ := startedSession(t, arithmeticQuiz())
	p := NewPresenter(s, Settings{}, nil)

	if _, err := p.Submit(0); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession before present, got %v", err)
	}
	p.Present()
	if _, err := p.Submit(3); !errors.Is(err, domain.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	if _, err := p.Submit(-1); !errors.Is(err, domain.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
	if p.Answered() {
		t.Fatalf("invalid option must leave the question open")
	}
}

func TestPresenterScoreIgnoresOptionOrder(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		quiz := arithmeticQuiz()
		s := NewSessionWithClock(newClock().Now, rand.New(rand.NewSource(seed)))
		s.Start(quiz, quiz.Questions)
		p := NewPresenter(s, Settings{}, nil)

		view, ok := p.Present()
		for ok {
			q, _ := s.Current()
			if _, err := p.Submit(optionIndex(t, view, q.Correct)); err != nil {
				t.Fatalf("seed %d: %v", seed, err)
			}
			view, ok = p.Next()
		}
		if s.Score() != 3 {
			t.Fatalf("seed %d: expected full score, got %d", seed, s.Score())
		}
	}
}

func TestSettingsClampTimeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultTimeLimit, -3: DefaultTimeLimit, 1: MinTimeLimit, 30: 30, 500: MaxTimeLimit}
	for in, want := range cases {
		if got := (Settings{TimeLimit: in}).normalized().TimeLimit; got != want {
			t.Fatalf("time limit %d: expected %d, got %d", in, want, got)
		}
	}
}
