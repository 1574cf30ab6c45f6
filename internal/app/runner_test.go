package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-player/internal/domain"
)

func newTestRunner(t *testing.T, quiz domain.Quiz) *Runner {
	t.Helper()
	f := newControllerFixture(t)
	f.ctl.catalog.(*fakeCatalog).quizzes[quiz.ID] = quiz
	f.ctl.settings = Settings{TimeLimit: MinTimeLimit}
	f.ctl.presenter.SetSettings(f.ctl.settings)
	if err := f.ctl.profile.SetName(context.Background(), "Ada"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	return NewRunner(f.ctl, 5*time.Millisecond, 10*time.Millisecond, nil)
}

func waitFor(t *testing.T, r *Runner, want EventType) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-r.Events():
			if !ok {
				t.Fatalf("events closed before %s", want)
			}
			if ev.Type == want {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestRunnerTimesOutAndAdvances(t *testing.T) {
	quiz := domain.Quiz{
		ID:     "single",
		Config: domain.QuizConfig{Title: "Single"},
		Questions: []domain.Question{
			{Prompt: "1 + 1", Kind: domain.KindChoice, Options: []string{"1", "2"}, Correct: "2"},
		},
	}
	r := newTestRunner(t, quiz)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	if err := r.Send(ctx, Action{Type: ActionInit}); err != nil {
		t.Fatalf("send init: %v", err)
	}
	waitFor(t, r, EventCatalog)
	if err := r.Send(ctx, Action{Type: ActionStartQuiz, QuizID: "single"}); err != nil {
		t.Fatalf("send start: %v", err)
	}
	waitFor(t, r, EventQuestion)

	fb := waitFor(t, r, EventFeedback).Payload.(Feedback)
	if fb.Outcome != OutcomeTimeout {
		t.Fatalf("expected timeout, got %s", fb.Outcome)
	}
	res := waitFor(t, r, EventResults).Payload.(ResultsView)
	if res.Percentage != 0 || res.Breakdown[0].UserAnswer != domain.Unanswered {
		t.Fatalf("unexpected results %+v", res)
	}
}

func TestRunnerReportsRejectedActions(t *testing.T) {
	r := newTestRunner(t, arithmeticQuiz())
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)

	if err := r.Send(ctx, Action{Type: ActionAnswer}); err != nil {
		t.Fatalf("send: %v", err)
	}
	ev := waitFor(t, r, EventError)
	if _, ok := ev.Payload.(ErrorView); !ok {
		t.Fatalf("expected error view, got %T", ev.Payload)
	}

	cancel()
	for range r.Events() {
	}
	if err := r.Send(context.Background(), Action{Type: ActionInit}); !errors.Is(err, domain.ErrRunnerStopped) {
		t.Fatalf("expected ErrRunnerStopped, got %v", err)
	}
}
