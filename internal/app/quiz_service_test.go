package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"go.uber.org/zap"

	"quiz-player/internal/app"
	"quiz-player/internal/app/mock"
	"quiz-player/internal/catalog"
	"quiz-player/internal/domain"
	"quiz-player/internal/infra/memory"
)

func newTestService(t *testing.T, store app.Store) *app.QuizService {
	t.Helper()
	log := zap.NewNop()
	src, err := memory.NewSampleSource()
	if err != nil {
		t.Fatalf("sample source: %v", err)
	}
	quizRepo := memory.NewQuizRepository(catalog.NewSourceLoader(src, log), time.Minute, log)
	loader := catalog.NewLoader(src, quizRepo, catalog.Options{}, log)
	return app.NewQuizService(loader, quizRepo, store, app.ServiceOptions{}, log)
}

func TestServiceCatalog(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, memory.NewStore())

	all, err := service.Catalog(ctx, catalog.AllCategories)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(all.Quizzes) != 3 {
		t.Fatalf("expected 3 sample quizzes, got %d", len(all.Quizzes))
	}
	coaching, err := service.Catalog(ctx, "Coaching")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(coaching.Quizzes) != 1 || coaching.Quizzes[0].ID != "bienveillance" {
		t.Fatalf("unexpected filtered catalog %+v", coaching.Quizzes)
	}
	trophies, err := service.Trophies(ctx)
	if err != nil || len(trophies) != 3 {
		t.Fatalf("expected 3 trophies, got %d (%v)", len(trophies), err)
	}
}

func TestServiceControllersShareRewards(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, memory.NewStore())

	first := service.NewController()
	second := service.NewController()
	if first.Session() == second.Session() {
		t.Fatalf("controllers must not share a session")
	}
	if _, err := first.Dispatch(ctx, app.Action{Type: app.ActionSetName, Name: "Ada"}); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if _, err := service.Ledger().AddPoints(ctx, 100, "JavaScript"); err != nil {
		t.Fatalf("add points: %v", err)
	}

	events, err := second.Dispatch(ctx, app.Action{Type: app.ActionInit})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if len(events) != 2 || events[0].Payload.(app.ScreenView).Player != "Ada" {
		t.Fatalf("expected selection for Ada, got %+v", events)
	}
	if points := events[1].Payload.(app.SelectionView).Points; points != 2 {
		t.Fatalf("expected shared ledger with 2 points, got %d", points)
	}
}

func TestServiceSurvivesStorageFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	broken := errors.New("storage unavailable")
	store := mock.NewMockStore(ctrl)
	store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, broken).AnyTimes()
	store.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(broken).AnyTimes()

	service := newTestService(t, store)
	if name := service.Profile().Name(ctx); name != "" {
		t.Fatalf("expected empty name, got %q", name)
	}
	if points := service.Ledger().TotalPoints(ctx); points != 0 {
		t.Fatalf("expected 0 points, got %d", points)
	}

	ctl := service.NewController()
	events, err := ctl.Dispatch(ctx, app.Action{Type: app.ActionInit})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if events[0].Payload.(app.ScreenView).Screen != app.ScreenName {
		t.Fatalf("expected name screen, got %+v", events[0].Payload)
	}
	if _, err := ctl.Dispatch(ctx, app.Action{Type: app.ActionSetName, Name: "Ada"}); !errors.Is(err, broken) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestServiceFinishReportsUnsavedResults(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	broken := errors.New("storage unavailable")
	store := mock.NewMockStore(ctrl)
	store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, domain.ErrKeyNotFound).AnyTimes()
	store.EXPECT().Set(gomock.Any(), app.KeyRewards, gomock.Any()).Return(broken).Times(1)
	store.EXPECT().Set(gomock.Any(), app.KeyPlayerResults, gomock.Any()).Return(broken).Times(1)

	quiz := domain.Quiz{
		ID: "one",
		Questions: []domain.Question{
			{Prompt: "1 + 1", Kind: domain.KindChoice, Options: []string{"2"}, Correct: "2"},
		},
	}
	session := app.NewSession()
	session.Start(quiz, quiz.Questions)
	session.RecordAnswer(0, app.Answer{Value: "2", Answered: true})
	session.Advance()

	results := app.NewResults(app.NewProfile(store, nil), app.NewLedger(store, nil), nil, nil)
	view, err := results.Finish(ctx, session)
	if !errors.Is(err, broken) {
		t.Fatalf("expected joined storage error, got %v", err)
	}
	if view.Percentage != 100 || view.Award.PointsEarned != 2 {
		t.Fatalf("view must still be computed, got %+v", view)
	}
}

// flakyStore fails the first read and then serves from memory.
func flakyStore(t *testing.T, ctrl *gomock.Controller, backing *memory.Store, broken error) *mock.MockStore {
	t.Helper()
	store := mock.NewMockStore(ctrl)
	first := store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, broken).Times(1)
	store.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(backing.Get).After(first).AnyTimes()
	store.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(backing.Set).AnyTimes()
	return store
}

func TestLedgerReadFailureKeepsStoredRewards(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	backing := memory.NewStore()
	seed := app.NewLedger(backing, nil)
	if _, err := seed.AddPoints(ctx, 100, "a"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := seed.AddPoints(ctx, 100, "b"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	broken := errors.New("connection reset")
	ledger := app.NewLedger(flakyStore(t, ctrl, backing, broken), nil)
	if _, err := ledger.AddPoints(ctx, 90, "c"); !errors.Is(err, broken) {
		t.Fatalf("expected read failure, got %v", err)
	}
	if total := seed.TotalPoints(ctx); total != 4 {
		t.Fatalf("stored total must be untouched, got %d", total)
	}

	award, err := ledger.AddPoints(ctx, 90, "c")
	if err != nil {
		t.Fatalf("add points: %v", err)
	}
	if award.TotalPoints != 5 || len(seed.History(ctx)) != 3 {
		t.Fatalf("expected total 5 over 3 awards, got %+v history=%d", award, len(seed.History(ctx)))
	}
}

func TestLedgerReadFailureBlocksRedeemAndUse(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	broken := errors.New("connection reset")
	store := mock.NewMockStore(ctrl)
	store.EXPECT().Get(gomock.Any(), app.KeyRewards).Return(nil, broken).Times(2)

	ledger := app.NewLedger(store, nil)
	if _, err := ledger.Redeem(ctx, "gold-1"); !errors.Is(err, broken) {
		t.Fatalf("expected read failure on redeem, got %v", err)
	}
	if _, err := ledger.UseCode(ctx, "ABCD1234"); !errors.Is(err, broken) {
		t.Fatalf("expected read failure on use, got %v", err)
	}
}

func TestProfileReadFailureKeepsStoredHistory(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	backing := memory.NewStore()
	seed := app.NewProfile(backing, nil)
	for _, id := range []string{"a", "b"} {
		if _, err := seed.SaveResult(ctx, domain.ResultRecord{QuizID: id, Percentage: 50}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	broken := errors.New("connection reset")
	profile := app.NewProfile(flakyStore(t, ctrl, backing, broken), nil)
	if _, err := profile.SaveResult(ctx, domain.ResultRecord{QuizID: "c"}); !errors.Is(err, broken) {
		t.Fatalf("expected read failure, got %v", err)
	}
	if got := len(seed.Results(ctx)); got != 2 {
		t.Fatalf("stored history must be untouched, got %d", got)
	}

	if _, err := profile.SaveResult(ctx, domain.ResultRecord{QuizID: "c"}); err != nil {
		t.Fatalf("save result: %v", err)
	}
	if got := len(seed.Results(ctx)); got != 3 {
		t.Fatalf("expected 3 results, got %d", got)
	}
}
