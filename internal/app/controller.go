package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"quiz-player/internal/catalog"
	"quiz-player/internal/domain"
)

// Screen is one of the mutually exclusive views.
type Screen string

const (
	ScreenName      Screen = "name"
	ScreenSelection Screen = "selection"
	ScreenQuiz      Screen = "quiz"
	ScreenResults   Screen = "results"
	ScreenHistory   Screen = "history"
	ScreenTrophies  Screen = "trophies"
)

// ActionType names an input to the controller.
type ActionType string

const (
	ActionInit         ActionType = "init"
	ActionSetName      ActionType = "setName"
	ActionFilter       ActionType = "filter"
	ActionSettings     ActionType = "settings"
	ActionStartQuiz    ActionType = "startQuiz"
	ActionAnswer       ActionType = "answer"
	ActionTick         ActionType = "tick"
	ActionContinue     ActionType = "continue"
	ActionRestart      ActionType = "restart"
	ActionHome         ActionType = "home"
	ActionShowHistory  ActionType = "showHistory"
	ActionShowTrophies ActionType = "showTrophies"
	ActionBuyCode      ActionType = "buyCode"
	ActionUseCode      ActionType = "useCode"
	ActionResetPlayer  ActionType = "resetPlayer"
)

// Action is a user or timer input. Only the fields relevant to Type are read.
type Action struct {
	Type     ActionType `json:"type"`
	Name     string     `json:"name,omitempty"`
	Category string     `json:"category,omitempty"`
	Settings *Settings  `json:"settings,omitempty"`
	QuizID   string     `json:"quizId,omitempty"`
	Option   int        `json:"option,omitempty"`
	Code     string     `json:"code,omitempty"`
}

// EventType names an output of the controller.
type EventType string

const (
	EventScreen   EventType = "screen"
	EventCatalog  EventType = "catalog"
	EventSettings EventType = "settings"
	EventQuestion EventType = "question"
	EventTick     EventType = "tick"
	EventFeedback EventType = "feedback"
	EventResults  EventType = "results"
	EventHistory  EventType = "history"
	EventTrophies EventType = "trophies"
	EventCode     EventType = "code"
	EventNotice   EventType = "notice"
	EventError    EventType = "error"
)

// Event is rendered by a transport. Payload is one of the view types below.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type ScreenView struct {
	Screen Screen `json:"screen"`
	Player string `json:"player,omitempty"`
}

type SelectionView struct {
	catalog.Catalog
	Category string   `json:"category"`
	Settings Settings `json:"settings"`
	Points   int      `json:"points"`
}

type TickView struct {
	Remaining int `json:"remaining"`
}

type HistoryView struct {
	Results []domain.ResultRecord `json:"results"`
	Stats   domain.PlayerStats    `json:"stats"`
}

type TrophyView struct {
	domain.Trophy
	Unlocked bool `json:"unlocked"`
}

type TrophiesView struct {
	Trophies     []TrophyView         `json:"trophies"`
	TotalPoints  int                  `json:"totalPoints"`
	CanBuy       bool                 `json:"canBuy"`
	PendingCodes []string             `json:"pendingCodes"`
	History      []domain.PointsAward `json:"history"`
}

type CodeView struct {
	Code     string `json:"code"`
	TrophyID string `json:"trophyId"`
	Trophy   string `json:"trophy"`
}

type NoticeView struct {
	Message string `json:"message"`
}

type ErrorView struct {
	Message string `json:"message"`
}

// CatalogLoader lists selectable quizzes and the trophy catalog.
type CatalogLoader interface {
	Load(ctx context.Context, category string) (catalog.Catalog, error)
	Trophies(ctx context.Context) ([]domain.Trophy, error)
}

// ControllerOptions carries the player defaults.
type ControllerOptions struct {
	Settings Settings
	Dwell    time.Duration
}

// Controller is the screen state machine for one player connection. It is driven
// by a single goroutine (see Runner) and is not safe for concurrent use.
type Controller struct {
	catalog CatalogLoader
	quizzes QuizRepository
	profile *Profile
	ledger  *Ledger
	results *Results
	rnd     *rand.Rand
	opts    ControllerOptions
	log     *zap.Logger

	screen    Screen
	category  string
	settings  Settings
	session   *Session
	presenter *Presenter
	last      *domain.Quiz
}

func NewController(cat CatalogLoader, quizzes QuizRepository, profile *Profile, ledger *Ledger, results *Results, session *Session, rnd *rand.Rand, opts ControllerOptions, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	settings := opts.Settings.normalized()
	return &Controller{
		catalog:   cat,
		quizzes:   quizzes,
		profile:   profile,
		ledger:    ledger,
		results:   results,
		rnd:       rnd,
		opts:      opts,
		log:       log,
		screen:    ScreenName,
		category:  catalog.AllCategories,
		settings:  settings,
		session:   session,
		presenter: NewPresenter(session, settings, log),
	}
}

func (c *Controller) Screen() Screen { return c.screen }

func (c *Controller) Session() *Session { return c.session }

// Dispatch applies one action and returns the events to render, in order.
func (c *Controller) Dispatch(ctx context.Context, a Action) ([]Event, error) {
	if !c.allowed(a.Type) {
		return nil, fmt.Errorf("%s on %s: %w", a.Type, c.screen, domain.ErrInvalidTransition)
	}
	switch a.Type {
	case ActionInit:
		if c.profile.Name(ctx) == "" {
			return c.show(ctx, ScreenName)
		}
		return c.show(ctx, ScreenSelection)
	case ActionSetName:
		if err := c.profile.SetName(ctx, a.Name); err != nil {
			return nil, err
		}
		return c.show(ctx, ScreenSelection)
	case ActionFilter:
		c.category = a.Category
		if c.category == "" {
			c.category = catalog.AllCategories
		}
		ev, err := c.selectionEvent(ctx)
		if err != nil {
			return nil, err
		}
		return []Event{ev}, nil
	case ActionSettings:
		if a.Settings != nil {
			c.settings = a.Settings.normalized()
			c.presenter.SetSettings(c.settings)
		}
		return []Event{{Type: EventSettings, Payload: c.settings}}, nil
	case ActionStartQuiz:
		quiz, err := c.quizzes.GetQuiz(ctx, a.QuizID)
		if err != nil {
			return nil, fmt.Errorf("start quiz %s: %w", a.QuizID, err)
		}
		return c.start(ctx, quiz)
	case ActionRestart:
		if c.last == nil {
			return nil, domain.ErrNoActiveSession
		}
		return c.start(ctx, *c.last)
	case ActionAnswer:
		fb, err := c.presenter.Submit(a.Option)
		if err != nil {
			return nil, err
		}
		return []Event{c.feedbackEvent(fb)}, nil
	case ActionTick:
		if c.presenter.Answered() {
			return nil, nil
		}
		remaining, fb := c.presenter.Tick()
		events := []Event{{Type: EventTick, Payload: TickView{Remaining: remaining}}}
		if fb != nil {
			events = append(events, c.feedbackEvent(*fb))
		}
		return events, nil
	case ActionContinue:
		if !c.presenter.Answered() {
			return nil, nil
		}
		if view, ok := c.presenter.Next(); ok {
			return []Event{{Type: EventQuestion, Payload: view}}, nil
		}
		return c.finish(ctx)
	case ActionHome:
		return c.show(ctx, ScreenSelection)
	case ActionShowHistory:
		return c.show(ctx, ScreenHistory)
	case ActionShowTrophies:
		return c.show(ctx, ScreenTrophies)
	case ActionBuyCode:
		return c.buyCode(ctx)
	case ActionUseCode:
		return c.useCode(ctx, a.Code)
	case ActionResetPlayer:
		c.session.Reset()
		c.last = nil
		if err := c.profile.Reset(ctx); err != nil {
			return nil, err
		}
		return c.show(ctx, ScreenName)
	}
	return nil, fmt.Errorf("unknown action %q: %w", a.Type, domain.ErrInvalidTransition)
}

func (c *Controller) allowed(t ActionType) bool {
	switch t {
	case ActionInit:
		return true
	case ActionSetName:
		return c.screen == ScreenName
	case ActionFilter, ActionSettings, ActionStartQuiz:
		return c.screen == ScreenSelection
	case ActionAnswer, ActionTick, ActionContinue:
		return c.screen == ScreenQuiz
	case ActionRestart:
		return c.screen == ScreenResults
	case ActionHome:
		return c.screen != ScreenName
	case ActionShowHistory:
		return c.screen == ScreenSelection || c.screen == ScreenResults || c.screen == ScreenTrophies
	case ActionShowTrophies:
		return c.screen == ScreenSelection || c.screen == ScreenResults || c.screen == ScreenHistory
	case ActionBuyCode, ActionUseCode:
		return c.screen == ScreenTrophies
	case ActionResetPlayer:
		return c.screen == ScreenSelection || c.screen == ScreenHistory
	}
	return false
}

func (c *Controller) start(ctx context.Context, quiz domain.Quiz) ([]Event, error) {
	c.last = &quiz
	c.session.Start(quiz, quiz.Questions)
	c.presenter.SetSettings(c.settings)

	c.log.Info("quiz started", zap.String("quiz", quiz.ID), zap.Int("questions", len(quiz.Questions)))
	events, err := c.show(ctx, ScreenQuiz)
	if err != nil {
		return nil, err
	}
	view, ok := c.presenter.Present()
	if !ok {
		return c.finish(ctx)
	}
	return append(events, Event{Type: EventQuestion, Payload: view}), nil
}

func (c *Controller) finish(ctx context.Context) ([]Event, error) {
	view, err := c.results.Finish(ctx, c.session)
	if err != nil {
		c.log.Warn("results partially saved", zap.Error(err))
	}
	c.session.StopTimer()
	c.screen = ScreenResults
	return []Event{
		{Type: EventScreen, Payload: c.screenView(ctx)},
		{Type: EventResults, Payload: view},
	}, nil
}

// show switches screen and appends the data that screen renders. Leaving the
// quiz screen discards the running session.
func (c *Controller) show(ctx context.Context, screen Screen) ([]Event, error) {
	if c.screen == ScreenQuiz && screen != ScreenQuiz {
		c.session.Reset()
	}
	c.screen = screen
	events := []Event{{Type: EventScreen, Payload: c.screenView(ctx)}}

	switch screen {
	case ScreenSelection:
		ev, err := c.selectionEvent(ctx)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	case ScreenHistory:
		events = append(events, Event{Type: EventHistory, Payload: HistoryView{
			Results: c.profile.Results(ctx),
			Stats:   c.profile.Stats(ctx),
		}})
	case ScreenTrophies:
		view, err := c.trophiesView(ctx)
		if err != nil {
			return nil, err
		}
		events = append(events, Event{Type: EventTrophies, Payload: view})
	}
	return events, nil
}

func (c *Controller) screenView(ctx context.Context) ScreenView {
	return ScreenView{Screen: c.screen, Player: c.profile.Name(ctx)}
}

func (c *Controller) selectionEvent(ctx context.Context) (Event, error) {
	cat, err := c.catalog.Load(ctx, c.category)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: EventCatalog, Payload: SelectionView{
		Catalog:  cat,
		Category: c.category,
		Settings: c.settings,
		Points:   c.ledger.TotalPoints(ctx),
	}}, nil
}

func (c *Controller) feedbackEvent(fb Feedback) Event {
	fb.DwellMillis = c.opts.Dwell.Milliseconds()
	return Event{Type: EventFeedback, Payload: fb}
}

func (c *Controller) trophiesView(ctx context.Context) (TrophiesView, error) {
	trophies, err := c.catalog.Trophies(ctx)
	if err != nil {
		return TrophiesView{}, err
	}
	rewards := c.ledger.Snapshot(ctx)
	view := TrophiesView{
		Trophies:     make([]TrophyView, 0, len(trophies)),
		TotalPoints:  rewards.TotalPoints,
		CanBuy:       rewards.TotalPoints >= RedeemCost,
		PendingCodes: []string{},
		History:      rewards.PointsHistory,
	}
	for _, t := range trophies {
		view.Trophies = append(view.Trophies, TrophyView{Trophy: t, Unlocked: containsString(rewards.UnlockedTrophies, t.ID)})
	}
	for code, entry := range rewards.SecretCodes {
		if !entry.Used {
			view.PendingCodes = append(view.PendingCodes, code)
		}
	}
	sort.Strings(view.PendingCodes)
	return view, nil
}

func (c *Controller) buyCode(ctx context.Context) ([]Event, error) {
	if !c.ledger.CanRedeem(ctx) {
		return nil, domain.ErrInsufficientPoints
	}
	trophies, err := c.catalog.Trophies(ctx)
	if err != nil {
		return nil, err
	}
	unlocked := c.ledger.UnlockedTrophies(ctx)
	locked := make([]domain.Trophy, 0, len(trophies))
	for _, t := range trophies {
		if !containsString(unlocked, t.ID) {
			locked = append(locked, t)
		}
	}
	if len(locked) == 0 {
		return nil, domain.ErrAllTrophiesUnlocked
	}

	trophy := locked[c.rnd.Intn(len(locked))]
	code, err := c.ledger.Redeem(ctx, trophy.ID)
	if err != nil {
		return nil, err
	}
	view, err := c.trophiesView(ctx)
	if err != nil {
		return nil, err
	}
	return []Event{
		{Type: EventCode, Payload: CodeView{Code: code, TrophyID: trophy.ID, Trophy: trophy.Name}},
		{Type: EventTrophies, Payload: view},
	}, nil
}

func (c *Controller) useCode(ctx context.Context, code string) ([]Event, error) {
	trophyID, err := c.ledger.UseCode(ctx, code)
	switch {
	case errors.Is(err, domain.ErrInvalidCode), errors.Is(err, domain.ErrCodeUsed):
		return []Event{{Type: EventNotice, Payload: NoticeView{Message: err.Error()}}}, nil
	case err != nil:
		return nil, err
	}
	view, err := c.trophiesView(ctx)
	if err != nil {
		return nil, err
	}
	return []Event{
		{Type: EventNotice, Payload: NoticeView{Message: "trophy unlocked: " + trophyID}},
		{Type: EventTrophies, Payload: view},
	}, nil
}
