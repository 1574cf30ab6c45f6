package app

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"quiz-player/internal/catalog"
	"quiz-player/internal/domain"
)

// ServiceOptions are the player defaults and loop timings.
type ServiceOptions struct {
	Settings Settings
	Tick     time.Duration
	Dwell    time.Duration
}

// QuizService holds the dependencies shared by every player connection: catalog,
// quiz content, profile and reward ledger. Each connection gets its own controller.
type QuizService struct {
	catalog CatalogLoader
	quizzes QuizRepository
	profile *Profile
	ledger  *Ledger
	results *Results
	opts    ServiceOptions
	log     *zap.Logger
}

func NewQuizService(cat CatalogLoader, quizzes QuizRepository, store Store, opts ServiceOptions, log *zap.Logger) *QuizService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.Dwell <= 0 {
		opts.Dwell = DefaultDwell
	}
	opts.Settings = opts.Settings.normalized()

	profile := NewProfile(store, log)
	ledger := NewLedger(store, log)
	return &QuizService{
		catalog: cat,
		quizzes: quizzes,
		profile: profile,
		ledger:  ledger,
		results: NewResults(profile, ledger, time.Now, log),
		opts:    opts,
		log:     log,
	}
}

func (s *QuizService) Profile() *Profile { return s.profile }

func (s *QuizService) Ledger() *Ledger { return s.ledger }

// Catalog returns the selectable quizzes of a category ("" or "all" for every quiz).
func (s *QuizService) Catalog(ctx context.Context, category string) (catalog.Catalog, error) {
	return s.catalog.Load(ctx, category)
}

func (s *QuizService) Trophies(ctx context.Context) ([]domain.Trophy, error) {
	return s.catalog.Trophies(ctx)
}

// NewController creates a player state machine with its own session.
func (s *QuizService) NewController() *Controller {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	session := NewSessionWithClock(time.Now, rnd)
	return NewController(s.catalog, s.quizzes, s.profile, s.ledger, s.results, session, rnd, ControllerOptions{
		Settings: s.opts.Settings,
		Dwell:    s.opts.Dwell,
	}, s.log)
}

// NewRunner creates a controller and the event loop driving it.
func (s *QuizService) NewRunner() *Runner {
	return NewRunner(s.NewController(), s.opts.Tick, s.opts.Dwell, s.log)
}
