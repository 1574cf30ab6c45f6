package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quiz-player/internal/app"
	"quiz-player/internal/catalog"
	"quiz-player/internal/config"
	"quiz-player/internal/infra/file"
	"quiz-player/internal/infra/memory"
	"quiz-player/internal/infra/postgres"
	infraredis "quiz-player/internal/infra/redis"
	"quiz-player/internal/infra/remote"
	"quiz-player/internal/infra/sqlite"
)

// deps are the shared backends of one process.
type deps struct {
	redis   *redis.Client
	pool    *pgxpool.Pool
	closers []io.Closer
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i].Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

func connect(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{}
	if cfg.Redis.Addr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, d.redis)
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		d.pool = pool
	}
	return d, nil
}

func newSource(cfg config.Config, d *deps, log *zap.Logger) (catalog.Source, error) {
	switch cfg.Quiz.Source {
	case "remote":
		return remote.NewSource(cfg.Quiz.BaseURL, nil), nil
	case "postgres":
		if d.pool == nil {
			return nil, fmt.Errorf("quiz source postgres: postgres url not configured")
		}
		return postgres.NewSource(d.pool), nil
	case "static":
		return memory.NewSampleSource()
	default:
		return file.NewSource(cfg.Quiz.Dir, log), nil
	}
}

// newStore opens the configured player store. Failures fall back to an
// in-memory store so the player can still play.
func newStore(cfg config.Config, d *deps, log *zap.Logger) app.Store {
	store, err := openStore(cfg, d)
	if err != nil {
		log.Warn("player store unavailable, using memory store", zap.String("engine", cfg.Store.Engine), zap.Error(err))
		return memory.NewStore()
	}
	return store
}

func openStore(cfg config.Config, d *deps) (app.Store, error) {
	switch cfg.Store.Engine {
	case "memory":
		return memory.NewStore(), nil
	case "sqlite":
		st, err := sqlite.NewStore(cfg.Store.Path, cfg.Store.Namespace)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, st)
		return st, nil
	case "redis":
		if d.redis == nil {
			return nil, fmt.Errorf("redis addr not configured")
		}
		return infraredis.NewStore(d.redis, cfg.Store.Namespace), nil
	case "postgres":
		if d.pool == nil {
			return nil, fmt.Errorf("postgres url not configured")
		}
		return postgres.NewStore(d.pool, cfg.Store.Namespace), nil
	default:
		return file.NewStore(cfg.Store.Path)
	}
}

func newQuizRepository(cfg config.Config, src catalog.Source, d *deps, log *zap.Logger) app.QuizRepository {
	loader := catalog.NewSourceLoader(src, log)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if d.redis != nil {
		return infraredis.NewQuizRepository(d.redis, loader, quizTTL, log)
	}
	return memory.NewQuizRepository(loader, quizTTL, log)
}

func newCatalogLoader(cfg config.Config, src catalog.Source, quizzes app.QuizRepository, log *zap.Logger) *catalog.Loader {
	return catalog.NewLoader(src, quizzes, catalog.Options{
		Known:       cfg.Catalog.Quizzes,
		Categories:  cfg.Catalog.Categories,
		Order:       cfg.Catalog.Order,
		Concurrency: cfg.Catalog.Concurrency,
	}, log)
}

// buildService wires the quiz service from config. The returned deps must be closed.
func buildService(ctx context.Context, cfg config.Config, log *zap.Logger) (*app.QuizService, *deps, error) {
	d, err := connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	src, err := newSource(cfg, d, log)
	if err != nil {
		d.Close()
		return nil, nil, err
	}
	quizzes := newQuizRepository(cfg, src, d, log)
	loader := newCatalogLoader(cfg, src, quizzes, log)
	store := newStore(cfg, d, log)

	service := app.NewQuizService(loader, quizzes, store, app.ServiceOptions{
		Settings: app.Settings{
			TimeLimit:    cfg.Quiz.TimeLimit,
			FreeMode:     cfg.Quiz.FreeMode,
			SpoilerMode:  cfg.Quiz.SpoilerMode,
			ShowResponse: cfg.Quiz.ShowResponse,
		},
		Tick:  config.TTLDuration(cfg.Quiz.Tick, app.DefaultTick),
		Dwell: config.TTLDuration(cfg.Quiz.Dwell, app.DefaultDwell),
	}, log)
	return service, d, nil
}
