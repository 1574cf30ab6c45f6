package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"quiz-player/internal/app"
	"quiz-player/internal/catalog"
	"quiz-player/internal/domain"
	"quiz-player/internal/infra/postgres"
	"quiz-player/internal/infra/postgres/migrations"
	infraredis "quiz-player/internal/infra/redis"
)

const arithmeticDoc = `{
	"config": {"title": "Arithmétique", "category": "Apprentissage", "difficulty": "Facile"},
	"questions": [
		{"question": "2 + 2 ?", "choices": ["3", "4", "5"], "correctAnswer": "4"},
		{"question": "3 x 3 ?", "options": ["6", "9"], "answer": 1}
	]
}`

const trophiesDoc = `{"trophies": [
	{"id": "gold-1", "name": "Or", "url": "https://example.org/gold.png"},
	{"id": "silver-1", "name": "Argent"}
]}`

func TestPlayQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDatabase(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	src := postgres.NewSource(pool)
	if err := src.SaveQuiz(ctx, "arithmetique", 1, []byte(arithmeticDoc)); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	if err := src.SaveTrophies(ctx, []byte(trophiesDoc)); err != nil {
		t.Fatalf("seed trophies: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	log := zap.NewNop()
	quizRepo := infraredis.NewQuizRepository(redisClient, catalog.NewSourceLoader(src, log), 5*time.Minute, log)
	loader := catalog.NewLoader(src, quizRepo, catalog.Options{}, log)
	store := postgres.NewStore(pool, "it")
	service := app.NewQuizService(loader, quizRepo, store, app.ServiceOptions{}, log)

	ctl := service.NewController()
	dispatch(t, ctl, app.Action{Type: app.ActionSetName, Name: "Alice"})
	events := dispatch(t, ctl, app.Action{Type: app.ActionStartQuiz, QuizID: "arithmetique"})
	view := events[len(events)-1].Payload.(app.QuestionView)

	for {
		q, _ := ctl.Session().Current()
		option := -1
		for i, o := range view.Options {
			if o == q.Correct {
				option = i
			}
		}
		dispatch(t, ctl, app.Action{Type: app.ActionAnswer, Option: option})
		events = dispatch(t, ctl, app.Action{Type: app.ActionContinue})
		if events[0].Type != app.EventQuestion {
			break
		}
		view = events[0].Payload.(app.QuestionView)
	}

	results := events[len(events)-1].Payload.(app.ResultsView)
	if results.Percentage != 100 || results.Award.PointsEarned != 2 {
		t.Fatalf("expected perfect score with 2 points, got %+v", results)
	}

	cached, err := redisClient.Exists(ctx, "quiz:arithmetique").Result()
	if err != nil || cached != 1 {
		t.Fatalf("expected quiz cached in redis, got %d (%v)", cached, err)
	}

	fresh := app.NewQuizService(loader, quizRepo, store, app.ServiceOptions{}, log)
	if name := fresh.Profile().Name(ctx); name != "Alice" {
		t.Fatalf("expected player name persisted in postgres, got %q", name)
	}
	if history := fresh.Profile().Results(ctx); len(history) != 1 || history[0].QuizID != "arithmetique" {
		t.Fatalf("expected one persisted result, got %+v", history)
	}
	trophies, err := fresh.Trophies(ctx)
	if err != nil || len(trophies) != 2 {
		t.Fatalf("expected 2 trophies, got %d (%v)", len(trophies), err)
	}
	if _, err := quizRepo.GetQuiz(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func dispatch(t *testing.T, ctl *app.Controller, a app.Action) []app.Event {
	t.Helper()
	events, err := ctl.Dispatch(context.Background(), a)
	if err != nil {
		t.Fatalf("%s: %v", a.Type, err)
	}
	return events
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDatabase(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
