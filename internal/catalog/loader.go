package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quiz-player/internal/domain"
)

// AllCategories disables the selection-screen category filter.
const AllCategories = "all"

// Source fetches raw catalog documents (directory, HTTP, database).
type Source interface {
	Index(ctx context.Context) (domain.Index, error)
	Quiz(ctx context.Context, quizID string) ([]byte, error)
	Trophies(ctx context.Context) ([]byte, error)
}

// QuizRepository returns normalized quizzes, typically through a cache.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SourceLoader parses quizzes straight from a Source. Caching repositories wrap it.
type SourceLoader struct {
	source Source
	log    *zap.Logger
}

func NewSourceLoader(source Source, log *zap.Logger) *SourceLoader {
	return &SourceLoader{source: source, log: log}
}

func (l *SourceLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	data, err := l.source.Quiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return ParseQuiz(quizID, data, l.log)
}

// Options configures the catalog loader.
type Options struct {
	// Known is used when the index cannot be read.
	Known []string
	// Categories is the deployment allow-list; empty allows every category.
	Categories []string
	// Order is the category display priority; unknown categories sort last.
	Order       []string
	Concurrency int
}

// Catalog is the list of selectable quizzes.
type Catalog struct {
	Quizzes    []domain.QuizDescriptor `json:"quizzes"`
	Categories []string                `json:"categories"`
}

// Loader builds the selectable quiz list.
type Loader struct {
	source  Source
	quizzes QuizRepository
	opts    Options
	log     *zap.Logger
}

func NewLoader(source Source, quizzes QuizRepository, opts Options, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Loader{source: source, quizzes: quizzes, opts: opts, log: log}
}

// Load fetches every known quiz and returns the display-ready catalog.
// A quiz that fails to load is skipped with a warning; only context cancellation
// fails the whole call. category narrows the result to one category ("" or "all" for every quiz).
func (l *Loader) Load(ctx context.Context, category string) (Catalog, error) {
	ids, categories := l.knownQuizzes(ctx)

	loaded := make([]*domain.QuizDescriptor, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			quiz, err := l.quizzes.GetQuiz(gctx, id)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				l.log.Warn("quiz unavailable", zap.String("quiz", id), zap.Error(err))
				return nil
			}
			desc := quiz.Descriptor()
			loaded[i] = &desc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Catalog{}, fmt.Errorf("load catalog: %w", err)
	}

	quizzes := make([]domain.QuizDescriptor, 0, len(loaded))
	for _, desc := range loaded {
		if desc == nil || !l.allowed(desc.Category) {
			continue
		}
		quizzes = append(quizzes, *desc)
	}
	SortByCategory(quizzes, l.opts.Order)

	if len(categories) == 0 {
		categories = seenCategories(quizzes)
	}
	visible := make([]string, 0, len(categories))
	for _, c := range categories {
		if l.allowed(c) {
			visible = append(visible, c)
		}
	}

	l.log.Info("catalog loaded", zap.Int("quizzes", len(quizzes)), zap.Int("known", len(ids)))
	return Catalog{Quizzes: FilterCategory(quizzes, category), Categories: visible}, nil
}

// Trophies loads the trophy catalog. A missing document yields an empty list.
func (l *Loader) Trophies(ctx context.Context) ([]domain.Trophy, error) {
	data, err := l.source.Trophies(ctx)
	if err != nil {
		l.log.Warn("trophies unavailable", zap.Error(err))
		return []domain.Trophy{}, nil
	}
	var doc struct {
		Trophies []domain.Trophy `json:"trophies"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse trophies: %w", err)
	}
	if doc.Trophies == nil {
		doc.Trophies = []domain.Trophy{}
	}
	return doc.Trophies, nil
}

func (l *Loader) knownQuizzes(ctx context.Context) ([]string, []string) {
	index, err := l.source.Index(ctx)
	if err != nil || len(index.Quizzes) == 0 {
		l.log.Warn("quiz index unavailable, using known quiz list", zap.Error(err), zap.Int("fallback", len(l.opts.Known)))
		return l.opts.Known, nil
	}
	return index.Quizzes, index.Categories
}

func (l *Loader) allowed(category string) bool {
	if len(l.opts.Categories) == 0 {
		return true
	}
	for _, c := range l.opts.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// SortByCategory orders quizzes by the category priority table. Unknown categories
// go last and ties keep their relative order.
func SortByCategory(quizzes []domain.QuizDescriptor, order []string) {
	rank := make(map[string]int, len(order))
	for i, c := range order {
		rank[c] = i
	}
	priority := func(category string) int {
		if r, ok := rank[category]; ok {
			return r
		}
		return len(order)
	}
	sort.SliceStable(quizzes, func(i, j int) bool {
		return priority(quizzes[i].Category) < priority(quizzes[j].Category)
	})
}

// FilterCategory keeps the quizzes of one category; "" and "all" keep everything.
func FilterCategory(quizzes []domain.QuizDescriptor, category string) []domain.QuizDescriptor {
	if category == "" || category == AllCategories {
		return quizzes
	}
	out := make([]domain.QuizDescriptor, 0, len(quizzes))
	for _, q := range quizzes {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out
}

func seenCategories(quizzes []domain.QuizDescriptor) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, q := range quizzes {
		if q.Category == "" {
			continue
		}
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}
	sort.Strings(out)
	return out
}
