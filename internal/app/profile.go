package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-player/internal/domain"
)

// Profile is the player's name and result history.
type Profile struct {
	mu    sync.Mutex
	store Store
	log   *zap.Logger
}

func NewProfile(store Store, log *zap.Logger) *Profile {
	if log == nil {
		log = zap.NewNop()
	}
	return &Profile{store: store, log: log}
}

// Name returns the stored player name, or "" when none is set or storage fails.
func (p *Profile) Name(ctx context.Context) string {
	data, err := p.store.Get(ctx, KeyPlayerName)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			p.log.Warn("player name unavailable", zap.Error(err))
		}
		return ""
	}
	return string(data)
}

func (p *Profile) SetName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyName
	}
	if err := p.store.Set(ctx, KeyPlayerName, []byte(name)); err != nil {
		return fmt.Errorf("save player name: %w", err)
	}
	return nil
}

// SaveResult appends a record to the history, assigning its id when missing.
func (p *Profile) SaveResult(ctx context.Context, record domain.ResultRecord) (domain.ResultRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	results, err := p.loadLocked(ctx)
	if err != nil {
		return record, err
	}
	results = append(results, record)
	if err := saveJSON(ctx, p.store, KeyPlayerResults, results); err != nil {
		return record, fmt.Errorf("save result: %w", err)
	}
	return record, nil
}

// Results returns the history, oldest first. It is empty when the store cannot be read.
func (p *Profile) Results(ctx context.Context) []domain.ResultRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	results, err := p.loadLocked(ctx)
	if err != nil {
		p.log.Warn("result history unavailable", zap.Error(err))
	}
	return results
}

func (p *Profile) ResultsByQuiz(ctx context.Context, quizID string) []domain.ResultRecord {
	out := make([]domain.ResultRecord, 0)
	for _, r := range p.Results(ctx) {
		if r.QuizID == quizID {
			out = append(out, r)
		}
	}
	return out
}

func (p *Profile) Stats(ctx context.Context) domain.PlayerStats {
	results := p.Results(ctx)
	if len(results) == 0 {
		return domain.PlayerStats{}
	}
	stats := domain.PlayerStats{
		TotalQuizzes: len(results),
		BestScore:    results[0].Percentage,
		WorstScore:   results[0].Percentage,
	}
	sum := 0
	for _, r := range results {
		sum += r.Percentage
		stats.TotalTimeSpent += r.TimeSpent
		if r.Percentage > stats.BestScore {
			stats.BestScore = r.Percentage
		}
		if r.Percentage < stats.WorstScore {
			stats.WorstScore = r.Percentage
		}
	}
	stats.AverageScore = int(math.Round(float64(sum) / float64(len(results))))
	return stats
}

// Reset removes the name and the result history. Rewards are kept.
func (p *Profile) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.Remove(ctx, KeyPlayerName); err != nil {
		return fmt.Errorf("remove player name: %w", err)
	}
	if err := p.store.Remove(ctx, KeyPlayerResults); err != nil {
		return fmt.Errorf("remove results: %w", err)
	}
	return nil
}

// loadLocked yields an empty history for a missing or undecodable document and
// returns read failures.
func (p *Profile) loadLocked(ctx context.Context) ([]domain.ResultRecord, error) {
	var results []domain.ResultRecord
	if err := loadJSON(ctx, p.store, KeyPlayerResults, &results); err != nil {
		switch {
		case errors.Is(err, domain.ErrKeyNotFound):
		case errors.Is(err, errCorruptDocument):
			p.log.Warn("result history unreadable, starting empty", zap.Error(err))
		default:
			return []domain.ResultRecord{}, fmt.Errorf("load results: %w", err)
		}
		return []domain.ResultRecord{}, nil
	}
	if results == nil {
		results = []domain.ResultRecord{}
	}
	return results, nil
}
