package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-player/internal/domain"
)

// Source serves the quiz catalog from the quizzes and trophies tables.
// It implements catalog.Source.
type Source struct {
	pool *pgxpool.Pool
}

func NewSource(pool *pgxpool.Pool) *Source {
	return &Source{pool: pool}
}

func (s *Source) Index(ctx context.Context) (domain.Index, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, category FROM quizzes ORDER BY position, id`)
	if err != nil {
		return domain.Index{}, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	index := domain.Index{Quizzes: []string{}, Categories: []string{}}
	seen := make(map[string]struct{})
	for rows.Next() {
		var id, category string
		if err := rows.Scan(&id, &category); err != nil {
			return domain.Index{}, fmt.Errorf("scan quiz: %w", err)
		}
		index.Quizzes = append(index.Quizzes, id)
		if _, ok := seen[category]; category != "" && !ok {
			seen[category] = struct{}{}
			index.Categories = append(index.Categories, category)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Index{}, fmt.Errorf("list quizzes: %w", err)
	}
	index.Count = len(index.Quizzes)
	return index, nil
}

func (s *Source) Quiz(ctx context.Context, quizID string) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	return raw, nil
}

// Trophies assembles the stored trophies into a {"trophies": [...]} document.
func (s *Source) Trophies(ctx context.Context) ([]byte, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM trophies ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list trophies: %w", err)
	}
	defer rows.Close()

	doc := struct {
		Trophies []json.RawMessage `json:"trophies"`
	}{Trophies: []json.RawMessage{}}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan trophy: %w", err)
		}
		doc.Trophies = append(doc.Trophies, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trophies: %w", err)
	}
	return json.Marshal(doc)
}

// SaveQuiz upserts a raw quiz document. The category column is read from its config.
func (s *Source) SaveQuiz(ctx context.Context, quizID string, position int, data []byte) error {
	var doc struct {
		Config struct {
			Category string `json:"category"`
		} `json:"config"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse quiz %s: %w", quizID, err)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, category, position, data, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, now())
		ON CONFLICT (id) DO UPDATE
		SET category=EXCLUDED.category, position=EXCLUDED.position, data=EXCLUDED.data, updated_at=now()`,
		quizID, doc.Config.Category, position, string(data))
	if err != nil {
		return fmt.Errorf("save quiz %s: %w", quizID, err)
	}
	return nil
}

// SaveTrophies replaces the trophy table with the content of a trophies document.
func (s *Source) SaveTrophies(ctx context.Context, data []byte) error {
	var doc struct {
		Trophies []json.RawMessage `json:"trophies"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse trophies: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM trophies`); err != nil {
		return fmt.Errorf("clear trophies: %w", err)
	}
	for i, raw := range doc.Trophies {
		var t domain.Trophy
		if err := json.Unmarshal(raw, &t); err != nil || t.ID == "" {
			return fmt.Errorf("trophy %d: missing id", i)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO trophies (id, position, data) VALUES ($1, $2, $3::jsonb)`, t.ID, i, string(raw)); err != nil {
			return fmt.Errorf("save trophy %s: %w", t.ID, err)
		}
	}
	return tx.Commit(ctx)
}
