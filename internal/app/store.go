package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quiz-player/internal/domain"
)

//go:generate mockgen -source=store.go -destination=mock/store_mock.go -package=mock

// Store is the player's key-value persistence (browser local storage in spirit).
// Get returns domain.ErrKeyNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// errCorruptDocument marks a stored value that exists but cannot be decoded.
var errCorruptDocument = errors.New("corrupt document")

// Persisted keys.
const (
	KeyPlayerName    = "playerName"
	KeyPlayerResults = "playerResults"
	KeyRewards       = "rewards"
)

func loadJSON(ctx context.Context, store Store, key string, dst any) error {
	data, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w: %w", key, errCorruptDocument, err)
	}
	return nil
}

func saveJSON(ctx context.Context, store Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, key, data)
}
