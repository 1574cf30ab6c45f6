package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"quiz-player/internal/catalog"
	"quiz-player/internal/domain"
)

// Source serves catalog documents from a directory of JSON files.
// It implements catalog.Source.
type Source struct {
	dir string
	log *zap.Logger
}

func NewSource(dir string, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{dir: dir, log: log}
}

// Index reads index.json, or scans the directory when it is absent.
func (s *Source) Index(ctx context.Context) (domain.Index, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, catalog.IndexFile))
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info("no index file, scanning quiz dir", zap.String("dir", s.dir))
		return catalog.ScanDir(s.dir, time.Now(), s.log)
	}
	if err != nil {
		return domain.Index{}, fmt.Errorf("read index: %w", err)
	}
	var index domain.Index
	if err := json.Unmarshal(data, &index); err != nil {
		return domain.Index{}, fmt.Errorf("parse index: %w", err)
	}
	return index, nil
}

func (s *Source) Quiz(_ context.Context, quizID string) ([]byte, error) {
	if !validID(quizID) {
		return nil, fmt.Errorf("quiz id %q: %w", quizID, domain.ErrQuizNotFound)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, quizID+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("quiz %s: %w", quizID, domain.ErrQuizNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read quiz %s: %w", quizID, err)
	}
	return data, nil
}

func (s *Source) Trophies(context.Context) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, catalog.TrophiesFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrKeyNotFound
	}
	return data, err
}

// validID rejects ids that would escape the quiz directory.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}
