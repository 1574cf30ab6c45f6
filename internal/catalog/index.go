package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"quiz-player/internal/domain"
)

const (
	// IndexFile is the catalog index document name inside a quiz directory.
	IndexFile = "index.json"
	// TrophiesFile holds the trophy catalog.
	TrophiesFile = "trophies.json"
)

// ScanDir builds an index from the quiz documents found in dir. Files without both
// config and questions are skipped with a warning.
func ScanDir(dir string, now time.Time, log *zap.Logger) (domain.Index, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return domain.Index{}, fmt.Errorf("scan quiz dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || e.Name() == IndexFile || e.Name() == TrophiesFile {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	index := domain.Index{Quizzes: []string{}, Categories: []string{}}
	categories := make(map[string]struct{})
	for _, name := range names {
		id := strings.TrimSuffix(name, ".json")
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("read quiz file", zap.String("quiz", id), zap.Error(err))
			continue
		}
		var doc struct {
			Config    *domain.QuizConfig `json:"config"`
			Questions json.RawMessage    `json:"questions"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			log.Warn("invalid quiz file", zap.String("quiz", id), zap.Error(err))
			continue
		}
		if doc.Config == nil || len(doc.Questions) == 0 {
			log.Warn("quiz file lacks config or questions", zap.String("quiz", id))
			continue
		}
		index.Quizzes = append(index.Quizzes, id)
		if doc.Config.Category != "" {
			categories[doc.Config.Category] = struct{}{}
		}
	}
	for c := range categories {
		index.Categories = append(index.Categories, c)
	}
	sort.Strings(index.Categories)
	index.Count = len(index.Quizzes)
	index.LastUpdated = now
	index.GeneratedBy = "quiz-player index"
	return index, nil
}

// GenerateIndex scans dir and writes index.json next to the quiz files.
func GenerateIndex(dir string, now time.Time, log *zap.Logger) (domain.Index, error) {
	index, err := ScanDir(dir, now, log)
	if err != nil {
		return index, err
	}
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return index, err
	}
	if err := os.WriteFile(filepath.Join(dir, IndexFile), data, 0o644); err != nil {
		return index, fmt.Errorf("write index: %w", err)
	}
	return index, nil
}
