package memory

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"quiz-player/internal/domain"
)

//go:embed sample/*.json
var sampleFS embed.FS

const (
	indexFile    = "index.json"
	trophiesFile = "trophies.json"
)

// StaticSource serves catalog documents held in memory. It implements catalog.Source.
type StaticSource struct {
	index    domain.Index
	docs     map[string][]byte
	trophies []byte
}

// NewStaticSource builds a source from raw quiz documents keyed by id. The index
// lists the ids in sorted order.
func NewStaticSource(docs map[string][]byte, trophies []byte) *StaticSource {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &StaticSource{
		index:    domain.Index{Quizzes: ids, Categories: []string{}, Count: len(ids)},
		docs:     docs,
		trophies: trophies,
	}
}

// NewSampleSource serves the demo catalog compiled into the binary.
func NewSampleSource() (*StaticSource, error) {
	return NewFSSource(sampleFS, "sample")
}

// NewFSSource reads every quiz document of dir in fsys into memory.
func NewFSSource(fsys fs.FS, dir string) (*StaticSource, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	docs := make(map[string][]byte)
	var trophies []byte
	var index *domain.Index
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		switch name {
		case indexFile:
			index = &domain.Index{}
			if err := json.Unmarshal(data, index); err != nil {
				return nil, fmt.Errorf("parse %s: %w", name, err)
			}
		case trophiesFile:
			trophies = data
		default:
			docs[strings.TrimSuffix(name, ".json")] = data
		}
	}
	src := NewStaticSource(docs, trophies)
	if index != nil {
		src.index = *index
	}
	return src, nil
}

func (s *StaticSource) Index(context.Context) (domain.Index, error) {
	return s.index, nil
}

func (s *StaticSource) Quiz(_ context.Context, quizID string) ([]byte, error) {
	doc, ok := s.docs[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	return doc, nil
}

func (s *StaticSource) Trophies(context.Context) ([]byte, error) {
	if s.trophies == nil {
		return nil, domain.ErrKeyNotFound
	}
	return s.trophies, nil
}
