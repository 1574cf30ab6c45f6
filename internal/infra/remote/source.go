package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quiz-player/internal/domain"
)

const maxDocumentSize = 4 << 20

// Source fetches catalog documents over HTTP from a static file host:
// {baseURL}/index.json, {baseURL}/{id}.json and {baseURL}/trophies.json.
// It implements catalog.Source.
type Source struct {
	baseURL string
	client  *http.Client
}

func NewSource(baseURL string, client *http.Client) *Source {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Source{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *Source) Index(ctx context.Context) (domain.Index, error) {
	data, err := s.fetch(ctx, "index.json", domain.ErrKeyNotFound)
	if err != nil {
		return domain.Index{}, err
	}
	var index domain.Index
	if err := json.Unmarshal(data, &index); err != nil {
		return domain.Index{}, fmt.Errorf("parse index: %w", err)
	}
	return index, nil
}

func (s *Source) Quiz(ctx context.Context, quizID string) ([]byte, error) {
	return s.fetch(ctx, url.PathEscape(quizID)+".json", domain.ErrQuizNotFound)
}

func (s *Source) Trophies(ctx context.Context) ([]byte, error) {
	return s.fetch(ctx, "trophies.json", domain.ErrKeyNotFound)
}

func (s *Source) fetch(ctx context.Context, name string, notFound error) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+name, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("fetch %s: %w", name, notFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", name, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
