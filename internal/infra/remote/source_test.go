package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-player/internal/domain"
)

func TestSourceFetchesDocuments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/quizzes/index.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quizzes":["bob"],"categories":["Divertissement"]}`))
	})
	mux.HandleFunc("/quizzes/bob.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"config":{"title":"Bob"},"questions":[]}`))
	})
	mux.HandleFunc("/quizzes/broken.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	src := NewSource(srv.URL+"/quizzes/", srv.Client())

	index, err := src.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, index.Quizzes)

	data, err := src.Quiz(ctx, "bob")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Bob"`)

	_, err = src.Quiz(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrQuizNotFound)

	_, err = src.Quiz(ctx, "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrQuizNotFound)

	_, err = src.Trophies(ctx)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
}
