package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"quiz-player/internal/app"
)

// NewRouter wires the websocket player, the catalog API and the health check.
func NewRouter(service *app.QuizService, log *zap.Logger) *http.ServeMux {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", NewWSHandler(service, log).ServeWS)
	mux.Handle("/api/catalog", &CatalogHandler{service: service, log: log})
	return mux
}

// CatalogHandler serves GET /api/catalog?category=.
type CatalogHandler struct {
	service *app.QuizService
	log     *zap.Logger
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, app.ErrorView{Message: "method not allowed"})
		return
	}
	cat, err := h.service.Catalog(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.log.Warn("catalog request failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, app.ErrorView{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
