package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withRequestID, s.withAccessLog, s.withRecovery, s.withCORS, s.withBodyLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/rows", s.handleListRows)
		r.Get("/words/{ref}", s.handleGetWord)
		r.Post("/words", s.handleWriteWords)
		r.Put("/format", s.handleSetFormat)
		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// wsPath is the configured WebSocket path under /api/v1, "/ws" by default.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}
