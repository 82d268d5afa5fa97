package server

import (
	"net/http"

	"github.com/zeusync/sparrow/internal/core/observability/log"
)

// Handler routes the tooling endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /registry.json", s.handleSchema)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	data, _, err := s.schema.Marshal()
	if err != nil {
		s.logger.Error("render schema", log.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
