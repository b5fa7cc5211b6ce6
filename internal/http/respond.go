package http

import (
	"encoding/json"
	"net/http"

	"registro/internal/db"
)

// Every response carries a success flag; failures carry an error message.
// Backend failures surface as 500 with the backend-provided message,
// validation failures as 400, missing targets as 404.

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondData(w http.ResponseWriter, status int, data any) {
	s.writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func (s *Server) respondMessage(w http.ResponseWriter, message string) {
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{"success": false, "error": message})
}

// respondList wraps a page of rows with its pagination envelope.
func (s *Server) respondList(w http.ResponseWriter, rows []db.Row, p ListParams, total int64) {
	if rows == nil {
		rows = []db.Row{}
	}
	totalPages := (total + int64(p.Limit) - 1) / int64(p.Limit)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    rows,
		"pagination": map[string]any{
			"page":       p.Page,
			"limit":      p.Limit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}
