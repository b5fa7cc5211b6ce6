package http

import "net/http"

// handleDashboard serves the aggregated view: totals, balance, per-type
// breakdown, per-client ranking, and recent transactions. Any sub-query
// failure fails the whole request.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r.URL.Query())

	summary, err := s.dashboard.Summary(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard aggregation failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, summary)
}
