package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"registro/internal/db"
	"registro/internal/log"
	"registro/internal/services"
)

// Server exposes the REST surface over the query executor: CRUD per resource
// plus the read-only dashboard.
type Server struct {
	http.Server
	db        *db.DB
	dashboard *services.DashboardService
	logger    *log.Logger
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, database *db.DB, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		db:        database,
		dashboard: services.NewDashboardService(database),
		logger:    logger.WithComponent("http"),
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/clients", s.handleListClients)
	mux.HandleFunc("POST /api/clients", s.handleCreateClient)
	mux.HandleFunc("GET /api/clients/{id}", s.handleGetClient)
	mux.HandleFunc("PUT /api/clients/{id}", s.handleUpdateClient)
	mux.HandleFunc("DELETE /api/clients/{id}", s.handleDeleteClient)

	mux.HandleFunc("GET /api/expense-types", s.handleListExpenseTypes)
	mux.HandleFunc("POST /api/expense-types", s.handleCreateExpenseType)
	mux.HandleFunc("GET /api/expense-types/{id}", s.handleGetExpenseType)
	mux.HandleFunc("PUT /api/expense-types/{id}", s.handleUpdateExpenseType)
	mux.HandleFunc("DELETE /api/expense-types/{id}", s.handleDeleteExpenseType)

	mux.HandleFunc("GET /api/daily-expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/daily-expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/daily-expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/daily-expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/daily-expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/income", s.handleListIncome)
	mux.HandleFunc("POST /api/income", s.handleCreateIncome)
	mux.HandleFunc("GET /api/income/{id}", s.handleGetIncome)
	mux.HandleFunc("PUT /api/income/{id}", s.handleUpdateIncome)
	mux.HandleFunc("DELETE /api/income/{id}", s.handleDeleteIncome)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	s.Handler = s.withCORS(s.withRequestLogging(mux))
	return s
}

type contextKey string

// requestIDKey carries the per-request trace id through the handler chain.
const requestIDKey contextKey = "request_id"

// withRequestLogging tags each request with a generated id and logs its
// completion, escalating the level for client and server errors.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := newRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		level := slog.LevelInfo
		switch {
		case rw.statusCode >= 500:
			level = slog.LevelError
		case rw.statusCode >= 400:
			level = slog.LevelWarn
		}

		s.logger.Log(ctx, level, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func newRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// withCORS allows cross-origin browser clients, mirroring the permissive
// policy of the public API.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Client Income & Expense Tracker API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"clients":       "/api/clients",
			"expenseTypes":  "/api/expense-types",
			"dailyExpenses": "/api/daily-expenses",
			"income":        "/api/income",
			"dashboard":     "/api/dashboard",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
