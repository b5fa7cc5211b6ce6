package http

import (
	"encoding/json"
	"net/http"

	"registro/internal/core"
)

func (s *Server) handleListExpenseTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseListParams(r.URL.Query())

	countRow, err := s.db.FetchOne(ctx, `SELECT COUNT(*) AS total FROM expense_types`)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rows, err := s.db.FetchMany(ctx,
		`SELECT * FROM expense_types ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		params.Limit, params.Offset())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondList(w, rows, params, toInt64(countRow["total"]))
}

func (s *Server) handleGetExpenseType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid expense type id")
		return
	}

	row, err := s.db.FetchOne(r.Context(), `SELECT * FROM expense_types WHERE id = ?`, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if row == nil {
		s.respondError(w, http.StatusNotFound, "Expense type not found")
		return
	}
	s.respondData(w, http.StatusOK, row)
}

func (s *Server) handleCreateExpenseType(w http.ResponseWriter, r *http.Request) {
	var in core.ExpenseTypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	res, err := s.db.Execute(ctx,
		`INSERT INTO expense_types (name, description) VALUES (?, ?)`,
		in.Name, nullable(in.Description))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	row, err := s.db.FetchOne(ctx, `SELECT * FROM expense_types WHERE id = ?`, res.LastInsertID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusCreated, row)
}

func (s *Server) handleUpdateExpenseType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid expense type id")
		return
	}

	var in core.ExpenseTypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	res, err := s.db.Execute(ctx,
		`UPDATE expense_types SET name = ?, description = ? WHERE id = ?`,
		in.Name, nullable(in.Description), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.RowsAffected == 0 {
		s.respondError(w, http.StatusNotFound, "Expense type not found")
		return
	}

	row, err := s.db.FetchOne(ctx, `SELECT * FROM expense_types WHERE id = ?`, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, row)
}

func (s *Server) handleDeleteExpenseType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid expense type id")
		return
	}

	res, err := s.db.Execute(r.Context(), `DELETE FROM expense_types WHERE id = ?`, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.RowsAffected == 0 {
		s.respondError(w, http.StatusNotFound, "Expense type not found")
		return
	}
	s.respondMessage(w, "Expense type deleted successfully")
}
