package http

import (
	"encoding/json"
	"net/http"

	"registro/internal/core"
)

const incomeSelect = `
	SELECT i.*, c.name AS client_name
	FROM income i
	LEFT JOIN clients c ON i.client_id = c.id`

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseListParams(r.URL.Query())
	filter := parseFilter(r.URL.Query())

	conds, args := filter.IncomeWhere("i.")

	countRow, err := s.db.FetchOne(ctx,
		`SELECT COUNT(*) AS total FROM income i`+conds, args...)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := incomeSelect + conds + `
	ORDER BY i.income_date DESC, i.created_at DESC
	LIMIT ? OFFSET ?`
	rows, err := s.db.FetchMany(ctx, query, append(args, params.Limit, params.Offset())...)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondList(w, rows, params, toInt64(countRow["total"]))
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid income id")
		return
	}

	row, err := s.db.FetchOne(r.Context(), incomeSelect+` WHERE i.id = ?`, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if row == nil {
		s.respondError(w, http.StatusNotFound, "Income not found")
		return
	}
	s.respondData(w, http.StatusOK, row)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var in core.IncomeInput
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
		`INSERT INTO income (client_id, amount, income_date, description) VALUES (?, ?, ?, ?)`,
		in.ClientID, in.Amount.InexactFloat64(), in.IncomeDate, nullable(in.Description))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	row, err := s.db.FetchOne(ctx, incomeSelect+` WHERE i.id = ?`, res.LastInsertID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusCreated, row)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid income id")
		return
	}

	var in core.IncomeInput
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
		`UPDATE income SET client_id = ?, amount = ?, income_date = ?, description = ? WHERE id = ?`,
		in.ClientID, in.Amount.InexactFloat64(), in.IncomeDate, nullable(in.Description), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.RowsAffected == 0 {
		s.respondError(w, http.StatusNotFound, "Income not found")
		return
	}

	row, err := s.db.FetchOne(ctx, incomeSelect+` WHERE i.id = ?`, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, row)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid income id")
		return
	}

	res, err := s.db.Execute(r.Context(), `DELETE FROM income WHERE id = ?`, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.RowsAffected == 0 {
		s.respondError(w, http.StatusNotFound, "Income not found")
		return
	}
	s.respondMessage(w, "Income deleted successfully")
}
