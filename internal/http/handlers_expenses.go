package http

import (
	"encoding/json"
	"net/http"

	"registro/internal/core"
)

const expenseSelect = `
	SELECT de.*, c.name AS client_name, et.name AS expense_type_name
	FROM daily_expenses de
	LEFT JOIN clients c ON de.client_id = c.id
	LEFT JOIN expense_types et ON de.expense_type_id = et.id`

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseListParams(r.URL.Query())
	filter := parseFilter(r.URL.Query())

	conds, args := filter.ExpenseWhere("de.")

	countRow, err := s.db.FetchOne(ctx,
		`SELECT COUNT(*) AS total FROM daily_expenses de`+conds, args...)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := expenseSelect + conds + `
	ORDER BY de.expense_date DESC, de.created_at DESC
	LIMIT ? OFFSET ?`
	rows, err := s.db.FetchMany(ctx, query, append(args, params.Limit, params.Offset())...)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondList(w, rows, params, toInt64(countRow["total"]))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	row, err := s.db.FetchOne(r.Context(), expenseSelect+` WHERE de.id = ?`, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if row == nil {
		s.respondError(w, http.StatusNotFound, "Expense not found")
		return
	}
	s.respondData(w, http.StatusOK, row)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.DailyExpenseInput
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
		`INSERT INTO daily_expenses (expense_type_id, client_id, amount, expense_date, description)
		 VALUES (?, ?, ?, ?, ?)`,
		in.ExpenseTypeID, in.ClientID, in.Amount.InexactFloat64(), in.ExpenseDate, nullable(in.Description))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	row, err := s.db.FetchOne(ctx, expenseSelect+` WHERE de.id = ?`, res.LastInsertID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusCreated, row)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	var in core.DailyExpenseInput
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
		`UPDATE daily_expenses
		 SET expense_type_id = ?, client_id = ?, amount = ?, expense_date = ?, description = ?
		 WHERE id = ?`,
		in.ExpenseTypeID, in.ClientID, in.Amount.InexactFloat64(), in.ExpenseDate, nullable(in.Description), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.RowsAffected == 0 {
		s.respondError(w, http.StatusNotFound, "Expense not found")
		return
	}

	row, err := s.db.FetchOne(ctx, expenseSelect+` WHERE de.id = ?`, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, row)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	res, err := s.db.Execute(r.Context(), `DELETE FROM daily_expenses WHERE id = ?`, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.RowsAffected == 0 {
		s.respondError(w, http.StatusNotFound, "Expense not found")
		return
	}
	s.respondMessage(w, "Expense deleted successfully")
}
