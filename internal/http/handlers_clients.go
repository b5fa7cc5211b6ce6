package http

import (
	"encoding/json"
	"net/http"

	"registro/internal/core"
)

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseListParams(r.URL.Query())

	countRow, err := s.db.FetchOne(ctx, `SELECT COUNT(*) AS total FROM clients`)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rows, err := s.db.FetchMany(ctx,
		`SELECT * FROM clients ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		params.Limit, params.Offset())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondList(w, rows, params, toInt64(countRow["total"]))
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	row, err := s.db.FetchOne(r.Context(), `SELECT * FROM clients WHERE id = ?`, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if row == nil {
		s.respondError(w, http.StatusNotFound, "Client not found")
		return
	}
	s.respondData(w, http.StatusOK, row)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var in core.ClientInput
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
		`INSERT INTO clients (name, email, phone, address) VALUES (?, ?, ?, ?)`,
		in.Name, nullable(in.Email), nullable(in.Phone), nullable(in.Address))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Reread so the response carries backend-assigned id and created_at.
	row, err := s.db.FetchOne(ctx, `SELECT * FROM clients WHERE id = ?`, res.LastInsertID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusCreated, row)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	var in core.ClientInput
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
		`UPDATE clients SET name = ?, email = ?, phone = ?, address = ? WHERE id = ?`,
		in.Name, nullable(in.Email), nullable(in.Phone), nullable(in.Address), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.RowsAffected == 0 {
		s.respondError(w, http.StatusNotFound, "Client not found")
		return
	}

	row, err := s.db.FetchOne(ctx, `SELECT * FROM clients WHERE id = ?`, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondData(w, http.StatusOK, row)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	res, err := s.db.Execute(r.Context(), `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.RowsAffected == 0 {
		s.respondError(w, http.StatusNotFound, "Client not found")
		return
	}
	s.respondMessage(w, "Client deleted successfully")
}
