package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/peoplebook/internal/common"
	"github.com/dmitrijs2005/peoplebook/internal/server/services"
)

type personRequest struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (p personRequest) input() services.PersonInput {
	return services.PersonInput{FirstName: p.FirstName, LastName: p.LastName, Email: p.Email, Phone: p.Phone}
}

func (h *Handler) handleListPersons(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	list, err := h.persons.List(r.Context(), id.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req personRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.persons.Create(r.Context(), id.AccountID, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req personRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.persons.Update(r.Context(), id.AccountID, req.ID, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	personID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.persons.Get(r.Context(), id.AccountID, personID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	personID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.persons.Delete(r.Context(), id.AccountID, personID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "person deleted")
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid person id", common.ErrorValidation)
	}
	return id, nil
}
