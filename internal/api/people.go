package api

import (
	"net/http"
)

const personNotFound = "Person not found"

func (h *Handler) listPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.ledger.ListPeople(r.Context())
	if err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPeople(people))
}

func (h *Handler) getPerson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	person, err := h.ledger.GetPerson(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPerson(*person))
}

func (h *Handler) createPerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	person, err := h.ledger.CreatePerson(r.Context(), req.input())
	if err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, toPerson(*person))
}

func (h *Handler) updatePerson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	var req personRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	person, err := h.ledger.UpdatePerson(r.Context(), id, req.update())
	if err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPerson(*person))
}

func (h *Handler) deletePerson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	if err := h.ledger.DeletePerson(r.Context(), id); err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPersonTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	transactions, err := h.ledger.ListTransactionsByPerson(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toTransactions(transactions))
}

func (h *Handler) personBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	balance, err := h.ledger.PersonBalance(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, personNotFound)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{PersonID: id, Balance: money(balance)})
}
