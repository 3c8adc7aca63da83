package api

import (
	"net/http"
)

const transactionNotFound = "Transaction not found"

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.ledger.ListTransactions(r.Context())
	if err != nil {
		h.writeError(w, r, err, transactionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toTransactions(transactions))
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, transactionNotFound)
		return
	}
	tx, err := h.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, transactionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toTransaction(*tx))
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err, transactionNotFound)
		return
	}
	input, err := req.input()
	if err != nil {
		h.writeError(w, r, err, transactionNotFound)
		return
	}
	tx, err := h.ledger.CreateTransaction(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err, transactionNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, toTransaction(*tx))
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, transactionNotFound)
		return
	}
	var req transactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err, transactionNotFound)
		return
	}
	update, err := req.update()
	if err != nil {
		h.writeError(w, r, err, transactionNotFound)
		return
	}
	tx, err := h.ledger.UpdateTransaction(r.Context(), id, update)
	if err != nil {
		h.writeError(w, r, err, transactionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toTransaction(*tx))
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err, transactionNotFound)
		return
	}
	if err := h.ledger.DeleteTransaction(r.Context(), id); err != nil {
		h.writeError(w, r, err, transactionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
