package api

import (
	"net/http"
)

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledger.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toSummary(summary))
}

func (h *Handler) topDebtors(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	debtors, err := h.ledger.TopDebtors(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toBalances(debtors))
}

func (h *Handler) topCreditors(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	creditors, err := h.ledger.TopCreditors(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toBalances(creditors))
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.ledger.Balances(r.Context())
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toBalances(balances))
}
