// Package api serves the ledger over a JSON REST interface.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mmynk/debtbook/internal/middleware"
	"github.com/mmynk/debtbook/internal/service"
)

// Handler serves the /api routes.
type Handler struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

// NewHandler creates a Handler backed by ledger.
func NewHandler(ledger *service.LedgerService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		ledger: ledger,
		logger: logger.With("component", "api"),
	}
}

// Register mounts the ledger routes on r. r is expected to be the /api
// subrouter, already behind the authentication gate.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/people", h.listPeople).Methods(http.MethodGet)
	r.HandleFunc("/people", h.createPerson).Methods(http.MethodPost)
	r.HandleFunc("/people/{id}", h.getPerson).Methods(http.MethodGet)
	r.HandleFunc("/people/{id}", h.updatePerson).Methods(http.MethodPut)
	r.HandleFunc("/people/{id}", h.deletePerson).Methods(http.MethodDelete)
	r.HandleFunc("/people/{id}/transactions", h.listPersonTransactions).Methods(http.MethodGet)
	r.HandleFunc("/people/{id}/balance", h.personBalance).Methods(http.MethodGet)

	r.HandleFunc("/transactions", h.listTransactions).Methods(http.MethodGet)
	r.HandleFunc("/transactions", h.createTransaction).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{id}", h.getTransaction).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{id}", h.updateTransaction).Methods(http.MethodPut)
	r.HandleFunc("/transactions/{id}", h.deleteTransaction).Methods(http.MethodDelete)

	r.HandleFunc("/summary", h.summary).Methods(http.MethodGet)
	r.HandleFunc("/summary/debtors", h.topDebtors).Methods(http.MethodGet)
	r.HandleFunc("/summary/creditors", h.topCreditors).Methods(http.MethodGet)
	r.HandleFunc("/summary/balances", h.balances).Methods(http.MethodGet)
}

// UserInfo reports the logged-in user, or 401. It must run behind a
// middleware that attaches the user when a session is present.
func UserInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
