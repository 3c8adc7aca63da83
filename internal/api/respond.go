package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mmynk/debtbook/internal/service"
)

// badRequest is a request error whose message is shown to the client.
type badRequest struct {
	message string
}

func (e *badRequest) Error() string { return e.message }

var (
	errInvalidID    = &badRequest{"Invalid ID format"}
	errInvalidLimit = &badRequest{"Invalid limit"}
	errInvalidBody  = &badRequest{"Invalid request body"}
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// writeError maps a service error to a response. notFound is the message
// used for service.ErrNotFound.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var (
		verr *service.ValidationError
		bad  *badRequest
	)
	switch {
	case errors.As(err, &verr):
		fields := make([]fieldErrorResponse, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, fieldErrorResponse{Field: f.Field, Message: f.Message})
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid data", Errors: fields})
	case errors.Is(err, service.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFound)
	case errors.As(err, &bad):
		writeMessage(w, http.StatusBadRequest, bad.message)
	default:
		h.logger.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		return 0, errInvalidID
	}
	return id, nil
}

// queryLimit parses the optional limit query parameter. 0 means the
// service default.
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errInvalidLimit
	}
	return limit, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}
