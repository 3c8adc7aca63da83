package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ErrInvalidState is returned when the callback state does not match the
// state issued at login.
var ErrInvalidState = errors.New("invalid oauth state")

const (
	// CallbackPath is the redirect URI path registered with the provider.
	CallbackPath = "/authorization-code/callback"

	stateCookieName = "debtbook_oauth_state"
	stateMaxAge     = 10 * 60
)

// Handler serves the browser side of the login flow.
type Handler struct {
	provider IdentityProvider
	sessions *SessionManager
	logger   *slog.Logger
}

// NewHandler creates a login flow handler.
func NewHandler(provider IdentityProvider, sessions *SessionManager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		provider: provider,
		sessions: sessions,
		logger:   logger.With("component", "auth"),
	}
}

// Register mounts the login routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodGet)
	r.HandleFunc("/auth/login-info", h.LoginInfo).Methods(http.MethodGet)
	r.HandleFunc(CallbackPath, h.Callback).Methods(http.MethodGet)
	r.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodGet)
}

// Login redirects the browser to the provider.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	state := h.issueState(w)
	h.logger.Info("Redirecting to identity provider")
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// LoginInfo returns the provider URL as JSON, for clients that open the
// login page in a popup.
func (h *Handler) LoginInfo(w http.ResponseWriter, r *http.Request) {
	state := h.issueState(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"authUrl": h.provider.AuthCodeURL(state)})
}

// Callback completes the login: it checks state, exchanges the code and
// starts a session. Every failure redirects to the login page with an
// error code and leaves the server running.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		h.logger.Warn("Provider returned error",
			"error", providerErr,
			"description", q.Get("error_description"),
		)
		redirectLoginError(w, r, providerErr)
		return
	}

	if err := h.checkState(w, r, q.Get("state")); err != nil {
		h.logger.Warn("Callback state check failed", "error", err)
		redirectLoginError(w, r, "invalid_state")
		return
	}

	code := q.Get("code")
	if code == "" {
		redirectLoginError(w, r, "missing_code")
		return
	}

	user, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("Login failed", "error", err)
		reason := "login_failed"
		if errors.Is(err, ErrProviderUnavailable) {
			reason = "provider_unavailable"
		}
		redirectLoginError(w, r, reason)
		return
	}

	if err := h.sessions.SetCookie(w, user); err != nil {
		h.logger.Error("Failed to create session", "user_id", user.ID, "error", err)
		redirectLoginError(w, r, "session_failed")
		return
	}

	h.logger.Info("User logged in", "user_id", user.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout ends the local session and, when available, the provider session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)

	target := h.provider.LogoutURL()
	if target == "" {
		target = "/login"
	}
	h.logger.Info("User logged out")
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) issueState(w http.ResponseWriter) string {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   stateMaxAge,
		HttpOnly: true,
		Secure:   h.sessions.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}

// checkState compares the callback state with the state cookie and
// consumes the cookie either way.
func (h *Handler) checkState(w http.ResponseWriter, r *http.Request, state string) error {
	cookie, err := r.Cookie(stateCookieName)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.sessions.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	if state == "" || err != nil || cookie.Value == "" {
		return ErrInvalidState
	}
	if subtle.ConstantTimeCompare([]byte(state), []byte(cookie.Value)) != 1 {
		return ErrInvalidState
	}
	return nil
}

func redirectLoginError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(reason), http.StatusFound)
}
