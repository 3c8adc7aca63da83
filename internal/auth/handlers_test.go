package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/mmynk/debtbook/internal/models"
)

type fakeProvider struct {
	user      *models.User
	err       error
	logoutURL string
	codes     []string
}

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://id.example.com/v1/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (*models.User, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeProvider) LogoutURL() string { return f.logoutURL }

func setupAuthRouter(t *testing.T, provider IdentityProvider) (*mux.Router, *SessionManager) {
	t.Helper()
	sessions := NewSessionManager("test-secret", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := mux.NewRouter()
	NewHandler(provider, sessions, logger).Register(r)
	return r, sessions
}

// login performs GET /auth/login and returns the issued state cookie.
func login(t *testing.T, r http.Handler) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("login status = %d, want 302", rec.Code)
	}
	state := findCookie(rec.Result().Cookies(), stateCookieName)
	if state == nil || state.Value == "" {
		t.Fatal("login did not set a state cookie")
	}
	loc, _ := url.Parse(rec.Header().Get("Location"))
	if loc.Query().Get("state") != state.Value {
		t.Errorf("redirect state = %q, cookie state = %q", loc.Query().Get("state"), state.Value)
	}
	return state
}

func callback(r http.Handler, query string, state *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, CallbackPath+"?"+query, nil)
	if state != nil {
		req.AddCookie(state)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_LoginCallback(t *testing.T) {
	provider := &fakeProvider{user: &models.User{ID: "00u1", DisplayName: "Ada", Email: "ada@example.com"}}
	r, sessions := setupAuthRouter(t, provider)

	state := login(t, r)
	rec := callback(r, "code=abc&state="+url.QueryEscape(state.Value), state)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("callback = %d %q, want 302 /", rec.Code, rec.Header().Get("Location"))
	}
	session := findCookie(rec.Result().Cookies(), SessionCookieName)
	if session == nil {
		t.Fatal("callback did not set a session cookie")
	}
	claims, err := sessions.Validate(session.Value)
	if err != nil {
		t.Fatalf("session cookie invalid: %v", err)
	}
	if claims.UserID != "00u1" || claims.DisplayName != "Ada" {
		t.Errorf("claims = %+v", claims)
	}
	if len(provider.codes) != 1 || provider.codes[0] != "abc" {
		t.Errorf("exchanged codes = %v, want [abc]", provider.codes)
	}
}

func TestHandler_CallbackFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		query     func(state string) string
		sendState bool
		wantLoc   string
		exchanged bool
	}{
		{
			name:      "provider error",
			query:     func(string) string { return "error=access_denied&error_description=nope" },
			sendState: true,
			wantLoc:   "/login?error=access_denied",
		},
		{
			name:      "missing state cookie",
			query:     func(state string) string { return "code=abc&state=" + state },
			sendState: false,
			wantLoc:   "/login?error=invalid_state",
		},
		{
			name:      "state mismatch",
			query:     func(string) string { return "code=abc&state=forged" },
			sendState: true,
			wantLoc:   "/login?error=invalid_state",
		},
		{
			name:      "missing code",
			query:     func(state string) string { return "state=" + state },
			sendState: true,
			wantLoc:   "/login?error=missing_code",
		},
		{
			name:      "exchange fails",
			err:       errors.New("token exchange: boom"),
			query:     func(state string) string { return "code=abc&state=" + state },
			sendState: true,
			wantLoc:   "/login?error=login_failed",
			exchanged: true,
		},
		{
			name:      "provider unavailable",
			err:       ErrProviderUnavailable,
			query:     func(state string) string { return "code=abc&state=" + state },
			sendState: true,
			wantLoc:   "/login?error=provider_unavailable",
			exchanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{user: &models.User{ID: "00u1"}, err: tt.err}
			r, _ := setupAuthRouter(t, provider)

			state := login(t, r)
			var sent *http.Cookie
			if tt.sendState {
				sent = state
			}
			rec := callback(r, tt.query(url.QueryEscape(state.Value)), sent)

			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", rec.Code)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLoc {
				t.Errorf("Location = %q, want %q", got, tt.wantLoc)
			}
			if findCookie(rec.Result().Cookies(), SessionCookieName) != nil {
				t.Error("failed callback must not set a session cookie")
			}
			if got := len(provider.codes) > 0; got != tt.exchanged {
				t.Errorf("exchanged = %v, want %v", got, tt.exchanged)
			}
		})
	}
}

func TestHandler_StateIsSingleUse(t *testing.T) {
	r, _ := setupAuthRouter(t, &fakeProvider{user: &models.User{ID: "00u1"}})

	state := login(t, r)
	rec := callback(r, "code=abc&state="+url.QueryEscape(state.Value), state)

	cleared := findCookie(rec.Result().Cookies(), stateCookieName)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Errorf("state cookie not expired after callback: %+v", cleared)
	}
}

func TestHandler_LoginInfo(t *testing.T) {
	r, _ := setupAuthRouter(t, &fakeProvider{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login-info", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		AuthURL string `json:"authUrl"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	state := findCookie(rec.Result().Cookies(), stateCookieName)
	if state == nil {
		t.Fatal("login-info did not set a state cookie")
	}
	u, _ := url.Parse(body.AuthURL)
	if u.Query().Get("state") != state.Value {
		t.Errorf("authUrl state = %q, want %q", u.Query().Get("state"), state.Value)
	}
}

func TestHandler_Logout(t *testing.T) {
	tests := []struct {
		name      string
		logoutURL string
		wantLoc   string
	}{
		{"provider logout", "https://id.example.com/v1/logout?client_id=c", "https://id.example.com/v1/logout?client_id=c"},
		{"local only", "", "/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupAuthRouter(t, &fakeProvider{logoutURL: tt.logoutURL})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))

			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", rec.Code)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLoc {
				t.Errorf("Location = %q, want %q", got, tt.wantLoc)
			}
			cleared := findCookie(rec.Result().Cookies(), SessionCookieName)
			if cleared == nil || cleared.MaxAge >= 0 {
				t.Errorf("session cookie not cleared: %+v", cleared)
			}
		})
	}
}
