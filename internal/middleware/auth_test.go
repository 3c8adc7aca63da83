package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/debtbook/internal/auth"
	"github.com/mmynk/debtbook/internal/models"
)

// echoUser writes the context user ID, or "anonymous".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if id := GetUserID(r.Context()); id != "" {
		w.Write([]byte(id))
		return
	}
	w.Write([]byte("anonymous"))
})

func TestRequireSession(t *testing.T) {
	sessions := auth.NewSessionManager("test-secret", time.Hour, false)
	token, err := sessions.Generate(&models.User{ID: "00u1", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	handler := RequireSession(sessions)(echoUser)

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name: "cookie",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
			},
			wantStatus: http.StatusOK,
			wantBody:   "00u1",
		},
		{
			name:       "bearer",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantStatus: http.StatusOK,
			wantBody:   "00u1",
		},
		{
			name:       "no credentials",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Authentication required"}`,
		},
		{
			name:       "invalid token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Authentication required"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/people", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestOptionalSession(t *testing.T) {
	sessions := auth.NewSessionManager("test-secret", time.Hour, false)
	token, _ := sessions.Generate(&models.User{ID: "00u1"})
	handler := OptionalSession(sessions)(echoUser)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer " + token, "00u1"},
		{"invalid", "Bearer nope", "anonymous"},
		{"absent", "", "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/userinfo", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK || rec.Body.String() != tt.want {
				t.Errorf("got %d %q, want 200 %q", rec.Code, rec.Body.String(), tt.want)
			}
		})
	}
}

func TestStaticUser(t *testing.T) {
	handler := StaticUser(&models.User{ID: "local"})(echoUser)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Body.String() != "local" {
		t.Errorf("body = %q, want local", rec.Body.String())
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := UserFromContext(req.Context()); ok {
		t.Error("UserFromContext() ok = true on empty context")
	}
	if id := GetUserID(req.Context()); id != "" {
		t.Errorf("GetUserID() = %q, want empty", id)
	}
}
