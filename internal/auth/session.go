package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/debtbook/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// SessionCookieName is the cookie that carries the session token.
const SessionCookieName = "debtbook_session"

// SessionManager issues and validates signed session tokens.
type SessionManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	secureCookies bool
	parser        *jwt.Parser
}

// Claims represents the custom JWT claims for a user session.
type Claims struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// User returns the session identity carried by the claims.
func (c *Claims) User() *models.User {
	return &models.User{ID: c.UserID, Email: c.Email, DisplayName: c.DisplayName}
}

// sessionMethod is the only algorithm sessions are signed or accepted with.
var sessionMethod = jwt.SigningMethodHS256

// NewSessionManager creates a session manager.
// secretKey should be a strong random string (e.g., 32 bytes).
// tokenDuration is how long sessions remain valid (e.g., 24 hours).
// secureCookies marks cookies Secure, which production deployments behind
// TLS should always do.
func NewSessionManager(secretKey string, tokenDuration time.Duration, secureCookies bool) *SessionManager {
	return &SessionManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		secureCookies: secureCookies,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{sessionMethod.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

func (m *SessionManager) claimsFor(user *models.User, issued time.Time) *Claims {
	return &Claims{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.tokenDuration)),
		},
	}
}

// Generate signs a session token for user.
func (m *SessionManager) Generate(user *models.User) (string, error) {
	signed, err := jwt.NewWithClaims(sessionMethod, m.claimsFor(user, time.Now())).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Validate checks the signature, algorithm and expiry of a session token.
// Every failure wraps ErrInvalidToken.
func (m *SessionManager) Validate(tokenString string) (*Claims, error) {
	var claims Claims
	if _, err := m.parser.ParseWithClaims(tokenString, &claims, m.signingKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: no user id", ErrInvalidToken)
	}
	return &claims, nil
}

func (m *SessionManager) signingKey(*jwt.Token) (interface{}, error) {
	return m.secretKey, nil
}

// SetCookie writes a session cookie for user.
func (m *SessionManager) SetCookie(w http.ResponseWriter, user *models.User) error {
	token, err := m.Generate(user)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.tokenDuration.Seconds()),
		HttpOnly: true,
		Secure:   m.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie expires the session cookie.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest extracts and validates the session token from the session
// cookie or, failing that, an "Authorization: Bearer" header.
func (m *SessionManager) FromRequest(r *http.Request) (*Claims, error) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return m.Validate(cookie.Value)
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, ErrMissingToken
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return nil, ErrInvalidToken
	}
	return m.Validate(token)
}
