// Package auth implements the login flow against an external OAuth2
// identity provider and the signed session tokens that gate the API.
package auth

import (
	"context"

	"github.com/mmynk/debtbook/internal/models"
)

// IdentityProvider defines the interface for external login providers.
// This abstraction allows swapping providers (Okta, Google, a test fake)
// without changing the HTTP handlers.
type IdentityProvider interface {
	// AuthCodeURL returns the provider URL the browser is sent to for login.
	// state is echoed back on the callback and must be verified there.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for the logged-in user's identity.
	Exchange(ctx context.Context, code string) (*models.User, error)

	// LogoutURL returns where to send the browser to end the provider
	// session, or "" if the provider has no logout endpoint.
	LogoutURL() string
}
