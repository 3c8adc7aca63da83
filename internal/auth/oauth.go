package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"

	"github.com/mmynk/debtbook/internal/models"
)

// ErrProviderUnavailable is returned while the userinfo circuit is open.
var ErrProviderUnavailable = errors.New("identity provider unavailable")

// OAuthConfig configures an OAuthProvider.
type OAuthConfig struct {
	// Issuer is the provider base URL; endpoints are derived from it
	// as {Issuer}/v1/authorize, /v1/token, /v1/userinfo and /v1/logout.
	Issuer       string
	ClientID     string
	ClientSecret string

	// RedirectURL is this service's callback URL.
	RedirectURL string

	// PostLogoutRedirectURL is where the provider sends the browser after logout.
	PostLogoutRedirectURL string

	// HTTPClient is used for token and userinfo requests. Defaults to a
	// client with a 10s timeout.
	HTTPClient *http.Client

	// OnBreakerStateChange, if set, observes userinfo circuit transitions.
	OnBreakerStateChange func(from, to gobreaker.State)
}

// OAuthProvider implements IdentityProvider with the authorization-code flow.
type OAuthProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	logoutURL   string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
}

// Ensure OAuthProvider implements IdentityProvider
var _ IdentityProvider = (*OAuthProvider)(nil)

// NewOAuthProvider creates a provider for cfg.
func NewOAuthProvider(cfg OAuthConfig) *OAuthProvider {
	issuer := strings.TrimRight(cfg.Issuer, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	logoutURL := ""
	if issuer != "" {
		q := url.Values{}
		q.Set("client_id", cfg.ClientID)
		if cfg.PostLogoutRedirectURL != "" {
			q.Set("post_logout_redirect_uri", cfg.PostLogoutRedirectURL)
		}
		logoutURL = issuer + "/v1/logout?" + q.Encode()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "oauth-userinfo",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			if cfg.OnBreakerStateChange != nil {
				cfg.OnBreakerStateChange(from, to)
			}
		},
	})

	return &OAuthProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  issuer + "/v1/authorize",
				TokenURL: issuer + "/v1/token",
			},
		},
		userInfoURL: issuer + "/v1/userinfo",
		logoutURL:   logoutURL,
		httpClient:  httpClient,
		breaker:     breaker,
	}
}

// AuthCodeURL returns the provider authorize URL for state.
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// LogoutURL returns the provider logout URL.
func (p *OAuthProvider) LogoutURL() string {
	return p.logoutURL
}

// Exchange trades code for a token and fetches the user's profile.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*models.User, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetchUserInfo(ctx, token)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return result.(*models.User), nil
}

type userInfoResponse struct {
	Sub               string `json:"sub"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
}

func (p *OAuthProvider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*models.User, error) {
	client := p.oauth.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request: unexpected status %d", resp.StatusCode)
	}

	var info userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, errors.New("userinfo response has no subject")
	}

	return &models.User{
		ID:          info.Sub,
		DisplayName: firstNonEmpty(info.Name, info.PreferredUsername, info.Email),
		Email:       info.Email,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
