package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrOAuthNotConfigured is returned when OAuth client credentials are missing.
var ErrOAuthNotConfigured = apperror.Config("oauth login is not configured")

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthConfig holds OAuth client credentials.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether both client credentials are present.
func (c OAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// OAuthProfile is the identity returned by the provider.
type OAuthProfile struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	VerifiedEmail bool   `json:"verified_email"`
}

// OAuthProvider runs the authorization-code flow against one provider.
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Profile(ctx context.Context, code string) (*OAuthProfile, error)
}

// googleProvider implements OAuthProvider for Google accounts.
type googleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider creates a Google OAuth provider, or nil if cfg is incomplete.
func NewGoogleProvider(cfg OAuthConfig) OAuthProvider {
	if !cfg.Enabled() {
		return nil
	}
	return &googleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (p *googleProvider) Name() string {
	return "google"
}

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *googleProvider) Profile(ctx context.Context, code string) (*OAuthProfile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthorized, "oauth code exchange failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch oauth profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth profile request returned %d", resp.StatusCode)
	}

	var profile OAuthProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode oauth profile: %w", err)
	}
	return &profile, nil
}
