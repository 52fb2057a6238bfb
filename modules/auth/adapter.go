package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
type AuthPort interface {
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)
	Login(ctx context.Context, email, password string) (*domain.TokenPair, *UserDTO, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, *UserDTO, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*UserDTO, error)
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*UserDTO, error)
	VerifySession(ctx context.Context, userID, email string) (*UserDTO, error)
	OAuthURL(ctx context.Context, state string) (string, error)
	OAuthLogin(ctx context.Context, code string) (*domain.TokenPair, *UserDTO, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// Register creates a credentials account.
func (a *AuthAdapter) Register(ctx context.Context, req RegisterRequest) (*UserDTO, error) {
	var resp UserResponse
	if err := call(ctx, a.container, "register", &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Login authenticates with email and password.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*domain.TokenPair, *UserDTO, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp TokenResponse
	if err := call(ctx, a.container, "login", &req, &resp); err != nil {
		return nil, nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, nil, err
	}
	return resp.Tokens, resp.User, nil
}

// Refresh exchanges a refresh token for a new pair.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, *UserDTO, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp TokenResponse
	if err := call(ctx, a.container, "refresh-token", &req, &resp); err != nil {
		return nil, nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, nil, err
	}
	return resp.Tokens, resp.User, nil
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := call(ctx, a.container, "validate-token", &req, &resp); err != nil {
		return nil, err
	}

	if !resp.Valid {
		return nil, fmt.Errorf("%w: %s", ErrSessionInvalid, resp.Error)
	}

	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
		Role:   resp.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*UserDTO, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse
	if err := call(ctx, a.container, "get-user", &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// UpdateProfile changes a user's profile fields.
func (a *AuthAdapter) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*UserDTO, error) {
	var resp UserResponse
	if err := call(ctx, a.container, "update-profile", &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// VerifySession returns the user named by a cookie session, or ErrSessionInvalid.
func (a *AuthAdapter) VerifySession(ctx context.Context, userID, email string) (*UserDTO, error) {
	req := VerifySessionRequest{UserID: userID, Email: email}
	var resp VerifySessionResponse
	if err := call(ctx, a.container, "verify-session", &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, ErrSessionInvalid
	}
	return resp.User, nil
}

// OAuthURL returns the provider consent URL.
func (a *AuthAdapter) OAuthURL(ctx context.Context, state string) (string, error) {
	req := OAuthURLRequest{State: state}
	var resp OAuthURLResponse
	if err := call(ctx, a.container, "oauth-url", &req, &resp); err != nil {
		return "", err
	}
	if err := resp.Error.Err(); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// OAuthLogin completes the provider flow.
func (a *AuthAdapter) OAuthLogin(ctx context.Context, code string) (*domain.TokenPair, *UserDTO, error) {
	req := OAuthLoginRequest{Code: code}
	var resp TokenResponse
	if err := call(ctx, a.container, "oauth-login", &req, &resp); err != nil {
		return nil, nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, nil, err
	}
	return resp.Tokens, resp.User, nil
}
