package auth

import (
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/user"
)

// Every response carries Error instead of failing the request-reply call,
// so the caller can rebuild the typed error.

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// UserResponse carries a user record.
type UserResponse struct {
	User  *UserDTO          `json:"user,omitempty"`
	Error *apperror.Payload `json:"error,omitempty"`
}

// UserDTO is the bus representation of a user. It never includes the password hash.
type UserDTO struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Phone       string      `json:"phone"`
	Address     string      `json:"address"`
	Role        domain.Role `json:"role"`
	HasPassword bool        `json:"has_password"`
	CreatedAt   time.Time   `json:"created_at"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a token pair and the user it was issued to.
type TokenResponse struct {
	Tokens *domain.TokenPair `json:"tokens,omitempty"`
	User   *UserDTO          `json:"user,omitempty"`
	Error  *apperror.Payload `json:"error,omitempty"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid  bool        `json:"valid"`
	UserID string      `json:"user_id,omitempty"`
	Email  string      `json:"email,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// UpdateProfileRequest updates the mutable profile fields of a user.
type UpdateProfileRequest struct {
	UserID  string  `json:"user_id"`
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// VerifySessionRequest checks a cookie session against the stored user.
type VerifySessionRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// VerifySessionResponse reports whether the cookie session matched a user.
type VerifySessionResponse struct {
	Valid bool              `json:"valid"`
	User  *UserDTO          `json:"user,omitempty"`
	Error *apperror.Payload `json:"error,omitempty"`
}

// OAuthURLRequest asks for the provider consent URL.
type OAuthURLRequest struct {
	State string `json:"state"`
}

// OAuthURLResponse carries the provider consent URL.
type OAuthURLResponse struct {
	URL   string            `json:"url,omitempty"`
	Error *apperror.Payload `json:"error,omitempty"`
}

// OAuthLoginRequest exchanges an authorization code for a session.
type OAuthLoginRequest struct {
	Code string `json:"code"`
}

func toUserDTO(u *domain.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		Address:     u.Address,
		Role:        u.Role,
		HasPassword: u.PasswordHash != nil,
		CreatedAt:   u.CreatedAt,
	}
}
