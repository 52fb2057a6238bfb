package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = apperror.Unauthorized("invalid email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = apperror.Validation("invalid email format", nil)
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = apperror.Validation("password must be at least 8 characters", nil)
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = apperror.Validation("password must be at most 72 characters", nil)
	// ErrSessionInvalid is returned when a token or cookie session does not verify.
	ErrSessionInvalid = apperror.Unauthorized("invalid or expired session")
)

// AuthService handles authentication business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
	oauth  OAuthProvider
}

// NewAuthService creates a new AuthService. oauth may be nil.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager, oauth OAuthProvider) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
		oauth:  oauth,
	}
}

// Register creates a new credentials account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	email := domain.NormalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}

	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}
	if len(req.Password) > 72 {
		return nil, ErrPasswordTooLong
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &passwordHash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         domain.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	// OAuth-only accounts have no password to check against.
	if user.PasswordHash == nil || !s.hasher.Verify(password, *user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

// RefreshTokens generates new access and refresh tokens.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, *domain.User, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, ErrSessionInvalid
	}

	// Role changes since issue are picked up from the stored user.
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

// ValidateToken validates an access token and returns claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// UpdateProfile changes the provided profile fields and returns the updated user.
func (s *AuthService) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*domain.User, error) {
	fields := make(map[string]any)
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		fields["address"] = strings.TrimSpace(*req.Address)
	}

	if len(fields) == 0 {
		return nil, apperror.Validation("no profile fields to update", nil)
	}

	if err := s.repo.UpdateFields(ctx, req.UserID, fields); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, req.UserID)
}

// VerifySession confirms that a cookie session names an existing user by id and email.
func (s *AuthService) VerifySession(ctx context.Context, userID, email string) (*domain.User, error) {
	if userID == "" || email == "" {
		return nil, ErrSessionInvalid
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	if user.Email != domain.NormalizeEmail(email) {
		return nil, ErrSessionInvalid
	}
	return user, nil
}

// OAuthURL returns the provider consent URL for the given state.
func (s *AuthService) OAuthURL(state string) (string, error) {
	if s.oauth == nil {
		return "", ErrOAuthNotConfigured
	}
	if state == "" {
		return "", apperror.Validation("oauth state is required", nil)
	}
	return s.oauth.AuthCodeURL(state), nil
}

// OAuthLogin exchanges a code, then finds or creates the matching user.
// Users created here have no password hash.
func (s *AuthService) OAuthLogin(ctx context.Context, code string) (*domain.TokenPair, *domain.User, error) {
	if s.oauth == nil {
		return nil, nil, ErrOAuthNotConfigured
	}
	if code == "" {
		return nil, nil, apperror.Validation("oauth code is required", nil)
	}

	profile, err := s.oauth.Profile(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	email := domain.NormalizeEmail(profile.Email)
	if email == "" || !profile.VerifiedEmail {
		return nil, nil, apperror.Unauthorized("oauth account has no verified email")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		now := time.Now()
		user = &domain.User{
			ID:            uuid.New().String(),
			Email:         email,
			Name:          profile.Name,
			Role:          domain.RoleCustomer,
			OAuthProvider: s.oauth.Name(),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			if !errors.Is(err, ErrUserExists) {
				return nil, nil, fmt.Errorf("failed to create oauth user: %w", err)
			}
			// Lost a race with a concurrent first login.
			if user, err = s.repo.FindByEmail(ctx, email); err != nil {
				return nil, nil, err
			}
		} else {
			log.Printf("[auth] Created %s account for %s", s.oauth.Name(), email)
		}
	case err != nil:
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

// EnsureAdmin creates the bootstrap admin account, or promotes it if it exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		user, err = s.Register(ctx, RegisterRequest{Email: email, Password: password, Name: "Administrator"})
		if err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
	} else if err != nil {
		return err
	}

	if user.Role == domain.RoleAdmin {
		return nil
	}
	return s.repo.UpdateFields(ctx, user.ID, map[string]any{"role": domain.RoleAdmin})
}

// generateTokenPair generates both access and refresh tokens.
func (s *AuthService) generateTokenPair(user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}
