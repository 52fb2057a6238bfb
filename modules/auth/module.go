package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Config holds auth module configuration.
type Config struct {
	JWT           JWTConfig
	OAuth         OAuthConfig
	BcryptCost    int
	AdminEmail    string
	AdminPassword string
}

// AuthModule provides authentication services.
type AuthModule struct {
	config   Config
	database *database.PluginModule
	service  *AuthService
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.UsePluginModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(config Config) *AuthModule {
	return &AuthModule{
		config: config,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// SetPlugin receives the database plugin from the framework.
func (m *AuthModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias == "database" {
		if db, ok := plugin.(*database.PluginModule); ok {
			m.database = db
		}
	}
}

// Start builds the service on top of the shared database.
func (m *AuthModule) Start(ctx context.Context) error {
	if m.database == nil {
		return fmt.Errorf("required plugin 'database' not registered")
	}

	db, err := m.database.DB()
	if err != nil {
		log.Printf("[auth] Module started without database: %v", err)
		return nil
	}

	m.service = NewAuthService(
		NewUserRepository(db),
		NewPasswordHasher(m.config.BcryptCost),
		NewJWTManager(m.config.JWT),
		NewGoogleProvider(m.config.OAuth),
	)

	if m.config.AdminEmail != "" && m.config.AdminPassword != "" {
		if err := m.service.EnsureAdmin(ctx, m.config.AdminEmail, m.config.AdminPassword); err != nil {
			return fmt.Errorf("failed to bootstrap admin account: %w", err)
		}
		log.Printf("[auth] Admin account ensured for %s", m.config.AdminEmail)
	}

	log.Printf("[auth] Module started (oauth: %t)", m.config.OAuth.Enabled())
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(_ context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not configured",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"oauth": m.config.OAuth.Enabled(),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(container, "register", json.Unmarshal, json.Marshal, m.handleRegister); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "login", json.Unmarshal, json.Marshal, m.handleLogin); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "refresh-token", json.Unmarshal, json.Marshal, m.handleRefresh); err != nil {
		return fmt.Errorf("failed to register refresh-token service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "update-profile", json.Unmarshal, json.Marshal, m.handleUpdateProfile); err != nil {
		return fmt.Errorf("failed to register update-profile service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "verify-session", json.Unmarshal, json.Marshal, m.handleVerifySession); err != nil {
		return fmt.Errorf("failed to register verify-session service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "oauth-url", json.Unmarshal, json.Marshal, m.handleOAuthURL); err != nil {
		return fmt.Errorf("failed to register oauth-url service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "oauth-login", json.Unmarshal, json.Marshal, m.handleOAuthLogin); err != nil {
		return fmt.Errorf("failed to register oauth-login service: %w", err)
	}

	log.Printf("[auth] Registered services: register, login, refresh-token, validate-token, get-user, update-profile, verify-session, oauth-url, oauth-login")
	return nil
}

// ready returns the service or the configuration error callers should see.
func (m *AuthModule) ready() (*AuthService, error) {
	if m.service == nil {
		return nil, database.ErrNotConfigured
	}
	return m.service, nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (UserResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return UserResponse{Error: apperror.ToPayload(err)}, nil
	}

	user, err := svc.Register(ctx, req)
	if err != nil {
		return UserResponse{Error: m.payload("register", err)}, nil
	}
	log.Printf("[auth] Registered user %s", user.ID)
	return UserResponse{User: toUserDTO(user)}, nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (TokenResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return TokenResponse{Error: apperror.ToPayload(err)}, nil
	}

	tokens, user, err := svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return TokenResponse{Error: m.payload("login", err)}, nil
	}
	return TokenResponse{Tokens: tokens, User: toUserDTO(user)}, nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (TokenResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return TokenResponse{Error: apperror.ToPayload(err)}, nil
	}

	tokens, user, err := svc.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return TokenResponse{Error: m.payload("refresh-token", err)}, nil
	}
	return TokenResponse{Tokens: tokens, User: toUserDTO(user)}, nil
}

func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return ValidateTokenResponse{Valid: false, Error: err.Error()}, nil
	}

	claims, err := svc.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		return ValidateTokenResponse{Valid: false, Error: errMsg}, nil
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return UserResponse{Error: apperror.ToPayload(err)}, nil
	}

	user, err := svc.GetUser(ctx, req.UserID)
	if err != nil {
		return UserResponse{Error: m.payload("get-user", err)}, nil
	}
	return UserResponse{User: toUserDTO(user)}, nil
}

func (m *AuthModule) handleUpdateProfile(ctx context.Context, req UpdateProfileRequest, _ *mono.Msg) (UserResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return UserResponse{Error: apperror.ToPayload(err)}, nil
	}

	user, err := svc.UpdateProfile(ctx, req)
	if err != nil {
		return UserResponse{Error: m.payload("update-profile", err)}, nil
	}
	return UserResponse{User: toUserDTO(user)}, nil
}

func (m *AuthModule) handleVerifySession(ctx context.Context, req VerifySessionRequest, _ *mono.Msg) (VerifySessionResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return VerifySessionResponse{Error: apperror.ToPayload(err)}, nil
	}

	user, err := svc.VerifySession(ctx, req.UserID, req.Email)
	if err != nil {
		if errors.Is(err, ErrSessionInvalid) {
			return VerifySessionResponse{Valid: false}, nil
		}
		return VerifySessionResponse{Error: m.payload("verify-session", err)}, nil
	}
	return VerifySessionResponse{Valid: true, User: toUserDTO(user)}, nil
}

func (m *AuthModule) handleOAuthURL(_ context.Context, req OAuthURLRequest, _ *mono.Msg) (OAuthURLResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return OAuthURLResponse{Error: apperror.ToPayload(err)}, nil
	}

	url, err := svc.OAuthURL(req.State)
	if err != nil {
		return OAuthURLResponse{Error: m.payload("oauth-url", err)}, nil
	}
	return OAuthURLResponse{URL: url}, nil
}

func (m *AuthModule) handleOAuthLogin(ctx context.Context, req OAuthLoginRequest, _ *mono.Msg) (TokenResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return TokenResponse{Error: apperror.ToPayload(err)}, nil
	}

	tokens, user, err := svc.OAuthLogin(ctx, req.Code)
	if err != nil {
		return TokenResponse{Error: m.payload("oauth-login", err)}, nil
	}
	return TokenResponse{Tokens: tokens, User: toUserDTO(user)}, nil
}

// payload converts a service error for the wire, logging unclassified ones.
func (m *AuthModule) payload(op string, err error) *apperror.Payload {
	if apperror.KindOf(err) == apperror.KindInternal {
		log.Printf("[auth] %s failed: %v", op, err)
	}
	return apperror.ToPayload(err)
}
