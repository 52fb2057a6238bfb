package api

import (
	"context"
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const oauthStateTTL = 10 * time.Minute

var errOAuthState = apperror.Validation("invalid oauth state", nil)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	ports Ports
	cfg   Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ports Ports, cfg Config) *Handlers {
	return &Handlers{ports: ports, cfg: cfg}
}

func (h *Handlers) ctx(c *fiber.Ctx) context.Context {
	return c.UserContext()
}

// Health handles GET /health.
func (h *Handlers) Health(c *fiber.Ctx) error {
	healthy := true
	if h.cfg.AppHealth != nil {
		healthy = h.cfg.AppHealth(h.ctx(c))
	}
	status, code := "healthy", fiber.StatusOK
	if !healthy {
		status, code = "degraded", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody())
	}

	u, err := h.ports.Auth.Register(h.ctx(c), auth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toUserDTO(u))
}

// Login handles user login and sets the session cookies.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody())
	}
	if req.Email == "" || req.Password == "" {
		return writeError(c, apperror.Validation("email and password are required", nil))
	}

	tokens, u, err := h.ports.Auth.Login(h.ctx(c), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	h.setSessionCookies(c, tokens, u)
	return c.JSON(tokenDTO(tokens, u))
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody())
	}
	if req.RefreshToken == "" {
		return writeError(c, apperror.Validation("refresh token is required", nil))
	}

	tokens, u, err := h.ports.Auth.Refresh(h.ctx(c), req.RefreshToken)
	if err != nil {
		return writeError(c, err)
	}
	h.setSessionCookies(c, tokens, nil)
	return c.JSON(tokenDTO(tokens, u))
}

// Logout clears the session cookies.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	clearCookie(c, SessionCookie)
	clearCookie(c, UserCookie)
	return c.JSON(fiber.Map{"message": "logged out"})
}

// OAuthStart redirects to the provider consent page.
func (h *Handlers) OAuthStart(c *fiber.Ctx) error {
	state := uuid.NewString()
	consentURL, err := h.ports.Auth.OAuthURL(h.ctx(c), state)
	if err != nil {
		return writeError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     OAuthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(oauthStateTTL / time.Second),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(consentURL, fiber.StatusFound)
}

// OAuthCallback exchanges the provider code and signs the user in.
func (h *Handlers) OAuthCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" || state != c.Cookies(OAuthStateCookie) {
		return writeError(c, errOAuthState)
	}
	clearCookie(c, OAuthStateCookie)

	code := c.Query("code")
	if code == "" {
		return writeError(c, apperror.Validation("missing authorization code", nil))
	}

	tokens, u, err := h.ports.Auth.OAuthLogin(h.ctx(c), code)
	if err != nil {
		return writeError(c, err)
	}
	h.setSessionCookies(c, tokens, u)
	return c.JSON(tokenDTO(tokens, u))
}

// Profile returns the signed-in user.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	u, err := h.ports.Auth.GetUser(h.ctx(c), currentSession(c).UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toUserDTO(u))
}

// UpdateProfile edits the signed-in user's contact details.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody())
	}

	u, err := h.ports.Auth.UpdateProfile(h.ctx(c), auth.UpdateProfileRequest{
		UserID:  currentSession(c).UserID,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toUserDTO(u))
}
