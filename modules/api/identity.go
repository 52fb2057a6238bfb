package api

import (
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/auth"
	"github.com/gofiber/fiber/v2"
)

// Cookie names.
const (
	SessionCookie    = "session"
	UserCookie       = "user"
	OAuthStateCookie = "oauth_state"
)

// sourcesKey is the fiber locals key holding the request's identity sources.
const sourcesKey = "identity_sources"

const userCookieTTL = 30 * 24 * time.Hour

// CookieUser is the payload of the user cookie.
type CookieUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// EncodeUserCookie renders u as URL-encoded JSON.
func EncodeUserCookie(u CookieUser) (string, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(string(raw)), nil
}

// DecodeUserCookie parses a user cookie value. Malformed values report false.
func DecodeUserCookie(value string) (CookieUser, bool) {
	var u CookieUser
	if value == "" {
		return u, false
	}
	raw, err := url.QueryUnescape(value)
	if err != nil {
		return u, false
	}
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return u, false
	}
	if u.ID == "" || u.Email == "" {
		return u, false
	}
	return u, true
}

// bearerToken returns the access token from the Authorization header or the session cookie.
func bearerToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(SessionCookie)
}

// SessionMiddleware verifies the caller's token or user cookie once per request.
// Credentials that fail verification are ignored so a stale cookie never blocks checkout.
func SessionMiddleware(authPort auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sources user.IdentitySources
		ctx := c.UserContext()

		if token := bearerToken(c); token != "" {
			claims, err := authPort.ValidateToken(ctx, token)
			switch {
			case err == nil:
				sources.Token = &user.Session{
					UserID: claims.UserID,
					Email:  claims.Email,
					Role:   claims.Role,
					Source: user.SessionFromToken,
				}
			case apperror.KindOf(err) == apperror.KindInternal:
				log.Printf("[api] Warning: token validation failed: %v", err)
			}
		}

		if sources.Token == nil {
			if cu, ok := DecodeUserCookie(c.Cookies(UserCookie)); ok {
				u, err := authPort.VerifySession(ctx, cu.ID, cu.Email)
				switch {
				case err == nil:
					sources.Cookie = &user.Session{
						UserID: u.ID,
						Email:  u.Email,
						Role:   u.Role,
						Source: user.SessionFromCookie,
					}
				case apperror.KindOf(err) == apperror.KindInternal:
					log.Printf("[api] Warning: cookie session check failed: %v", err)
				}
			}
		}

		c.Locals(sourcesKey, sources)
		return c.Next()
	}
}

// identitySources returns what SessionMiddleware found for this request.
func identitySources(c *fiber.Ctx) user.IdentitySources {
	sources, _ := c.Locals(sourcesKey).(user.IdentitySources)
	return sources
}

// currentSession returns the verified session, or nil.
func currentSession(c *fiber.Ctx) *user.Session {
	return identitySources(c).ActiveSession()
}

// requireSession rejects requests without a verified session.
func requireSession(c *fiber.Ctx) error {
	if currentSession(c) == nil {
		return writeError(c, errAuthRequired)
	}
	return c.Next()
}

// requireAdmin rejects requests that are not from an admin.
// The user cookie is unsigned, so only a validated access token can carry admin rights.
func requireAdmin(c *fiber.Ctx) error {
	session := currentSession(c)
	if session == nil {
		return writeError(c, errAuthRequired)
	}
	if session.Role != user.RoleAdmin || session.Source != user.SessionFromToken {
		return writeError(c, errAdminOnly)
	}
	return c.Next()
}

func (h *Handlers) setSessionCookies(c *fiber.Ctx, tokens *user.TokenPair, u *auth.UserDTO) {
	if tokens != nil {
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    tokens.AccessToken,
			Path:     "/",
			MaxAge:   int(tokens.ExpiresIn),
			HTTPOnly: true,
			Secure:   h.cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	if u != nil {
		h.setUserCookie(c, CookieUser{ID: u.ID, Email: u.Email, Name: u.Name})
	}
}

func (h *Handlers) setUserCookie(c *fiber.Ctx, u CookieUser) {
	value, err := EncodeUserCookie(u)
	if err != nil {
		log.Printf("[api] Warning: failed to encode user cookie: %v", err)
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     UserCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(userCookieTTL / time.Second),
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
}
