package user

import (
	"strings"
)

// IdentityKind enumerates who is placing a request.
type IdentityKind string

const (
	IdentityAnonymous     IdentityKind = "anonymous"
	IdentityAuthenticated IdentityKind = "authenticated"
	IdentityGuest         IdentityKind = "guest"
)

// GuestProfile is the contact information supplied with a guest checkout.
type GuestProfile struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Identity is the closed set Authenticated(userID) | Guest(profile) | Anonymous.
// Only the fields belonging to Kind are set.
type Identity struct {
	Kind   IdentityKind  `json:"kind"`
	UserID string        `json:"user_id,omitempty"`
	Guest  *GuestProfile `json:"guest,omitempty"`
}

// Authenticated returns the identity of a signed-in user.
func Authenticated(userID string) Identity {
	return Identity{Kind: IdentityAuthenticated, UserID: userID}
}

// Guest returns the identity of an unauthenticated buyer.
func Guest(profile GuestProfile) Identity {
	return Identity{Kind: IdentityGuest, Guest: &profile}
}

// Anonymous returns the identity of a caller with no session and no contact details.
func Anonymous() Identity {
	return Identity{Kind: IdentityAnonymous}
}

// SessionSource tells where a session came from.
type SessionSource string

const (
	SessionFromToken  SessionSource = "token"
	SessionFromCookie SessionSource = "cookie"
)

// Session is a verified caller session attached to a request.
type Session struct {
	UserID string        `json:"user_id"`
	Email  string        `json:"email"`
	Role   Role          `json:"role"`
	Source SessionSource `json:"source"`
}

// IdentitySources are the inputs identity resolution looks at.
type IdentitySources struct {
	Token  *Session
	Cookie *Session
	Guest  *GuestProfile
}

// ActiveSession returns the highest-priority session, or nil.
func (s IdentitySources) ActiveSession() *Session {
	if s.Token != nil && s.Token.UserID != "" {
		return s.Token
	}
	if s.Cookie != nil && s.Cookie.UserID != "" {
		return s.Cookie
	}
	return nil
}

// ResolveIdentity picks the caller identity in priority order:
// token session, then cookie session, then guest contact details.
func ResolveIdentity(src IdentitySources) Identity {
	if session := src.ActiveSession(); session != nil {
		return Authenticated(session.UserID)
	}

	if src.Guest != nil {
		email := NormalizeEmail(src.Guest.Email)
		if email != "" {
			return Guest(GuestProfile{
				Email: email,
				Name:  strings.TrimSpace(src.Guest.Name),
				Phone: strings.TrimSpace(src.Guest.Phone),
			})
		}
	}

	return Anonymous()
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
