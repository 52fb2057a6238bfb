package user

import (
	"time"
)

// Role is a user's authorization role.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// User represents a customer or admin account.
// PasswordHash is nil for accounts created through OAuth.
type User struct {
	ID            string    `gorm:"primaryKey;type:text" json:"id"`
	Email         string    `gorm:"uniqueIndex;not null;type:text" json:"email"`
	PasswordHash  *string   `gorm:"type:text" json:"-"`
	Name          string    `gorm:"type:text" json:"name"`
	Phone         string    `gorm:"type:text" json:"phone"`
	Address       string    `gorm:"type:text" json:"address"`
	Role          Role      `gorm:"type:text;not null;default:CUSTOMER" json:"role"`
	OAuthProvider string    `gorm:"column:oauth_provider;type:text" json:"oauth_provider,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TokenPair represents access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims represents validated JWT claims.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}
