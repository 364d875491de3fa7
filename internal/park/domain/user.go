package domain

import "time"

// Role determines which reports a user may see and mutate. Roles are
// assigned at registration and never change afterwards; there is no
// self-promotion path from visitor to authority.
type Role string

const (
	RoleVisitor   Role = "visitor"
	RoleAuthority Role = "authority"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleVisitor || r == RoleAuthority
}

type User struct {
	ID               string
	Email            string // stored lower-cased, unique
	PasswordHash     string // argon2 encoded
	Role             Role
	TwoFactorEnabled *time.Time // timestamp when 2FA was enabled (nullable)
	OTPSecret        *string    // TOTP secret (nullable, base32 encoded)
	CreatedAt        time.Time
	LastLogin        *time.Time
}

// HasTwoFactor reports whether login must complete a TOTP challenge.
func (u User) HasTwoFactor() bool {
	return u.TwoFactorEnabled != nil && u.OTPSecret != nil && *u.OTPSecret != ""
}
