package domain

import "time"

// TwoFactorChallenge is transient server-side state recording that a user
// passed the password check and now owes a one-time passcode. Keyed by the
// lower-cased account email; at most one pending challenge per account.
type TwoFactorChallenge struct {
	Email     string
	Attempts  int // failed OTP attempts, bounded to prevent brute force
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the challenge TTL has lapsed at now.
func (c TwoFactorChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
