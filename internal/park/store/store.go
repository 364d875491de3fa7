package store

import (
	"context"
	"errors"
	"time"

	"github.com/caremypark/caremypark/internal/park/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Reports() Reports
	StatusHistory() StatusHistory
	Challenges() Challenges

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to run multi-step atomic operations.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken (case-insensitive).
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up by lower-cased email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// UpdateOTPSecret sets the TOTP secret for a user without enabling 2FA.
	UpdateOTPSecret(ctx context.Context, userID string, secret string) error

	// EnableTwoFactor marks 2FA as enabled (sets the two_factor_enabled timestamp).
	EnableTwoFactor(ctx context.Context, userID string) error

	// TouchLastLogin records a successful login.
	TouchLastLogin(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

// DayCount is one day's report creation volume, Day formatted YYYY-MM-DD.
type DayCount struct {
	Day   string
	Count int
}

// ReportFilter narrows ListReports. Nil fields are ignored; set fields are
// combined with logical AND.
type ReportFilter struct {
	SubmitterID *string
	Status      *domain.Status
	ProblemType *domain.ProblemType
	Priority    *domain.Priority
	Limit       int // 0 means no limit
}

type Reports interface {
	// CreateReport inserts a full report record in one write. Returns
	// ErrAlreadyExists when the reference id collides with a stored report.
	CreateReport(ctx context.Context, r domain.Report) error

	// GetReportByReference fetches a report by its public reference id.
	GetReportByReference(ctx context.Context, referenceID string) (domain.Report, error)

	// ListReports returns matching reports in reverse-chronological order
	// by created_at.
	ListReports(ctx context.Context, f ReportFilter) ([]domain.Report, error)

	// CompareAndSwapStatus transitions a report from expect to next only if
	// its stored status still equals expect, bumping updated_at to now and
	// optionally updating priority. Returns ErrNotFound when no row matched,
	// which the caller disambiguates into not-found vs lost-race.
	CompareAndSwapStatus(ctx context.Context, referenceID string, expect, next domain.Status, priority *domain.Priority, now time.Time) error

	// CountByStatus returns all-time report counts grouped by status.
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)

	// CountByProblemType returns all-time report counts grouped by problem type.
	CountByProblemType(ctx context.Context) (map[domain.ProblemType]int, error)

	// CountCreatedByDay returns per-day report creation counts for the most
	// recent days days that saw any reports, oldest first.
	CountCreatedByDay(ctx context.Context, days int) ([]DayCount, error)
}

type StatusHistory interface {
	// AppendStatusChange records one transition in the audit timeline.
	AppendStatusChange(ctx context.Context, c domain.StatusChange) error

	// ListStatusChanges returns the timeline for a report, oldest first.
	ListStatusChanges(ctx context.Context, referenceID string) ([]domain.StatusChange, error)
}

type Challenges interface {
	// UpsertChallenge creates or replaces the pending 2FA challenge for an email.
	UpsertChallenge(ctx context.Context, c domain.TwoFactorChallenge) error

	// GetChallenge retrieves the pending challenge for an email.
	GetChallenge(ctx context.Context, email string) (domain.TwoFactorChallenge, error)

	// IncrementChallengeAttempts bumps the failed attempt counter and returns
	// the updated challenge.
	IncrementChallengeAttempts(ctx context.Context, email string) (domain.TwoFactorChallenge, error)

	// DeleteChallenge removes the pending challenge for an email.
	DeleteChallenge(ctx context.Context, email string) error

	// DeleteExpiredChallenges removes all lapsed challenges (housekeeping).
	DeleteExpiredChallenges(ctx context.Context) error
}
