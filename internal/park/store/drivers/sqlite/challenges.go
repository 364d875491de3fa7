package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/caremypark/caremypark/internal/park/domain"
)

type challengesRepo struct {
	q dbtx
}

func (r *challengesRepo) UpsertChallenge(ctx context.Context, c domain.TwoFactorChallenge) error {
	// A fresh password check always resets the challenge window and counter.
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO twofa_challenges (email, attempts, created_at, expires_at)
		VALUES (?, 0, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			attempts = 0,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		strings.ToLower(c.Email), c.CreatedAt.UTC(), c.ExpiresAt.UTC(),
	)
	return err
}

func (r *challengesRepo) GetChallenge(ctx context.Context, email string) (domain.TwoFactorChallenge, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT email, attempts, created_at, expires_at
		FROM twofa_challenges WHERE email = lower(?)`, email)
	return scanChallenge(row)
}

func (r *challengesRepo) IncrementChallengeAttempts(ctx context.Context, email string) (domain.TwoFactorChallenge, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE twofa_challenges SET attempts = attempts + 1 WHERE email = lower(?)`, email)
	if err != nil {
		return domain.TwoFactorChallenge{}, err
	}
	if err := requireRow(res); err != nil {
		return domain.TwoFactorChallenge{}, err
	}
	return r.GetChallenge(ctx, email)
}

func (r *challengesRepo) DeleteChallenge(ctx context.Context, email string) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM twofa_challenges WHERE email = lower(?)`, email)
	return err
}

func (r *challengesRepo) DeleteExpiredChallenges(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM twofa_challenges WHERE expires_at < CURRENT_TIMESTAMP`)
	return err
}

func scanChallenge(row *sql.Row) (domain.TwoFactorChallenge, error) {
	var c domain.TwoFactorChallenge
	err := row.Scan(&c.Email, &c.Attempts, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		return domain.TwoFactorChallenge{}, mapNotFound(err)
	}
	return c, nil
}
