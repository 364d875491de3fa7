package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/caremypark/caremypark/internal/park/domain"
)

type usersRepo struct {
	q dbtx
}

const userColumns = `id, email, password_hash, role, two_factor_enabled, otp_secret, created_at, last_login`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, role)
		VALUES (?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.PasswordHash, string(u.Role),
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`, email)
	return scanUser(row)
}

func (r *usersRepo) UpdateOTPSecret(ctx context.Context, userID string, secret string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET otp_secret = ? WHERE id = ?`, secret, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) EnableTwoFactor(ctx context.Context, userID string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET two_factor_enabled = CURRENT_TIMESTAMP WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) TouchLastLogin(ctx context.Context, userID string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u         domain.User
		role      string
		enabled   sql.NullTime
		secret    sql.NullString
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &enabled, &secret, &u.CreatedAt, &lastLogin)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Role = domain.Role(role)
	u.TwoFactorEnabled = mapNullTimePtr(enabled)
	u.OTPSecret = mapNullStringPtr(secret)
	u.LastLogin = mapNullTimePtr(lastLogin)
	return u, nil
}
