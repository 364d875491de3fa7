package sqlite

import (
	"context"

	"github.com/caremypark/caremypark/internal/park/domain"
)

type historyRepo struct {
	q dbtx
}

func (r *historyRepo) AppendStatusChange(ctx context.Context, c domain.StatusChange) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO report_status_history (reference_id, from_status, to_status, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ReferenceID, string(c.FromStatus), string(c.ToStatus), c.ActorID, c.CreatedAt.UTC(),
	)
	return err
}

func (r *historyRepo) ListStatusChanges(ctx context.Context, referenceID string) ([]domain.StatusChange, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT reference_id, from_status, to_status, actor_id, created_at
		FROM report_status_history
		WHERE reference_id = ?
		ORDER BY id ASC`, referenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StatusChange
	for rows.Next() {
		var (
			c    domain.StatusChange
			from string
			to   string
		)
		if err := rows.Scan(&c.ReferenceID, &from, &to, &c.ActorID, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.FromStatus = domain.Status(from)
		c.ToStatus = domain.Status(to)
		out = append(out, c)
	}
	return out, rows.Err()
}
