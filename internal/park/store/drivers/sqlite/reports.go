package sqlite

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/caremypark/caremypark/internal/park/domain"
	"github.com/caremypark/caremypark/internal/park/store"
)

type reportsRepo struct {
	q dbtx
}

const reportColumns = `reference_id, submitter_id, is_anonymous, problem_type, description,
	location, photo_refs, priority, status, created_at, updated_at`

func (r *reportsRepo) CreateReport(ctx context.Context, rep domain.Report) error {
	photoRefs, err := encodePhotoRefs(rep.PhotoRefs)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO reports (reference_id, submitter_id, is_anonymous, problem_type,
			description, location, photo_refs, priority, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.ReferenceID,
		mapOptionalString(rep.SubmitterID),
		rep.IsAnonymous,
		string(rep.ProblemType),
		rep.Description,
		rep.Location,
		photoRefs,
		string(rep.Priority),
		string(rep.Status),
		rep.CreatedAt.UTC(),
		rep.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *reportsRepo) GetReportByReference(ctx context.Context, referenceID string) (domain.Report, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+reportColumns+` FROM reports WHERE reference_id = ?`, referenceID)
	return scanReport(row)
}

func (r *reportsRepo) ListReports(ctx context.Context, f store.ReportFilter) ([]domain.Report, error) {
	var (
		where []string
		args  []any
	)
	if f.SubmitterID != nil {
		where = append(where, "submitter_id = ?")
		args = append(args, *f.SubmitterID)
	}
	if f.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.ProblemType != nil {
		where = append(where, "problem_type = ?")
		args = append(args, string(*f.ProblemType))
	}
	if f.Priority != nil {
		where = append(where, "priority = ?")
		args = append(args, string(*f.Priority))
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, reference_id DESC"
	if f.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(f.Limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Report
	for rows.Next() {
		rep, err := scanReportRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *reportsRepo) CompareAndSwapStatus(
	ctx context.Context,
	referenceID string,
	expect, next domain.Status,
	priority *domain.Priority,
	now time.Time,
) error {
	var (
		res sql.Result
		err error
	)
	if priority != nil {
		res, err = r.q.ExecContext(ctx, `
			UPDATE reports SET status = ?, priority = ?, updated_at = ?
			WHERE reference_id = ? AND status = ?`,
			string(next), string(*priority), now.UTC(), referenceID, string(expect))
	} else {
		res, err = r.q.ExecContext(ctx, `
			UPDATE reports SET status = ?, updated_at = ?
			WHERE reference_id = ? AND status = ?`,
			string(next), now.UTC(), referenceID, string(expect))
	}
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *reportsRepo) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM reports GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[domain.Status(status)] = count
	}
	return out, rows.Err()
}

func (r *reportsRepo) CountByProblemType(ctx context.Context) (map[domain.ProblemType]int, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT problem_type, COUNT(*) FROM reports GROUP BY problem_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.ProblemType]int)
	for rows.Next() {
		var (
			problemType string
			count       int
		)
		if err := rows.Scan(&problemType, &count); err != nil {
			return nil, err
		}
		out[domain.ProblemType(problemType)] = count
	}
	return out, rows.Err()
}

func (r *reportsRepo) CountCreatedByDay(ctx context.Context, days int) ([]store.DayCount, error) {
	// created_at is stored as an ISO-ish timestamp string, so its first ten
	// characters are the calendar day. The inner query picks the newest days,
	// the outer one flips them back into chronological order.
	rows, err := r.q.QueryContext(ctx, `
		SELECT day, cnt FROM (
			SELECT substr(created_at, 1, 10) AS day, COUNT(*) AS cnt
			FROM reports GROUP BY day ORDER BY day DESC LIMIT ?
		) ORDER BY day ASC`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.DayCount
	for rows.Next() {
		var d store.DayCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row *sql.Row) (domain.Report, error) {
	rep, err := scanReportFrom(row)
	if err != nil {
		return domain.Report{}, mapNotFound(err)
	}
	return rep, nil
}

func scanReportRows(rows *sql.Rows) (domain.Report, error) {
	return scanReportFrom(rows)
}

func scanReportFrom(s scanner) (domain.Report, error) {
	var (
		rep         domain.Report
		submitter   sql.NullString
		problemType string
		photoRefs   string
		priority    string
		status      string
	)
	err := s.Scan(
		&rep.ReferenceID, &submitter, &rep.IsAnonymous, &problemType,
		&rep.Description, &rep.Location, &photoRefs, &priority, &status,
		&rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		return domain.Report{}, err
	}

	rep.SubmitterID = mapNullStringPtr(submitter)
	rep.ProblemType = domain.ProblemType(problemType)
	rep.Priority = domain.Priority(priority)
	rep.Status = domain.Status(status)
	rep.PhotoRefs, err = decodePhotoRefs(photoRefs)
	if err != nil {
		return domain.Report{}, err
	}
	return rep, nil
}
