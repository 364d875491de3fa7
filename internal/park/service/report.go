package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caremypark/caremypark/internal/park/blob"
	"github.com/caremypark/caremypark/internal/park/domain"
	"github.com/caremypark/caremypark/internal/park/policy"
	"github.com/caremypark/caremypark/internal/park/store"
	"github.com/caremypark/caremypark/pkg/refid"
)

// maxRefIDAttempts bounds the collision retry loop on report creation.
const maxRefIDAttempts = 5

// defaultLocation stands in when the submitter leaves the location blank.
const defaultLocation = "Unknown"

// weeklyTrendDays is how many most-recent days the statistics trend covers.
const weeklyTrendDays = 7

// PhotoUpload is one attachment on a new report. Content must be seekable so
// a reference-id collision retry can replay the upload.
type PhotoUpload struct {
	Filename string
	Content  io.ReadSeeker
}

// CreateInput is everything a caller supplies when filing a report.
type CreateInput struct {
	ProblemType domain.ProblemType
	Description string
	Location    string
	IsAnonymous bool
	Photos      []PhotoUpload
}

// ListFilter narrows report listings. Nil fields are ignored.
type ListFilter struct {
	Status      *domain.Status
	ProblemType *domain.ProblemType
	Priority    *domain.Priority
	Limit       int
}

// TrackView is the reduced, identity-free view served to callers following
// up a reference ID without logging in.
type TrackView struct {
	ReferenceID string
	ProblemType domain.ProblemType
	Status      domain.Status
	Priority    domain.Priority
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TrendPoint is one day's report volume in the weekly trend.
type TrendPoint struct {
	Date  string // YYYY-MM-DD
	Count int
}

// Statistics is the authority-facing all-time summary.
type Statistics struct {
	Total          int
	ByStatus       map[domain.Status]int
	ByProblemType  map[domain.ProblemType]int
	ResolutionRate float64 // resolved / total, 0 when there are no reports
	WeeklyTrend    []TrendPoint
}

type ReportService struct {
	Store  store.Store
	Blobs  blob.Store
	Policy policy.Engine
}

// Create validates and files a new report. The report row and its initial
// history entry are written in one transaction; a reference-id collision
// regenerates and retries.
func (s *ReportService) Create(ctx context.Context, p policy.Principal, in CreateInput) (domain.Report, error) {
	if d := s.Policy.Authorize(p, policy.ActionCreate); !d.Allowed {
		return domain.Report{}, denialError(d)
	}

	if !in.ProblemType.Valid() {
		return domain.Report{}, fmt.Errorf("%w: unknown problem type %q", ErrValidation, in.ProblemType)
	}
	if strings.TrimSpace(in.Description) == "" {
		return domain.Report{}, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if len(in.Photos) > domain.MaxPhotoRefs {
		return domain.Report{}, fmt.Errorf("%w: at most %d photos per report", ErrValidation, domain.MaxPhotoRefs)
	}

	var submitterID *string
	isAnonymous := in.IsAnonymous
	if p.Anonymous() {
		// No account to attribute the report to, so it is anonymous
		// whether or not the caller asked.
		isAnonymous = true
	} else {
		uid := p.UserID
		submitterID = &uid
	}

	// Location is optional free text.
	location := strings.TrimSpace(in.Location)
	if location == "" {
		location = defaultLocation
	}

	now := time.Now().UTC()

	for attempt := 0; attempt < maxRefIDAttempts; attempt++ {
		ref, err := refid.New()
		if err != nil {
			return domain.Report{}, fmt.Errorf("failed to generate reference id: %w", err)
		}

		photoRefs, err := s.storePhotos(ctx, ref, in.Photos)
		if err != nil {
			return domain.Report{}, err
		}

		rep := domain.Report{
			ReferenceID: ref,
			SubmitterID: submitterID,
			IsAnonymous: isAnonymous,
			ProblemType: in.ProblemType,
			Description: strings.TrimSpace(in.Description),
			Location:    location,
			PhotoRefs:   photoRefs,
			Priority:    domain.PriorityMedium,
			Status:      domain.StatusSubmitted,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = s.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Reports().CreateReport(ctx, rep); err != nil {
				return err
			}
			return tx.StatusHistory().AppendStatusChange(ctx, domain.StatusChange{
				ReferenceID: ref,
				ToStatus:    domain.StatusSubmitted,
				ActorID:     p.UserID,
				CreatedAt:   now,
			})
		})
		if err == nil {
			return rep, nil
		}
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		return domain.Report{}, fmt.Errorf("failed to store report: %w", err)
	}

	return domain.Report{}, ErrGenerationExhausted
}

// List returns reports visible to the principal, newest first. Visitors are
// scoped to their own submissions; the priority filter is authority-only.
func (s *ReportService) List(ctx context.Context, p policy.Principal, f ListFilter) ([]domain.Report, error) {
	if d := s.Policy.Authorize(p, policy.ActionList); !d.Allowed {
		return nil, denialError(d)
	}

	if f.Status != nil && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *f.Status)
	}
	if f.ProblemType != nil && !f.ProblemType.Valid() {
		return nil, fmt.Errorf("%w: unknown problem type %q", ErrValidation, *f.ProblemType)
	}
	if f.Priority != nil {
		if !p.IsAuthority() {
			return nil, ErrForbidden
		}
		if !f.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, *f.Priority)
		}
	}

	filter := store.ReportFilter{
		Status:      f.Status,
		ProblemType: f.ProblemType,
		Priority:    f.Priority,
		Limit:       f.Limit,
	}
	if !p.IsAuthority() {
		uid := p.UserID
		filter.SubmitterID = &uid
	}

	reports, err := s.Store.Reports().ListReports(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	for i := range reports {
		reports[i] = s.Policy.Redact(p, reports[i])
	}
	return reports, nil
}

// GetByReference returns a single report. Visitors asking about someone
// else's report get a not-found, never a forbidden, so reference IDs can't
// be probed for existence.
func (s *ReportService) GetByReference(ctx context.Context, p policy.Principal, ref string) (domain.Report, error) {
	rep, err := s.fetchAuthorized(ctx, p, ref)
	if err != nil {
		return domain.Report{}, err
	}
	return s.Policy.Redact(p, rep), nil
}

// Track serves the reduced follow-up view for a reference ID. Available to
// anonymous callers when anonymous tracking is enabled.
func (s *ReportService) Track(ctx context.Context, p policy.Principal, ref string) (TrackView, error) {
	if d := s.Policy.Authorize(p, policy.ActionTrack); !d.Allowed {
		return TrackView{}, denialError(d)
	}
	if !refid.Valid(ref) {
		return TrackView{}, fmt.Errorf("%w: malformed reference id", ErrValidation)
	}

	rep, err := s.Store.Reports().GetReportByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TrackView{}, ErrNotFound
		}
		return TrackView{}, fmt.Errorf("failed to load report: %w", err)
	}

	return TrackView{
		ReferenceID: rep.ReferenceID,
		ProblemType: rep.ProblemType,
		Status:      rep.Status,
		Priority:    rep.Priority,
		CreatedAt:   rep.CreatedAt,
		UpdatedAt:   rep.UpdatedAt,
	}, nil
}

// UpdateStatus moves a report one step along its lifecycle, optionally
// adjusting priority in the same write. The swap is optimistic: if another
// update changed the status since our read, the caller gets
// ErrConcurrentModification and must re-read.
func (s *ReportService) UpdateStatus(ctx context.Context, p policy.Principal, ref string, next domain.Status, priority *domain.Priority) (domain.Report, error) {
	if d := s.Policy.Authorize(p, policy.ActionUpdateStatus); !d.Allowed {
		return domain.Report{}, denialError(d)
	}

	if !next.Valid() {
		return domain.Report{}, fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}
	if priority != nil && !priority.Valid() {
		return domain.Report{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, *priority)
	}
	if !refid.Valid(ref) {
		return domain.Report{}, fmt.Errorf("%w: malformed reference id", ErrValidation)
	}

	rep, err := s.Store.Reports().GetReportByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Report{}, ErrNotFound
		}
		return domain.Report{}, fmt.Errorf("failed to load report: %w", err)
	}

	if !rep.Status.CanTransitionTo(next) {
		return domain.Report{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rep.Status, next)
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Reports().CompareAndSwapStatus(ctx, ref, rep.Status, next, priority, now); err != nil {
			return err
		}
		return tx.StatusHistory().AppendStatusChange(ctx, domain.StatusChange{
			ReferenceID: ref,
			FromStatus:  rep.Status,
			ToStatus:    next,
			ActorID:     p.UserID,
			CreatedAt:   now,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The swap matched no row: either the report vanished or the
			// status moved underneath us. Tell those apart.
			if _, getErr := s.Store.Reports().GetReportByReference(ctx, ref); getErr == nil {
				return domain.Report{}, ErrConcurrentModification
			}
			return domain.Report{}, ErrNotFound
		}
		return domain.Report{}, fmt.Errorf("failed to update status: %w", err)
	}

	rep.Status = next
	rep.UpdatedAt = now
	if priority != nil {
		rep.Priority = *priority
	}
	return rep, nil
}

// History returns the status timeline for a report, oldest first. Access
// follows the same rule as reading the report itself.
func (s *ReportService) History(ctx context.Context, p policy.Principal, ref string) ([]domain.StatusChange, error) {
	if _, err := s.fetchAuthorized(ctx, p, ref); err != nil {
		return nil, err
	}

	changes, err := s.Store.StatusHistory().ListStatusChanges(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	return changes, nil
}

// Statistics summarises all reports for authority dashboards.
func (s *ReportService) Statistics(ctx context.Context, p policy.Principal) (Statistics, error) {
	if d := s.Policy.Authorize(p, policy.ActionViewStatistics); !d.Allowed {
		return Statistics{}, denialError(d)
	}

	byStatus, err := s.Store.Reports().CountByStatus(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to count by status: %w", err)
	}
	byType, err := s.Store.Reports().CountByProblemType(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to count by problem type: %w", err)
	}
	trend, err := s.Store.Reports().CountCreatedByDay(ctx, weeklyTrendDays)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to count weekly trend: %w", err)
	}

	stats := Statistics{
		ByStatus:      byStatus,
		ByProblemType: byType,
		WeeklyTrend:   make([]TrendPoint, 0, len(trend)),
	}
	for _, d := range trend {
		stats.WeeklyTrend = append(stats.WeeklyTrend, TrendPoint{Date: d.Day, Count: d.Count})
	}
	for _, n := range byStatus {
		stats.Total += n
	}
	if stats.Total > 0 {
		stats.ResolutionRate = float64(byStatus[domain.StatusResolved]) / float64(stats.Total)
	}
	return stats, nil
}

// OpenPhoto streams a stored report photo.
func (s *ReportService) OpenPhoto(ctx context.Context, photoRef string) (io.ReadCloser, error) {
	rc, err := s.Blobs.Open(ctx, photoRef)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}
	return rc, nil
}

// fetchAuthorized loads a report and applies the read rule. Hidden reports
// surface as ErrNotFound so non-authority callers can't confirm existence.
func (s *ReportService) fetchAuthorized(ctx context.Context, p policy.Principal, ref string) (domain.Report, error) {
	if !refid.Valid(ref) {
		return domain.Report{}, fmt.Errorf("%w: malformed reference id", ErrValidation)
	}

	rep, err := s.Store.Reports().GetReportByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Report{}, ErrNotFound
		}
		return domain.Report{}, fmt.Errorf("failed to load report: %w", err)
	}

	if d := s.Policy.AuthorizeReport(p, rep); !d.Allowed {
		return domain.Report{}, denialError(d)
	}
	return rep, nil
}

// storePhotos writes each upload under the report's reference, rewinding
// first so collision retries replay cleanly.
func (s *ReportService) storePhotos(ctx context.Context, ref string, photos []PhotoUpload) ([]string, error) {
	if len(photos) == 0 {
		return nil, nil
	}

	refs := make([]string, 0, len(photos))
	for i, ph := range photos {
		if _, err := ph.Content.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind photo %q: %w", ph.Filename, err)
		}
		photoRef, err := s.Blobs.Put(ctx, ref, i, ph.Filename, ph.Content)
		if err != nil {
			if errors.Is(err, blob.ErrUnsupported) {
				return nil, fmt.Errorf("%w: unsupported photo type %q", ErrValidation, ph.Filename)
			}
			return nil, fmt.Errorf("failed to store photo %q: %w", ph.Filename, err)
		}
		refs = append(refs, photoRef)
	}
	return refs, nil
}

// denialError converts a policy decision into the matching sentinel.
func denialError(d policy.Decision) error {
	switch d.Reason {
	case policy.ReasonUnauthenticated:
		return ErrUnauthenticated
	case policy.ReasonHidden:
		return ErrNotFound
	default:
		return ErrForbidden
	}
}
