package domain

import "time"

// Status is the lifecycle state of a report. Transitions are forward-only:
// submitted -> in_process -> resolved. There is no regression and no skipping
// straight to resolved.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusInProcess Status = "in_process"
	StatusResolved  Status = "resolved"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusInProcess, StatusResolved:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a legal step from s. The table is
// the single source of truth for the status machine; nothing else in the
// codebase is allowed to reason about ordering.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusSubmitted:
		return next == StatusInProcess
	case StatusInProcess:
		return next == StatusResolved
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ProblemType categorises what a visitor is reporting.
type ProblemType string

const (
	ProblemLitter      ProblemType = "litter"
	ProblemDamage      ProblemType = "damage"
	ProblemSafety      ProblemType = "safety"
	ProblemMaintenance ProblemType = "maintenance"
	ProblemVandalism   ProblemType = "vandalism"
	ProblemOther       ProblemType = "other"
)

func (p ProblemType) Valid() bool {
	switch p {
	case ProblemLitter, ProblemDamage, ProblemSafety,
		ProblemMaintenance, ProblemVandalism, ProblemOther:
		return true
	}
	return false
}

// MaxPhotoRefs caps the number of photo attachments per report.
const MaxPhotoRefs = 5

// Report is a single issue filed by a park visitor.
//
// SubmitterID is retained even for anonymous reports (audit and dedup);
// anonymity is a view concern enforced by the policy engine, never at rest.
type Report struct {
	ReferenceID string // public CMP-YYYYMMDD-XXXXXX code, immutable
	SubmitterID *string
	IsAnonymous bool
	ProblemType ProblemType
	Description string
	Location    string
	PhotoRefs   []string // ordered opaque blob references, 0..5
	Priority    Priority
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time // bumped only on status transition, never on read
}

// StatusChange is one entry in a report's audit timeline.
type StatusChange struct {
	ReferenceID string
	FromStatus  Status
	ToStatus    Status
	ActorID     string // authority user who performed the transition
	CreatedAt   time.Time
}
