// Package policy decides who may see and do what with reports. It is pure:
// no storage, no HTTP, just rules over a principal and a report. Services
// consult it before touching the store so access decisions live in one place.
package policy

import "github.com/caremypark/caremypark/internal/park/domain"

// Action is an operation a principal may attempt on the report system.
type Action string

const (
	ActionCreate         Action = "create"
	ActionList           Action = "list"
	ActionRead           Action = "read"
	ActionUpdateStatus   Action = "update_status"
	ActionViewStatistics Action = "view_statistics"
	ActionTrack          Action = "track"
)

// Reason explains a denial so callers can map it to the right error.
type Reason string

const (
	ReasonAllowed         Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
	// ReasonHidden means the principal must not learn the resource exists.
	ReasonHidden Reason = "hidden"
)

// Principal is the identity an authorization check runs against. A zero
// Principal is an anonymous caller.
type Principal struct {
	UserID string
	Role   domain.Role
}

func (p Principal) Anonymous() bool { return p.UserID == "" }

func (p Principal) IsAuthority() bool { return p.Role == domain.RoleAuthority }

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Allowed: false, Reason: r} }

// Engine evaluates access rules. AnonymousTracking toggles whether
// unauthenticated callers may look up the reduced tracking view by
// reference ID.
type Engine struct {
	AnonymousTracking bool
}

// Authorize checks a non-resource action (create, list, statistics).
// Resource-level reads go through AuthorizeReport.
func (e Engine) Authorize(p Principal, action Action) Decision {
	switch action {
	case ActionCreate:
		// Unauthenticated submissions ride on the anonymous tracking
		// feature: without it there is no way to follow the report up.
		if p.Anonymous() && !e.AnonymousTracking {
			return deny(ReasonUnauthenticated)
		}
		return allow()

	case ActionList:
		if p.Anonymous() {
			return deny(ReasonUnauthenticated)
		}
		return allow()

	case ActionUpdateStatus, ActionViewStatistics:
		if p.Anonymous() {
			return deny(ReasonUnauthenticated)
		}
		if !p.IsAuthority() {
			return deny(ReasonForbidden)
		}
		return allow()

	case ActionTrack:
		if e.AnonymousTracking || !p.Anonymous() {
			return allow()
		}
		return deny(ReasonUnauthenticated)

	default:
		return deny(ReasonForbidden)
	}
}

// AuthorizeReport checks whether the principal may read a specific report.
// Authorities see everything. Visitors see only their own submissions; for
// anyone else the report is hidden, not merely forbidden, so lookups by
// guessed reference IDs don't leak existence.
func (e Engine) AuthorizeReport(p Principal, rep domain.Report) Decision {
	if p.Anonymous() {
		return deny(ReasonUnauthenticated)
	}
	if p.IsAuthority() {
		return allow()
	}
	if rep.SubmitterID != nil && *rep.SubmitterID == p.UserID {
		return allow()
	}
	return deny(ReasonHidden)
}

// Redact strips submitter identity from a report when the viewer should see
// it as anonymous. The submitter themselves and authorities on
// non-anonymous reports see the full record.
func (e Engine) Redact(p Principal, rep domain.Report) domain.Report {
	if !rep.IsAnonymous {
		return rep
	}
	// The submitter still sees their own identity on the record.
	if rep.SubmitterID != nil && *rep.SubmitterID == p.UserID {
		return rep
	}
	rep.SubmitterID = nil
	return rep
}
