package policy

import (
	"testing"

	"github.com/caremypark/caremypark/internal/park/domain"
	"github.com/stretchr/testify/require"
)

var (
	anon      = Principal{}
	visitor   = Principal{UserID: "visitor-1", Role: domain.RoleVisitor}
	authority = Principal{UserID: "authority-1", Role: domain.RoleAuthority}
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	withTracking := Engine{AnonymousTracking: true}
	noTracking := Engine{AnonymousTracking: false}

	cases := []struct {
		name      string
		engine    Engine
		principal Principal
		action    Action
		allowed   bool
		reason    Reason
	}{
		{"anon create allowed with tracking", withTracking, anon, ActionCreate, true, ReasonAllowed},
		{"anon create denied without tracking", noTracking, anon, ActionCreate, false, ReasonUnauthenticated},
		{"visitor create", noTracking, visitor, ActionCreate, true, ReasonAllowed},
		{"authority create", noTracking, authority, ActionCreate, true, ReasonAllowed},

		{"anon list denied", withTracking, anon, ActionList, false, ReasonUnauthenticated},
		{"visitor list", withTracking, visitor, ActionList, true, ReasonAllowed},
		{"authority list", withTracking, authority, ActionList, true, ReasonAllowed},

		{"anon update denied", withTracking, anon, ActionUpdateStatus, false, ReasonUnauthenticated},
		{"visitor update denied", withTracking, visitor, ActionUpdateStatus, false, ReasonForbidden},
		{"authority update", withTracking, authority, ActionUpdateStatus, true, ReasonAllowed},

		{"visitor statistics denied", withTracking, visitor, ActionViewStatistics, false, ReasonForbidden},
		{"authority statistics", withTracking, authority, ActionViewStatistics, true, ReasonAllowed},

		{"anon track allowed with tracking", withTracking, anon, ActionTrack, true, ReasonAllowed},
		{"anon track denied without tracking", noTracking, anon, ActionTrack, false, ReasonUnauthenticated},
		{"visitor track always allowed", noTracking, visitor, ActionTrack, true, ReasonAllowed},

		{"unknown action denied", withTracking, authority, Action("bogus"), false, ReasonForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := tc.engine.Authorize(tc.principal, tc.action)
			require.Equal(t, tc.allowed, d.Allowed)
			require.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestAuthorizeReport(t *testing.T) {
	t.Parallel()

	e := Engine{}
	owner := visitor.UserID
	ownReport := domain.Report{ReferenceID: "CMP-20260830-AAAAAA", SubmitterID: &owner}
	otherID := "someone-else"
	otherReport := domain.Report{ReferenceID: "CMP-20260830-BBBBBB", SubmitterID: &otherID}
	anonymousReport := domain.Report{ReferenceID: "CMP-20260830-CCCCCC", IsAnonymous: true}

	t.Run("anon denied", func(t *testing.T) {
		d := e.AuthorizeReport(anon, ownReport)
		require.False(t, d.Allowed)
		require.Equal(t, ReasonUnauthenticated, d.Reason)
	})

	t.Run("authority sees everything", func(t *testing.T) {
		for _, rep := range []domain.Report{ownReport, otherReport, anonymousReport} {
			require.True(t, e.AuthorizeReport(authority, rep).Allowed)
		}
	})

	t.Run("visitor sees own report", func(t *testing.T) {
		require.True(t, e.AuthorizeReport(visitor, ownReport).Allowed)
	})

	t.Run("visitor cannot see others", func(t *testing.T) {
		d := e.AuthorizeReport(visitor, otherReport)
		require.False(t, d.Allowed)
		require.Equal(t, ReasonHidden, d.Reason)
	})

	t.Run("visitor cannot see submitterless report", func(t *testing.T) {
		d := e.AuthorizeReport(visitor, anonymousReport)
		require.False(t, d.Allowed)
		require.Equal(t, ReasonHidden, d.Reason)
	})
}

func TestRedact(t *testing.T) {
	t.Parallel()

	e := Engine{}
	owner := visitor.UserID

	t.Run("non-anonymous report untouched", func(t *testing.T) {
		rep := domain.Report{SubmitterID: &owner, IsAnonymous: false}
		got := e.Redact(authority, rep)
		require.NotNil(t, got.SubmitterID)
		require.Equal(t, owner, *got.SubmitterID)
	})

	t.Run("anonymous report hides submitter from authority", func(t *testing.T) {
		rep := domain.Report{SubmitterID: &owner, IsAnonymous: true}
		got := e.Redact(authority, rep)
		require.Nil(t, got.SubmitterID)
	})

	t.Run("submitter still sees own identity", func(t *testing.T) {
		rep := domain.Report{SubmitterID: &owner, IsAnonymous: true}
		got := e.Redact(visitor, rep)
		require.NotNil(t, got.SubmitterID)
		require.Equal(t, owner, *got.SubmitterID)
	})
}
