package refid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewFormat(t *testing.T) {
	t.Parallel()

	for range 50 {
		id, err := New()
		require.NoError(t, err)
		require.True(t, Valid(id), "generated id %q should be valid", id)
	}
}

func TestNewAtEmbedsDate(t *testing.T) {
	t.Parallel()

	stamp := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	id, err := NewAt(stamp)
	require.NoError(t, err)
	require.Contains(t, id, "CMP-20260314-")

	parsed, err := Parse(id)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), parsed)
}

func TestUniquenessSample(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id, err := New()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %q in small sample", id)
		seen[id] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in string
		ok bool
	}{
		{"CMP-20260830-A1B2C3", true},
		{"CMP-20260830-ABCDEF", true},
		{"cmp-20260830-A1B2C3", false},
		{"CMP-20260830-a1b2c3", false},
		{"CMP-2026083-A1B2C3", false},
		{"CMP-20260830-A1B2C", false},
		{"CMP-20260830-A1B2C34", false},
		{"XYZ-20260830-A1B2C3", false},
		{"", false},
		{"CMP-20260830-A1B2C3 ", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.ok, Valid(tc.in), "Valid(%q)", tc.in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Parse("CMP-99999999-ABCDEF")
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Parse("not-a-reference")
	require.ErrorIs(t, err, ErrInvalid)
}
