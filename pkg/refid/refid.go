// Package refid generates and validates the public reference codes handed to
// visitors when they file a report (e.g. CMP-20260830-K4T9XQ). The embedded
// date keeps codes roughly sortable and easy to eyeball; the suffix comes from
// a cryptographic random source so codes are not guessable or enumerable.
package refid

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// Prefix identifies CareMyPark reference codes.
const Prefix = "CMP"

const (
	suffixLength = 6
	alphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	dateLayout   = "20060102"
)

// ErrInvalid reports a malformed reference code.
var ErrInvalid = errors.New("refid: invalid reference id")

var pattern = regexp.MustCompile(`^` + Prefix + `-\d{8}-[A-Z0-9]{` + fmt.Sprint(suffixLength) + `}$`)

// New returns a fresh reference code stamped with the current UTC date.
func New() (string, error) {
	return NewAt(time.Now().UTC())
}

// NewAt generates a code stamped with the provided time's UTC date. Useful
// for tests and backdated imports.
func NewAt(t time.Time) (string, error) {
	suffix := make([]byte, suffixLength)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("refid: read random: %w", err)
		}
		suffix[i] = alphabet[n.Int64()]
	}
	return Prefix + "-" + t.UTC().Format(dateLayout) + "-" + string(suffix), nil
}

// Valid reports whether s has the canonical CMP-YYYYMMDD-XXXXXX form.
// It does not check the date for calendar validity beyond the digit shape.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Parse validates s and returns its embedded creation date (UTC midnight).
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !Valid(s) {
		return time.Time{}, ErrInvalid
	}
	date, err := time.Parse(dateLayout, s[len(Prefix)+1:len(Prefix)+1+len(dateLayout)])
	if err != nil {
		return time.Time{}, ErrInvalid
	}
	return date.UTC(), nil
}
