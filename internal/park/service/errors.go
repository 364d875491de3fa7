package service

import "errors"

// Sentinel errors for the service layer. HTTP handlers map these onto status
// codes; nothing below the services should need to know about HTTP.
var (
	// ErrValidation covers malformed or out-of-range input. Wrap it with
	// fmt.Errorf("%w: detail") so callers can surface the field at fault.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthenticated means the caller presented no usable identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller is known but not allowed.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound covers both genuinely missing resources and resources the
	// caller must not learn exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials is returned for any bad email/password pair,
	// deliberately without distinguishing which half was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAlreadyRegistered means the email is taken.
	ErrAlreadyRegistered = errors.New("email already registered")

	// ErrTwoFactorRequired is not a failure: the password checked out but the
	// caller must now complete the one-time passcode step.
	ErrTwoFactorRequired = errors.New("two-factor code required")

	// ErrTwoFactorAlreadyEnabled rejects re-enrolment of 2FA.
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor already enabled")

	// ErrInvalidOTP means the passcode didn't verify; attempts remain.
	ErrInvalidOTP = errors.New("invalid one-time passcode")

	// ErrOTPExhausted means too many bad passcodes; the challenge is void and
	// login must restart from the password step.
	ErrOTPExhausted = errors.New("one-time passcode attempts exhausted")

	// ErrChallengeExpired means the pending 2FA challenge lapsed or never
	// existed; login must restart from the password step.
	ErrChallengeExpired = errors.New("two-factor challenge expired")

	// ErrInvalidTransition rejects a status change the lifecycle doesn't allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConcurrentModification means another update won the race; the caller
	// should re-read and retry if still applicable.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrGenerationExhausted means reference id generation kept colliding.
	ErrGenerationExhausted = errors.New("reference id generation exhausted")
)
