package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/caremypark/caremypark/internal/park/domain"
	"github.com/caremypark/caremypark/internal/park/store"
	"github.com/caremypark/caremypark/pkg/cryptox"
	"github.com/caremypark/caremypark/pkg/idx"
	"github.com/caremypark/caremypark/pkg/jwtx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// MaxOTPAttempts bounds failed passcode tries per challenge.
	MaxOTPAttempts = 5

	// DefaultChallengeTTL is how long a pending 2FA challenge stays valid.
	DefaultChallengeTTL = 5 * time.Minute

	minPasswordLength = 8
)

// totpOpts match the enrolment parameters, with a ±1 window skew so codes
// straddling a 30s boundary still verify.
var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// LoginResult is the outcome of a successful password check: either a full
// session, or a marker that the caller still owes a one-time passcode.
type LoginResult struct {
	Token             string
	ExpiresAt         time.Time
	TwoFactorRequired bool
}

// TwoFactorEnrollment carries the secret back to the user exactly once, along
// with the otpauth:// provisioning URI authenticator apps consume.
type TwoFactorEnrollment struct {
	Secret          string
	ProvisioningURI string
}

type AuthService struct {
	Store        store.Store
	Signer       *jwtx.Signer
	Issuer       string
	SessionTTL   time.Duration
	ChallengeTTL time.Duration

	// decoyHash keeps password verification running even for unknown
	// emails, so response timing doesn't reveal whether an account exists.
	decoyHash string
}

func NewAuthService(st store.Store, signer *jwtx.Signer, issuer string, sessionTTL, challengeTTL time.Duration) (*AuthService, error) {
	if sessionTTL <= 0 {
		sessionTTL = jwtx.DefaultSessionTTL
	}
	if challengeTTL <= 0 {
		challengeTTL = DefaultChallengeTTL
	}

	decoy, err := cryptox.HashPassword(idx.New().String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare decoy hash: %w", err)
	}

	return &AuthService{
		Store:        st,
		Signer:       signer,
		Issuer:       issuer,
		SessionTTL:   sessionTTL,
		ChallengeTTL: challengeTTL,
		decoyHash:    decoy,
	}, nil
}

// Register creates a visitor account. Authority accounts are provisioned via
// Bootstrap, never through self-registration.
func (s *AuthService) Register(ctx context.Context, email, password string) (domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return domain.User{}, err
	}
	if len(password) < minPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleVisitor,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrAlreadyRegistered
		}
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Bootstrap provisions the initial authority account when the user table is
// empty. Subsequent calls are no-ops, so it is safe to run at every startup.
func (s *AuthService) Bootstrap(ctx context.Context, email, password string) error {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing users: %w", err)
	}
	if !empty {
		return nil
	}

	email, err = normalizeEmail(email)
	if err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: bootstrap password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAuthority,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.Store.Users().CreateUser(ctx, user)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a startup race against another instance; someone bootstrapped.
		return nil
	}
	return err
}

// Login checks the password and either issues a session or, for accounts with
// 2FA enabled, opens a passcode challenge the caller must complete via
// VerifyTwoFactor.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same work as a real verification so unknown emails
			// don't answer faster than wrong passwords.
			_ = cryptox.VerifyPassword(password, s.decoyHash)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.HasTwoFactor() {
		now := time.Now().UTC()
		challenge := domain.TwoFactorChallenge{
			Email:     user.Email,
			Attempts:  0,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ChallengeTTL),
		}
		if err := s.Store.Challenges().UpsertChallenge(ctx, challenge); err != nil {
			return LoginResult{}, fmt.Errorf("failed to open 2fa challenge: %w", err)
		}
		return LoginResult{TwoFactorRequired: true}, nil
	}

	return s.issueSession(ctx, user)
}

// VerifyTwoFactor completes a pending challenge. Expired or missing
// challenges force the caller back to the password step; too many bad codes
// void the challenge entirely.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, email, code string) (LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return LoginResult{}, ErrChallengeExpired
	}

	challenge, err := s.Store.Challenges().GetChallenge(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrChallengeExpired
		}
		return LoginResult{}, fmt.Errorf("failed to load 2fa challenge: %w", err)
	}

	now := time.Now().UTC()
	if challenge.Expired(now) {
		_ = s.Store.Challenges().DeleteChallenge(ctx, email)
		return LoginResult{}, ErrChallengeExpired
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.HasTwoFactor() {
		return LoginResult{}, ErrChallengeExpired
	}

	valid, err := totp.ValidateCustom(code, *user.OTPSecret, now, totpOpts)
	if err != nil || !valid {
		updated, incErr := s.Store.Challenges().IncrementChallengeAttempts(ctx, email)
		if incErr != nil {
			return LoginResult{}, fmt.Errorf("failed to record failed attempt: %w", incErr)
		}
		if updated.Attempts >= MaxOTPAttempts {
			_ = s.Store.Challenges().DeleteChallenge(ctx, email)
			return LoginResult{}, ErrOTPExhausted
		}
		return LoginResult{}, ErrInvalidOTP
	}

	if err := s.Store.Challenges().DeleteChallenge(ctx, email); err != nil {
		return LoginResult{}, fmt.Errorf("failed to close 2fa challenge: %w", err)
	}

	return s.issueSession(ctx, user)
}

// EnableTwoFactor enrols the user in TOTP and returns the secret plus the
// provisioning URI. The secret is shown exactly once.
func (s *AuthService) EnableTwoFactor(ctx context.Context, userID string) (TwoFactorEnrollment, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TwoFactorEnrollment{}, ErrNotFound
		}
		return TwoFactorEnrollment{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.HasTwoFactor() {
		return TwoFactorEnrollment{}, ErrTwoFactorAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return TwoFactorEnrollment{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	// Store secret and flip the enabled flag atomically, so a crash between
	// the two can't leave an account half-enrolled.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateOTPSecret(ctx, userID, key.Secret()); err != nil {
			return fmt.Errorf("failed to store TOTP secret: %w", err)
		}
		if err := tx.Users().EnableTwoFactor(ctx, userID); err != nil {
			return fmt.Errorf("failed to enable 2fa: %w", err)
		}
		return nil
	})
	if err != nil {
		return TwoFactorEnrollment{}, err
	}

	return TwoFactorEnrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
	}, nil
}

func (s *AuthService) issueSession(ctx context.Context, user domain.User) (LoginResult, error) {
	now := time.Now().UTC()
	claims := jwtx.NewSessionClaims(user.ID, user.Email, string(user.Role), s.SessionTTL, s.Issuer, now)

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	if err := s.Store.Users().TouchLastLogin(ctx, user.ID); err != nil {
		return LoginResult{}, fmt.Errorf("failed to record login: %w", err)
	}

	return LoginResult{
		Token:     token,
		ExpiresAt: now.Add(s.SessionTTL),
	}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return email, nil
}
