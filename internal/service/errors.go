package service

import "errors"

// Service error vocabulary. Handlers map these onto HTTP statuses with
// errors.Is; anything unmatched is a 500.
var (
	// ErrValidation covers malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict means a username or email is already registered for the
	// role.
	ErrConflict = errors.New("already registered")

	// ErrNotFound means the addressed record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOtp is deliberately the only failure signal of OTP
	// verification. Wrong code, expired code, unknown email, and a
	// consumed code are indistinguishable to the caller.
	ErrInvalidOtp = errors.New("invalid or expired otp")

	// ErrAuth covers bad credentials and missing role cookies.
	ErrAuth = errors.New("authentication failed")

	// ErrForbidden means the caller is authenticated but does not own the
	// addressed resource.
	ErrForbidden = errors.New("forbidden")

	// ErrTooManyRequests signals OTP issuance cooldown or exhausted
	// verification attempts.
	ErrTooManyRequests = errors.New("too many requests")

	// ErrSendFailed means the OTP mail could not be delivered; the code
	// was not persisted.
	ErrSendFailed = errors.New("could not send mail")
)
