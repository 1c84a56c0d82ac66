package utils

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")

	ErrJobNotFound       = errors.New("job not found")
	ErrJobNotReviewable  = errors.New("job is not awaiting review")
	ErrJobNotRefreshable = errors.New("job has no vendor id to refresh")
	ErrNotJobOwner       = errors.New("job belongs to another account")
	ErrTranscriptMissing = errors.New("transcript not available")

	ErrPlanNotFound         = errors.New("plan not found")
	ErrSubscriptionNotFound = errors.New("no subscription on file")
	ErrPricingNotConfigured = errors.New("pricing settings not configured")

	// ErrAlreadySettled reports a settlement attempt for a job that already
	// has its usage record. The caller treats it as success, not failure.
	ErrAlreadySettled = errors.New("job already settled")

	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidPage     = errors.New("invalid page parameter")
	ErrInvalidPageSize = errors.New("invalid page size parameter")
	ErrDatabaseError   = errors.New("database error")
	ErrVendorError     = errors.New("transcription vendor error")
)

// InsufficientFundsError carries the shortfall so the API can surface how
// much the caller is missing. Matches errors.Is(err, ErrInsufficientFunds).
type InsufficientFundsError struct {
	ShortfallMinutes int64
	ShortfallMinor   int64
	Currency         string
}

var ErrInsufficientFunds = errors.New("insufficient funds")

func (e *InsufficientFundsError) Error() string {
	return "insufficient funds for requested transcription"
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
