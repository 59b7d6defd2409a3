package sharing

import "errors"

// Validation failures on issuance. Surfaced verbatim to the issuing user.
var (
	ErrNoReports        = errors.New("at least one report is required")
	ErrInvalidEmail     = errors.New("invalid recipient email address")
	ErrExpiryOutOfRange = errors.New("expiry must be between 1 and 30 days")
	ErrExpiryInPast     = errors.New("expiry must be in the future")
)

// ErrNotFoundOrForbidden covers failed ownership checks on issue and revoke.
// It deliberately does not reveal whether the resource exists.
var ErrNotFoundOrForbidden = errors.New("not found")

// Terminal states on the validation path. These are expected, user-facing
// outcomes, not application errors.
var (
	ErrInvalidToken = errors.New("invalid share token")
	ErrRevoked      = errors.New("this share link has been revoked")
	ErrExpired      = errors.New("this share link has expired")
	ErrAuthRequired = errors.New("this share link requires authentication")
	ErrNotRecipient = errors.New("you are not authorized to view this shared report")
)

// IsValidationError reports whether err is a malformed-input failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNoReports) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrExpiryOutOfRange) ||
		errors.Is(err, ErrExpiryInPast)
}

// IsDenial reports whether err is one of the expected validation-path
// outcomes. Anything that is neither a denial, a validation error, nor
// ErrNotFoundOrForbidden is a transient storage failure and must not be
// presented to the user as "token invalid".
func IsDenial(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrRevoked) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrAuthRequired) ||
		errors.Is(err, ErrNotRecipient)
}
