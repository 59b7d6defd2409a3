package db

import "errors"

// Domain-level database error sentinels.
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Report errors
	ErrReportNotFound = errors.New("report not found")

	// Share token errors
	ErrShareTokenNotFound = errors.New("share token not found")
	ErrDuplicateToken     = errors.New("token string already exists")
)
