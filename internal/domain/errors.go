package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDoctorNotFound signals an NPI that is not present in the current index.
	ErrDoctorNotFound = errors.New("doctor not found")
	// ErrIndexNotReady signals that no index has been built yet.
	ErrIndexNotReady = errors.New("index not ready")
	// ErrInvalidQuery signals malformed query parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidSource signals a source row that cannot be decoded.
	ErrInvalidSource = errors.New("invalid source data")
)
