package sdk

import "github.com/kailas-cloud/carefinder/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrDoctorNotFound = domain.ErrDoctorNotFound
	ErrIndexNotReady  = domain.ErrIndexNotReady
	ErrInvalidSource  = domain.ErrInvalidSource
)
