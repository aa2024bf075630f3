package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and boundary clients return
// these (optionally wrapped) so services can translate them into coded
// application errors.
//
// These represent factual states about resources, not policy decisions:
// - ErrNotFound: entity does not exist in the store
// - ErrConflict: a concurrent writer won; re-read to observe the result
// - ErrUnavailable: backing service temporarily unreachable
//
// For policy and input violations use pkg/apperrors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
