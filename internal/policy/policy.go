// Package policy holds the pure access-mode composition rules applied when a
// new or updated fact derives from an existing one.
package policy

import (
	"factgate/pkg/apperrors"
	"factgate/pkg/domain"
)

// ResolveAccessMode computes the effective access mode for a fact from the
// mode of the entity it references and the mode requested by the caller.
// Either side may be absent (nil).
//
//   - both absent: no mode is asserted (nil, nil)
//   - requested absent: the referenced mode is inherited unchanged
//   - referenced absent: the requested mode is adopted
//   - both present: the requested mode must be equal to or more restrictive
//     than the referenced mode; relaxing visibility beyond what the
//     referenced entity permits is an invalid argument
//
// This keeps access monotonic: a derived fact can never be made more visible
// than what it was derived from.
func ResolveAccessMode(referenced, requested *domain.AccessMode) (*domain.AccessMode, error) {
	if requested == nil {
		return referenced, nil
	}
	if referenced == nil {
		return requested, nil
	}
	if !requested.IsAtLeast(*referenced) {
		return nil, apperrors.InvalidArgument("accessMode", "access.mode.too.wide")
	}
	return requested, nil
}
