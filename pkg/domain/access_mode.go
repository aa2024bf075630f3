package domain

import (
	"fmt"
)

// AccessMode is the visibility tier of a fact. Modes form a total order of
// increasing restrictiveness: Public < RoleBased < Explicit.
type AccessMode string

const (
	// AccessModePublic grants unconditional read access.
	AccessModePublic AccessMode = "Public"
	// AccessModeRoleBased grants read access within the owning organization's
	// group closure.
	AccessModeRoleBased AccessMode = "RoleBased"
	// AccessModeExplicit grants read access only to subjects on the fact's ACL.
	AccessModeExplicit AccessMode = "Explicit"
)

// modeOrder defines restrictiveness; higher numbers are more restrictive.
var modeOrder = map[AccessMode]int{
	AccessModePublic:    1,
	AccessModeRoleBased: 2,
	AccessModeExplicit:  3,
}

// ParseAccessMode validates and returns an AccessMode.
// Returns an error if the mode is unknown.
func ParseAccessMode(s string) (AccessMode, error) {
	m := AccessMode(s)
	if _, ok := modeOrder[m]; !ok {
		return "", fmt.Errorf("unknown access mode: %s", s)
	}
	return m, nil
}

// String returns the string representation of the access mode.
func (m AccessMode) String() string {
	return string(m)
}

// IsAtLeast reports whether this mode is equal to or more restrictive than
// other. Unknown modes compare lower than any known mode.
func (m AccessMode) IsAtLeast(other AccessMode) bool {
	thisOrder, thisOK := modeOrder[m]
	otherOrder, otherOK := modeOrder[other]
	if !thisOK {
		return false
	}
	if !otherOK {
		return true
	}
	return thisOrder >= otherOrder
}

// AccessModes returns all modes ordered from least to most restrictive.
func AccessModes() []AccessMode {
	return []AccessMode{AccessModePublic, AccessModeRoleBased, AccessModeExplicit}
}
