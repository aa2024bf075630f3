// Package access holds the immutable access-state snapshot: all known
// functions, organizations and subjects together with their group
// memberships, plus the closure queries the security gateway depends on.
package access

import (
	"factgate/pkg/domain"
)

// Function is a named capability. A function may be a group whose grant
// transitively includes its member functions.
type Function struct {
	Name string
	// Group marks the function-group variant. Members lists member function
	// names and is only meaningful when Group is set.
	Group   bool
	Members []string
}

// Organization is a tenant of the platform, identified by a numeric internal
// ID inside the snapshot and a global ID everywhere else. A group variant
// holds the internal IDs of its member organizations.
type Organization struct {
	InternalID int64
	ID         domain.OrganizationID
	Name       string
	// Group marks the organization-group variant. Members lists member
	// internal IDs and is only meaningful when Group is set.
	Group   bool
	Members []int64
}

// Subject is a user or subject group. Functions lists the function (or
// function-group) names granted directly to the subject.
type Subject struct {
	InternalID     int64
	ID             domain.SubjectID
	Name           string
	OrganizationID domain.OrganizationID
	Functions      []string
	// Group marks the subject-group variant. Members lists member internal
	// IDs and is only meaningful when Group is set.
	Group   bool
	Members []int64
}
