package access

// Snapshot is an immutable, point-in-time view of the access state. It is
// safe to share across concurrently executing requests; updates are published
// by building a whole new snapshot and swapping a single reference (see
// Provider), never by mutating an existing one.
type Snapshot struct {
	functions map[string]Function

	organizations map[int64]Organization
	orgsByName    map[string]Organization
	orgsByID      map[string]Organization // keyed by global ID string

	subjects     map[int64]Subject
	subjectsByID map[string]Subject // keyed by global ID string

	// Reverse membership edges, derived once at freeze so parent queries do
	// not scan every group.
	orgParents     map[int64][]int64
	subjectParents map[int64][]int64
}

// Function returns the function or function group with the given name.
func (s *Snapshot) Function(name string) (Function, bool) {
	f, ok := s.functions[name]
	return f, ok
}

// Organization returns the organization or organization group with the given
// internal ID.
func (s *Snapshot) Organization(internalID int64) (Organization, bool) {
	o, ok := s.organizations[internalID]
	return o, ok
}

// OrganizationByName returns the organization with the given display name.
func (s *Snapshot) OrganizationByName(name string) (Organization, bool) {
	o, ok := s.orgsByName[name]
	return o, ok
}

// OrganizationByGlobalID returns the organization with the given global ID.
func (s *Snapshot) OrganizationByGlobalID(id string) (Organization, bool) {
	o, ok := s.orgsByID[id]
	return o, ok
}

// Subject returns the subject or subject group with the given internal ID.
func (s *Snapshot) Subject(internalID int64) (Subject, bool) {
	sub, ok := s.subjects[internalID]
	return sub, ok
}

// SubjectByGlobalID returns the subject with the given global ID.
func (s *Snapshot) SubjectByGlobalID(id string) (Subject, bool) {
	sub, ok := s.subjectsByID[id]
	return sub, ok
}

// ParentOrganizations returns every organization group that directly or
// transitively lists internalID as a member. Unknown or non-member IDs yield
// an empty result. The walk keeps a visited set, so membership cycles in the
// source data terminate instead of recursing forever.
func (s *Snapshot) ParentOrganizations(internalID int64) []Organization {
	var parents []Organization
	visited := map[int64]struct{}{}
	queue := append([]int64(nil), s.orgParents[internalID]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		if parent, ok := s.organizations[id]; ok {
			parents = append(parents, parent)
			queue = append(queue, s.orgParents[id]...)
		}
	}
	return parents
}

// ChildOrganizations returns the direct members of an organization group and,
// recursively, their descendants. Non-group or unknown IDs yield an empty
// result.
func (s *Snapshot) ChildOrganizations(internalID int64) []Organization {
	root, ok := s.organizations[internalID]
	if !ok || !root.Group {
		return nil
	}

	var children []Organization
	visited := map[int64]struct{}{internalID: {}}
	queue := append([]int64(nil), root.Members...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		child, ok := s.organizations[id]
		if !ok {
			continue
		}
		children = append(children, child)
		if child.Group {
			queue = append(queue, child.Members...)
		}
	}
	return children
}

// ParentSubjects returns every subject group that directly or transitively
// lists internalID as a member, mirroring ParentOrganizations.
func (s *Snapshot) ParentSubjects(internalID int64) []Subject {
	var parents []Subject
	visited := map[int64]struct{}{}
	queue := append([]int64(nil), s.subjectParents[internalID]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		if parent, ok := s.subjects[id]; ok {
			parents = append(parents, parent)
			queue = append(queue, s.subjectParents[id]...)
		}
	}
	return parents
}

// ExpandFunctions resolves a set of granted function names through
// function-group membership. The result contains every function name the
// grants transitively cover, including the group names themselves. Unknown
// names are kept; a grant does not stop naming a function just because the
// snapshot has no definition for it.
func (s *Snapshot) ExpandFunctions(names []string) map[string]struct{} {
	expanded := make(map[string]struct{}, len(names))
	queue := append([]string(nil), names...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, seen := expanded[name]; seen {
			continue
		}
		expanded[name] = struct{}{}
		if f, ok := s.functions[name]; ok && f.Group {
			queue = append(queue, f.Members...)
		}
	}
	return expanded
}
