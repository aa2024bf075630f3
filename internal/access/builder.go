package access

// Builder accumulates access state and freezes it into one immutable
// Snapshot. Entries can be bulk-set or added incrementally; re-adding an
// entry under the same key overwrites the prior value (last write wins) until
// Build is called.
type Builder struct {
	functions     map[string]Function
	organizations map[int64]Organization
	subjects      map[int64]Subject
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		functions:     map[string]Function{},
		organizations: map[int64]Organization{},
		subjects:      map[int64]Subject{},
	}
}

// SetFunctions replaces all accumulated functions.
func (b *Builder) SetFunctions(functions []Function) *Builder {
	b.functions = make(map[string]Function, len(functions))
	for _, f := range functions {
		b.functions[f.Name] = f
	}
	return b
}

// AddFunction adds or overwrites one function, keyed by name.
func (b *Builder) AddFunction(f Function) *Builder {
	b.functions[f.Name] = f
	return b
}

// SetOrganizations replaces all accumulated organizations.
func (b *Builder) SetOrganizations(organizations []Organization) *Builder {
	b.organizations = make(map[int64]Organization, len(organizations))
	for _, o := range organizations {
		b.organizations[o.InternalID] = o
	}
	return b
}

// AddOrganization adds or overwrites one organization, keyed by internal ID.
func (b *Builder) AddOrganization(o Organization) *Builder {
	b.organizations[o.InternalID] = o
	return b
}

// SetSubjects replaces all accumulated subjects.
func (b *Builder) SetSubjects(subjects []Subject) *Builder {
	b.subjects = make(map[int64]Subject, len(subjects))
	for _, s := range subjects {
		b.subjects[s.InternalID] = s
	}
	return b
}

// AddSubject adds or overwrites one subject, keyed by internal ID.
func (b *Builder) AddSubject(s Subject) *Builder {
	b.subjects[s.InternalID] = s
	return b
}

// Build freezes the accumulated state into an immutable Snapshot. The
// builder's maps are copied, so the builder can keep accumulating for a later
// snapshot without affecting the one returned. Secondary indexes (name,
// global ID, reverse membership) are derived here, once.
func (b *Builder) Build() *Snapshot {
	s := &Snapshot{
		functions:      make(map[string]Function, len(b.functions)),
		organizations:  make(map[int64]Organization, len(b.organizations)),
		orgsByName:     make(map[string]Organization, len(b.organizations)),
		orgsByID:       make(map[string]Organization, len(b.organizations)),
		subjects:       make(map[int64]Subject, len(b.subjects)),
		subjectsByID:   make(map[string]Subject, len(b.subjects)),
		orgParents:     map[int64][]int64{},
		subjectParents: map[int64][]int64{},
	}

	for name, f := range b.functions {
		s.functions[name] = f
	}
	for id, o := range b.organizations {
		s.organizations[id] = o
		s.orgsByName[o.Name] = o
		if !o.ID.IsNil() {
			s.orgsByID[o.ID.String()] = o
		}
		if o.Group {
			for _, member := range o.Members {
				s.orgParents[member] = append(s.orgParents[member], id)
			}
		}
	}
	for id, sub := range b.subjects {
		s.subjects[id] = sub
		if !sub.ID.IsNil() {
			s.subjectsByID[sub.ID.String()] = sub
		}
		if sub.Group {
			for _, member := range sub.Members {
				s.subjectParents[member] = append(s.subjectParents[member], id)
			}
		}
	}

	return s
}
