package event

// Filter is a pure predicate built from up to four optional equality
// constraints. A nil constraint imposes no restriction; a set constraint
// requires exact equality with the corresponding event field.
type Filter struct {
	// Group is the optional group constraint.
	Group *uint32
	// Unit is the optional unit constraint.
	Unit *uint32
	// ID is the optional ID constraint.
	ID *uint32
	// Channel is the optional channel constraint.
	Channel *uint32
}

// Matches reports whether the event satisfies every set constraint.
func (f *Filter) Matches(e *Event) bool {
	if f.Group != nil && *f.Group != e.Group {
		return false
	}

	if f.Unit != nil && *f.Unit != e.Unit {
		return false
	}

	if f.ID != nil && *f.ID != e.ID {
		return false
	}

	if f.Channel != nil && *f.Channel != e.Channel {
		return false
	}

	return true
}
