package lookup

import "context"

// TargetLoader supplies the candidate target entity logical names of a
// polymorphic lookup. It may be nil for single-target lookups configured
// entirely from the caller side.
type TargetLoader func(ctx context.Context) ([]string, error)

// TargetSet is the ordered set of target entity types plus the active one.
// Order is first-seen; names are unique.
type TargetSet struct {
	Names  []string
	Active int // index into Names; -1 when the set is empty
}

// ActiveName returns the active target logical name, or "" for an empty set.
func (t TargetSet) ActiveName() string {
	if t.Active < 0 || t.Active >= len(t.Names) {
		return ""
	}
	return t.Names[t.Active]
}

// Cycle moves the active target by delta with wraparound.
func (t *TargetSet) Cycle(delta int) {
	n := len(t.Names)
	if n == 0 {
		return
	}
	t.Active = ((t.Active+delta)%n + n) % n
}

// ResolveTargets invokes the loader (when present), unions the existing
// record's target so the current value's type is always a member of the
// displayed set, de-duplicates preserving first-seen order, and picks the
// initial active target: a still-present previously active target wins,
// then the existing record's target, then the first candidate.
//
// A loader failure is returned with an empty set; the picker degrades to
// a disabled state instead of crashing.
func ResolveTargets(ctx context.Context, loader TargetLoader, existing, previousActive string) (TargetSet, error) {
	var candidates []string
	if loader != nil {
		var err error
		candidates, err = loader(ctx)
		if err != nil {
			return TargetSet{Active: -1}, err
		}
	}

	seen := make(map[string]bool, len(candidates)+1)
	var names []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, c := range candidates {
		add(c)
	}
	add(existing)

	set := TargetSet{Names: names, Active: -1}
	switch {
	case previousActive != "" && seen[previousActive]:
		set.Active = indexOf(names, previousActive)
	case existing != "" && seen[existing]:
		set.Active = indexOf(names, existing)
	case len(names) > 0:
		set.Active = 0
	}
	return set, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
