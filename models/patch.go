package models

import "folio/errs"

// Patch is an atomic field-level update. Stores apply it as a single
// storage operation, never as read-modify-write.
type Patch struct {
	// AddToSet adds value to the set field unless already present.
	AddToSet map[string]string
	// Pull removes value from the set field.
	Pull map[string]string
	// Inc adds n to the numeric field.
	Inc map[string]int
	// Absent guards the whole patch: it applies only when, for every entry,
	// value is not yet a member of field.
	Absent map[string]string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return len(p.AddToSet) == 0 && len(p.Pull) == 0 && len(p.Inc) == 0
}

// CheckFields rejects a patch whose set entries fail sets or whose Inc
// entries fail counters.
func (p Patch) CheckFields(sets, counters func(field string) bool) error {
	for _, m := range []map[string]string{p.AddToSet, p.Pull, p.Absent} {
		for field := range m {
			if !sets(field) {
				return errs.Validation("unknown set field %q", field)
			}
		}
	}
	for field := range p.Inc {
		if !counters(field) {
			return errs.Validation("unknown counter field %q", field)
		}
	}
	return nil
}

// RecordInteraction adds userID to the interaction set and bumps the
// counter by one, guarded so a member is never counted twice.
func RecordInteraction(i Interaction, userID string) Patch {
	return Patch{
		AddToSet: map[string]string{i.SetField(): userID},
		Inc:      map[string]int{i.CounterField(): 1},
		Absent:   map[string]string{i.SetField(): userID},
	}
}

// LinkBackReference adds resourceID to one of the user's interaction sets.
func LinkBackReference(field, resourceID string) Patch {
	return Patch{AddToSet: map[string]string{field: resourceID}}
}
