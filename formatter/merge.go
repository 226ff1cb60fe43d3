package formatter

import (
	set "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
	"github.com/strahe/catalog-sentinel/models"
)

// ClassifiedChange is a field change with the template it will be rendered with.
type ClassifiedChange struct {
	Type     models.ChangeType
	Name     string
	OldValue *string
	NewValue *string
}

// ClassifyChanges pairs deleted and added fields that share a name into updates. Schema
// changes such as renaming a column are recorded as a deletion plus an addition of the
// same field; they read better as one update. Every input field ends up in exactly one
// classified change: merged updates come first in deletion order, then unmatched
// additions. The inputs are not modified.
func ClassifyChanges(added, deleted []models.FieldChange) []ClassifiedChange {
	if len(added) == 0 || len(deleted) == 0 {
		if len(added) > 0 {
			return lo.Map(added, func(f models.FieldChange, _ int) ClassifiedChange {
				return classified(models.ChangeTypeAdd, f)
			})
		}
		return lo.Map(deleted, func(f models.FieldChange, _ int) ClassifiedChange {
			return classified(models.ChangeTypeDelete, f)
		})
	}

	changes := make([]ClassifiedChange, 0, len(added)+len(deleted))
	consumed := set.NewThreadUnsafeSet[int]()

	for _, field := range deleted {
		idx, found := matchAdded(added, field.Name, consumed)
		if !found {
			changes = append(changes, classified(models.ChangeTypeDelete, field))
			continue
		}
		consumed.Add(idx)
		changes = append(changes, ClassifiedChange{
			Type:     models.ChangeTypeUpdate,
			Name:     field.Name,
			OldValue: field.OldValue,
			NewValue: added[idx].NewValue,
		})
	}

	for i, field := range added {
		if !consumed.Contains(i) {
			changes = append(changes, classified(models.ChangeTypeAdd, field))
		}
	}
	return changes
}

// matchAdded returns the first added field named name that has not been merged yet.
func matchAdded(added []models.FieldChange, name string, consumed set.Set[int]) (int, bool) {
	for i, a := range added {
		if a.Name == name && !consumed.Contains(i) {
			return i, true
		}
	}
	return -1, false
}

func classified(changeType models.ChangeType, f models.FieldChange) ClassifiedChange {
	return ClassifiedChange{Type: changeType, Name: f.Name, OldValue: f.OldValue, NewValue: f.NewValue}
}
