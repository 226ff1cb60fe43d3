package transformer

import (
	"strings"

	"github.com/samber/lo"
	"github.com/strahe/catalog-sentinel/models"
	"github.com/strahe/catalog-sentinel/processor"
)

// FieldExcluder removes changes of noisy fields, such as usage statistics, from events.
// A configured name matches a change of that exact field or of the top-level field it
// belongs to: "columns" matches "columns.customer_id.description". Events left without
// any field change are dropped.
type FieldExcluder struct {
	fields []string
}

func NewFieldExcluder(fields []string) *FieldExcluder {
	return &FieldExcluder{fields: lo.Compact(fields)}
}

func (e *FieldExcluder) Process(event *models.ChangeEvent) (*models.ChangeEvent, error) {
	desc := event.ChangeDescription
	if len(e.fields) == 0 || desc.IsEmpty() {
		return event, nil
	}

	out := *event
	out.ChangeDescription = &models.ChangeDescription{
		FieldsAdded:     lo.Reject(desc.FieldsAdded, e.excluded),
		FieldsUpdated:   lo.Reject(desc.FieldsUpdated, e.excluded),
		FieldsDeleted:   lo.Reject(desc.FieldsDeleted, e.excluded),
		PreviousVersion: desc.PreviousVersion,
	}
	if out.ChangeDescription.IsEmpty() {
		return nil, nil
	}
	return &out, nil
}

func (e *FieldExcluder) excluded(f models.FieldChange, _ int) bool {
	top, _, _ := strings.Cut(f.Name, ".")
	return lo.Contains(e.fields, f.Name) || lo.Contains(e.fields, top)
}

var _ processor.EventProcessor = (*FieldExcluder)(nil)
