package filter

import (
	"strings"

	"github.com/samber/lo"
	"github.com/strahe/catalog-sentinel/models"
	"github.com/strahe/catalog-sentinel/processor"
)

// EntityTypeFilter keeps events whose entity type is included and not excluded. An empty
// include list includes every type. Types compare case-insensitively.
type EntityTypeFilter struct {
	include []string
	exclude []string
}

func NewEntityTypeFilter(include, exclude []string) *EntityTypeFilter {
	return &EntityTypeFilter{
		include: lo.Map(include, normalize),
		exclude: lo.Map(exclude, normalize),
	}
}

func (f *EntityTypeFilter) Process(event *models.ChangeEvent) (*models.ChangeEvent, error) {
	entityType := strings.ToLower(event.EntityType)
	if len(f.include) > 0 && !lo.Contains(f.include, entityType) {
		return nil, nil
	}
	if lo.Contains(f.exclude, entityType) {
		return nil, nil
	}
	return event, nil
}

// EventTypeFilter keeps events of the listed lifecycle types. An empty list keeps all.
type EventTypeFilter struct {
	types []models.EventType
}

func NewEventTypeFilter(types []string) *EventTypeFilter {
	return &EventTypeFilter{
		types: lo.Map(types, func(t string, _ int) models.EventType {
			return models.EventType(strings.TrimSpace(t))
		}),
	}
}

func (f *EventTypeFilter) Process(event *models.ChangeEvent) (*models.ChangeEvent, error) {
	if len(f.types) > 0 && !lo.Contains(f.types, event.EventType) {
		return nil, nil
	}
	return event, nil
}

func normalize(s string, _ int) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var (
	_ processor.EventProcessor = (*EntityTypeFilter)(nil)
	_ processor.EventProcessor = (*EventTypeFilter)(nil)
)
