package filter

import (
	"github.com/strahe/catalog-sentinel/models"
	"github.com/strahe/catalog-sentinel/pkg/log"
	"github.com/strahe/catalog-sentinel/processor"
)

type DebugFilter struct{}

func NewDebugFilter() *DebugFilter {
	return &DebugFilter{}
}

func (f *DebugFilter) Process(event *models.ChangeEvent) (*models.ChangeEvent, error) {
	log.Debugf("Filter event: %s: %s %s", event.ID, event.EventType, event.EntityFullyQualifiedName)
	return event, nil
}

var _ processor.EventProcessor = (*DebugFilter)(nil)
