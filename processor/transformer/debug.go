package transformer

import (
	"github.com/strahe/catalog-sentinel/models"
	"github.com/strahe/catalog-sentinel/pkg/log"
	"github.com/strahe/catalog-sentinel/processor"
)

type DebugTransformer struct{}

func NewDebugTransformer() *DebugTransformer {
	return &DebugTransformer{}
}

// Process implements processor.EventProcessor.
func (d *DebugTransformer) Process(event *models.ChangeEvent) (*models.ChangeEvent, error) {
	if desc := event.ChangeDescription; desc != nil {
		log.Debugf("Transform event: %s: %s, %d added, %d updated, %d deleted",
			event.ID, event.EventType, len(desc.FieldsAdded), len(desc.FieldsUpdated), len(desc.FieldsDeleted))
		return event, nil
	}
	log.Debugf("Transform event: %s: %s", event.ID, event.EventType)
	return event, nil
}

var _ processor.EventProcessor = (*DebugTransformer)(nil)
