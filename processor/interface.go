package processor

import (
	"github.com/strahe/catalog-sentinel/models"
)

// EventProcessor inspects or rewrites a change event. Returning a nil event drops it.
type EventProcessor interface {
	Process(event *models.ChangeEvent) (*models.ChangeEvent, error)
}

type ProcessorComposite interface {
	AddFilter(processor EventProcessor)
	AddTransformer(processor EventProcessor)
}

type Processor interface {
	EventProcessor
	ProcessorComposite
}
