package processor

import (
	"fmt"
	"sync"

	"github.com/strahe/catalog-sentinel/models"
)

// ProcessorChain runs all filters, then all transformers. The chain stops at the first
// processor that drops the event.
type ProcessorChain struct {
	filterProcessor      []EventProcessor
	transformerProcessor []EventProcessor
	lk                   sync.RWMutex
}

func NewProcessorChain() *ProcessorChain {
	return &ProcessorChain{
		filterProcessor:      make([]EventProcessor, 0),
		transformerProcessor: make([]EventProcessor, 0),
	}
}

func (pc *ProcessorChain) Process(event *models.ChangeEvent) (*models.ChangeEvent, error) {
	pc.lk.RLock()
	processors := make([]EventProcessor, 0, len(pc.filterProcessor)+len(pc.transformerProcessor))
	processors = append(processors, pc.filterProcessor...)
	processors = append(processors, pc.transformerProcessor...)
	pc.lk.RUnlock()

	currentEvent := event
	for _, p := range processors {
		if currentEvent == nil {
			return nil, nil
		}
		processed, err := p.Process(currentEvent)
		if err != nil {
			return currentEvent, fmt.Errorf("process event %s: %w", currentEvent.ID, err)
		}
		currentEvent = processed
	}
	return currentEvent, nil
}

func (pc *ProcessorChain) AddFilter(processor EventProcessor) {
	pc.lk.Lock()
	defer pc.lk.Unlock()

	pc.filterProcessor = append(pc.filterProcessor, processor)
}

func (pc *ProcessorChain) AddTransformer(processor EventProcessor) {
	pc.lk.Lock()
	defer pc.lk.Unlock()

	pc.transformerProcessor = append(pc.transformerProcessor, processor)
}

var _ Processor = (*ProcessorChain)(nil)
