package processor

import (
	"errors"
	"testing"

	"github.com/strahe/catalog-sentinel/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcProcessor func(event *models.ChangeEvent) (*models.ChangeEvent, error)

func (f funcProcessor) Process(event *models.ChangeEvent) (*models.ChangeEvent, error) {
	return f(event)
}

func recorder(name string, calls *[]string) EventProcessor {
	return funcProcessor(func(event *models.ChangeEvent) (*models.ChangeEvent, error) {
		*calls = append(*calls, name)
		return event, nil
	})
}

func TestProcessorChainOrder(t *testing.T) {
	var calls []string
	chain := NewProcessorChain()
	chain.AddTransformer(recorder("transformer", &calls))
	chain.AddFilter(recorder("filter-1", &calls))
	chain.AddFilter(recorder("filter-2", &calls))

	event := &models.ChangeEvent{ID: "evt"}
	out, err := chain.Process(event)
	require.NoError(t, err)
	assert.Same(t, event, out)
	assert.Equal(t, []string{"filter-1", "filter-2", "transformer"}, calls)
}

func TestProcessorChainDrop(t *testing.T) {
	var calls []string
	chain := NewProcessorChain()
	chain.AddFilter(funcProcessor(func(event *models.ChangeEvent) (*models.ChangeEvent, error) {
		return nil, nil
	}))
	chain.AddTransformer(recorder("transformer", &calls))

	out, err := chain.Process(&models.ChangeEvent{ID: "evt"})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Empty(t, calls)
}

func TestProcessorChainError(t *testing.T) {
	boom := errors.New("boom")
	chain := NewProcessorChain()
	chain.AddFilter(funcProcessor(func(event *models.ChangeEvent) (*models.ChangeEvent, error) {
		return nil, boom
	}))

	_, err := chain.Process(&models.ChangeEvent{ID: "evt-7"})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "evt-7")
}

func TestEmptyChain(t *testing.T) {
	event := &models.ChangeEvent{ID: "evt"}
	out, err := NewProcessorChain().Process(event)
	require.NoError(t, err)
	assert.Same(t, event, out)
}
