package filter

import (
	"testing"

	"github.com/strahe/catalog-sentinel/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityTypeFilter(t *testing.T) {
	tests := []struct {
		name       string
		include    []string
		exclude    []string
		entityType string
		keep       bool
	}{
		{name: "no rules", entityType: "table", keep: true},
		{name: "included", include: []string{"table", "topic"}, entityType: "topic", keep: true},
		{name: "not included", include: []string{"table"}, entityType: "dashboard", keep: false},
		{name: "case insensitive", include: []string{" Table "}, entityType: "TABLE", keep: true},
		{name: "excluded", exclude: []string{"testCase"}, entityType: "testcase", keep: false},
		{name: "exclude wins", include: []string{"table"}, exclude: []string{"table"}, entityType: "table", keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &models.ChangeEvent{EntityType: tt.entityType}
			out, err := NewEntityTypeFilter(tt.include, tt.exclude).Process(event)
			require.NoError(t, err)
			if tt.keep {
				assert.Same(t, event, out)
			} else {
				assert.Nil(t, out)
			}
		})
	}
}

func TestEventTypeFilter(t *testing.T) {
	f := NewEventTypeFilter([]string{"entityUpdated", " entityDeleted"})

	out, err := f.Process(&models.ChangeEvent{EventType: models.EntityDeleted})
	require.NoError(t, err)
	assert.NotNil(t, out)

	out, err = f.Process(&models.ChangeEvent{EventType: models.EntityCreated})
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = NewEventTypeFilter(nil).Process(&models.ChangeEvent{EventType: models.EntityCreated})
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestDebugFilter(t *testing.T) {
	event := &models.ChangeEvent{ID: "evt"}
	out, err := NewDebugFilter().Process(event)
	require.NoError(t, err)
	assert.Same(t, event, out)
}
