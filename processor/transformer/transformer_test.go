package transformer

import (
	"testing"

	"github.com/strahe/catalog-sentinel/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func change(name string) models.FieldChange {
	return models.NewFieldChange(name, nil, models.StringPtr("v"))
}

func names(changes []models.FieldChange) []string {
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.Name)
	}
	return out
}

func TestFieldExcluder(t *testing.T) {
	event := &models.ChangeEvent{
		ID: "evt",
		ChangeDescription: &models.ChangeDescription{
			FieldsAdded:     []models.FieldChange{change("usageSummary"), change("tags")},
			FieldsUpdated:   []models.FieldChange{change("columns.customer_id.description"), change("description")},
			FieldsDeleted:   []models.FieldChange{change("usageSummary.weeklyStats")},
			PreviousVersion: 0.4,
		},
	}

	out, err := NewFieldExcluder([]string{"usageSummary", "columns"}).Process(event)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []string{"tags"}, names(out.ChangeDescription.FieldsAdded))
	assert.Equal(t, []string{"description"}, names(out.ChangeDescription.FieldsUpdated))
	assert.Empty(t, out.ChangeDescription.FieldsDeleted)
	assert.Equal(t, 0.4, out.ChangeDescription.PreviousVersion)

	// the input event is left alone
	assert.Len(t, event.ChangeDescription.FieldsAdded, 2)
}

func TestFieldExcluderDropsEmptiedEvents(t *testing.T) {
	event := &models.ChangeEvent{
		ChangeDescription: &models.ChangeDescription{
			FieldsUpdated: []models.FieldChange{change("usageSummary")},
		},
	}
	out, err := NewFieldExcluder([]string{"usageSummary"}).Process(event)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestFieldExcluderPassThrough(t *testing.T) {
	created := &models.ChangeEvent{EventType: models.EntityCreated}
	out, err := NewFieldExcluder([]string{"usageSummary"}).Process(created)
	require.NoError(t, err)
	assert.Same(t, created, out)

	updated := &models.ChangeEvent{ChangeDescription: &models.ChangeDescription{
		FieldsUpdated: []models.FieldChange{change("usageSummary")},
	}}
	out, err = NewFieldExcluder(nil).Process(updated)
	require.NoError(t, err)
	assert.Same(t, updated, out)
}

func TestDebugTransformer(t *testing.T) {
	event := &models.ChangeEvent{ID: "evt", ChangeDescription: &models.ChangeDescription{}}
	out, err := NewDebugTransformer().Process(event)
	require.NoError(t, err)
	assert.Same(t, event, out)
}
