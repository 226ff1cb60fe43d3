package capture

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/strahe/catalog-sentinel/models"
)

// DecodeEvent parses one change event. Events without an id get a stable one derived
// from the entity, version and time, so replays of the same source produce the same ids.
func DecodeEvent(data []byte) (*models.ChangeEvent, error) {
	var event models.ChangeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode change event: %w", err)
	}
	if event.EntityType == "" {
		return nil, fmt.Errorf("decode change event: missing entityType")
	}
	if event.ID == "" {
		event.ID = GenerateEventID(&event)
	}
	return &event, nil
}

func GenerateEventID(event *models.ChangeEvent) string {
	key := fmt.Sprintf("%s-%s-%s-%s-%d-%s",
		event.EventType,
		event.EntityType,
		event.EntityID,
		event.EntityFullyQualifiedName,
		event.Timestamp,
		strconv.FormatFloat(event.CurrentVersion, 'f', -1, 64))
	h := fnv.New64a()
	h.Write([]byte(key))
	return strconv.FormatUint(h.Sum64(), 16)
}
