package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/strahe/catalog-sentinel/models"
)

// VersionChange classifies a version bump.
type VersionChange string

const (
	VersionChangeMajor VersionChange = "MAJOR"
	VersionChangeMinor VersionChange = "MINOR"
)

// majorVersionDelta is compared with > because float subtraction of versions is not exact.
const majorVersionDelta = 0.9

// ClassifyVersionChange returns MAJOR when the version moved by more than 0.9.
func ClassifyVersionChange(previousVersion, currentVersion float64) VersionChange {
	if currentVersion-previousVersion > majorVersionDelta {
		return VersionChangeMajor
	}
	return VersionChangeMinor
}

// FormatVersion prints a version the way the catalog does: 1.0, 0.1, 1.25.
func FormatVersion(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// VersionAnnotation is appended to every message.
func VersionAnnotation(previousVersion, currentVersion float64) string {
	return fmt.Sprintf(" <br/><br/> **Change Type:** *%s (%s -> %s)*",
		ClassifyVersionChange(previousVersion, currentVersion),
		FormatVersion(previousVersion),
		FormatVersion(currentVersion))
}

// UpdatedField is the label of the changed location used in messages.
func UpdatedField(link models.EntityLink, fieldName string) string {
	switch {
	case link.ArrayFieldValue != "":
		return fmt.Sprintf("%s.%s", link.ArrayFieldName, link.ArrayFieldValue)
	case link.ArrayFieldName != "":
		return fmt.Sprintf("%s.%s", link.FieldName, link.ArrayFieldName)
	default:
		return fieldName
	}
}

// FormatMessage renders one change with its version annotation. It returns "" for an
// unknown change type.
func FormatMessage(link models.EntityLink, changeType models.ChangeType, fieldName string,
	oldValue, newValue *string, previousVersion, currentVersion float64) string {
	updatedField := UpdatedField(link, fieldName)

	var message string
	switch changeType {
	case models.ChangeTypeAdd:
		message = fmt.Sprintf("Added %s: `%s`", updatedField, Normalize(newValue))
	case models.ChangeTypeUpdate:
		message = UpdateMessage(updatedField, oldValue, newValue)
	case models.ChangeTypeDelete:
		message = fmt.Sprintf("Deleted %s", updatedField)
	default:
		return ""
	}
	return message + VersionAnnotation(previousVersion, currentVersion)
}

// UpdateMessage describes how a field went from oldValue to newValue.
//
// Tag and owner fields are always diffed as flat text of their labels. Other values are
// diffed key by key when both sides are objects, or single element arrays of objects,
// and as text otherwise.
func UpdateMessage(updatedField string, oldValue, newValue *string) string {
	if oldValue == nil || *oldValue == "" {
		return fmt.Sprintf("Updated %s to `%s`", updatedField, Normalize(newValue))
	}
	if strings.Contains(updatedField, "tags") || strings.Contains(updatedField, "owner") {
		return plainTextUpdateMessage(updatedField, Normalize(oldValue).String(), Normalize(newValue).String())
	}

	oldText := *oldValue
	newText := ""
	if newValue != nil {
		newText = *newValue
	}

	oldJSON, oldErr := ParseStructured(oldText)
	newJSON, newErr := ParseStructured(newText)
	if oldErr != nil || newErr != nil || !oldJSON.IsStructured() || !newJSON.IsStructured() {
		return plainTextUpdateMessage(updatedField, oldText, newText)
	}
	if oldJSON.Kind() != newJSON.Kind() {
		return plainTextUpdateMessage(updatedField, Normalize(oldValue).String(), Normalize(newValue).String())
	}

	switch newJSON.Kind() {
	case KindArray:
		oldItems, newItems := oldJSON.Items(), newJSON.Items()
		if len(oldItems) != 1 || len(newItems) != 1 {
			return plainTextUpdateMessage(updatedField, Normalize(oldValue).String(), Normalize(newValue).String())
		}
		// a single element on both sides is safe to treat as an update of that element
		oldItem, newItem := oldItems[0], newItems[0]
		if oldItem.Kind() == KindObject && newItem.Kind() == KindObject {
			return DiffStructured(updatedField, oldItem, newItem)
		}
		return plainTextUpdateMessage(updatedField, oldItem.String(), newItem.String())
	case KindObject:
		return DiffStructured(updatedField, oldJSON, newJSON)
	}
	return ""
}

func plainTextUpdateMessage(updatedField, oldValue, newValue string) string {
	return fmt.Sprintf("Updated %s : `%s`", updatedField, DiffText(oldValue, newValue))
}
