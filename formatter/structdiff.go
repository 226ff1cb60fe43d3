package formatter

import (
	"fmt"
	"strings"
)

// LineBreak separates the parts of a multi-part message.
const LineBreak = " <br/> "

// DiffStructured describes how the keys of newValue differ from oldValue. Only keys
// present in newValue are inspected; keys that were dropped are not reported. When the
// new value has a name, it is appended to updatedField so anonymous array elements can
// be told apart.
func DiffStructured(updatedField string, oldValue, newValue StructuredValue) string {
	labels := make([]string, 0, len(newValue.Members()))
	for _, m := range newValue.Members() {
		previous, ok := oldValue.Get(m.Key)
		if ok && previous.Equal(m.Value) {
			continue
		}
		oldText := ""
		if ok {
			oldText = previous.String()
		}
		labels = append(labels, fmt.Sprintf("%s: `%s`", m.Key, DiffText(oldText, m.Value.String())))
	}

	if name, ok := newValue.Get("name"); ok {
		updatedField = fmt.Sprintf("%s.%s", updatedField, name.Label())
	}
	return fmt.Sprintf("Updated %s :%s%s", updatedField, LineBreak, strings.Join(labels, LineBreak))
}
