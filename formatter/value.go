package formatter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// Kind is the shape of a parsed change value.
type Kind int

const (
	KindUnparseable Kind = iota
	KindScalar
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unparseable"
	}
}

// Member is one key of an object value, in source order.
type Member struct {
	Key   string
	Value StructuredValue
}

// StructuredValue is a change value after a single parse step. Scalars keep their JSON
// text, objects keep the order of their keys.
type StructuredValue struct {
	kind     Kind
	text     string
	str      string
	isString bool
	items    []StructuredValue
	members  []Member
}

var errTrailingData = errors.New("unexpected data after top-level value")

// ParseStructured parses text as JSON. A parse failure is not exceptional: the returned
// value is KindUnparseable and still carries the original text.
func ParseStructured(text string) (StructuredValue, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return unparseable(text), fmt.Errorf("parse structured value: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return unparseable(text), errTrailingData
	}
	return v, nil
}

func unparseable(text string) StructuredValue {
	return StructuredValue{kind: KindUnparseable, text: text}
}

func decodeValue(dec *json.Decoder) (StructuredValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return StructuredValue{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			items := make([]StructuredValue, 0)
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return StructuredValue{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return StructuredValue{}, err
			}
			return StructuredValue{kind: KindArray, items: items}, nil
		case '{':
			members := make([]Member, 0)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return StructuredValue{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return StructuredValue{}, fmt.Errorf("object key is %T, not string", keyTok)
				}
				value, err := decodeValue(dec)
				if err != nil {
					return StructuredValue{}, err
				}
				members = append(members, Member{Key: key, Value: value})
			}
			if _, err := dec.Token(); err != nil {
				return StructuredValue{}, err
			}
			return StructuredValue{kind: KindObject, members: members}, nil
		default:
			return StructuredValue{}, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case string:
		return StructuredValue{kind: KindScalar, text: quote(t), str: t, isString: true}, nil
	case json.Number:
		return StructuredValue{kind: KindScalar, text: t.String()}, nil
	case float64:
		return StructuredValue{kind: KindScalar, text: strconv.FormatFloat(t, 'g', -1, 64)}, nil
	case bool:
		return StructuredValue{kind: KindScalar, text: strconv.FormatBool(t)}, nil
	case nil:
		return StructuredValue{kind: KindScalar, text: "null"}, nil
	default:
		return StructuredValue{}, fmt.Errorf("unexpected token %T", tok)
	}
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Kind returns the shape of the value.
func (v StructuredValue) Kind() Kind { return v.kind }

// IsStructured reports whether the value is an array or an object.
func (v StructuredValue) IsStructured() bool {
	return v.kind == KindArray || v.kind == KindObject
}

// Items returns the elements of an array value.
func (v StructuredValue) Items() []StructuredValue { return v.items }

// Members returns the keys of an object value in source order.
func (v StructuredValue) Members() []Member { return v.members }

// Get looks up a key of an object value.
func (v StructuredValue) Get(key string) (StructuredValue, bool) {
	m, ok := lo.Find(v.members, func(m Member) bool { return m.Key == key })
	return m.Value, ok
}

// Label is the human form of a value: string scalars are unquoted, everything else is
// its JSON text.
func (v StructuredValue) Label() string {
	if v.isString {
		return v.str
	}
	return v.String()
}

// String returns compact JSON for parsed values and the original text for unparseable ones.
func (v StructuredValue) String() string {
	switch v.kind {
	case KindArray:
		parts := lo.Map(v.items, func(item StructuredValue, _ int) string { return item.String() })
		return "[" + strings.Join(parts, ",") + "]"
	case KindObject:
		parts := lo.Map(v.members, func(m Member, _ int) string { return quote(m.Key) + ":" + m.Value.String() })
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return v.text
	}
}

// Equal compares two values structurally; key order of objects is ignored.
func (v StructuredValue) Equal(other StructuredValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindArray:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.members) != len(other.members) {
			return false
		}
		for _, m := range v.members {
			o, ok := other.Get(m.Key)
			if !ok || !m.Value.Equal(o) {
				return false
			}
		}
		return true
	default:
		return v.text == other.text
	}
}

// DisplayValue is what a change value looks like in a message: either a single scalar
// text or an ordered list of labels picked from an array of references.
type DisplayValue struct {
	scalar   string
	labels   []string
	isLabels bool
}

// Scalar builds a scalar display value.
func Scalar(s string) DisplayValue { return DisplayValue{scalar: s} }

// Labels builds a label list display value.
func Labels(labels []string) DisplayValue {
	return DisplayValue{labels: labels, isLabels: true}
}

// IsLabels reports whether the value came from an array of references.
func (d DisplayValue) IsLabels() bool { return d.isLabels }

// Labels returns the label list, nil for scalars.
func (d DisplayValue) Labels() []string { return d.labels }

func (d DisplayValue) String() string {
	if d.isLabels {
		return strings.Join(d.labels, ", ")
	}
	return d.scalar
}

// Normalize turns a raw change value into its display form. Arrays of tags or entity
// references become their tagFQN or displayName labels, a single entity reference
// becomes its displayName, anything else is shown as is.
func Normalize(raw *string) DisplayValue {
	if raw == nil || *raw == "" {
		return Scalar("")
	}

	v, err := ParseStructured(*raw)
	if err != nil {
		return Scalar(*raw)
	}

	switch v.Kind() {
	case KindArray:
		labels := make([]string, 0, len(v.Items()))
		for _, item := range v.Items() {
			if item.Kind() != KindObject {
				continue
			}
			if tag, ok := item.Get("tagFQN"); ok {
				labels = append(labels, tag.Label())
			} else if name, ok := item.Get("displayName"); ok {
				labels = append(labels, name.Label())
			}
		}
		return Labels(labels)
	case KindObject:
		if name, ok := v.Get("displayName"); ok {
			return Scalar(name.Label())
		}
	}
	return Scalar(*raw)
}

// NormalizeString is Normalize for a value that is always present.
func NormalizeString(raw string) DisplayValue {
	return Normalize(&raw)
}
