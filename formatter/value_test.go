package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructured(t *testing.T) {
	t.Run("object keeps key order", func(t *testing.T) {
		v, err := ParseStructured(`{"b": 1, "a": [true, null, "x<y"]}`)
		require.NoError(t, err)
		assert.Equal(t, KindObject, v.Kind())
		assert.Equal(t, `{"b":1,"a":[true,null,"x<y"]}`, v.String())

		keys := make([]string, 0)
		for _, m := range v.Members() {
			keys = append(keys, m.Key)
		}
		assert.Equal(t, []string{"b", "a"}, keys)

		a, ok := v.Get("a")
		require.True(t, ok)
		assert.Equal(t, KindArray, a.Kind())
		assert.Len(t, a.Items(), 3)

		_, ok = v.Get("missing")
		assert.False(t, ok)
	})

	t.Run("string scalars keep quotes but label unquoted", func(t *testing.T) {
		v, err := ParseStructured(`{"dataType": "varchar"}`)
		require.NoError(t, err)
		dt, ok := v.Get("dataType")
		require.True(t, ok)
		assert.Equal(t, KindScalar, dt.Kind())
		assert.Equal(t, `"varchar"`, dt.String())
		assert.Equal(t, "varchar", dt.Label())
	})

	t.Run("top level scalar is not structured", func(t *testing.T) {
		v, err := ParseStructured(`42`)
		require.NoError(t, err)
		assert.Equal(t, KindScalar, v.Kind())
		assert.False(t, v.IsStructured())
	})

	for _, text := range []string{"plain text", "{broken", "{} trailing", ""} {
		t.Run("unparseable "+text, func(t *testing.T) {
			v, err := ParseStructured(text)
			assert.Error(t, err)
			assert.Equal(t, KindUnparseable, v.Kind())
			assert.Equal(t, text, v.String())
		})
	}
}

func TestStructuredValueEqual(t *testing.T) {
	parse := func(s string) StructuredValue {
		v, err := ParseStructured(s)
		require.NoError(t, err)
		return v
	}

	assert.True(t, parse(`{"a":1,"b":{"c":[1,2]}}`).Equal(parse(`{"b":{"c":[1,2]},"a":1}`)))
	assert.False(t, parse(`{"a":1}`).Equal(parse(`{"a":2}`)))
	assert.False(t, parse(`{"a":1}`).Equal(parse(`{"a":1,"b":2}`)))
	assert.False(t, parse(`[1,2]`).Equal(parse(`[2,1]`)))
	assert.False(t, parse(`["1"]`).Equal(parse(`[1]`)))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      *string
		want     string
		isLabels bool
	}{
		{name: "absent", raw: nil, want: ""},
		{name: "empty", raw: ptr(""), want: ""},
		{name: "plain text", raw: ptr("orders of the day"), want: "orders of the day"},
		{name: "json scalar", raw: ptr(`"quoted"`), want: `"quoted"`},
		{name: "malformed", raw: ptr(`[{"tagFQN":`), want: `[{"tagFQN":`},
		{
			name:     "tag labels",
			raw:      ptr(`[{"tagFQN":"PII.Sensitive","labelType":"Manual"},{"tagFQN":"Tier.Tier1"}]`),
			want:     "PII.Sensitive, Tier.Tier1",
			isLabels: true,
		},
		{
			name:     "tagFQN wins over displayName",
			raw:      ptr(`[{"displayName":"Sensitive","tagFQN":"PII.Sensitive"}]`),
			want:     "PII.Sensitive",
			isLabels: true,
		},
		{
			name:     "reference labels skip unnamed elements",
			raw:      ptr(`[{"id":"1","displayName":"Alice"},{"id":"2"},"loose",{"id":"3","displayName":"Bob"}]`),
			want:     "Alice, Bob",
			isLabels: true,
		},
		{name: "array without labels", raw: ptr(`["a","b"]`), want: "", isLabels: true},
		{name: "entity reference", raw: ptr(`{"id":"1","type":"user","displayName":"Alice"}`), want: "Alice"},
		{name: "object without displayName", raw: ptr(`{"id":"1"}`), want: `{"id":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.isLabels, got.IsLabels())
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"plain text",
		`[{"tagFQN":"PII"},{"tagFQN":"Sensitive"}]`,
		`{"displayName":"Orders"}`,
		`{"id":"1"}`,
		`"quoted"`,
	}
	for _, input := range inputs {
		once := NormalizeString(input).String()
		twice := NormalizeString(once).String()
		assert.Equal(t, once, twice, "input %s", input)
	}
}

func TestDisplayValueLabels(t *testing.T) {
	d := Labels([]string{"a", "b"})
	assert.True(t, d.IsLabels())
	assert.Equal(t, []string{"a", "b"}, d.Labels())
	assert.Equal(t, "a, b", d.String())

	s := Scalar("x")
	assert.False(t, s.IsLabels())
	assert.Nil(t, s.Labels())
	assert.Equal(t, "x", s.String())
}

func ptr(s string) *string {
	return &s
}
