package specs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalize(t *testing.T, doc string, opts Options) []Item {
	t.Helper()
	return Normalize(json.RawMessage(doc), opts)
}

func TestNormalizeItemsShape(t *testing.T) {
	doc := `{
		"items": [
			{"label": "Roll Size", "value": "1.2 x 50 m", "label_sw": "Ukubwa", "value_sw": "mita 1.2 x 50"},
			{"label": "  Material  ", "value": "Vinyl"},
			{"label": "", "value": "dropped"},
			{"label": "dropped too", "value": "   "},
			"not an object",
			42
		]
	}`

	items := normalize(t, doc, Options{})
	require.Len(t, items, 2)
	assert.Equal(t, Item{Label: "Roll Size", Value: "1.2 x 50 m", LabelSw: "Ukubwa", ValueSw: "mita 1.2 x 50"}, items[0])
	assert.Equal(t, Item{Label: "Material", Value: "Vinyl"}, items[1])
}

func TestNormalizeItemsShapeCoercesScalars(t *testing.T) {
	doc := `{"items": [{"label": "Waterproof", "value": true}, {"label": "Sheets", "value": 25}]}`

	items := normalize(t, doc, Options{})
	require.Len(t, items, 2)
	assert.Equal(t, "true", items[0].Value)
	assert.Equal(t, "25", items[1].Value)
}

func TestNormalizeShapePriority(t *testing.T) {
	// A non-empty items array wins over language maps present in the same object.
	doc := `{
		"items": [{"label": "Finish", "value": "Glossy"}],
		"en": {"material": "Vinyl"},
		"sw": {"material": "Vinyl ya plastiki"}
	}`

	items := normalize(t, doc, Options{})
	require.Len(t, items, 1)
	assert.Equal(t, Item{Label: "Finish", Value: "Glossy"}, items[0])
}

func TestNormalizeEmptyItemsFallsThroughToLanguageMaps(t *testing.T) {
	doc := `{
		"items": [{"label": "", "value": ""}],
		"en": {"material": "Vinyl"}
	}`

	items := normalize(t, doc, Options{})
	require.Len(t, items, 1)
	assert.Equal(t, Item{Label: "material", Value: "Vinyl"}, items[0])
}

func TestNormalizeLanguageMapUnion(t *testing.T) {
	doc := `{
		"en": {"material": "Vinyl"},
		"sw": {"material": {"value": "Vinyl ya plastiki"}}
	}`

	items := normalize(t, doc, Options{})
	require.Len(t, items, 1)
	assert.Equal(t, Item{Label: "material", Value: "Vinyl", ValueSw: "Vinyl ya plastiki"}, items[0])
}

func TestNormalizeLanguageMapKeyOrder(t *testing.T) {
	// English keys first in document order, then Swahili-only keys in theirs.
	doc := `{
		"en": {"width": "1.2 m", "length": "50 m"},
		"sw": {"length": "mita 50", "rangi": "nyekundu"}
	}`

	items := normalize(t, doc, Options{})
	require.Len(t, items, 3)
	assert.Equal(t, "width", items[0].Label)
	assert.Equal(t, "length", items[1].Label)
	assert.Equal(t, "mita 50", items[1].ValueSw)
	assert.Equal(t, "rangi", items[2].Label)
	assert.Equal(t, "nyekundu", items[2].Value) // Swahili value fills a missing English one
}

func TestNormalizeLanguageMapObjectEntries(t *testing.T) {
	doc := `{
		"en": {"roll_size": {"label": "Roll Size", "value": "1.2 x 50 m"}},
		"sw": {"roll_size": {"label": "Ukubwa wa Roli", "value": "mita 1.2 x 50"}}
	}`

	items := normalize(t, doc, Options{})
	require.Len(t, items, 1)
	assert.Equal(t, Item{
		Label:   "Roll Size",
		Value:   "1.2 x 50 m",
		LabelSw: "Ukubwa wa Roli",
		ValueSw: "mita 1.2 x 50",
	}, items[0])
}

func TestNormalizeKeyHumanization(t *testing.T) {
	doc := `{"en": {"roll_size": "1.2 x 50m", "heat--resistance": "80C", "_weight_": "2 kg"}}`

	items := normalize(t, doc, Options{})
	require.Len(t, items, 3)
	assert.Equal(t, "roll size", items[0].Label)
	assert.Equal(t, "heat resistance", items[1].Label)
	assert.Equal(t, "weight", items[2].Label)
}

func TestNormalizeSwahiliOnlyMap(t *testing.T) {
	doc := `{"sw": {"rangi": "nyekundu"}}`

	items := normalize(t, doc, Options{})
	require.Len(t, items, 1)
	assert.Equal(t, Item{Label: "rangi", Value: "nyekundu", ValueSw: "nyekundu"}, items[0])
}

func TestNormalizeMalformedInput(t *testing.T) {
	for _, doc := range []string{
		``,
		`null`,
		`[1,2,3]`,
		`"spec"`,
		`42`,
		`true`,
		`{}`,
		`{"items": "not an array"}`,
		`{"items": []}`,
		`{"en": [1,2], "sw": null}`,
		`{"items": [`, // truncated
		`not json at all`,
	} {
		assert.Empty(t, normalize(t, doc, Options{}), "input: %s", doc)
	}
}

func TestNormalizeLegacyFlatObjectIsOptIn(t *testing.T) {
	doc := `{"material": "Vinyl", "roll_size": "1.2 x 50m"}`

	assert.Empty(t, normalize(t, doc, Options{}))

	items := normalize(t, doc, Options{IncludeLegacyFlatObject: true})
	require.Len(t, items, 2)
	assert.Equal(t, Item{Label: "material", Value: "Vinyl"}, items[0])
	assert.Equal(t, Item{Label: "roll size", Value: "1.2 x 50m"}, items[1])
}

func TestNormalizeLegacyFlatSkipsReservedKeys(t *testing.T) {
	doc := `{"items": [], "en": "bogus", "sw": 3, "material": "Vinyl"}`

	items := normalize(t, doc, Options{IncludeLegacyFlatObject: true})
	require.Len(t, items, 1)
	assert.Equal(t, "material", items[0].Label)
}

func TestNormalizeLegacyFlatNestedObject(t *testing.T) {
	doc := `{"adhesive": {"value": "permanent", "value_sw": "ya kudumu"}, "bad": {"value": ""}}`

	items := normalize(t, doc, Options{IncludeLegacyFlatObject: true})
	require.Len(t, items, 1)
	assert.Equal(t, Item{Label: "adhesive", Value: "permanent", ValueSw: "ya kudumu"}, items[0])
}

func TestBuildPayloadDropsInvalidItems(t *testing.T) {
	payload := BuildPayload([]Item{
		{Label: "  Material ", Value: " Vinyl ", ValueSw: "  "},
		{Label: "", Value: "x"},
		{Label: "y", Value: "   "},
	})

	var decoded struct {
		Items []Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Len(t, decoded.Items, 1)
	assert.Equal(t, Item{Label: "Material", Value: "Vinyl"}, decoded.Items[0])
}

func TestBuildPayloadEmptyResultIsEmptyObject(t *testing.T) {
	assert.JSONEq(t, `{}`, string(BuildPayload(nil)))
	assert.JSONEq(t, `{}`, string(BuildPayload([]Item{{Label: "", Value: ""}})))
}

func TestBuildThenNormalizeRoundTrips(t *testing.T) {
	in := []Item{
		{Label: "Roll Size", Value: "1.2 x 50 m", LabelSw: "Ukubwa", ValueSw: "mita 1.2 x 50"},
		{Label: "Material", Value: "Vinyl"},
		{Label: "", Value: "never materialized"},
		{Label: "Finish", Value: "Glossy", ValueSw: "ya kung'aa"},
	}

	out := Normalize(BuildPayload(in), Options{})

	want := []Item{in[0], in[1], in[3]}
	assert.Equal(t, want, out)

	// Idempotence: building again from the normalized items changes nothing.
	assert.Equal(t, want, Normalize(BuildPayload(out), Options{}))
}
