// Package specs normalizes the semi-structured `specifications` column of a
// product into a flat list of displayable label/value items, and builds the
// canonical storage payload back from edited items.
//
// Three stored shapes are understood, tried in priority order:
//
//  1. canonical: {"items": [{"label": ..., "value": ..., "label_sw": ..., "value_sw": ...}, ...]}
//  2. language maps: {"en": {key: entry, ...}, "sw": {key: entry, ...}}
//  3. legacy flat object: {key: value, ...} (opt-in only)
//
// Only the canonical shape is ever written; the other two are read
// compatibility formats for rows predating the admin rewrite.
package specs

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// Item is one displayable product attribute, optionally bilingual.
type Item struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	LabelSw string `json:"label_sw,omitempty"`
	ValueSw string `json:"value_sw,omitempty"`
}

// Options controls Normalize. The legacy flat-object fallback is off by
// default; no current read path enables it, but old rows may still need it.
type Options struct {
	IncludeLegacyFlatObject bool
}

// Keys that carry structure in the stored object and are never attribute
// keys themselves.
var reservedKeys = map[string]bool{
	"items": true,
	"en":    true,
	"sw":    true,
}

var keySeparators = regexp.MustCompile(`[_-]+`)

// LabelFromKey humanizes an attribute key: runs of underscores and hyphens
// become a single space, e.g. "roll_size" -> "roll size".
func LabelFromKey(key string) string {
	return strings.TrimSpace(keySeparators.ReplaceAllString(key, " "))
}

// Normalize converts a stored specifications value into display items.
// It is total: malformed or unrecognized input yields an empty list, never
// an error, so a bad row can never break product rendering.
func Normalize(raw json.RawMessage, opts Options) []Item {
	members, ok := objectMembers(raw)
	if !ok {
		return nil
	}

	if items := fromItems(members); len(items) > 0 {
		return items
	}
	if items := fromLanguageMaps(members); len(items) > 0 {
		return items
	}
	if opts.IncludeLegacyFlatObject {
		return fromLegacyFlat(members)
	}
	return nil
}

// BuildPayload converts edited items into the canonical storage object.
// Items whose label or value trims to empty are dropped. When nothing
// survives the result is an empty object, not {"items": []}, so the column
// reads as "no specifications".
//
// Build-then-normalize round-trips: Normalize(BuildPayload(items)) returns
// the surviving items unchanged.
func BuildPayload(items []Item) json.RawMessage {
	cleaned := make([]Item, 0, len(items))
	for _, in := range items {
		it := Item{
			Label:   strings.TrimSpace(in.Label),
			Value:   strings.TrimSpace(in.Value),
			LabelSw: strings.TrimSpace(in.LabelSw),
			ValueSw: strings.TrimSpace(in.ValueSw),
		}
		if it.Label == "" || it.Value == "" {
			continue
		}
		cleaned = append(cleaned, it)
	}

	if len(cleaned) == 0 {
		return json.RawMessage(`{}`)
	}
	payload, err := json.Marshal(map[string]any{"items": cleaned})
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return payload
}

// member is one key/value pair of a JSON object, in document order.
// Object order matters for the language-map and legacy shapes, which is why
// this package walks tokens instead of unmarshaling into a map.
type member struct {
	key string
	raw json.RawMessage
}

// objectMembers decodes raw as a JSON object, preserving member order.
// Anything that is not a well-formed object (null, arrays, scalars, absent)
// reports ok=false.
func objectMembers(raw json.RawMessage) ([]member, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, false
	}

	var members []member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, false
		}
		members = append(members, member{key: key, raw: val})
	}
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	return members, true
}

func findMember(members []member, key string) (json.RawMessage, bool) {
	for _, m := range members {
		if m.key == key {
			return m.raw, true
		}
	}
	return nil, false
}

func fieldMap(members []member) map[string]json.RawMessage {
	fields := make(map[string]json.RawMessage, len(members))
	for _, m := range members {
		if _, seen := fields[m.key]; !seen {
			fields[m.key] = m.raw
		}
	}
	return fields
}

// toText coerces a raw JSON value to display text: strings are trimmed,
// numbers and booleans take their textual form, everything else (objects,
// arrays, null, absent) is empty.
func toText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return "true"
		}
		return "false"
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// toItem builds an Item from a JSON object. The fallback label applies only
// when no label field is present; both snake_case and camelCase Swahili
// field names are accepted, as written by older admin builds.
func toItem(raw json.RawMessage, fallbackLabel string) (Item, bool) {
	members, ok := objectMembers(raw)
	if !ok {
		return Item{}, false
	}
	fields := fieldMap(members)

	label := strings.TrimSpace(fallbackLabel)
	if f, ok := fields["label"]; ok && !isNull(f) {
		label = toText(f)
	}
	value := toText(fields["value"])
	labelSw := firstFieldText(fields, "label_sw", "labelSw")
	valueSw := firstFieldText(fields, "value_sw", "valueSw")

	if label == "" || value == "" {
		return Item{}, false
	}
	return Item{Label: label, Value: value, LabelSw: labelSw, ValueSw: valueSw}, true
}

// firstFieldText returns the text of the first present, non-null field.
func firstFieldText(fields map[string]json.RawMessage, names ...string) string {
	for _, name := range names {
		if f, ok := fields[name]; ok && !isNull(f) {
			return toText(f)
		}
	}
	return ""
}

func fromItems(members []member) []Item {
	raw, ok := findMember(members, "items")
	if !ok {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}

	var items []Item
	for _, elem := range elems {
		if item, ok := toItem(elem, ""); ok {
			items = append(items, item)
		}
	}
	return items
}

func fromLanguageMaps(members []member) []Item {
	enRaw, _ := findMember(members, "en")
	swRaw, _ := findMember(members, "sw")

	en, enOK := objectMembers(enRaw)
	sw, swOK := objectMembers(swRaw)
	if !enOK && !swOK {
		return nil
	}

	enByKey := fieldMap(en)
	swByKey := fieldMap(sw)

	// Key union: English keys in first-seen order, then any extra Swahili
	// keys in their own order.
	keys := make([]string, 0, len(en)+len(sw))
	seen := make(map[string]bool, len(en)+len(sw))
	for _, m := range en {
		if !seen[m.key] {
			seen[m.key] = true
			keys = append(keys, m.key)
		}
	}
	for _, m := range sw {
		if !seen[m.key] {
			seen[m.key] = true
			keys = append(keys, m.key)
		}
	}

	var items []Item
	for _, key := range keys {
		if item, ok := languageItem(key, enByKey[key], swByKey[key]); ok {
			items = append(items, item)
		}
	}
	return items
}

// languageItem merges the English and Swahili entries for one attribute key.
// Entries may be objects with label/value fields or bare scalars; a scalar
// Swahili entry supplies only value_sw.
func languageItem(key string, enEntry, swEntry json.RawMessage) (Item, bool) {
	var label, value, labelSw, valueSw string

	if fields, ok := objectMembers(enEntry); ok {
		fm := fieldMap(fields)
		label = toText(fm["label"])
		if label == "" {
			label = LabelFromKey(key)
		}
		value = toText(fm["value"])
	} else {
		label = LabelFromKey(key)
		value = toText(enEntry)
	}

	if fields, ok := objectMembers(swEntry); ok {
		fm := fieldMap(fields)
		labelSw = toText(fm["label"])
		valueSw = toText(fm["value"])
	} else {
		valueSw = toText(swEntry)
	}

	resolvedLabel := label
	if resolvedLabel == "" {
		resolvedLabel = labelSw
	}
	if resolvedLabel == "" {
		resolvedLabel = LabelFromKey(key)
	}
	resolvedValue := value
	if resolvedValue == "" {
		resolvedValue = valueSw
	}

	if resolvedLabel == "" || resolvedValue == "" {
		return Item{}, false
	}
	return Item{Label: resolvedLabel, Value: resolvedValue, LabelSw: labelSw, ValueSw: valueSw}, true
}

func fromLegacyFlat(members []member) []Item {
	var items []Item
	for _, m := range members {
		if reservedKeys[m.key] {
			continue
		}

		if _, isObject := objectMembers(m.raw); isObject {
			if item, ok := toItem(m.raw, LabelFromKey(m.key)); ok {
				items = append(items, item)
			}
			continue
		}

		value := toText(m.raw)
		label := LabelFromKey(m.key)
		if value == "" || label == "" {
			continue
		}
		items = append(items, Item{Label: label, Value: value})
	}
	return items
}
