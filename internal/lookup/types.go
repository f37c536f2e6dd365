package lookup

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ShortNameMarker suffixes patterns that may only match a short name exactly.
const ShortNameMarker = "#"

// ShortNameThreshold is the rune length below which a name is stored with the marker.
const ShortNameThreshold = 3

type Tag string

const (
	TagNone Tag = ""
	TagTemp Tag = "temp"
	TagPerm Tag = "perm"
)

// Entry is a single (pattern, replacement[, tag]) row.
type Entry struct {
	Pattern     string
	Replacement string
	Tag         Tag
}

// Table is an ordered list of entries; the first matching entry wins.
type Table []Entry

// MarshalJSON encodes the entry as ["pattern","replacement"] or
// ["pattern","replacement","tag"], the shape of the persisted cache file.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Tag == TagNone {
		return json.Marshal([]string{e.Pattern, e.Replacement})
	}
	return json.Marshal([]string{e.Pattern, e.Replacement, string(e.Tag)})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("lookup entry: %w", err)
	}
	if len(raw) < 2 || len(raw) > 3 {
		return fmt.Errorf("lookup entry: expected 2 or 3 elements, got %d", len(raw))
	}
	e.Pattern = raw[0]
	e.Replacement = raw[1]
	e.Tag = TagNone
	if len(raw) == 3 {
		e.Tag = Tag(raw[2])
	}
	return nil
}

// UnmarshalYAML accepts the same sequence form in YAML dictionary bundles.
func (e *Entry) UnmarshalYAML(value *yaml.Node) error {
	var raw []string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("lookup entry: %w", err)
	}
	if len(raw) < 2 || len(raw) > 3 {
		return fmt.Errorf("lookup entry: expected 2 or 3 elements, got %d", len(raw))
	}
	e.Pattern = raw[0]
	e.Replacement = raw[1]
	e.Tag = TagNone
	if len(raw) == 3 {
		e.Tag = Tag(raw[2])
	}
	return nil
}
