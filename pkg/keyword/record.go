// Package keyword turns rank API pages into keyword records.
package keyword

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/apamidi800/rank-export/pkg/xmltree"
)

// Field names of a keyword record.
const (
	FieldName             = "name"
	FieldDate             = "date"
	FieldHighestTrueRank  = "highestTrueRank"
	FieldHighestWebRank   = "highestWebRank"
	FieldHighestRankURL   = "highestRankUrl"
	FieldHighestLocalRank = "highestLocalRank"
	FieldHighestNewsRank  = "highestNewsRank"
	FieldHighestImageRank = "highestImageRank"
	FieldHighestVideoRank = "highestVideoRank"
	FieldAvgSearchVolume  = "avgSearchVolume"
	FieldCompetitors      = "competitors"
	FieldEngine           = "engine"
	FieldDevice           = "device"
)

// Record is one keyword entry as decoded from a page.
// Values are strings, nested maps, lists or nil.
type Record map[string]any

// Get returns the raw value of a field and whether the field is present.
func (r Record) Get(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

// String returns the field rendered for export, or "" when absent.
func (r Record) String(name string) string {
	return FormatValue(r[name])
}

// SetDefault stores value under name unless the record already carries a
// non-nil value for it. It reports whether the value was stored.
func (r Record) SetDefault(name string, value any) bool {
	if v, ok := r[name]; ok && v != nil {
		return false
	}
	r[name] = value
	return true
}

// Defaults are filled into records that do not specify the field themselves.
type Defaults struct {
	Device string
	Engine string
}

// Apply fills the configured defaults into r. Empty defaults are skipped.
func (d Defaults) Apply(r Record) {
	if d.Device != "" {
		r.SetDefault(FieldDevice, d.Device)
	}
	if d.Engine != "" {
		r.SetDefault(FieldEngine, d.Engine)
	}
}

// FormatValue renders a decoded value as a single CSV cell.
//
// nil renders empty. An element that only carries text and attributes
// renders its text. Other nested values render as compact JSON.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		if text, ok := textOnly(val); ok {
			return text
		}
		return toJSON(val)
	case []any:
		return toJSON(val)
	default:
		return fmt.Sprint(val)
	}
}

func textOnly(m map[string]any) (string, bool) {
	text, ok := m[xmltree.TextKey].(string)
	if !ok {
		return "", false
	}
	for key := range m {
		if key != xmltree.TextKey && !strings.HasPrefix(key, xmltree.AttrPrefix) {
			return "", false
		}
	}
	return text, true
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
