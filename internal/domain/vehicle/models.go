package vehicle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record is a single vehicle as returned by a registry resource.
type Record map[string]any

// Value returns the string form of a field and whether the field is present
// with a non-nil value. Nested objects and arrays are reported as malformed.
func (r Record) Value(key string) (string, bool, error) {
	raw, ok := r[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	switch v := raw.(type) {
	case string:
		return v, true, nil
	case json.Number:
		return v.String(), true, nil
	case bool, float64, float32, int, int64:
		return fmt.Sprint(v), true, nil
	default:
		return "", false, fmt.Errorf("field %s has unsupported type %T", key, raw)
	}
}

// IncomingMessage is a chat message as handed over by the platform adapter.
type IncomingMessage struct {
	ChatID    int64
	SenderID  int64
	MessageID int
	Text      string
}

// Line is one label/value pair of a formatted reply.
type Line struct {
	Label string `json:"label"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FormattedReply is the ordered set of non-empty fields of a record.
type FormattedReply struct {
	Lines []Line `json:"lines"`
}

func (f FormattedReply) Empty() bool {
	return len(f.Lines) == 0
}

// Plain renders "label: value" lines.
func (f FormattedReply) Plain() string {
	parts := make([]string, 0, len(f.Lines))
	for _, l := range f.Lines {
		parts = append(parts, l.Label+": "+l.Value)
	}
	return strings.Join(parts, "\n")
}

// Markdown renders the lines with bold labels. escape is applied to values.
func (f FormattedReply) Markdown(escape func(string) string) string {
	parts := make([]string, 0, len(f.Lines))
	for _, l := range f.Lines {
		parts = append(parts, "*"+l.Label+":* "+escape(l.Value))
	}
	return strings.Join(parts, "\n")
}
