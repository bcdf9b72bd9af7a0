package render

import (
	"fmt"
	"strings"
)

// HiddenField is a name/value pair submitted alongside the visible controls
// (CSRF tokens, version markers, tracking ids).
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken constructs a hidden field carrying the provided token under the
// input name the backend expects ("_csrf", "csrf_token", ...).
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// VersionField constructs a hidden field used for optimistic locking.
func VersionField(name string, version any) HiddenField {
	return Hidden(name, version)
}

// MergeHiddenFields flattens fields into a de-duplicated slice. Empty names
// are dropped, later values win on collisions and the position of the first
// occurrence is kept so payload order stays stable.
func MergeHiddenFields(fields ...HiddenField) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	index := make(map[string]int, len(fields))
	out := make([]HiddenField, 0, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		if pos, ok := index[name]; ok {
			out[pos].Value = field.Value
			continue
		}
		index[name] = len(out)
		out = append(out, HiddenField{Name: name, Value: field.Value})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
