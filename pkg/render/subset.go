package render

import (
	"strings"

	"github.com/goliatone/go-formblocks/pkg/model"
)

// FieldSubset narrows a form to the named fields and/or field types. Empty
// lists do not filter.
type FieldSubset struct {
	Names []string
	Types []string
}

// ParseFieldSubset reads comma separated name and type lists, as passed on
// the command line.
func ParseFieldSubset(names, types string) FieldSubset {
	return FieldSubset{Names: splitTokens(names), Types: splitTokens(types)}
}

// ApplySubset drops fields that do not match subset. Hidden fields are kept
// regardless of the type filter since they carry tokens the endpoint needs.
func ApplySubset(form *model.FormModel, subset FieldSubset) {
	if form == nil {
		return
	}
	names := normaliseTokens(subset.Names)
	types := normaliseTokens(subset.Types)
	if len(names) == 0 && len(types) == 0 {
		return
	}

	filtered := form.Fields[:0:0]
	for _, field := range form.Fields {
		if len(names) > 0 {
			if _, ok := names[strings.ToLower(field.Name)]; !ok {
				continue
			}
		}
		if len(types) > 0 && field.Type != model.FieldTypeHidden {
			if _, ok := types[strings.ToLower(string(field.Type))]; !ok {
				continue
			}
		}
		filtered = append(filtered, field)
	}
	if len(filtered) == 0 {
		filtered = nil
	}
	form.Fields = filtered
}

func splitTokens(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normaliseTokens(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(values))
	for _, value := range values {
		if token := strings.ToLower(strings.TrimSpace(value)); token != "" {
			out[token] = struct{}{}
		}
	}
	return out
}
