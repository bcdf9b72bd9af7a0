package formdef

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/model"
)

var (
	ErrMissingFieldName = errors.New("formdef: field without name")
	ErrDuplicateField   = errors.New("formdef: duplicate field")
	ErrUnknownFieldType = errors.New("formdef: unknown field type")
)

var knownTypes = map[model.FieldType]struct{}{
	model.FieldTypeText:     {},
	model.FieldTypeEmail:    {},
	model.FieldTypeNumber:   {},
	model.FieldTypeTextarea: {},
	model.FieldTypeSelect:   {},
	model.FieldTypeRadio:    {},
	model.FieldTypeCheckbox: {},
	model.FieldTypeFile:     {},
	model.FieldTypeHidden:   {},
}

// Normalize fills derived defaults (type, label) and rejects definitions the
// controllers cannot run: unnamed or duplicate fields, unknown types and
// file fields with malformed constraints. Checkbox groups and radios share a
// name across options, so a name may only appear once per definition.
func Normalize(form *model.FormModel) error {
	seen := make(map[string]struct{}, len(form.Fields))
	for i := range form.Fields {
		field := &form.Fields[i]
		field.Name = strings.TrimSpace(field.Name)
		if field.Name == "" {
			return fmt.Errorf("%w at index %d", ErrMissingFieldName, i)
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateField, field.Name)
		}
		seen[field.Name] = struct{}{}

		if field.Type == "" {
			field.Type = model.FieldTypeText
		}
		field.Type = model.FieldType(strings.ToLower(string(field.Type)))
		if _, ok := knownTypes[field.Type]; !ok {
			return fmt.Errorf("%w %q on %s", ErrUnknownFieldType, field.Type, field.Name)
		}
		if field.Label == "" && field.Type != model.FieldTypeHidden {
			field.Label = model.DefaultLabeler(field.Name)
		}
		if field.Type == model.FieldTypeFile {
			if _, err := attachment.ConstraintsFromField(*field); err != nil {
				return fmt.Errorf("formdef: %w", err)
			}
		}
	}
	return nil
}
