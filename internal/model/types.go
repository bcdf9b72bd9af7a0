package model

import "strings"

// FieldType identifies the control a field renders as. The values mirror the
// HTML input types the submission serializer cares about.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeNumber   FieldType = "number"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeFile     FieldType = "file"
	FieldTypeHidden   FieldType = "hidden"
)

// Attribute keys understood on file fields. Input attributes carry the
// constraints; wrapper attributes carry message overrides.
const (
	AttrAccept      = "accept"
	AttrMultiple    = "multiple"
	AttrMinItems    = "data-min-items"
	AttrMaxItems    = "data-max-items"
	AttrMaxFileSize = "data-max-file-size"
)

// Option is a selectable value for select, radio and checkbox fields.
type Option struct {
	Value   string `json:"value" yaml:"value"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Checked bool   `json:"checked,omitempty" yaml:"checked,omitempty"`
}

// Field models a single named control inside a form. Attributes hold the raw
// declarative attributes of the control (accept, data-max-items, ...) and
// Wrapper the attributes of its enclosing wrapper element.
type Field struct {
	Name        string            `json:"name" yaml:"name"`
	Type        FieldType         `json:"type" yaml:"type"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Default     string            `json:"default,omitempty" yaml:"default,omitempty"`
	Options     []Option          `json:"options,omitempty" yaml:"options,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Wrapper     map[string]string `json:"wrapper,omitempty" yaml:"wrapper,omitempty"`
}

// Attr returns the value of an input attribute and whether it is present.
func (f Field) Attr(key string) (string, bool) {
	if f.Attributes == nil {
		return "", false
	}
	value, ok := f.Attributes[key]
	return value, ok
}

// Multiple reports whether a file field accepts more than one file. The
// attribute is a presence flag; only an explicit "false" turns it off.
func (f Field) Multiple() bool {
	value, ok := f.Attr(AttrMultiple)
	return ok && !strings.EqualFold(strings.TrimSpace(value), "false")
}

// FormModel is the top-level form description hosts and renderers consume.
// SubmitURL wins over ActionURL when both are set.
type FormModel struct {
	ID          string            `json:"id" yaml:"id"`
	Title       string            `json:"title,omitempty" yaml:"title,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	SubmitURL   string            `json:"submit,omitempty" yaml:"submit,omitempty"`
	ActionURL   string            `json:"action,omitempty" yaml:"action,omitempty"`
	Fields      []Field           `json:"fields" yaml:"fields"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Endpoint resolves the URL submissions are posted to.
func (m FormModel) Endpoint() string {
	if m.SubmitURL != "" {
		return m.SubmitURL
	}
	return m.ActionURL
}

// Field looks up a field by name.
func (m FormModel) Field(name string) (Field, bool) {
	for _, field := range m.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}
