package formdef

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/model"
)

var (
	ErrOperationNotFound = errors.New("formdef: operation not found")
	ErrNoRequestBody     = errors.New("formdef: operation has no object request body")
)

// Schema extensions understood on request body properties.
const (
	ExtAccept      = "x-accept"
	ExtMaxFileSize = "x-max-file-size"
	ExtMessages    = "x-messages"
	ExtWidget      = "x-widget"
	ExtOrder       = "x-order"
	ExtPlaceholder = "x-placeholder"
)

var bodyMediaTypes = []string{"application/json", "multipart/form-data", "application/x-www-form-urlencoded"}

// FromOpenAPI builds a form from the request body of operationID. Properties
// become fields ordered by x-order then name; the operation path (prefixed
// with the first server url) becomes the submit url.
func FromOpenAPI(ctx context.Context, raw []byte, operationID string) (model.FormModel, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("formdef: load openapi: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return model.FormModel{}, fmt.Errorf("formdef: validate openapi: %w", err)
	}

	path, op := findOperation(doc, operationID)
	if op == nil {
		return model.FormModel{}, fmt.Errorf("%w: %s", ErrOperationNotFound, operationID)
	}
	schema := requestSchema(op)
	if schema == nil || len(schema.Properties) == 0 {
		return model.FormModel{}, fmt.Errorf("%w: %s", ErrNoRequestBody, operationID)
	}

	form := model.FormModel{
		ID:          operationID,
		Title:       op.Summary,
		Description: op.Description,
		SubmitURL:   serverURL(doc) + path,
	}
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	for _, name := range orderedProperties(schema.Properties) {
		prop := schema.Properties[name].Value
		if prop == nil {
			continue
		}
		field, err := fieldFromSchema(name, prop, required[name])
		if err != nil {
			return model.FormModel{}, err
		}
		form.Fields = append(form.Fields, field)
	}
	if err := Normalize(&form); err != nil {
		return model.FormModel{}, err
	}
	return form, nil
}

// LoadOpenAPIFile is FromOpenAPI over a document on disk.
func LoadOpenAPIFile(ctx context.Context, path, operationID string) (model.FormModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("formdef: read %s: %w", path, err)
	}
	return FromOpenAPI(ctx, raw, operationID)
}

func findOperation(doc *openapi3.T, operationID string) (string, *openapi3.Operation) {
	if doc.Paths == nil {
		return "", nil
	}
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return path, op
			}
		}
	}
	return "", nil
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range bodyMediaTypes {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func serverURL(doc *openapi3.T) string {
	if len(doc.Servers) == 0 || doc.Servers[0] == nil {
		return ""
	}
	return strings.TrimRight(doc.Servers[0].URL, "/")
}

func orderedProperties(props openapi3.Schemas) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	order := func(name string) int {
		if ref := props[name]; ref != nil && ref.Value != nil {
			if v, ok := intExtension(ref.Value.Extensions, ExtOrder); ok {
				return v
			}
		}
		return int(^uint(0) >> 1)
	}
	sort.SliceStable(names, func(i, j int) bool {
		oi, oj := order(names[i]), order(names[j])
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
	return names
}

func fieldFromSchema(name string, s *openapi3.Schema, required bool) (model.Field, error) {
	field := model.Field{
		Name:        name,
		Label:       s.Title,
		Description: s.Description,
		Required:    required,
		Default:     scalarString(s.Default),
		Placeholder: stringExtension(s.Extensions, ExtPlaceholder),
	}

	switch {
	case s.Type.Is(openapi3.TypeBoolean):
		field.Type = model.FieldTypeCheckbox
		field.Options = []model.Option{{Value: "true", Checked: field.Default == "true"}}
	case s.Type.Is(openapi3.TypeInteger), s.Type.Is(openapi3.TypeNumber):
		field.Type = model.FieldTypeNumber
	case s.Type.Is(openapi3.TypeArray):
		if err := arrayField(&field, s); err != nil {
			return model.Field{}, err
		}
	case s.Format == "binary":
		field.Type = model.FieldTypeFile
		if err := fileAttributes(&field, s); err != nil {
			return model.Field{}, err
		}
	case len(s.Enum) > 0:
		field.Type = model.FieldTypeSelect
		field.Options = enumOptions(s.Enum, field.Default)
	case s.Format == "email":
		field.Type = model.FieldTypeEmail
	default:
		field.Type = model.FieldTypeText
	}

	if widget := stringExtension(s.Extensions, ExtWidget); widget != "" {
		field.Type = model.FieldType(widget)
	}
	if s.ReadOnly {
		field.Type = model.FieldTypeHidden
	}
	return field, nil
}

func arrayField(field *model.Field, s *openapi3.Schema) error {
	var items *openapi3.Schema
	if s.Items != nil {
		items = s.Items.Value
	}
	switch {
	case items != nil && items.Format == "binary":
		field.Type = model.FieldTypeFile
		setAttr(field, model.AttrMultiple, "")
		if s.MinItems > 0 {
			setAttr(field, model.AttrMinItems, strconv.FormatUint(s.MinItems, 10))
		}
		if s.MaxItems != nil {
			setAttr(field, model.AttrMaxItems, strconv.FormatUint(*s.MaxItems, 10))
		}
		ext := mergeExtensions(items.Extensions, s.Extensions)
		return fileAttributes(field, &openapi3.Schema{Extensions: ext})
	case items != nil && len(items.Enum) > 0:
		field.Type = model.FieldTypeCheckbox
		field.Options = enumOptions(items.Enum, "")
		return nil
	default:
		field.Type = model.FieldTypeText
		return nil
	}
}

func fileAttributes(field *model.Field, s *openapi3.Schema) error {
	if accept := stringExtension(s.Extensions, ExtAccept); accept != "" {
		setAttr(field, model.AttrAccept, accept)
	}
	if raw := stringExtension(s.Extensions, ExtMaxFileSize); raw != "" {
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			size, err := attachment.ParseSize(raw)
			if err != nil {
				return fmt.Errorf("formdef: field %s: %w", field.Name, err)
			}
			raw = strconv.FormatFloat(float64(size)/attachment.MiB, 'f', -1, 64)
		}
		setAttr(field, model.AttrMaxFileSize, raw)
	}
	if messages, ok := s.Extensions[ExtMessages].(map[string]any); ok {
		wrapperKeys := map[string]string{
			"accept":      attachment.WrapperAccept,
			"maxFileSize": attachment.WrapperMaxFileSize,
			"maxItems":    attachment.WrapperMaxItems,
			"minItems":    attachment.WrapperMinItems,
		}
		for key, attr := range wrapperKeys {
			if text, ok := messages[key].(string); ok && text != "" {
				if field.Wrapper == nil {
					field.Wrapper = map[string]string{}
				}
				field.Wrapper[attr] = text
			}
		}
	}
	return nil
}

func enumOptions(values []any, selected string) []model.Option {
	options := make([]model.Option, 0, len(values))
	for _, v := range values {
		value := scalarString(v)
		options = append(options, model.Option{
			Value:   value,
			Label:   model.DefaultLabeler(value),
			Checked: selected != "" && value == selected,
		})
	}
	return options
}

func setAttr(field *model.Field, key, value string) {
	if field.Attributes == nil {
		field.Attributes = map[string]string{}
	}
	field.Attributes[key] = value
}

func mergeExtensions(maps ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func stringExtension(ext map[string]any, key string) string {
	switch v := ext[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64, bool:
		return scalarString(v)
	default:
		return ""
	}
}

func intExtension(ext map[string]any, key string) (int, bool) {
	switch v := ext[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
