package model

import internalmodel "github.com/goliatone/go-formblocks/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeText     = internalmodel.FieldTypeText
	FieldTypeEmail    = internalmodel.FieldTypeEmail
	FieldTypeNumber   = internalmodel.FieldTypeNumber
	FieldTypeTextarea = internalmodel.FieldTypeTextarea
	FieldTypeSelect   = internalmodel.FieldTypeSelect
	FieldTypeRadio    = internalmodel.FieldTypeRadio
	FieldTypeCheckbox = internalmodel.FieldTypeCheckbox
	FieldTypeFile     = internalmodel.FieldTypeFile
	FieldTypeHidden   = internalmodel.FieldTypeHidden
)

const (
	AttrAccept      = internalmodel.AttrAccept
	AttrMultiple    = internalmodel.AttrMultiple
	AttrMinItems    = internalmodel.AttrMinItems
	AttrMaxItems    = internalmodel.AttrMaxItems
	AttrMaxFileSize = internalmodel.AttrMaxFileSize
)

type Option = internalmodel.Option
type Field = internalmodel.Field
type FormModel = internalmodel.FormModel

// DefaultLabeler derives a display label from a field name.
func DefaultLabeler(name string) string {
	return internalmodel.DefaultLabeler(name)
}
