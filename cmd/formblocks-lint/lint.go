package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/formdef"
	"github.com/goliatone/go-formblocks/pkg/model"
)

type violation struct {
	file     string
	location string
	message  string
}

func lintFile(ctx context.Context, path, operation string) []violation {
	var (
		form model.FormModel
		err  error
	)
	if operation != "" {
		form, err = formdef.LoadOpenAPIFile(ctx, path, operation)
	} else {
		form, err = formdef.LoadFile(path)
	}
	if err != nil {
		return []violation{{file: path, location: "load", message: err.Error()}}
	}
	return lintForm(path, form)
}

func lintForm(file string, form model.FormModel) []violation {
	var result []violation
	add := func(path []string, format string, args ...any) {
		result = append(result, violation{
			file:     file,
			location: formatLocation(path),
			message:  fmt.Sprintf(format, args...),
		})
	}

	base := []string{"form", form.ID}
	if form.Endpoint() == "" {
		add(base, "form has no submit or action url")
	}

	for _, field := range form.Fields {
		path := appendPath(base, "fields."+field.Name)
		switch field.Type {
		case model.FieldTypeSelect, model.FieldTypeRadio:
			if len(field.Options) == 0 {
				add(path, "%s field has no options", field.Type)
			}
		case model.FieldTypeCheckbox:
		default:
			if len(field.Options) > 0 {
				add(path, "options are ignored on %s fields", field.Type)
			}
		}
		if field.Type == model.FieldTypeHidden && field.Required {
			add(path, "hidden fields cannot be required")
		}
		if field.Type == model.FieldTypeFile {
			result = append(result, lintAttachment(file, path, field)...)
		}
	}
	return result
}

func lintAttachment(file string, path []string, field model.Field) []violation {
	var result []violation
	add := func(segment, format string, args ...any) {
		result = append(result, violation{
			file:     file,
			location: formatLocation(appendPath(path, segment)),
			message:  fmt.Sprintf(format, args...),
		})
	}

	for _, pattern := range attachment.ParseAccept(field.Attributes[model.AttrAccept]) {
		if !validAcceptPattern(pattern) {
			add(model.AttrAccept, "pattern %q is neither an extension nor a media type", pattern)
		}
	}

	if field.Multiple() {
		return result
	}
	for _, key := range []string{model.AttrMinItems, model.AttrMaxItems} {
		if _, ok := field.Attr(key); ok {
			add(key, "item bounds are ignored without %q", model.AttrMultiple)
		}
	}
	for _, key := range []string{attachment.WrapperMinItems, attachment.WrapperMaxItems} {
		if _, ok := field.Wrapper[key]; ok {
			add("wrapper."+key, "message can never show without %q", model.AttrMultiple)
		}
	}
	return result
}

func validAcceptPattern(pattern string) bool {
	if strings.HasPrefix(pattern, ".") {
		return len(pattern) > 1 && !strings.ContainsAny(pattern, "/ ")
	}
	category, subtype, ok := strings.Cut(pattern, "/")
	return ok && category != "" && category != "*" && subtype != "" && !strings.Contains(subtype, "/")
}

func appendPath(path []string, segment string) []string {
	next := append([]string(nil), path...)
	next = append(next, segment)
	return next
}

func formatLocation(path []string) string {
	return strings.Join(path, " > ")
}
