package formdef_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/formdef"
	"github.com/goliatone/go-formblocks/pkg/model"
)

func TestLoadFile_Contact(t *testing.T) {
	form, err := formdef.LoadFile("testdata/contact.yaml")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if form.Endpoint() != "/api/forms/contact" {
		t.Fatalf("unexpected endpoint %q", form.Endpoint())
	}

	name, _ := form.Field("full_name")
	if name.Type != model.FieldTypeText || name.Label != "Full Name" || !name.Required {
		t.Fatalf("unexpected defaults on full_name: %+v", name)
	}

	files, ok := form.Field("attachments")
	if !ok {
		t.Fatalf("attachments field missing")
	}
	c, err := attachment.ConstraintsFromField(files)
	if err != nil {
		t.Fatalf("ConstraintsFromField: %v", err)
	}
	want := attachment.Constraints{
		Accept:      []string{"image/*", ".pdf"},
		MaxFileSize: 5 * attachment.MiB,
		MinItems:    1,
		MaxItems:    3,
		Multiple:    true,
		Messages:    attachment.Messages{MaxItems: "No more than $0 files please"},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("constraints mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadYAML_AcceptsJSON(t *testing.T) {
	form, err := formdef.LoadYAML(strings.NewReader(`{"id":"x","action":"/a","fields":[{"name":"q"}]}`))
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if form.Endpoint() != "/a" || len(form.Fields) != 1 || form.Fields[0].Type != model.FieldTypeText {
		t.Fatalf("unexpected form %+v", form)
	}
}

func TestLoadYAML_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"missing name", "fields:\n  - type: text\n", formdef.ErrMissingFieldName},
		{"duplicate", "fields:\n  - name: a\n  - name: a\n", formdef.ErrDuplicateField},
		{"unknown type", "fields:\n  - name: a\n    type: slider\n", formdef.ErrUnknownFieldType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := formdef.LoadYAML(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	bad := "fields:\n  - name: f\n    type: file\n    attributes:\n      data-max-file-size: huge\n"
	if _, err := formdef.LoadYAML(strings.NewReader(bad)); err == nil {
		t.Fatalf("expected malformed file size to fail")
	}
	if _, err := formdef.LoadYAML(strings.NewReader("fields: []\nextra: 1\n")); err == nil {
		t.Fatalf("expected unknown keys to fail")
	}
	if _, err := formdef.LoadYAML(strings.NewReader("")); err == nil {
		t.Fatalf("expected empty document to fail")
	}
}

func TestFromOpenAPI(t *testing.T) {
	raw, err := os.ReadFile("testdata/openapi.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	form, err := formdef.FromOpenAPI(context.Background(), raw, "createApplication")
	if err != nil {
		t.Fatalf("FromOpenAPI: %v", err)
	}

	if form.SubmitURL != "https://forms.example.com/applications" || form.Title != "Job application" {
		t.Fatalf("unexpected form header %+v", form)
	}

	var names []string
	for _, f := range form.Fields {
		names = append(names, f.Name)
	}
	wantNames := []string{"name", "email", "cover_letter", "cv", "portfolio", "remote", "role", "source", "years"}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	types := map[string]model.FieldType{}
	for _, f := range form.Fields {
		types[f.Name] = f.Type
	}
	wantTypes := map[string]model.FieldType{
		"name":         model.FieldTypeText,
		"email":        model.FieldTypeEmail,
		"cover_letter": model.FieldTypeTextarea,
		"cv":           model.FieldTypeFile,
		"portfolio":    model.FieldTypeFile,
		"remote":       model.FieldTypeCheckbox,
		"role":         model.FieldTypeSelect,
		"source":       model.FieldTypeHidden,
		"years":        model.FieldTypeNumber,
	}
	if diff := cmp.Diff(wantTypes, types); diff != "" {
		t.Fatalf("field types mismatch (-want +got):\n%s", diff)
	}

	name, _ := form.Field("name")
	if name.Label != "Full name" || !name.Required {
		t.Fatalf("unexpected name field %+v", name)
	}
	role, _ := form.Field("role")
	wantOptions := []model.Option{
		{Value: "engineer", Label: "Engineer"},
		{Value: "designer", Label: "Designer", Checked: true},
	}
	if diff := cmp.Diff(wantOptions, role.Options); diff != "" {
		t.Fatalf("role options mismatch (-want +got):\n%s", diff)
	}

	cv, _ := form.Field("cv")
	cvConstraints, err := attachment.ConstraintsFromField(cv)
	if err != nil {
		t.Fatalf("cv constraints: %v", err)
	}
	if cvConstraints.MaxFileSize != 512*1024 || cvConstraints.Multiple || !cv.Required {
		t.Fatalf("unexpected cv constraints %+v", cvConstraints)
	}

	portfolio, _ := form.Field("portfolio")
	pc, err := attachment.ConstraintsFromField(portfolio)
	if err != nil {
		t.Fatalf("portfolio constraints: %v", err)
	}
	wantPortfolio := attachment.Constraints{
		Accept:      []string{"image/*"},
		MaxFileSize: attachment.DefaultMaxFileSize,
		MinItems:    2,
		MaxItems:    4,
		Multiple:    true,
		Messages:    attachment.Messages{MaxItems: "At most $0 samples"},
	}
	if diff := cmp.Diff(wantPortfolio, pc); diff != "" {
		t.Fatalf("portfolio constraints mismatch (-want +got):\n%s", diff)
	}
}

func TestFromOpenAPI_UnknownOperation(t *testing.T) {
	raw, err := os.ReadFile("testdata/openapi.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	_, err = formdef.FromOpenAPI(context.Background(), raw, "missing")
	if !errors.Is(err, formdef.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
}
