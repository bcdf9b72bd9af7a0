package orchestrator_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formblocks/pkg/model"
	"github.com/goliatone/go-formblocks/pkg/orchestrator"
	"github.com/goliatone/go-formblocks/pkg/render"
)

var (
	contactPath = filepath.Join("..", "formdef", "testdata", "contact.yaml")
	openAPIPath = filepath.Join("..", "formdef", "testdata", "openapi.yaml")
)

func fieldNames(form model.FormModel) []string {
	var names []string
	for _, field := range form.Fields {
		names = append(names, field.Name)
	}
	return names
}

func TestGenerate_DefaultRenderer(t *testing.T) {
	o := orchestrator.New()

	out, err := o.Generate(context.Background(), orchestrator.Request{Path: contactPath})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, `<form class="formblocks-form" id="contact" data-submit="/api/forms/contact">`) {
		t.Fatalf("unexpected output:\n%s", html)
	}
	if !strings.Contains(html, `data-max-items="No more than $0 files please"`) {
		t.Fatalf("expected wrapper attributes in output:\n%s", html)
	}
}

func TestLoad_AppliesSubset(t *testing.T) {
	o := orchestrator.New()

	form, err := o.Load(context.Background(), orchestrator.Request{
		Path:   contactPath,
		Subset: render.ParseFieldSubset("", "email,file"),
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"email", "attachments"}, fieldNames(form)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_OpenAPIWithEndpointOverride(t *testing.T) {
	o := orchestrator.New(orchestrator.WithEndpointOverrides(orchestrator.EndpointOverride{
		FormID:    "*",
		SubmitURL: "/proxy/applications",
	}))

	form, err := o.Load(context.Background(), orchestrator.Request{
		Path:        openAPIPath,
		OperationID: "createApplication",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if form.SubmitURL != "/proxy/applications" {
		t.Fatalf("expected override, got %q", form.SubmitURL)
	}
	if _, ok := form.Field("cv"); !ok {
		t.Fatalf("expected cv field in %v", fieldNames(form))
	}
}

func TestLoad_InvalidEndpointOverride(t *testing.T) {
	o := orchestrator.New(orchestrator.WithEndpointOverrides(orchestrator.EndpointOverride{FormID: "contact"}))

	if _, err := o.Load(context.Background(), orchestrator.Request{Path: contactPath}); err == nil {
		t.Fatalf("expected error for override without urls")
	}
}

func TestLoad_PresetTransformerAndDecorators(t *testing.T) {
	files := fstest.MapFS{
		"preset.yaml": {Data: []byte(`
title: Talk to us
fields:
  full_name:
    label: Your name
    rename: name
  attachments:
    attributes:
      data-max-items: "1"
`)},
	}
	preset, err := orchestrator.NewPresetTransformerFromFS(files, "preset.yaml")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}

	var decorated bool
	o := orchestrator.New(
		orchestrator.WithSchemaTransformer(preset),
		orchestrator.WithDecorators(model.DecoratorFunc(func(form *model.FormModel) error {
			decorated = form.Title == "Talk to us"
			return nil
		})),
	)

	form, err := o.Load(context.Background(), orchestrator.Request{Path: contactPath})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !decorated {
		t.Fatalf("expected decorator to run after the transformer")
	}
	field, ok := form.Field("name")
	if !ok || field.Label != "Your name" {
		t.Fatalf("expected renamed field, got %v", fieldNames(form))
	}
	attachments, _ := form.Field("attachments")
	if attachments.Attributes["data-max-items"] != "1" || attachments.Attributes["accept"] != "image/*, .pdf" {
		t.Fatalf("expected merged attributes, got %v", attachments.Attributes)
	}
}

func TestPresetTransformer_UnknownField(t *testing.T) {
	preset, err := orchestrator.NewPresetTransformer([]byte(`{"fields": {"missing": {"label": "x"}}}`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	o := orchestrator.New(orchestrator.WithSchemaTransformer(preset))

	if _, err := o.Load(context.Background(), orchestrator.Request{Path: contactPath}); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestGenerate_UnknownRenderer(t *testing.T) {
	o := orchestrator.New()

	_, err := o.Generate(context.Background(), orchestrator.Request{Path: contactPath, Renderer: "pdf"})
	if !errors.Is(err, render.ErrRendererNotFound) {
		t.Fatalf("expected ErrRendererNotFound, got %v", err)
	}
}

func TestGenerate_RequiresSource(t *testing.T) {
	o := orchestrator.New()
	if _, err := o.Generate(context.Background(), orchestrator.Request{}); err == nil {
		t.Fatalf("expected error without path or document")
	}
}
