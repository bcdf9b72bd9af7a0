package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/model"
	"github.com/goliatone/go-formblocks/pkg/render"
	rendertemplate "github.com/goliatone/go-formblocks/pkg/render/template"
	gotemplate "github.com/goliatone/go-formblocks/pkg/render/template/gotemplate"
)

// Template names, overridable through theme partials with the same key.
const (
	PartialForm           = "form"
	PartialAttachmentList = "attachment_list"
	PartialErrorBanner    = "error_banner"
)

var defaultTemplates = map[string]string{
	PartialForm:           "templates/form.tmpl",
	PartialAttachmentList: "templates/attachment_list.tmpl",
	PartialErrorBanner:    "templates/error_banner.tmpl",
}

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	theme            *theme.RendererConfig
	translator       render.Translator
	locale           string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation. It
// must provide the translate helper the bundled templates call.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTheme applies a go-theme renderer config: name and variant become data
// attributes, CSS vars an inline style block and partials override template
// paths.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// WithTranslator localises button labels and messages. locale is the
// default when RenderOptions carry none.
func WithTranslator(t render.Translator, locale string) Option {
	return func(c *config) {
		c.translator = t
		c.locale = locale
	}
}

// Renderer produces HTML for forms, attachment lists and error banners. It
// implements render.Renderer and attachment.ListRenderer.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	theme     *theme.RendererConfig
	locale    string
}

var (
	_ render.Renderer         = (*Renderer)(nil)
	_ attachment.ListRenderer = (*Renderer)(nil)
)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(cfg.templateFS,
			gotemplate.WithGlobals(render.TemplateI18nFuncs(cfg.translator, render.TemplateI18nConfig{})),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, theme: cfg.theme, locale: cfg.locale}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render writes the form markup. Values prefill controls and Errors are shown
// inline, with form level errors in a banner above the controls.
func (r *Renderer) Render(_ context.Context, form model.FormModel, options render.RenderOptions) ([]byte, error) {
	locale := r.localeFor(options.Locale)

	var banner string
	if len(options.Errors.Form) > 0 {
		var err error
		banner, err = r.RenderErrorBanner(strings.Join(options.Errors.Form, " "))
		if err != nil {
			return nil, err
		}
	}

	fields := make([]fieldView, 0, len(form.Fields))
	for _, field := range form.Fields {
		fields = append(fields, newFieldView(form.ID, field, options))
	}

	hidden := make([]hiddenView, 0, len(options.Hidden))
	for _, h := range render.MergeHiddenFields(options.Hidden...) {
		hidden = append(hidden, hiddenView{Name: h.Name, Value: h.Value})
	}

	out, err := r.templates.RenderTemplate(r.templatePath(PartialForm), map[string]any{
		"form":   form,
		"fields": fields,
		"hidden": hidden,
		"banner": banner,
		"theme":  buildThemeContext(r.theme),
		"locale": locale,
	})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render form: %w", err)
	}
	return []byte(out), nil
}

// RenderList renders the entries of an attachment field.
func (r *Renderer) RenderList(entries []attachment.Entry) (string, error) {
	if entries == nil {
		entries = []attachment.Entry{}
	}
	out, err := r.templates.RenderTemplate(r.templatePath(PartialAttachmentList), map[string]any{
		"entries": entries,
		"locale":  r.locale,
	})
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render attachment list: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// RenderErrorBanner renders the form level error banner. message is
// sanitised before it is injected.
func (r *Renderer) RenderErrorBanner(message string) (string, error) {
	out, err := r.templates.RenderTemplate(r.templatePath(PartialErrorBanner), map[string]any{
		"message": render.SanitizeMessage(message),
		"locale":  r.locale,
	})
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render error banner: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Renderer) localeFor(requested string) string {
	if requested != "" {
		return requested
	}
	return r.locale
}

func (r *Renderer) templatePath(partial string) string {
	if r.theme != nil {
		if override := strings.TrimSpace(r.theme.Partials[partial]); override != "" {
			return override
		}
	}
	return defaultTemplates[partial]
}

type attrView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type hiddenView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type optionView struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

type fieldView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Placeholder string       `json:"placeholder"`
	Value       string       `json:"value"`
	Required    bool         `json:"required"`
	Options     []optionView `json:"options"`
	Attributes  []attrView   `json:"attributes"`
	Wrapper     []attrView   `json:"wrapper"`
	Errors      []string     `json:"errors"`
}

func newFieldView(formID string, field model.Field, options render.RenderOptions) fieldView {
	value, prefilled := options.Values[field.Name]
	if !prefilled {
		value = field.Default
	}
	label := field.Label
	if label == "" {
		label = model.DefaultLabeler(field.Name)
	}

	view := fieldView{
		ID:          fieldID(formID, field.Name),
		Name:        field.Name,
		Type:        string(field.Type),
		Label:       label,
		Description: field.Description,
		Placeholder: field.Placeholder,
		Value:       value,
		Required:    field.Required,
		Attributes:  sortedAttrs(field.Attributes),
		Wrapper:     sortedAttrs(field.Wrapper),
		Errors:      options.Errors.Fields[field.Name],
	}

	selected := map[string]bool{}
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			selected[v] = true
		}
	}
	for _, opt := range field.Options {
		checked := opt.Checked
		if prefilled {
			checked = selected[opt.Value]
		}
		optLabel := opt.Label
		if optLabel == "" {
			optLabel = opt.Value
		}
		view.Options = append(view.Options, optionView{Value: opt.Value, Label: optLabel, Checked: checked})
	}
	if field.Type == model.FieldTypeCheckbox && len(view.Options) == 0 {
		view.Options = []optionView{{Value: "on", Label: label, Checked: prefilled && value != ""}}
	}
	return view
}

func fieldID(formID, name string) string {
	id := strings.NewReplacer(" ", "-", "[", "-", "]", "", ".", "-").Replace(name)
	if formID == "" {
		return "field-" + id
	}
	return formID + "-" + id
}

func sortedAttrs(attrs map[string]string) []attrView {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]attrView, 0, len(keys))
	for _, key := range keys {
		out = append(out, attrView{Name: key, Value: attrs[key]})
	}
	return out
}
