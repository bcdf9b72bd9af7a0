package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-formblocks/pkg/formdef"
	"github.com/goliatone/go-formblocks/pkg/model"
	"github.com/goliatone/go-formblocks/pkg/render"
	"github.com/goliatone/go-formblocks/pkg/renderers/vanilla"
)

const defaultRendererName = "vanilla"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSchemaTransformer registers a Transformer that runs after loading and
// before decorators.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithDecorators registers decorators that run against the loaded form
// model before rendering.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		o.decorators = append(o.decorators, decorators...)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the pipeline from form definition to rendered
// output. The vanilla renderer is registered when no registry is supplied.
type Orchestrator struct {
	registry          *render.Registry
	defaultRenderer   string
	transformer       Transformer
	decorators        []model.Decorator
	endpointOverrides map[string]EndpointOverride
	logger            *zap.Logger
	initialiseErr     error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := vanilla.New()
		if err != nil {
			o.initialiseErr = errors.Join(o.initialiseErr, fmt.Errorf("orchestrator: default renderer: %w", err))
		} else {
			o.registry.MustRegister(renderer)
		}
	}
	return o
}

// Registry exposes the renderer registry.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

// Request describes where a form definition lives and how to render it.
type Request struct {
	// Path points at a YAML/JSON form definition, or at an OpenAPI document
	// when OperationID is set. Ignored when Document is supplied.
	Path string

	// Document carries the raw definition when callers already hold it.
	Document []byte

	// OperationID selects an OpenAPI operation. Empty means Path/Document is a
	// plain form definition.
	OperationID string

	// Renderer names the renderer to use, falling back to the default.
	Renderer string

	// Subset limits the rendered fields.
	Subset render.FieldSubset

	// RenderOptions carries per-request values, errors and hidden fields.
	RenderOptions render.RenderOptions
}

// Load resolves the form model for req, running overrides, the transformer,
// decorators and the field subset. It does not render.
func (o *Orchestrator) Load(ctx context.Context, req Request) (model.FormModel, error) {
	if ctx == nil {
		return model.FormModel{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return model.FormModel{}, err
	}
	if o.initialiseErr != nil {
		return model.FormModel{}, o.initialiseErr
	}

	form, err := o.loadDefinition(ctx, req)
	if err != nil {
		return model.FormModel{}, err
	}

	o.applyEndpointOverride(&form)
	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, &form); err != nil {
			return model.FormModel{}, fmt.Errorf("orchestrator: transform form: %w", err)
		}
	}
	for _, decorator := range o.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&form); err != nil {
			return model.FormModel{}, fmt.Errorf("orchestrator: decorate form: %w", err)
		}
	}
	render.ApplySubset(&form, req.Subset)

	o.logger.Debug("form loaded",
		zap.String("form", form.ID),
		zap.String("operation", req.OperationID),
		zap.Int("fields", len(form.Fields)),
	)
	return form, nil
}

// Generate loads the form and renders it with the requested renderer.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	form, err := o.Load(ctx, req)
	if err != nil {
		return nil, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	output, err := renderer.Render(ctx, form, req.RenderOptions)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

func (o *Orchestrator) loadDefinition(ctx context.Context, req Request) (model.FormModel, error) {
	raw := req.Document
	if raw == nil {
		if req.Path == "" {
			return model.FormModel{}, errors.New("orchestrator: path or document is required")
		}
		data, err := os.ReadFile(req.Path)
		if err != nil {
			return model.FormModel{}, fmt.Errorf("orchestrator: read definition: %w", err)
		}
		raw = data
	}

	if req.OperationID != "" {
		form, err := formdef.FromOpenAPI(ctx, raw, req.OperationID)
		if err != nil {
			return model.FormModel{}, fmt.Errorf("orchestrator: %w", err)
		}
		return form, nil
	}
	form, err := formdef.LoadYAML(bytes.NewReader(raw))
	if err != nil {
		return model.FormModel{}, fmt.Errorf("orchestrator: %w", err)
	}
	return form, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}
	return o.registry.Get(names[0])
}
