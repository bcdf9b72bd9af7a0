package gotemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/render/template"
)

// DefaultExtension is appended to template names that carry none.
const DefaultExtension = ".tmpl"

// Option configures an Engine.
type Option func(*Engine)

// WithExtension changes the extension appended to bare template names.
func WithExtension(ext string) Option {
	return func(e *Engine) {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.ext = ext
	}
}

// WithGlobals exposes helper functions, such as the translate helper, to
// every template.
func WithGlobals(funcs map[string]any) Option {
	return func(e *Engine) {
		for name, fn := range funcs {
			if name = strings.TrimSpace(name); name != "" && isFunc(fn) {
				e.set.Globals[name] = fn
			}
		}
	}
}

// Engine renders named pongo2 templates read from an fs.FS. Parsed
// templates are cached by path for the life of the engine.
type Engine struct {
	set *pongo2.TemplateSet
	ext string

	mu    sync.RWMutex
	cache map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

var registerFilters sync.Once

// New builds an engine over files.
func New(files fs.FS, opts ...Option) (*Engine, error) {
	if files == nil {
		return nil, errors.New("gotemplate: templates fs required")
	}
	e := &Engine{
		set:   pongo2.NewSet("formblocks", pongo2.NewFSLoader(files)),
		ext:   DefaultExtension,
		cache: make(map[string]*pongo2.Template),
	}
	e.set.Globals = pongo2.Context{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	registerFilters.Do(func() {
		if !pongo2.FilterExists("mebibytes") {
			_ = pongo2.RegisterFilter("mebibytes", filterMebibytes)
		}
	})
	return e, nil
}

// RenderTemplate renders the template at name. Struct data is exposed under
// its JSON field names.
func (e *Engine) RenderTemplate(name string, data any) (string, error) {
	path := name
	if e.ext != "" && !strings.HasSuffix(path, e.ext) {
		path += e.ext
	}
	tmpl, err := e.lookup(path)
	if err != nil {
		return "", err
	}
	ctx, err := toContext(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: %s: convert data: %w", path, err)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", fmt.Errorf("gotemplate: %s: %w", path, err)
	}
	return buf.String(), nil
}

func (e *Engine) lookup(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.cache[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.cache[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %s: %w", path, err)
	}
	e.cache[path] = tmpl
	return tmpl, nil
}

func isFunc(v any) bool {
	return v != nil && reflect.ValueOf(v).Kind() == reflect.Func
}

// toContext round-trips values through JSON so templates see the json tag
// names. Functions pass through unchanged.
func toContext(data any) (pongo2.Context, error) {
	var in map[string]any
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case map[string]any:
		in = v
	default:
		decoded, err := roundTrip(v)
		if err != nil {
			return nil, err
		}
		m, ok := decoded.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%T does not encode to an object", data)
		}
		return m, nil
	}

	ctx := make(pongo2.Context, len(in))
	for key, value := range in {
		if value == nil || isFunc(value) {
			ctx[key] = value
			continue
		}
		converted, err := roundTrip(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		ctx[key] = converted
	}
	return ctx, nil
}

// roundTrip decodes numbers as json.Number so integers print without a
// fractional part.
func roundTrip(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// filterMebibytes formats a byte count the way attachment lists show sizes.
func filterMebibytes(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var size int64
	if in.IsInteger() {
		size = int64(in.Integer())
	} else if parsed, err := strconv.ParseInt(strings.TrimSpace(in.String()), 10, 64); err == nil {
		size = parsed
	}
	return pongo2.AsValue(attachment.FormatMebibytes(size)), nil
}
