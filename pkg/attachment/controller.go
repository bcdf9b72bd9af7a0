package attachment

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formblocks/pkg/render"
)

// ErrIndexOutOfRange is returned by Remove when no entry exists at the index.
// The list is left unchanged.
var ErrIndexOutOfRange = errors.New("attachment: index out of range")

// View is the UI surface an attachment field renders into.
type View interface {
	// ShowValidation displays message; an empty message clears it.
	ShowValidation(message string)
	// ShowList replaces the visible attachment list.
	ShowList(list List)
	// SyncFiles replaces the native file collection backing the field.
	SyncFiles(files []File)
}

// ListRenderer turns entries into markup. Hosts without markup can omit it.
type ListRenderer interface {
	RenderList(entries []Entry) (string, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for selection and validation events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithListRenderer renders list markup that is passed to the View.
func WithListRenderer(renderer ListRenderer) Option {
	return func(c *Controller) {
		c.renderer = renderer
	}
}

// WithTranslator resolves default messages for locale through t.
func WithTranslator(t render.Translator, locale string) Option {
	return func(c *Controller) {
		c.messenger.Translator = t
		c.messenger.Locale = locale
	}
}

// WithMissingTranslationHandler controls message fallback when a key is not
// translated.
func WithMissingTranslationHandler(fn render.MissingTranslationHandler) Option {
	return func(c *Controller) {
		c.messenger.OnMissing = fn
	}
}

// Controller owns the ordered file list of one attachment field. View and
// ListRenderer callbacks run after the controller's lock is released and may
// call back into it.
type Controller struct {
	mu          sync.Mutex
	name        string
	constraints Constraints
	view        View
	renderer    ListRenderer
	messenger   Messenger
	logger      *zap.Logger

	files  []File
	result Result
}

// NewController binds a field named name to view under constraints.
func NewController(name string, constraints Constraints, view View, opts ...Option) (*Controller, error) {
	if view == nil {
		return nil, fmt.Errorf("attachment: field %q: missing view", name)
	}
	if err := constraints.Check(); err != nil {
		return nil, fmt.Errorf("attachment: field %q: %w", name, err)
	}
	c := &Controller{
		name:        name,
		constraints: constraints,
		view:        view,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = c.logger.With(zap.String("field", name))
	return c, nil
}

// Name returns the field name.
func (c *Controller) Name() string { return c.name }

// Constraints returns the rule set the controller validates against.
func (c *Controller) Constraints() Constraints { return c.constraints }

// Select adds newly picked files. Single-file fields replace the list.
func (c *Controller) Select(files ...File) error {
	c.mu.Lock()
	if c.constraints.Multiple {
		c.files = append(c.files, files...)
	} else {
		c.files = append([]File(nil), files...)
	}
	c.logger.Debug("files selected", zap.Int("added", len(files)), zap.Int("total", len(c.files)))
	snap := c.revalidate()
	c.mu.Unlock()
	return c.show(snap)
}

// Remove deletes the entry at index and re-renders the remaining entries.
func (c *Controller) Remove(index int) error {
	c.mu.Lock()
	if index < 0 || index >= len(c.files) {
		n := len(c.files)
		c.mu.Unlock()
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, n)
	}
	removed := c.files[index]
	c.files = append(c.files[:index:index], c.files[index+1:]...)
	c.logger.Debug("file removed", zap.String("name", removed.Name), zap.Int("total", len(c.files)))
	snap := c.revalidate()
	c.mu.Unlock()
	return c.show(snap)
}

// Clear empties the list.
func (c *Controller) Clear() error {
	c.mu.Lock()
	c.files = nil
	snap := c.revalidate()
	c.mu.Unlock()
	return c.show(snap)
}

// Files returns a copy of the current list.
func (c *Controller) Files() []File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]File(nil), c.files...)
}

// Result returns the outcome of the last validation.
func (c *Controller) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// snapshot is the state handed to the View once c.mu is released, so View
// and ListRenderer callbacks may call back into the controller.
type snapshot struct {
	message string
	files   []File
}

func (c *Controller) revalidate() snapshot {
	c.result = Validate(c.files, c.constraints)
	message := c.messenger.Message(c.result, c.constraints)
	if c.result != Valid {
		c.logger.Debug("attachment invalid", zap.Stringer("rule", c.result), zap.String("message", message))
	}
	return snapshot{message: message, files: append([]File(nil), c.files...)}
}

func (c *Controller) show(snap snapshot) error {
	c.view.ShowValidation(snap.message)

	list := List{Entries: Entries(snap.files)}
	if c.renderer != nil {
		html, err := c.renderer.RenderList(list.Entries)
		if err != nil {
			return fmt.Errorf("attachment: render list for %q: %w", c.name, err)
		}
		list.HTML = html
	}
	c.view.ShowList(list)
	c.view.SyncFiles(snap.files)
	return nil
}
