package attachment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formblocks/pkg/model"
)

// DefaultMaxFileSize is applied when a field does not declare a limit.
const DefaultMaxFileSize = 2 * MiB

// Wrapper attributes carrying per-rule message overrides.
const (
	WrapperAccept      = "data-accept"
	WrapperMaxFileSize = "data-max-file-size"
	WrapperMaxItems    = "data-max-items"
	WrapperMinItems    = "data-min-items"
)

var (
	ErrInvalidItemBounds = errors.New("attachment: min items exceeds max items")
	ErrInvalidFileSize   = errors.New("attachment: max file size must be positive")
)

// Messages holds per-rule override texts. Empty entries fall back to the
// translated defaults.
type Messages struct {
	Accept      string `json:"accept,omitempty" yaml:"accept,omitempty"`
	MaxFileSize string `json:"maxFileSize,omitempty" yaml:"maxFileSize,omitempty"`
	MaxItems    string `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	MinItems    string `json:"minItems,omitempty" yaml:"minItems,omitempty"`
}

func (m Messages) lookup(result Result) string {
	switch result {
	case InvalidType:
		return m.Accept
	case TooLarge:
		return m.MaxFileSize
	case TooManyItems:
		return m.MaxItems
	case TooFewItems:
		return m.MinItems
	default:
		return ""
	}
}

// Constraints is the typed rule set a file list is validated against.
// MaxItems of -1 means unbounded.
type Constraints struct {
	Accept      []string `json:"accept,omitempty"`
	MaxFileSize int64    `json:"maxFileSize"`
	MinItems    int      `json:"minItems"`
	MaxItems    int      `json:"maxItems"`
	Multiple    bool     `json:"multiple"`
	Messages    Messages `json:"messages"`
}

// ConstraintOption mutates constraints before they are checked.
type ConstraintOption func(*Constraints)

// DefaultConstraints returns a single-file field with a 2 MiB limit and no
// type restriction.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxFileSize: DefaultMaxFileSize,
		MinItems:    1,
		MaxItems:    -1,
	}
}

// NewConstraints applies opts over the defaults and checks the result.
func NewConstraints(opts ...ConstraintOption) (Constraints, error) {
	c := DefaultConstraints()
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c, c.Check()
}

// Check reports constraint sets that can never validate.
func (c Constraints) Check() error {
	if c.MaxFileSize <= 0 {
		return ErrInvalidFileSize
	}
	if c.MaxItems != -1 && c.MinItems > c.MaxItems {
		return fmt.Errorf("%w: %d > %d", ErrInvalidItemBounds, c.MinItems, c.MaxItems)
	}
	return nil
}

func WithAccept(patterns ...string) ConstraintOption {
	return func(c *Constraints) {
		c.Accept = ParseAccept(strings.Join(patterns, ","))
	}
}

func WithMaxFileSize(size int64) ConstraintOption {
	return func(c *Constraints) {
		c.MaxFileSize = size
	}
}

func WithItemBounds(minItems, maxItems int) ConstraintOption {
	return func(c *Constraints) {
		c.MinItems = minItems
		c.MaxItems = maxItems
	}
}

func WithMultiple(multiple bool) ConstraintOption {
	return func(c *Constraints) {
		c.Multiple = multiple
	}
}

func WithMessages(messages Messages) ConstraintOption {
	return func(c *Constraints) {
		c.Messages = messages
	}
}

// ConstraintsFromAttributes reads the rule set from the file input's
// attributes and the per-rule messages from its wrapper. A bare number in
// data-max-file-size is a megabyte count; values with a unit go through
// ParseSize. Item counts of zero fall back to their defaults.
func ConstraintsFromAttributes(input, wrapper map[string]string) (Constraints, error) {
	c := DefaultConstraints()
	c.Accept = ParseAccept(input[model.AttrAccept])
	c.Multiple = model.Field{Attributes: input}.Multiple()

	sizeRaw := strings.TrimSpace(input[model.AttrMaxFileSize])
	if sizeRaw == "" {
		sizeRaw = "2"
	}
	if _, err := strconv.ParseFloat(sizeRaw, 64); err == nil {
		sizeRaw += "MB"
	}
	size, err := ParseSize(sizeRaw)
	if err != nil {
		return Constraints{}, err
	}
	c.MaxFileSize = size

	if c.MinItems, err = itemCount(input[model.AttrMinItems], 1); err != nil {
		return Constraints{}, err
	}
	if c.MaxItems, err = itemCount(input[model.AttrMaxItems], -1); err != nil {
		return Constraints{}, err
	}

	c.Messages = Messages{
		Accept:      wrapper[WrapperAccept],
		MaxFileSize: wrapper[WrapperMaxFileSize],
		MaxItems:    wrapper[WrapperMaxItems],
		MinItems:    wrapper[WrapperMinItems],
	}
	return c, c.Check()
}

// ConstraintsFromField is ConstraintsFromAttributes over a model field.
func ConstraintsFromField(field model.Field) (Constraints, error) {
	c, err := ConstraintsFromAttributes(field.Attributes, field.Wrapper)
	if err != nil {
		return Constraints{}, fmt.Errorf("attachment: field %q: %w", field.Name, err)
	}
	return c, nil
}

func itemCount(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("attachment: malformed item count %q: %w", raw, err)
	}
	if value == 0 {
		return fallback, nil
	}
	return value, nil
}
