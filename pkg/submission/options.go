package submission

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-formblocks/pkg/render"
)

// DefaultSuccessModal is opened after a successful submission without a
// redirect.
const DefaultSuccessModal = "/drafts/collins/success-message"

// Banner message translation key and fallback text.
const (
	MessageKeyError     = "submission.error"
	DefaultErrorMessage = "Some error occurred while submitting the form"
)

// Option configures a Controller.
type Option func(*Controller)

// WithHTTPClient overrides the client used to post payloads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) {
		if client != nil {
			c.client = NewClient(client)
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHiddenFields adds fields (CSRF tokens, versions) to every payload.
func WithHiddenFields(fields ...render.HiddenField) Option {
	return func(c *Controller) {
		c.hidden = render.MergeHiddenFields(append(c.hidden, fields...)...)
	}
}

// WithTranslator localises the failure banner.
func WithTranslator(t render.Translator, locale string) Option {
	return func(c *Controller) {
		c.translator = t
		c.locale = locale
	}
}

// WithSuccessModal sets the modal opened when the response has no redirect.
func WithSuccessModal(path string) Option {
	return func(c *Controller) {
		if path != "" {
			c.successModal = path
		}
	}
}

// WithIDFunc overrides the payload id generator.
func WithIDFunc(fn IDFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.idFunc = fn
		}
	}
}
