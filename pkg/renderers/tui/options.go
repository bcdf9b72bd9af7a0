package tui

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/render"
	"github.com/goliatone/go-formblocks/pkg/submission"
)

// OutputFormat controls how Render serializes the collected payload.
type OutputFormat string

const (
	// OutputFormatJSON emits the {"data": payload} request body.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures optional prefixes the session applies when printing
// messages.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// DefaultTheme is applied when no theme is configured.
var DefaultTheme = Theme{InfoPrefix: "", ErrorPrefix: "! "}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithHTTPClient sets the client submissions are posted with.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Renderer) {
		r.submitOpts = append(r.submitOpts, submission.WithHTTPClient(client))
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTranslator localises validation messages and the failure banner.
func WithTranslator(t render.Translator, locale string) Option {
	return func(r *Renderer) {
		r.attachOpts = append(r.attachOpts, attachment.WithTranslator(t, locale))
		r.submitOpts = append(r.submitOpts, submission.WithTranslator(t, locale))
	}
}

// WithSubmissionOptions forwards options to every submission controller.
func WithSubmissionOptions(opts ...submission.Option) Option {
	return func(r *Renderer) {
		r.submitOpts = append(r.submitOpts, opts...)
	}
}

// WithAttachmentOptions forwards options to every attachment controller.
func WithAttachmentOptions(opts ...attachment.Option) Option {
	return func(r *Renderer) {
		r.attachOpts = append(r.attachOpts, opts...)
	}
}

// WithMaxAttempts bounds how often Submit re-prompts an invalid form.
func WithMaxAttempts(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}
