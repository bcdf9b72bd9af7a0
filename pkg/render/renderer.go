package render

import (
	"context"

	"github.com/goliatone/go-formblocks/pkg/model"
)

// Renderer turns a form definition into an output document (HTML markup,
// an interactive terminal session transcript, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.FormModel, options RenderOptions) ([]byte, error)
}
