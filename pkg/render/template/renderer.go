package template

// TemplateRenderer renders a named template with data. Renderers depend on
// this seam rather than a concrete engine.
type TemplateRenderer interface {
	RenderTemplate(name string, data any) (string, error)
}
