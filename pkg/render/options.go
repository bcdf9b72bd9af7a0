package render

// RenderOptions carry per-request data that does not belong on the form
// definition.
type RenderOptions struct {
	// Locale selects translations for labels and messages.
	Locale string
	// Values prefill controls by field name. Checkbox groups take a comma
	// joined list, as the submission payload does.
	Values map[string]string
	// Errors are server side messages keyed by field name; use
	// MapErrorPayload to build them from a raw error document.
	Errors ErrorMapping
	// Hidden fields are emitted before the visible controls.
	Hidden []HiddenField
}
