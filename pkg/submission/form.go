package submission

// Form is the host's view of a form element.
type Form interface {
	// CheckValidity runs the host's native constraint validation.
	CheckValidity() bool
	// FocusFirstInvalid focuses and scrolls to the first invalid control.
	FocusFirstInvalid()
	// Elements returns the form's controls in document order.
	Elements() []Element
	SubmitURL() string
	ActionURL() string
	SetSubmitDisabled(disabled bool)
	// ClearMessages hides previously shown status messages.
	ClearMessages()
	// ShowError shows message in a single banner above the form, reusing an
	// existing banner, and scrolls it into view.
	ShowError(message string)
	// Reset restores the controls to their initial values.
	Reset()
}

// Navigator performs page level effects after a successful submission.
type Navigator interface {
	Navigate(url string)
	OpenModal(path string)
}

// Endpoint returns the submit url, falling back to the action url.
func Endpoint(f Form) string {
	if url := f.SubmitURL(); url != "" {
		return url
	}
	return f.ActionURL()
}
