// Package model defines the typed form description shared by the attachment
// and submission controllers, the form definition loaders and the renderers.
// Field attributes keep the declarative names used by HTML form blocks
// (accept, multiple, data-max-items, data-min-items, data-max-file-size) so a
// definition can be rendered to markup and read back without translation.
// Wrapper attributes carry per-field message overrides.
package model
