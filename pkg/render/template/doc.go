// Package template defines the seam renderers use to execute markup
// templates. The gotemplate subpackage provides the default pongo2 engine.
package template
