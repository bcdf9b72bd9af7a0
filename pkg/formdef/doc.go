// Package formdef loads form definitions into model.FormModel values, either
// from YAML/JSON documents or from the request body of an OpenAPI operation.
package formdef
