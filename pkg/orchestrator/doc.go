// Package orchestrator wires the definition loader, transformers, decorators,
// field subsets and renderers into a single Generate call so commands and
// servers can go from a form definition to rendered output in one step.
package orchestrator
