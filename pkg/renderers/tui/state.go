package tui

import (
	"sort"
	"strings"
)

// State tracks the collected value of every field and the server-provided
// errors keyed by field name. Reset restores the initial values.
type State struct {
	initial map[string]string
	values  map[string]string
	errors  map[string][]string
}

// NewState seeds the state with prefilled values and errors.
func NewState(prefill map[string]string, errs map[string][]string) *State {
	return &State{
		initial: cloneValues(prefill),
		values:  cloneValues(prefill),
		errors:  cloneErrors(errs),
	}
}

// Values returns a copy of the collected values.
func (s *State) Values() map[string]string {
	if s == nil {
		return nil
	}
	return cloneValues(s.values)
}

// ErrorsFor returns the errors attached to a field.
func (s *State) ErrorsFor(name string) []string {
	if s == nil || len(s.errors) == 0 {
		return nil
	}
	return s.errors[name]
}

// GetValue returns the value of a field and whether one was collected.
func (s *State) GetValue(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[name]
	return v, ok
}

// List returns a comma separated value split into its trimmed parts.
func (s *State) List(name string) []string {
	v, _ := s.GetValue(name)
	return splitList(v)
}

// SetValue stores the value of a field. Any server error for it is dropped.
func (s *State) SetValue(name, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[name] = value
	delete(s.errors, name)
}

// SetList stores values comma joined.
func (s *State) SetList(name string, values []string) {
	s.SetValue(name, strings.Join(values, ","))
}

// Reset drops collected values and errors, restoring the prefill.
func (s *State) Reset() {
	s.values = cloneValues(s.initial)
	s.errors = make(map[string][]string)
}

// Names returns the names of fields with a value, sorted.
func (s *State) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func cloneValues(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func cloneErrors(src map[string][]string) map[string][]string {
	out := make(map[string][]string, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}
