package submission

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/goliatone/go-formblocks/pkg/render"
)

// IDField is the payload key carrying the per-submission unique id.
const IDField = "__id__"

// Element types with special serialisation rules.
const (
	TypeRadio    = "radio"
	TypeCheckbox = "checkbox"
	TypeFile     = "file"
)

// Element is one form control in document order.
type Element struct {
	Name    string
	Type    string
	Value   string
	Checked bool
}

// IDFunc produces the unique id attached to each payload.
type IDFunc func() float64

// NewID returns the current time in Unix milliseconds plus a random
// fraction.
func NewID() float64 {
	return float64(time.Now().UnixMilli()) + rand.Float64()
}

type entry struct {
	name  string
	value string
}

// Payload is an ordered set of field values plus the submission id.
type Payload struct {
	ID      float64
	entries []entry
	index   map[string]int
}

// Set stores value under name, keeping the position of the first write.
func (p *Payload) Set(name, value string) {
	if p.index == nil {
		p.index = make(map[string]int)
	}
	if pos, ok := p.index[name]; ok {
		p.entries[pos].value = value
		return
	}
	p.index[name] = len(p.entries)
	p.entries = append(p.entries, entry{name: name, value: value})
}

// Append joins value onto an existing entry with a comma.
func (p *Payload) Append(name, value string) {
	if current, ok := p.Get(name); ok && current != "" {
		p.Set(name, current+","+value)
		return
	}
	p.Set(name, value)
}

func (p Payload) Get(name string) (string, bool) {
	pos, ok := p.index[name]
	if !ok {
		return "", false
	}
	return p.entries[pos].value, true
}

// Keys returns field names in insertion order.
func (p Payload) Keys() []string {
	keys := make([]string, len(p.entries))
	for i, e := range p.entries {
		keys[i] = e.name
	}
	return keys
}

func (p Payload) Len() int { return len(p.entries) }

// Values returns the field values as a map, without the id.
func (p Payload) Values() map[string]string {
	out := make(map[string]string, len(p.entries))
	for _, e := range p.entries {
		out[e.name] = e.value
	}
	return out
}

// MarshalJSON writes the id first, then the fields in insertion order. A
// field named like the id overrides it, as it would in a plain object.
func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if _, shadowed := p.index[IDField]; !shadowed {
		id, err := json.Marshal(p.ID)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`"` + IDField + `":`)
		buf.Write(id)
		if len(p.entries) > 0 {
			buf.WriteByte(',')
		}
	}
	for i, e := range p.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Serialize walks elements in order: checked radios contribute their value,
// checked checkboxes accumulate comma joined values, file inputs and
// unnamed controls are skipped and everything else contributes its value.
// Hidden fields are written first so visible controls can override them.
func Serialize(elements []Element, hidden []render.HiddenField, id float64) Payload {
	p := Payload{ID: id}
	for _, field := range render.MergeHiddenFields(hidden...) {
		p.Set(field.Name, field.Value)
	}
	for _, el := range elements {
		if el.Name == "" {
			continue
		}
		switch strings.ToLower(el.Type) {
		case TypeRadio:
			if el.Checked {
				p.Set(el.Name, el.Value)
			}
		case TypeCheckbox:
			if el.Checked {
				p.Append(el.Name, el.Value)
			}
		case TypeFile:
		default:
			p.Set(el.Name, el.Value)
		}
	}
	return p
}
