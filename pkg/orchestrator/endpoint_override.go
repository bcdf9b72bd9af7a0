package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formblocks/pkg/model"
)

// EndpointOverride replaces the submit and action URLs of a form, for
// example to point an OpenAPI derived form at a proxy. FormID "*" matches
// every form.
type EndpointOverride struct {
	FormID    string
	SubmitURL string
	ActionURL string
}

const anyForm = "*"

// WithEndpointOverrides registers overrides applied right after loading.
// Invalid overrides surface as an error from Load.
func WithEndpointOverrides(overrides ...EndpointOverride) Option {
	return func(o *Orchestrator) {
		for _, override := range overrides {
			if err := validateEndpointOverride(override); err != nil {
				o.initialiseErr = errors.Join(o.initialiseErr, err)
				continue
			}
			if o.endpointOverrides == nil {
				o.endpointOverrides = make(map[string]EndpointOverride)
			}
			o.endpointOverrides[strings.TrimSpace(override.FormID)] = override
		}
	}
}

func validateEndpointOverride(override EndpointOverride) error {
	if strings.TrimSpace(override.FormID) == "" {
		return errors.New("orchestrator: endpoint override requires a form id")
	}
	if strings.TrimSpace(override.SubmitURL) == "" && strings.TrimSpace(override.ActionURL) == "" {
		return fmt.Errorf("orchestrator: endpoint override for %q sets no url", override.FormID)
	}
	return nil
}

func (o *Orchestrator) applyEndpointOverride(form *model.FormModel) {
	override, ok := o.endpointOverrides[form.ID]
	if !ok {
		override, ok = o.endpointOverrides[anyForm]
	}
	if !ok {
		return
	}
	if override.SubmitURL != "" {
		form.SubmitURL = override.SubmitURL
	}
	if override.ActionURL != "" {
		form.ActionURL = override.ActionURL
	}
}
