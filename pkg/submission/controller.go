package submission

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formblocks/pkg/model"
	"github.com/goliatone/go-formblocks/pkg/render"
)

// State is the submission state of a controller.
type State int

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	if s == Submitting {
		return "submitting"
	}
	return "idle"
}

// Outcome reports which branch HandleSubmit took.
type Outcome int

const (
	OutcomeInvalid Outcome = iota
	OutcomeBusy
	OutcomeSucceeded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeBusy:
		return "busy"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrBusy is returned by Submit while another submission is in flight.
var ErrBusy = errors.New("submission: already submitting")

// Controller submits one form at a time.
type Controller struct {
	mu    sync.Mutex
	state State
	gen   uint64

	nav          Navigator
	client       *Client
	hidden       []render.HiddenField
	translator   render.Translator
	locale       string
	successModal string
	idFunc       IDFunc
	logger       *zap.Logger
}

func NewController(nav Navigator, opts ...Option) *Controller {
	c := &Controller{
		nav:          nav,
		client:       NewClient(nil),
		successModal: DefaultSuccessModal,
		idFunc:       NewID,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// State returns the current submission state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HandleSubmit is the entry point for a submit request. Invalid forms get
// their first invalid control focused. Valid forms have their submit control
// disabled and are submitted unless a submission is already in flight.
func (c *Controller) HandleSubmit(ctx context.Context, form Form) Outcome {
	if !form.CheckValidity() {
		form.FocusFirstInvalid()
		return OutcomeInvalid
	}
	form.SetSubmitDisabled(true)

	gen, ok := c.begin()
	if !ok {
		c.logger.Debug("submit ignored while in flight")
		return OutcomeBusy
	}
	form.ClearMessages()

	if err := c.submit(ctx, form, gen); err != nil {
		return OutcomeFailed
	}
	return OutcomeSucceeded
}

// Submit posts the form without the validity check of HandleSubmit and
// applies the outcome to form and navigator. It returns ErrBusy, leaving the
// form untouched, while another submission is in flight.
func (c *Controller) Submit(ctx context.Context, form Form) error {
	gen, ok := c.begin()
	if !ok {
		return ErrBusy
	}
	return c.submit(ctx, form, gen)
}

func (c *Controller) submit(ctx context.Context, form Form, gen uint64) error {
	defer c.finish(form, gen)

	elements := form.Elements()
	payload := Serialize(elements, c.hidden, c.idFunc())
	url := Endpoint(form)

	res, err := c.client.Post(ctx, url, payload)
	if err != nil {
		c.failure(form, gen, elements, err)
		return err
	}
	c.success(form, gen, res)
	return nil
}

func (c *Controller) success(form Form, gen uint64, res Response) {
	form.Reset()
	c.finish(form, gen)
	c.logger.Info("form submitted", zap.Int("status", res.Status), zap.String("redirect", res.RedirectURL))

	if c.nav == nil {
		return
	}
	if res.RedirectURL != "" {
		c.nav.Navigate(EncodeURI(res.RedirectURL))
		return
	}
	c.nav.OpenModal(c.successModal)
}

func (c *Controller) failure(form Form, gen uint64, elements []Element, err error) {
	var submitErr *SubmitError
	fields := []zap.Field{zap.Error(err)}
	if errors.As(err, &submitErr) {
		if len(submitErr.Payload) > 0 {
			submitErr.Errors = render.MapErrorPayload(formModel(form, elements), submitErr.Payload)
			fields = append(fields, zap.Any("field_errors", submitErr.Errors.Fields), zap.Strings("form_errors", submitErr.Errors.Form))
		}
		fields = append(fields, zap.Int("status", submitErr.Status), zap.String("detail", submitErr.Detail))
	}
	c.logger.Warn("form submission failed", fields...)

	message := render.Translate(c.locale, MessageKeyError, DefaultErrorMessage, c.translator, nil)
	form.ShowError(render.SanitizeMessage(message))
	c.finish(form, gen)
}

func (c *Controller) begin() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Submitting {
		return 0, false
	}
	c.state = Submitting
	c.gen++
	return c.gen, true
}

// finish returns the controller to Idle and re-enables the submit control.
// It runs from the outcome handlers and again on completion; only the
// submission that owns gen may reset the state.
func (c *Controller) finish(form Form, gen uint64) {
	c.mu.Lock()
	if c.gen == gen {
		c.state = Idle
	}
	c.mu.Unlock()
	form.SetSubmitDisabled(false)
}

func formModel(form Form, elements []Element) model.FormModel {
	fm := model.FormModel{SubmitURL: form.SubmitURL(), ActionURL: form.ActionURL()}
	seen := make(map[string]struct{}, len(elements))
	for _, el := range elements {
		if el.Name == "" {
			continue
		}
		if _, ok := seen[el.Name]; ok {
			continue
		}
		seen[el.Name] = struct{}{}
		fm.Fields = append(fm.Fields, model.Field{Name: el.Name, Type: model.FieldType(el.Type)})
	}
	return fm
}
