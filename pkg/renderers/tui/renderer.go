package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/model"
	"github.com/goliatone/go-formblocks/pkg/render"
	"github.com/goliatone/go-formblocks/pkg/submission"
)

const skipOption = "(skip)"

// Renderer fills forms on the terminal. Render prompts for every field and
// returns the payload a submission would send; Submit posts it through the
// submission controller.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
	logger       *zap.Logger
	submitOpts   []submission.Option
	attachOpts   []attachment.Option
	maxAttempts  int
}

var _ render.Renderer = (*Renderer)(nil)

// Report describes a finished Submit. Values and Files are captured before
// a successful submission resets the form.
type Report struct {
	Outcome     submission.Outcome
	Values      map[string]string
	Files       map[string][]attachment.File
	Banner      string
	RedirectURL string
	Modal       string
	Attempts    int
}

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		theme:        DefaultTheme,
		logger:       zap.NewNop(),
		maxAttempts:  3,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for every field and serializes the resulting payload
// without sending it.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	s, err := r.fill(ctx, form, opts)
	if err != nil {
		return nil, err
	}
	payload := submission.Serialize(s.Elements(), opts.Hidden, submission.NewID())
	return r.serialize(payload)
}

// Submit prompts for every field and submits the form. Fields still invalid
// at submit time are prompted again, up to the configured attempts.
func (r *Renderer) Submit(ctx context.Context, form model.FormModel, opts render.RenderOptions) (Report, error) {
	s, err := r.fill(ctx, form, opts)
	if err != nil {
		return Report{}, err
	}

	submitOpts := append([]submission.Option{
		submission.WithLogger(r.logger),
		submission.WithHiddenFields(opts.Hidden...),
	}, r.submitOpts...)
	ctrl := submission.NewController(s, submitOpts...)

	var report Report
	for attempt := 1; ; attempt++ {
		report = Report{
			Values:   s.state.Values(),
			Files:    s.files(),
			Attempts: attempt,
		}
		report.Outcome = ctrl.HandleSubmit(ctx, s)
		if report.Outcome != submission.OutcomeInvalid {
			break
		}
		if attempt >= r.maxAttempts {
			return report, ErrTooManyAttempts
		}
		field, ok := form.Field(s.focus)
		if !ok {
			return report, ErrTooManyAttempts
		}
		if err := r.promptField(ctx, s, field); err != nil {
			return report, err
		}
	}

	report.Banner = s.banner
	report.RedirectURL = s.redirect
	report.Modal = s.modal
	return report, nil
}

func (r *Renderer) fill(ctx context.Context, form model.FormModel, opts render.RenderOptions) (*session, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := newSession(ctx, r.driver, r.theme, r.logger, form, NewState(opts.Values, opts.Errors.Fields))
	for _, field := range form.Fields {
		if field.Type != model.FieldTypeFile {
			continue
		}
		if err := r.attach(s, field); err != nil {
			return nil, err
		}
	}

	if form.Title != "" {
		s.info(form.Title)
	}
	for _, msg := range opts.Errors.Form {
		s.errorf("%s", msg)
	}
	for _, field := range form.Fields {
		if err := r.promptField(ctx, s, field); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (r *Renderer) attach(s *session, field model.Field) error {
	constraints, err := attachment.ConstraintsFromField(field)
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	opts := append([]attachment.Option{attachment.WithLogger(r.logger)}, r.attachOpts...)
	ctrl, err := attachment.NewController(field.Name, constraints, &fileView{s: s, field: field}, opts...)
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	s.attachments[field.Name] = ctrl
	return nil
}

func (s *session) files() map[string][]attachment.File {
	out := make(map[string][]attachment.File, len(s.synced))
	for name, files := range s.synced {
		if len(files) > 0 {
			out[name] = append([]attachment.File(nil), files...)
		}
	}
	return out
}

func (r *Renderer) promptField(ctx context.Context, s *session, field model.Field) error {
	for _, msg := range s.state.ErrorsFor(field.Name) {
		s.errorf("%s: %s", displayLabel(field), msg)
	}

	switch field.Type {
	case model.FieldTypeHidden:
		if _, ok := s.state.GetValue(field.Name); !ok {
			s.state.SetValue(field.Name, field.Default)
		}
		return nil
	case model.FieldTypeTextarea:
		return r.promptTextArea(ctx, s, field)
	case model.FieldTypeSelect, model.FieldTypeRadio:
		return r.promptChoice(ctx, s, field)
	case model.FieldTypeCheckbox:
		if len(field.Options) == 0 {
			return r.promptToggle(ctx, s, field)
		}
		return r.promptChoices(ctx, s, field)
	case model.FieldTypeFile:
		return r.promptFiles(ctx, s, field)
	default:
		return r.promptInput(ctx, s, field)
	}
}

func (r *Renderer) promptInput(ctx context.Context, s *session, field model.Field) error {
	for {
		response, err := r.driver.Input(ctx, Question{
			Message: displayLabel(field),
			Help:    displayHelp(field),
			Default: currentValue(s, field),
			Check: func(v string) error {
				return validateValue(field, v)
			},
		})
		if err != nil {
			return err
		}
		response = strings.TrimSpace(response)
		if err := validateValue(field, response); err != nil {
			s.errorf("Invalid %s: %v", field.Name, err)
			continue
		}
		s.state.SetValue(field.Name, response)
		return nil
	}
}

func (r *Renderer) promptTextArea(ctx context.Context, s *session, field model.Field) error {
	for {
		response, err := r.driver.TextArea(ctx, Question{
			Message: displayLabel(field),
			Help:    displayHelp(field),
			Default: currentValue(s, field),
		})
		if err != nil {
			return err
		}
		if err := validateValue(field, response); err != nil {
			s.errorf("Invalid %s: %v", field.Name, err)
			continue
		}
		s.state.SetValue(field.Name, response)
		return nil
	}
}

func (r *Renderer) promptChoice(ctx context.Context, s *session, field model.Field) error {
	options := optionLabels(field.Options)
	if !field.Required {
		options = append(options, skipOption)
	}
	var current []int
	for i, opt := range field.Options {
		if opt.Value == currentValue(s, field) {
			current = []int{i}
		}
	}

	for {
		idx, err := r.driver.Select(ctx, Choice{
			Message:     displayLabel(field),
			Help:        displayHelp(field),
			Options:     options,
			Preselected: current,
		})
		if err != nil {
			return err
		}
		switch {
		case idx >= 0 && idx < len(field.Options):
			s.state.SetValue(field.Name, field.Options[idx].Value)
			return nil
		case idx == len(field.Options) && !field.Required:
			s.state.SetValue(field.Name, "")
			return nil
		}
		s.errorf("Invalid %s selection", field.Name)
	}
}

func (r *Renderer) promptChoices(ctx context.Context, s *session, field model.Field) error {
	options := optionLabels(field.Options)
	var defaults []int
	current := splitList(currentValue(s, field))
	for i, opt := range field.Options {
		for _, v := range current {
			if opt.Value == v {
				defaults = append(defaults, i)
			}
		}
	}

	for {
		indices, err := r.driver.MultiSelect(ctx, Choice{
			Message:     displayLabel(field),
			Help:        displayHelp(field),
			Options:     options,
			Preselected: defaults,
		})
		if err != nil {
			return err
		}
		var selected []string
		for _, idx := range indices {
			if idx >= 0 && idx < len(field.Options) {
				selected = append(selected, field.Options[idx].Value)
			}
		}
		if field.Required && len(selected) == 0 {
			s.errorf("Invalid %s: %v", field.Name, errRequired)
			continue
		}
		s.state.SetList(field.Name, selected)
		return nil
	}
}

func (r *Renderer) promptToggle(ctx context.Context, s *session, field model.Field) error {
	for {
		checked, err := r.driver.Confirm(ctx, Question{
			Message: displayLabel(field),
			Help:    displayHelp(field),
		}, currentValue(s, field) != "")
		if err != nil {
			return err
		}
		if field.Required && !checked {
			s.errorf("Invalid %s: %v", field.Name, errRequired)
			continue
		}
		value := ""
		if checked {
			value = "on"
		}
		s.state.SetValue(field.Name, value)
		return nil
	}
}

// promptFiles collects attachment paths until an empty answer leaves the
// field valid. Violations of the size, type or count limits offer removal of
// an entry.
func (r *Renderer) promptFiles(ctx context.Context, s *session, field model.Field) error {
	ctrl := s.attachments[field.Name]
	label := displayLabel(field)

	for {
		path, err := r.driver.Input(ctx, Question{
			Message: label,
			Help:    "Path to a file, leave empty to finish",
		})
		if err != nil {
			return err
		}
		path = strings.TrimSpace(path)

		if path == "" {
			switch result := ctrl.Result(); {
			case result == attachment.TooFewItems:
				continue
			case result != attachment.Valid:
				if err := r.promptRemove(ctx, ctrl); err != nil {
					return err
				}
				continue
			case field.Required && len(ctrl.Files()) == 0:
				s.errorf("%s: %v", label, errRequired)
				continue
			}
			return nil
		}

		file, err := FileFromPath(path)
		if err != nil {
			s.errorf("%s: %v", label, err)
			continue
		}
		if err := ctrl.Select(file); err != nil {
			return err
		}
		if !ctrl.Constraints().Multiple && ctrl.Result() == attachment.Valid {
			return nil
		}
	}
}

func (r *Renderer) promptRemove(ctx context.Context, ctrl *attachment.Controller) error {
	entries := attachment.Entries(ctrl.Files())
	if len(entries) == 0 {
		return nil
	}
	options := make([]string, len(entries))
	for i, entry := range entries {
		options[i] = fmt.Sprintf("%s (%s)", entry.Name, entry.SizeLabel)
	}
	idx, err := r.driver.Select(ctx, Choice{
		Message: "Remove which file?",
		Options: options,
	})
	if err != nil {
		return err
	}
	if err := ctrl.Remove(idx); err != nil && !errors.Is(err, attachment.ErrIndexOutOfRange) {
		return err
	}
	return nil
}

// FileFromPath describes a local file for an attachment controller, sniffing
// its media type from the content.
func FileFromPath(path string) (attachment.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return attachment.File{}, fmt.Errorf("tui: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return attachment.File{}, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return attachment.File{}, fmt.Errorf("tui: detect type of %s: %w", path, err)
	}
	mediaType, _, _ := strings.Cut(mt.String(), ";")
	return attachment.File{
		Name:      filepath.Base(path),
		Size:      info.Size(),
		MediaType: strings.TrimSpace(mediaType),
		Path:      path,
	}, nil
}

func (r *Renderer) serialize(payload submission.Payload) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		values := url.Values{}
		values.Set(submission.IDField, strconv.FormatFloat(payload.ID, 'f', -1, 64))
		for _, key := range payload.Keys() {
			v, _ := payload.Get(key)
			values.Set(key, v)
		}
		return []byte(values.Encode()), nil
	case OutputFormatPrettyText:
		var b strings.Builder
		for _, key := range payload.Keys() {
			v, _ := payload.Get(key)
			fmt.Fprintf(&b, "%s=%s\n", key, v)
		}
		return []byte(b.String()), nil
	default:
		return json.Marshal(struct {
			Data submission.Payload `json:"data"`
		}{Data: payload})
	}
}

func currentValue(s *session, field model.Field) string {
	if v, ok := s.state.GetValue(field.Name); ok {
		return v
	}
	return field.Default
}

func optionLabels(options []model.Option) []string {
	out := make([]string, len(options))
	for i, opt := range options {
		out[i] = opt.Label
		if out[i] == "" {
			out[i] = opt.Value
		}
	}
	return out
}

func displayLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return model.DefaultLabeler(field.Name)
}

func displayHelp(field model.Field) string {
	return field.Description
}
