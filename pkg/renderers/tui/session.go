package tui

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/model"
	"github.com/goliatone/go-formblocks/pkg/submission"
)

// session hosts one form while it is filled in and submitted. It is the
// submission.Form and submission.Navigator the controllers act on, and owns
// one attachment controller per file field.
type session struct {
	ctx    context.Context
	driver PromptDriver
	theme  Theme
	logger *zap.Logger

	form        model.FormModel
	state       *State
	attachments map[string]*attachment.Controller
	synced      map[string][]attachment.File

	focus          string
	submitDisabled bool
	banner         string
	redirect       string
	modal          string
}

var (
	_ submission.Form      = (*session)(nil)
	_ submission.Navigator = (*session)(nil)
)

func newSession(ctx context.Context, driver PromptDriver, theme Theme, logger *zap.Logger, form model.FormModel, state *State) *session {
	return &session{
		ctx:         ctx,
		driver:      driver,
		theme:       theme,
		logger:      logger,
		form:        form,
		state:       state,
		attachments: make(map[string]*attachment.Controller),
		synced:      make(map[string][]attachment.File),
	}
}

func (s *session) info(msg string) {
	_ = s.driver.Info(s.ctx, s.theme.InfoPrefix+msg)
}

func (s *session) errorf(format string, args ...any) {
	_ = s.driver.Info(s.ctx, s.theme.ErrorPrefix+fmt.Sprintf(format, args...))
}

func (s *session) CheckValidity() bool {
	_, ok := s.firstInvalid()
	return !ok
}

func (s *session) FocusFirstInvalid() {
	field, ok := s.firstInvalid()
	if !ok {
		return
	}
	s.focus = field.Name
	s.errorf("Please review %s", displayLabel(field))
}

func (s *session) firstInvalid() (model.Field, bool) {
	for _, field := range s.form.Fields {
		if !s.fieldValid(field) {
			return field, true
		}
	}
	return model.Field{}, false
}

func (s *session) fieldValid(field model.Field) bool {
	if field.Type == model.FieldTypeFile {
		ctrl, ok := s.attachments[field.Name]
		if !ok {
			return !field.Required
		}
		if ctrl.Result() != attachment.Valid {
			return false
		}
		return !field.Required || len(s.synced[field.Name]) > 0
	}
	value, _ := s.state.GetValue(field.Name)
	return validateValue(field, value) == nil
}

// Elements lists the controls in field order the way a browser form would
// expose them: one element per choice for radios and checkboxes.
func (s *session) Elements() []submission.Element {
	var out []submission.Element
	for _, field := range s.form.Fields {
		value, _ := s.state.GetValue(field.Name)
		switch field.Type {
		case model.FieldTypeCheckbox:
			if len(field.Options) == 0 {
				out = append(out, submission.Element{Name: field.Name, Type: submission.TypeCheckbox, Value: "on", Checked: value != ""})
				continue
			}
			selected := make(map[string]bool)
			for _, v := range splitList(value) {
				selected[v] = true
			}
			for _, opt := range field.Options {
				out = append(out, submission.Element{Name: field.Name, Type: submission.TypeCheckbox, Value: opt.Value, Checked: selected[opt.Value]})
			}
		case model.FieldTypeRadio:
			for _, opt := range field.Options {
				out = append(out, submission.Element{Name: field.Name, Type: submission.TypeRadio, Value: opt.Value, Checked: opt.Value == value})
			}
		case model.FieldTypeFile:
			out = append(out, submission.Element{Name: field.Name, Type: submission.TypeFile})
		default:
			out = append(out, submission.Element{Name: field.Name, Type: string(field.Type), Value: value})
		}
	}
	return out
}

func (s *session) SubmitURL() string { return s.form.SubmitURL }

func (s *session) ActionURL() string { return s.form.ActionURL }

func (s *session) SetSubmitDisabled(disabled bool) {
	s.submitDisabled = disabled
}

func (s *session) ClearMessages() {
	s.banner = ""
}

func (s *session) ShowError(message string) {
	s.banner = message
	s.errorf("%s", message)
}

func (s *session) Reset() {
	s.state.Reset()
	for name, ctrl := range s.attachments {
		if err := ctrl.Clear(); err != nil {
			s.logger.Warn("clear attachments", zap.String("field", name), zap.Error(err))
		}
	}
}

func (s *session) Navigate(url string) {
	s.redirect = url
	s.info("Redirecting to " + url)
}

func (s *session) OpenModal(path string) {
	s.modal = path
	s.info("Form submitted (" + path + ")")
}

// fileView reports one attachment field on the terminal.
type fileView struct {
	s     *session
	field model.Field
}

func (v *fileView) ShowValidation(message string) {
	if message == "" {
		return
	}
	v.s.errorf("%s: %s", displayLabel(v.field), message)
}

func (v *fileView) ShowList(list attachment.List) {
	for _, entry := range list.Entries {
		v.s.info(fmt.Sprintf("  [%d] %s (%s)", entry.Index, entry.Name, entry.SizeLabel))
	}
}

func (v *fileView) SyncFiles(files []attachment.File) {
	v.s.synced[v.field.Name] = files
}

func validateValue(field model.Field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		if field.Required {
			return errRequired
		}
		return nil
	}
	switch field.Type {
	case model.FieldTypeEmail:
		if _, err := mail.ParseAddress(value); err != nil {
			return fmt.Errorf("invalid email address")
		}
	case model.FieldTypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("not a number")
		}
	case model.FieldTypeSelect, model.FieldTypeRadio:
		if len(field.Options) > 0 && !hasOption(field.Options, value) {
			return fmt.Errorf("unknown option %q", value)
		}
	}
	return nil
}

func hasOption(options []model.Option, value string) bool {
	for _, opt := range options {
		if opt.Value == value {
			return true
		}
	}
	return false
}
