package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Question is a prompt answered with text or a yes/no toggle.
type Question struct {
	Message string
	Help    string
	// Default prefills text answers.
	Default string
	// Check rejects a text answer before the prompt returns it.
	Check func(string) error
}

// Choice is a prompt answered by picking entries from Options.
type Choice struct {
	Message string
	Help    string
	Options []string
	// Preselected holds indices into Options. Select uses only the first.
	Preselected []int
}

// PromptDriver is the terminal a form session talks to. Tests script it
// without a TTY.
type PromptDriver interface {
	Input(ctx context.Context, q Question) (string, error)
	TextArea(ctx context.Context, q Question) (string, error)
	Confirm(ctx context.Context, q Question, checked bool) (bool, error)
	// Select returns the index of the picked option.
	Select(ctx context.Context, c Choice) (int, error)
	// MultiSelect returns the picked indices in option order.
	MultiSelect(ctx context.Context, c Choice) ([]int, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out  io.Writer
	opts []survey.AskOpt
}

// NewSurveyDriver returns the survey backed driver. Info lines go to out,
// stdout when nil. Ctrl-C surfaces as ErrAborted.
func NewSurveyDriver(out io.Writer, opts ...survey.AskOpt) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out, opts: opts}
}

func (d *surveyDriver) Input(ctx context.Context, q Question) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Input{Message: q.Message, Help: q.Help, Default: q.Default}, &answer, q.Check)
	return answer, err
}

func (d *surveyDriver) TextArea(ctx context.Context, q Question) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Multiline{Message: q.Message, Help: q.Help, Default: q.Default}, &answer, q.Check)
	return answer, err
}

func (d *surveyDriver) Confirm(ctx context.Context, q Question, checked bool) (bool, error) {
	var answer bool
	err := d.ask(ctx, &survey.Confirm{Message: q.Message, Help: q.Help, Default: checked}, &answer, nil)
	return answer, err
}

func (d *surveyDriver) Select(ctx context.Context, c Choice) (int, error) {
	prompt := &survey.Select{Message: c.Message, Help: c.Help, Options: c.Options}
	if picked := c.preselected(); len(picked) > 0 {
		prompt.Default = picked[0]
	}
	answer := -1
	if err := d.ask(ctx, prompt, &answer, nil); err != nil {
		return -1, err
	}
	return answer, nil
}

func (d *surveyDriver) MultiSelect(ctx context.Context, c Choice) ([]int, error) {
	prompt := &survey.MultiSelect{Message: c.Message, Help: c.Help, Options: c.Options}
	if picked := c.preselected(); len(picked) > 0 {
		prompt.Default = picked
	}
	var answer []int
	if err := d.ask(ctx, prompt, &answer, nil); err != nil {
		return nil, err
	}
	return answer, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// ask runs one survey prompt. survey reads the terminal synchronously, so
// ctx is only checked before the prompt opens.
func (d *surveyDriver) ask(ctx context.Context, prompt survey.Prompt, answer any, check func(string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := d.opts
	if check != nil {
		opts = append(append([]survey.AskOpt(nil), d.opts...), survey.WithValidator(func(ans any) error {
			text, ok := ans.(string)
			if !ok {
				return fmt.Errorf("tui: unexpected answer type %T", ans)
			}
			return check(text)
		}))
	}
	err := survey.AskOne(prompt, answer, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

// preselected returns the option labels at the in-range Preselected indices.
func (c Choice) preselected() []string {
	var labels []string
	for _, idx := range c.Preselected {
		if idx >= 0 && idx < len(c.Options) {
			labels = append(labels, c.Options[idx])
		}
	}
	return labels
}
