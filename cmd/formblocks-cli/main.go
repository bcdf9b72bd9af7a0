package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formblocks/internal/config"
	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/logging"
	"github.com/goliatone/go-formblocks/pkg/orchestrator"
	"github.com/goliatone/go-formblocks/pkg/render"
	"github.com/goliatone/go-formblocks/pkg/renderers/tui"
	"github.com/goliatone/go-formblocks/pkg/renderers/vanilla"
	"github.com/goliatone/go-formblocks/pkg/submission"
)

const (
	modeRender = "render"
	modeSubmit = "submit"
)

var errUsage = errors.New("usage")

// cli carries the process streams and the prompt driver so tests can run the
// command without a terminal.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	driver tui.PromptDriver
}

type options struct {
	configFile string
	envFile    string
	source     string
	operation  string
	renderer   string
	fields     string
	types      string
	output     string
	mode       string
	format     string
	locale     string
	preset     string
	submitURL  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := cli{stdout: os.Stdout, stderr: os.Stderr}
	if err := app.run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "formblocks-cli: %v\n", err)
		}
		os.Exit(1)
	}
}

func (c cli) parse(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("formblocks-cli", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.StringVar(&opts.configFile, "config", "", "config file (yaml, json or toml)")
	fs.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading FORMBLOCKS_* variables")
	fs.StringVar(&opts.source, "source", "", "form definition (YAML/JSON) or OpenAPI document when -operation is set")
	fs.StringVar(&opts.operation, "operation", "", "OpenAPI operation ID to build the form from")
	fs.StringVar(&opts.renderer, "renderer", "vanilla", "renderer used by -mode render (vanilla or tui)")
	fs.StringVar(&opts.fields, "fields", "", "comma separated field names to keep")
	fs.StringVar(&opts.types, "types", "", "comma separated field types to keep")
	fs.StringVar(&opts.output, "output", "", "output file (stdout if empty)")
	fs.StringVar(&opts.mode, "mode", modeRender, "render prints the form, submit fills it in and posts it")
	fs.StringVar(&opts.format, "format", string(tui.OutputFormatJSON), "tui payload format: json, form or pretty")
	fs.StringVar(&opts.locale, "locale", "", "locale for labels and messages (overrides submit.locale)")
	fs.StringVar(&opts.preset, "preset", "", "YAML preset patching titles, labels and defaults")
	fs.StringVar(&opts.submitURL, "submit-url", "", "override the endpoint the form posts to")
	if err := fs.Parse(args); err != nil {
		return options{}, errUsage
	}

	if strings.TrimSpace(opts.source) == "" {
		fmt.Fprintln(c.stderr, "-source is required")
		fs.Usage()
		return options{}, errUsage
	}
	switch opts.mode {
	case modeRender, modeSubmit:
	default:
		return options{}, fmt.Errorf("unknown mode %q", opts.mode)
	}
	switch tui.OutputFormat(opts.format) {
	case tui.OutputFormatJSON, tui.OutputFormatFormURLEncoded, tui.OutputFormatPrettyText:
	default:
		return options{}, fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, nil
}

func (c cli) run(ctx context.Context, args []string) error {
	opts, err := c.parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.LoadOptions{EnvFile: opts.envFile, ConfigFile: opts.configFile})
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Logging())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	locale := opts.locale
	if locale == "" {
		locale = cfg.Submit.Locale
	}

	term, err := tui.New(
		tui.WithPromptDriver(c.driver),
		tui.WithOutputFormat(tui.OutputFormat(opts.format)),
		tui.WithHTTPClient(&http.Client{Timeout: cfg.Submit.Timeout}),
		tui.WithLogger(logger.Named("tui")),
		tui.WithSubmissionOptions(submission.WithSuccessModal(cfg.Submit.SuccessModal)),
		tui.WithAttachmentOptions(attachment.WithLogger(logger.Named("attachment"))),
	)
	if err != nil {
		return err
	}
	gen, err := newOrchestrator(opts, logger, term)
	if err != nil {
		return err
	}

	req := orchestrator.Request{
		Path:          opts.source,
		OperationID:   opts.operation,
		Renderer:      opts.renderer,
		Subset:        render.ParseFieldSubset(opts.fields, opts.types),
		RenderOptions: render.RenderOptions{Locale: locale},
	}

	var out []byte
	switch opts.mode {
	case modeSubmit:
		form, err := gen.Load(ctx, req)
		if err != nil {
			return err
		}
		report, err := term.Submit(ctx, form, req.RenderOptions)
		if err != nil {
			return err
		}
		logger.Info("form submitted",
			zap.String("form", form.ID),
			zap.Stringer("outcome", report.Outcome),
			zap.Int("attempts", report.Attempts),
		)
		out, err = json.MarshalIndent(newReportView(report), "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if report.Outcome == submission.OutcomeFailed {
			if werr := c.write(opts.output, out); werr != nil {
				return werr
			}
			return errors.New("submission failed")
		}
	default:
		out, err = gen.Generate(ctx, req)
		if err != nil {
			return err
		}
	}
	return c.write(opts.output, out)
}

func newOrchestrator(opts options, logger *zap.Logger, term *tui.Renderer) (*orchestrator.Orchestrator, error) {
	html, err := vanilla.New()
	if err != nil {
		return nil, err
	}
	registry := render.NewRegistry()
	registry.MustRegister(html)
	registry.MustRegister(term)

	orchOpts := []orchestrator.Option{
		orchestrator.WithRegistry(registry),
		orchestrator.WithLogger(logger.Named("orchestrator")),
	}
	if opts.preset != "" {
		raw, err := os.ReadFile(opts.preset)
		if err != nil {
			return nil, fmt.Errorf("read preset: %w", err)
		}
		preset, err := orchestrator.NewPresetTransformer(raw)
		if err != nil {
			return nil, err
		}
		orchOpts = append(orchOpts, orchestrator.WithSchemaTransformer(preset))
	}
	if opts.submitURL != "" {
		orchOpts = append(orchOpts, orchestrator.WithEndpointOverrides(orchestrator.EndpointOverride{
			FormID:    "*",
			SubmitURL: opts.submitURL,
		}))
	}
	return orchestrator.New(orchOpts...), nil
}

func (c cli) write(path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(c.stdout, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(c.stderr, "Form written to %s\n", path)
	return nil
}

type reportView struct {
	Outcome     string                       `json:"outcome"`
	Values      map[string]string            `json:"values,omitempty"`
	Files       map[string][]attachment.File `json:"files,omitempty"`
	Banner      string                       `json:"banner,omitempty"`
	RedirectURL string                       `json:"redirectUrl,omitempty"`
	Modal       string                       `json:"modal,omitempty"`
	Attempts    int                          `json:"attempts"`
}

func newReportView(r tui.Report) reportView {
	return reportView{
		Outcome:     r.Outcome.String(),
		Values:      r.Values,
		Files:       r.Files,
		Banner:      r.Banner,
		RedirectURL: r.RedirectURL,
		Modal:       r.Modal,
		Attempts:    r.Attempts,
	}
}
