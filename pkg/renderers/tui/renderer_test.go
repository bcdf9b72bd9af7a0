package tui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/model"
	"github.com/goliatone/go-formblocks/pkg/render"
	"github.com/goliatone/go-formblocks/pkg/submission"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
}

func (s *stubDriver) Input(_ context.Context, _ Question) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ Question, _ bool) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ Choice) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ Choice) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ Question) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func (s *stubDriver) sawMessage(substr string) bool {
	for _, msg := range s.infoMessages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func feedbackForm(submitURL string) model.FormModel {
	return model.FormModel{
		ID:        "feedback",
		Title:     "Feedback",
		SubmitURL: submitURL,
		Fields: []model.Field{
			{Name: "source", Type: model.FieldTypeHidden, Default: "cli"},
			{Name: "email", Type: model.FieldTypeEmail, Required: true},
			{Name: "colors", Type: model.FieldTypeCheckbox, Options: []model.Option{
				{Value: "red"}, {Value: "green"}, {Value: "blue"},
			}},
			{Name: "plan", Type: model.FieldTypeRadio, Options: []model.Option{
				{Value: "free"}, {Value: "pro"},
			}},
			{Name: "message", Type: model.FieldTypeTextarea},
			{Name: "agree", Type: model.FieldTypeCheckbox, Required: true},
		},
	}
}

func decodeData(t *testing.T, raw []byte) map[string]string {
	t.Helper()
	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode payload: %v (%s)", err, raw)
	}
	if _, ok := body.Data[submission.IDField]; !ok {
		t.Fatalf("expected %s in payload: %s", submission.IDField, raw)
	}
	out := make(map[string]string, len(body.Data))
	for k, v := range body.Data {
		if k == submission.IDField {
			continue
		}
		s, _ := v.(string)
		out[k] = s
	}
	return out
}

func TestRenderer_RenderSerializesPayload(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"not-an-email", "ada@example.com"},
		multiIdx:  [][]int{{0, 2}},
		selectIdx: []int{1},
		textAreas: []string{"hello"},
		confirm:   []bool{true},
	}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := r.Render(context.Background(), feedbackForm("/submit"), render.RenderOptions{
		Hidden: []render.HiddenField{{Name: "_csrf", Value: "token"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := map[string]string{
		"_csrf":   "token",
		"source":  "cli",
		"email":   "ada@example.com",
		"colors":  "red,blue",
		"plan":    "pro",
		"message": "hello",
		"agree":   "on",
	}
	if diff := cmp.Diff(want, decodeData(t, out)); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if !driver.sawMessage("Invalid email") {
		t.Fatalf("expected invalid email message, got %v", driver.infoMessages)
	}
}

func TestRenderer_RenderPrefillAndOptionalSkip(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"ada@example.com"},
		multiIdx:  [][]int{nil},
		selectIdx: []int{2},
		textAreas: []string{""},
		confirm:   []bool{true},
	}
	r, err := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatPrettyText))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := r.Render(context.Background(), feedbackForm("/submit"), render.RenderOptions{
		Values: map[string]string{"source": "web"},
		Errors: render.ErrorMapping{Fields: map[string][]string{"email": {"already registered"}}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := "source=web\nemail=ada@example.com\nmessage=\nagree=on\n"
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if !driver.sawMessage("already registered") {
		t.Fatalf("expected server error to be shown, got %v", driver.infoMessages)
	}
	if r.ContentType() != "text/plain" {
		t.Fatalf("unexpected content type %q", r.ContentType())
	}
}

func TestRenderer_SubmitSuccessRedirects(t *testing.T) {
	received := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		received <- body
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"redirectUrl":"/thanks page"}`)
	}))
	defer server.Close()

	driver := &stubDriver{
		inputs:    []string{"ada@example.com"},
		multiIdx:  [][]int{{1}},
		selectIdx: []int{0},
		textAreas: []string{""},
		confirm:   []bool{true},
	}
	r, err := New(WithPromptDriver(driver), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	report, err := r.Submit(context.Background(), feedbackForm(server.URL), render.RenderOptions{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if report.Outcome != submission.OutcomeSucceeded {
		t.Fatalf("expected success, got %s", report.Outcome)
	}
	if report.RedirectURL != "/thanks%20page" {
		t.Fatalf("unexpected redirect %q", report.RedirectURL)
	}
	if report.Values["colors"] != "green" {
		t.Fatalf("expected values captured before reset, got %v", report.Values)
	}
	if got := decodeData(t, <-received)["email"]; got != "ada@example.com" {
		t.Fatalf("unexpected posted email %q", got)
	}
}

func TestRenderer_SubmitFailureShowsBanner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	driver := &stubDriver{
		inputs:    []string{"ada@example.com"},
		multiIdx:  [][]int{nil},
		selectIdx: []int{2},
		textAreas: []string{""},
		confirm:   []bool{true},
	}
	r, err := New(WithPromptDriver(driver), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	report, err := r.Submit(context.Background(), feedbackForm(server.URL), render.RenderOptions{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if report.Outcome != submission.OutcomeFailed {
		t.Fatalf("expected failure, got %s", report.Outcome)
	}
	if report.Banner != submission.DefaultErrorMessage {
		t.Fatalf("unexpected banner %q", report.Banner)
	}
	if report.RedirectURL != "" || report.Modal != "" {
		t.Fatalf("expected no navigation, got %+v", report)
	}
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestRenderer_FileFieldRemovesOverflow(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.png", pngHeader)
	second := writeFile(t, dir, "second.png", pngHeader)
	notes := writeFile(t, dir, "notes.txt", []byte("plain text"))

	received := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		received <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	form := model.FormModel{
		SubmitURL: server.URL,
		Fields: []model.Field{
			{Name: "title", Type: model.FieldTypeText},
			{
				Name:       "images",
				Type:       model.FieldTypeFile,
				Required:   true,
				Attributes: map[string]string{"multiple": "", "accept": "image/*", "data-max-items": "1"},
			},
		},
	}

	driver := &stubDriver{
		// title, a text file, two images, finish, finish after removal
		inputs:    []string{"Holiday", notes, "", first, second, "", ""},
		selectIdx: []int{0, 0},
	}
	r, err := New(WithPromptDriver(driver), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	report, err := r.Submit(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if report.Outcome != submission.OutcomeSucceeded {
		t.Fatalf("expected success, got %s", report.Outcome)
	}
	files := report.Files["images"]
	if len(files) != 1 || files[0].Name != "second.png" || files[0].MediaType != "image/png" {
		t.Fatalf("unexpected attachments %+v", files)
	}
	if report.Modal != submission.DefaultSuccessModal {
		t.Fatalf("expected success modal, got %q", report.Modal)
	}
	if !driver.sawMessage("The specified file type not supported.") {
		t.Fatalf("expected type violation message, got %v", driver.infoMessages)
	}
	if !driver.sawMessage("equal to or less than 1") {
		t.Fatalf("expected max items message, got %v", driver.infoMessages)
	}
	if _, ok := decodeData(t, <-received)["images"]; ok {
		t.Fatalf("file inputs must not be serialized")
	}
}

func TestSession_ValidityTracksAttachments(t *testing.T) {
	driver := &stubDriver{inputs: []string{""}}
	form := model.FormModel{
		SubmitURL: "http://127.0.0.1:0/never",
		Fields: []model.Field{
			{Name: "doc", Type: model.FieldTypeFile, Attributes: map[string]string{"data-max-file-size": "1"}},
		},
	}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	s, err := r.fill(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !s.CheckValidity() {
		t.Fatalf("empty optional file field should be valid")
	}

	ctrl := s.attachments["doc"]
	if err := ctrl.Select(attachment.File{Name: "big.bin", Size: 2 * attachment.MiB}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if s.CheckValidity() {
		t.Fatalf("oversized file should make the form invalid")
	}
	s.FocusFirstInvalid()
	if s.focus != "doc" {
		t.Fatalf("expected focus on doc, got %q", s.focus)
	}
}

func TestFileFromPathRejectsDirectories(t *testing.T) {
	_, err := FileFromPath(t.TempDir())
	if !errors.Is(err, ErrNotAFile) {
		t.Fatalf("expected ErrNotAFile, got %v", err)
	}
}

func TestStateResetRestoresPrefill(t *testing.T) {
	state := NewState(map[string]string{"name": "Ada"}, map[string][]string{"name": {"taken"}})
	state.SetValue("name", "Grace")
	state.SetList("colors", []string{"red", "blue"})

	if got := state.ErrorsFor("name"); got != nil {
		t.Fatalf("expected errors cleared on edit, got %v", got)
	}
	if diff := cmp.Diff([]string{"red", "blue"}, state.List("colors")); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	state.Reset()
	if diff := cmp.Diff(map[string]string{"name": "Ada"}, state.Values()); diff != "" {
		t.Fatalf("reset mismatch (-want +got):\n%s", diff)
	}
}
