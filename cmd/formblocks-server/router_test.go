package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/goliatone/go-formblocks/internal/config"
	"github.com/goliatone/go-formblocks/pkg/attachment/store"
)

const contactForm = `id: contact
title: Contact us
submit: /api/forms/contact
fields:
  - name: full_name
    required: true
  - name: attachments
    type: file
`

func testServer(t *testing.T) (*httptest.Server, config.Config) {
	t.Helper()
	formsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(formsDir, "contact.yaml"), []byte(contactForm), 0o600); err != nil {
		t.Fatalf("write form: %v", err)
	}

	cfg, err := config.Load(config.LoadOptions{Overrides: map[string]any{
		"store.dir":           t.TempDir(),
		"server.forms_dir":    formsDir,
		"server.cors_origins": []string{"https://forms.example.com"},
	}})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	st, err := openStore(cfg.Store)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	handler, err := newRouter(cfg, zap.NewNop(), st)
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, cfg
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res.StatusCode, string(body)
}

func TestRouter_Health(t *testing.T) {
	srv, _ := testServer(t)
	code, body := get(t, srv.URL+"/health")
	if code != http.StatusOK || body != "OK" {
		t.Fatalf("unexpected health response %d %q", code, body)
	}
}

func TestRouter_UploadAndServe(t *testing.T) {
	srv, _ := testServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	w, err := mw.CreateFormFile("files", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := w.Write([]byte("hello formblocks")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	res, err := http.Post(srv.URL+"/api/uploads", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(res.Body)
		t.Fatalf("expected 201, got %d: %s", res.StatusCode, raw)
	}

	var decoded struct {
		Data []struct {
			Key       string `json:"key"`
			Name      string `json:"name"`
			MediaType string `json:"mediaType"`
			URL       string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Data) != 1 {
		t.Fatalf("expected one upload, got %+v", decoded.Data)
	}
	upload := decoded.Data[0]
	if upload.Name != "notes.txt" || !strings.HasPrefix(upload.MediaType, "text/plain") {
		t.Fatalf("unexpected upload %+v", upload)
	}
	if !strings.HasPrefix(upload.URL, "/uploads/") {
		t.Fatalf("expected local url, got %q", upload.URL)
	}

	stored, err := http.Get(srv.URL + upload.URL)
	if err != nil {
		t.Fatalf("get stored file: %v", err)
	}
	defer stored.Body.Close()
	content, _ := io.ReadAll(stored.Body)
	if stored.StatusCode != http.StatusOK || string(content) != "hello formblocks" {
		t.Fatalf("unexpected stored file %d %q", stored.StatusCode, content)
	}
	if got := stored.Header.Get("Content-Disposition"); got != "attachment" {
		t.Fatalf("expected stored file served as attachment, got %q", got)
	}
}

func TestRouter_StoredFilesAreDownloads(t *testing.T) {
	srv, cfg := testServer(t)
	page := "<html><script>alert(document.cookie)</script></html>"
	if err := os.WriteFile(filepath.Join(cfg.Store.Dir, "page.html"), []byte(page), 0o600); err != nil {
		t.Fatalf("write stored file: %v", err)
	}

	res, err := http.Get(srv.URL + cfg.Store.BaseURL + "/page.html")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if got := res.Header.Get("Content-Disposition"); got != "attachment" {
		t.Fatalf("expected attachment disposition, got %q", got)
	}
	if got := res.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff, got %q", got)
	}
	if got := res.Header.Get("Content-Security-Policy"); !strings.HasPrefix(got, "sandbox") {
		t.Fatalf("expected sandbox policy, got %q", got)
	}
}

func TestRouter_Assets(t *testing.T) {
	srv, _ := testServer(t)
	code, body := get(t, srv.URL+"/assets/formblocks/formblocks.css")
	if code != http.StatusOK || !strings.Contains(body, ".formblocks-form") {
		t.Fatalf("unexpected stylesheet response %d", code)
	}
}

func TestRouter_Forms(t *testing.T) {
	srv, _ := testServer(t)

	code, body := get(t, srv.URL+"/forms/contact?fields=full_name")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	for _, want := range []string{
		`href="/assets/formblocks/formblocks.css"`,
		`id="contact"`,
		`name="full_name"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in:\n%s", want, body)
		}
	}
	if strings.Contains(body, `name="attachments"`) {
		t.Fatalf("expected field subset to drop attachments:\n%s", body)
	}

	if code, _ := get(t, srv.URL+"/forms/missing"); code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing form, got %d", code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv, _ := testServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/uploads", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "https://forms.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	res.Body.Close()

	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "https://forms.example.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestOpenStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	st, err := openStore(config.Store{Driver: config.StoreLocal, Dir: dir, BaseURL: "/files"})
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	local, ok := st.(*store.LocalStore)
	if !ok || local.Dir != dir {
		t.Fatalf("expected local store at %s, got %#v", dir, st)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected directory to be created: %v", err)
	}
}
