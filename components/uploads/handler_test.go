package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/attachment/store"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (m *memoryStore) Put(_ context.Context, obj store.Object) (store.Stored, error) {
	if m.err != nil {
		return store.Stored{}, m.err
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return store.Stored{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[obj.Key] = data
	return store.Stored{Key: obj.Key, URL: "/files/" + obj.Key}, nil
}

type part struct {
	name string
	data []byte
}

func uploadRequest(t *testing.T, field string, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		w, err := mw.CreateFormFile(field, p.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := w.Write(p.data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func multipleConstraints(t *testing.T, opts ...attachment.ConstraintOption) attachment.Constraints {
	t.Helper()
	c, err := attachment.NewConstraints(append([]attachment.ConstraintOption{attachment.WithMultiple(true)}, opts...)...)
	if err != nil {
		t.Fatalf("NewConstraints: %v", err)
	}
	return c
}

func TestHandler_StoresValidUploads(t *testing.T) {
	mem := &memoryStore{}
	h := NewHandler(
		WithStore(mem),
		WithKeyPrefix("forms"),
		WithConstraints(multipleConstraints(t, attachment.WithAccept("image/*", ".txt"))),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "files",
		part{name: "pixel.png", data: pngHeader},
		part{name: "notes.txt", data: []byte("hello world")},
	))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload uploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := []Upload{
		{Name: "pixel.png", Size: int64(len(pngHeader)), MediaType: "image/png"},
		{Name: "notes.txt", Size: 11, MediaType: "text/plain"},
	}
	if diff := cmp.Diff(want, payload.Data, cmpopts.IgnoreFields(Upload{}, "Key", "URL")); diff != "" {
		t.Fatalf("uploads mismatch (-want +got):\n%s", diff)
	}
	for _, upload := range payload.Data {
		if !strings.HasPrefix(upload.Key, "forms/") || upload.URL != "/files/"+upload.Key {
			t.Fatalf("unexpected key/url %q %q", upload.Key, upload.URL)
		}
		if _, ok := mem.objects[upload.Key]; !ok {
			t.Fatalf("expected %s to be stored", upload.Key)
		}
	}
}

func TestHandler_RejectsInvalidType(t *testing.T) {
	mem := &memoryStore{}
	h := NewHandler(
		WithStore(mem),
		WithConstraints(multipleConstraints(t, attachment.WithAccept("image/*"))),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "files", part{name: "fake.png", data: []byte("not an image")}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{"error": "The specified file type not supported.", "rule": "accept"}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
	if len(mem.objects) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestHandler_RejectsTooManyItems(t *testing.T) {
	h := NewHandler(
		WithStore(&memoryStore{}),
		WithConstraints(multipleConstraints(t, attachment.WithItemBounds(1, 1))),
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "files",
		part{name: "a.txt", data: []byte("a")},
		part{name: "b.txt", data: []byte("b")},
	))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "equal to or less than 1") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_SingleFieldRejectsSeveralFiles(t *testing.T) {
	h := NewHandler(WithStore(&memoryStore{}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "files",
		part{name: "a.txt", data: []byte("a")},
		part{name: "b.txt", data: []byte("b")},
	))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandler_RequestErrors(t *testing.T) {
	h := NewHandler(WithStore(&memoryStore{}), WithFieldName("docs"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/uploads", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "files", part{name: "a.txt", data: []byte("a")}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing field, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/uploads", strings.NewReader("{}")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non multipart body, got %d", rec.Code)
	}
}

func TestHandler_StoreFailure(t *testing.T) {
	h := NewHandler(WithStore(&memoryStore{err: errors.New("disk full")}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "files", part{name: "a.txt", data: []byte("a")}))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk full") {
		t.Fatalf("store error leaked to client: %s", rec.Body.String())
	}
}

func TestHandler_MissingStore(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler().ServeHTTP(rec, uploadRequest(t, "files", part{name: "a.txt", data: []byte("a")}))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHandler_GuardStatus(t *testing.T) {
	h := NewHandler(
		WithStore(&memoryStore{}),
		WithGuard(func(*http.Request) error {
			return StatusError{Code: http.StatusUnauthorized}
		}),
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "files", part{name: "a.txt", data: []byte("a")}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
