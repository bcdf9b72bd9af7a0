package uploads

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMountPath_JoinsBasePath(t *testing.T) {
	tests := []struct {
		base  string
		route string
		want  string
	}{
		{"/admin", "", "/admin/api/uploads"},
		{"admin", "", "/admin/api/uploads"},
		{"/admin/", "api/files", "/admin/api/files"},
		{"/", "/upload/", "/upload"},
		{"", "", "/api/uploads"},
	}
	for _, tt := range tests {
		if got := MountPath(tt.base, WithRoutePath(tt.route)); got != tt.want {
			t.Fatalf("MountPath(%q, %q) = %q, want %q", tt.base, tt.route, got, tt.want)
		}
	}
}

func TestRegisterRoutes_RegistersHandler(t *testing.T) {
	mux := http.NewServeMux()
	c := New(WithStore(&memoryStore{}))
	pattern, err := c.RegisterRoutes(mux, "/forms")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/forms/api/uploads" {
		t.Fatalf("unexpected registered pattern: %q", pattern)
	}

	rec := httptest.NewRecorder()
	req := uploadRequest(t, "files", part{name: "a.txt", data: []byte("a")})
	req.URL.Path = pattern
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
}

func TestRegisterRoutes_MissingMux(t *testing.T) {
	if _, err := RegisterRoutes(nil, "/"); !errors.Is(err, ErrMissingMux) {
		t.Fatalf("expected ErrMissingMux, got %v", err)
	}
}
