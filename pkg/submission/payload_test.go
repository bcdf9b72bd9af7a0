package submission_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formblocks/pkg/render"
	"github.com/goliatone/go-formblocks/pkg/submission"
)

func TestSerialize_Rules(t *testing.T) {
	elements := []submission.Element{
		{Name: "name", Type: "text", Value: "Ada"},
		{Name: "colors", Type: "checkbox", Value: "red", Checked: true},
		{Name: "colors", Type: "checkbox", Value: "green"},
		{Name: "colors", Type: "checkbox", Value: "blue", Checked: true},
		{Name: "size", Type: "radio", Value: "s"},
		{Name: "size", Type: "radio", Value: "m", Checked: true},
		{Name: "cv", Type: "file", Value: "C:\\fakepath\\cv.pdf"},
		{Type: "submit", Value: "Send"},
		{Name: "notes", Type: "textarea", Value: ""},
	}

	p := submission.Serialize(elements, nil, 1)

	want := map[string]string{
		"name":   "Ada",
		"colors": "red,blue",
		"size":   "m",
		"notes":  "",
	}
	if diff := cmp.Diff(want, p.Values()); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"name", "colors", "size", "notes"}, p.Keys()); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}
}

func TestSerialize_UncheckedGroupsAreOmitted(t *testing.T) {
	p := submission.Serialize([]submission.Element{
		{Name: "agree", Type: "checkbox", Value: "yes"},
		{Name: "plan", Type: "radio", Value: "pro"},
	}, nil, 1)
	if p.Len() != 0 {
		t.Fatalf("expected empty payload, got %v", p.Values())
	}
}

func TestSerialize_HiddenFieldsFirst(t *testing.T) {
	p := submission.Serialize(
		[]submission.Element{{Name: "version", Type: "hidden", Value: "3"}},
		[]render.HiddenField{render.CSRFToken("_csrf", "tok"), render.VersionField("version", 2)},
		1,
	)
	if diff := cmp.Diff([]string{"_csrf", "version"}, p.Keys()); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}
	if v, _ := p.Get("version"); v != "3" {
		t.Fatalf("expected element to override hidden field, got %q", v)
	}
}

func TestPayload_MarshalJSON(t *testing.T) {
	p := submission.Serialize([]submission.Element{
		{Name: "b", Value: "2"},
		{Name: "a", Value: "1"},
	}, nil, 1760870000123.5)

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(data), `{"__id__":1760870000123.5,"b":"2","a":"1"}`; got != want {
		t.Fatalf("unexpected json\n got: %s\nwant: %s", got, want)
	}

	empty, _ := json.Marshal(submission.Payload{ID: 2})
	if string(empty) != `{"__id__":2}` {
		t.Fatalf("unexpected empty payload json %s", empty)
	}
}

func TestNewID_IsUniqueAndTimeBased(t *testing.T) {
	a, b := submission.NewID(), submission.NewID()
	if a == b {
		t.Fatalf("expected distinct ids")
	}
	if a < 1e12 {
		t.Fatalf("expected unix milliseconds, got %f", a)
	}
}

func TestEncodeURI(t *testing.T) {
	tests := map[string]string{
		"/thanks":                   "/thanks",
		"/thank you?x=1&y=ü#top":    "/thank%20you?x=1&y=%C3%BC#top",
		"https://example.com/a,b;c": "https://example.com/a,b;c",
		"/50%":                      "/50%25",
	}
	for in, want := range tests {
		if got := submission.EncodeURI(in); got != want {
			t.Fatalf("EncodeURI(%q) = %q, want %q", in, got, want)
		}
	}
}
