package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-formblocks/pkg/render"
)

// ErrMissingURL is returned when a form declares neither a submit nor an
// action endpoint.
var ErrMissingURL = errors.New("submission: form has no submit url")

// SubmitError describes a failed submission. Detail is the raw response body
// and is meant for logs, not for users.
type SubmitError struct {
	Status int
	Detail string
	// Payload holds the server's {"errors": {path: messages}} document when
	// the body carried one.
	Payload map[string][]string
	// Errors is Payload mapped onto the submitted fields.
	Errors render.ErrorMapping
	Err    error
}

func (e *SubmitError) Error() string {
	switch {
	case e.Err != nil && e.Status > 0:
		return fmt.Sprintf("submission: status %d: %v", e.Status, e.Err)
	case e.Err != nil:
		return "submission: " + e.Err.Error()
	default:
		return fmt.Sprintf("submission: status %d", e.Status)
	}
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Response is a successful submission.
type Response struct {
	Status      int
	RedirectURL string
}

// Client posts payloads as {"data": payload}.
type Client struct {
	http *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient}
}

type requestBody struct {
	Data Payload `json:"data"`
}

// Post sends payload to url. Any non-2xx status, transport error or
// unreadable body yields a *SubmitError.
func (c *Client) Post(ctx context.Context, url string, payload Payload) (Response, error) {
	if strings.TrimSpace(url) == "" {
		return Response{}, &SubmitError{Err: ErrMissingURL}
	}
	body, err := json.Marshal(requestBody{Data: payload})
	if err != nil {
		return Response{}, &SubmitError{Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, &SubmitError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return Response{}, &SubmitError{Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, &SubmitError{Status: res.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Response{}, &SubmitError{
			Status:  res.StatusCode,
			Detail:  string(raw),
			Payload: parseErrorPayload(raw),
			Err:     errors.New(http.StatusText(res.StatusCode)),
		}
	}
	return Response{Status: res.StatusCode, RedirectURL: parseRedirect(raw)}, nil
}

// parseRedirect reads redirectUrl from the top level of the body or from a
// nested "body" object. Non JSON bodies carry no redirect.
func parseRedirect(raw []byte) string {
	var doc struct {
		RedirectURL string `json:"redirectUrl"`
		Body        *struct {
			RedirectURL string `json:"redirectUrl"`
		} `json:"body"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	if doc.RedirectURL != "" {
		return doc.RedirectURL
	}
	if doc.Body != nil {
		return doc.Body.RedirectURL
	}
	return ""
}

// parseErrorPayload accepts {"errors": {path: "msg" | ["msg", ...]}}.
func parseErrorPayload(raw []byte) map[string][]string {
	var doc struct {
		Errors map[string]json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil || len(doc.Errors) == 0 {
		return nil
	}
	out := make(map[string][]string, len(doc.Errors))
	for path, value := range doc.Errors {
		var many []string
		if err := json.Unmarshal(value, &many); err == nil {
			out[path] = many
			continue
		}
		var one string
		if err := json.Unmarshal(value, &one); err == nil {
			out[path] = []string{one}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
