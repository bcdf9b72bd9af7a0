// Package store persists uploaded attachments.
package store

import (
	"context"
	"errors"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyKey is returned when an object reaches a store without a key.
var ErrEmptyKey = errors.New("store: empty object key")

// Object is a file on its way into a Store.
type Object struct {
	Key       string
	Name      string
	MediaType string
	Size      int64
	Body      io.Reader
}

// Stored describes a persisted object.
type Stored struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Store persists objects.
type Store interface {
	Put(ctx context.Context, obj Object) (Stored, error)
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName reduces a client supplied filename to a safe key segment.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	name = unsafeKeyChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

// NewKey returns a unique key for name: a random UUID followed by the
// sanitised filename.
func NewKey(prefix, name string) string {
	key := uuid.NewString() + "-" + SanitizeName(name)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

func joinURL(base, key string) string {
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + key
}
