package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingTranslator is passed to MissingTranslationHandler when no
// Translator was configured.
var ErrMissingTranslator = errors.New("render: translator is not configured")

// Translator resolves a message key for a locale. Implementations return an
// error (or an empty string) when the key is unknown so callers can fall back.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

func (fn TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return fn(locale, key, args...)
}

// MissingTranslationHandler decides what to show when a key cannot be
// translated. args carries the caller supplied arguments; the first entry is a
// map with the "default" fallback text when one exists.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// Catalog is an in-memory Translator keyed by locale then message key. The
// empty locale acts as the catch-all.
type Catalog map[string]map[string]string

func (c Catalog) Translate(locale, key string, _ ...any) (string, error) {
	if messages, ok := c[locale]; ok {
		if msg, ok := messages[key]; ok {
			return msg, nil
		}
	}
	if base, _, found := strings.Cut(locale, "-"); found {
		if messages, ok := c[base]; ok {
			if msg, ok := messages[key]; ok {
				return msg, nil
			}
		}
	}
	if messages, ok := c[""]; ok {
		if msg, ok := messages[key]; ok {
			return msg, nil
		}
	}
	return "", fmt.Errorf("render: no translation for %q (%s)", key, locale)
}

// Translate resolves key through t, falling back to fallback and finally the
// key itself. onMissing, when set, owns the fallback decision.
func Translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}

	var err error
	if t == nil {
		err = ErrMissingTranslator
	} else {
		var result string
		result, err = t.Translate(locale, key)
		if err == nil && strings.TrimSpace(result) != "" {
			return result
		}
	}

	if onMissing != nil {
		return onMissing(locale, key, []any{map[string]any{"default": fallback}}, err)
	}
	return missingTranslationDefault(locale, key, []any{map[string]any{"default": fallback}}, err)
}

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	for _, arg := range args {
		params, ok := arg.(map[string]any)
		if !ok {
			continue
		}
		if fallback, ok := params["default"].(string); ok && strings.TrimSpace(fallback) != "" {
			return fallback
		}
	}
	return key
}
