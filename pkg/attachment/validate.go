package attachment

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formblocks/pkg/render"
)

// Translation keys for the default validation messages.
const (
	MessageKeyAccept      = "attachment.accept"
	MessageKeyMaxFileSize = "attachment.max_file_size"
	MessageKeyMaxItems    = "attachment.max_items"
	MessageKeyMinItems    = "attachment.min_items"
)

var defaultMessages = map[Result]struct {
	key      string
	fallback string
}{
	InvalidType:  {MessageKeyAccept, "The specified file type not supported."},
	TooLarge:     {MessageKeyMaxFileSize, "File too large. Reduce size and try again."},
	TooManyItems: {MessageKeyMaxItems, "Specify a number of items equal to or less than $0."},
	TooFewItems:  {MessageKeyMinItems, "Specify a number of items equal to or greater than $0."},
}

// Validate checks files against c: media types, then per-file size, then
// the upper and lower item bounds (multiple fields only).
func Validate(files []File, c Constraints) Result {
	if !AcceptCheck(c.Accept, files) {
		return InvalidType
	}
	for _, file := range files {
		if file.Size > c.MaxFileSize {
			return TooLarge
		}
	}
	if c.Multiple && c.MaxItems != -1 && len(files) > c.MaxItems {
		return TooManyItems
	}
	if c.Multiple && c.MinItems != 1 && len(files) < c.MinItems {
		return TooFewItems
	}
	return Valid
}

// Messenger resolves the text shown for a failed rule.
type Messenger struct {
	Translator render.Translator
	Locale     string
	OnMissing  render.MissingTranslationHandler
}

// Message returns the override configured on c for result, else the
// translated default. Every "$0" is replaced with the rule's limit in both,
// so wrapper overrides such as "No more than $0 files" read like the
// defaults. Valid yields an empty message.
func (m Messenger) Message(result Result, c Constraints) string {
	if result == Valid {
		return ""
	}
	text := render.SanitizeMessage(c.Messages.lookup(result))
	if strings.TrimSpace(text) == "" {
		def, ok := defaultMessages[result]
		if !ok {
			return ""
		}
		text = render.Translate(m.Locale, def.key, def.fallback, m.Translator, m.OnMissing)
	}
	return strings.ReplaceAll(text, "$0", limitFor(result, c))
}

// Message resolves a message with the untranslated defaults.
func Message(result Result, c Constraints) string {
	return Messenger{}.Message(result, c)
}

func limitFor(result Result, c Constraints) string {
	switch result {
	case TooLarge:
		return formatLimit(float64(c.MaxFileSize) / MiB)
	case TooManyItems:
		return strconv.Itoa(c.MaxItems)
	case TooFewItems:
		return strconv.Itoa(c.MinItems)
	default:
		return ""
	}
}
