package attachment

import "strings"

// ParseAccept splits an accept attribute ("image/*, .pdf") into trimmed
// patterns, dropping empty entries.
func ParseAccept(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// MatchMediaType reports whether mediaType satisfies any accept pattern.
// Patterns may be exact ("application/pdf"), a top-level wildcard
// ("image/*") or an extension (".pdf"). Extensions match the end of the
// media subtype only, so ".jpg" does not accept "image/jpeg". Files without
// a media type are accepted since browsers leave the type empty for unknown
// extensions.
func MatchMediaType(mediaType string, accepts []string) bool {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "" {
		return true
	}
	category, subtype, _ := strings.Cut(mediaType, "/")

	for _, accept := range accepts {
		pattern := strings.ToLower(strings.TrimSpace(accept))
		switch {
		case pattern == "":
			continue
		case pattern == mediaType:
			return true
		case strings.Contains(pattern, "*"):
			prefix, _, _ := strings.Cut(pattern, "/")
			if prefix == "*" || prefix == category {
				return true
			}
		case strings.HasPrefix(pattern, "."):
			ext := strings.TrimPrefix(pattern, ".")
			if ext != "" && strings.HasSuffix(subtype, ext) {
				return true
			}
		}
	}
	return false
}

// AcceptCheck reports whether every file satisfies the accept patterns. An
// empty pattern list accepts everything.
func AcceptCheck(accepts []string, files []File) bool {
	if len(accepts) == 0 {
		return true
	}
	for _, file := range files {
		if !MatchMediaType(file.MediaType, accepts) {
			return false
		}
	}
	return true
}
