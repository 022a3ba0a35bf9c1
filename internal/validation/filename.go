package validation

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFilenameLength caps sanitized filenames, in bytes.
const MaxFilenameLength = 255

// SanitizeFilename reduces an uploaded name to a single safe path element.
// Directory parts, traversal sequences, separators, NUL and other control
// characters are removed. The result is capped at MaxFilenameLength bytes
// keeping the extension, and falls back to "image" plus the extension when
// nothing usable remains.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)

	name = strings.Map(func(r rune) rune {
		if r == '/' || r == 0 || unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, name)
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", "")
	}
	name = strings.TrimSpace(strings.TrimLeft(name, "."))

	ext := strings.ToLower(path.Ext(name))
	stem := strings.TrimSuffix(name, path.Ext(name))
	if stem == "" {
		return "image" + ext
	}

	if len(name) > MaxFilenameLength {
		limit := MaxFilenameLength - len(ext)
		if limit < 1 {
			return "image"
		}
		stem = truncateBytes(stem, limit)
		name = stem + path.Ext(name)
	}
	return name
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
