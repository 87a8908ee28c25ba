// Package translate renders summaries into other languages through a
// chain of providers with automatic fallback: the public Google
// endpoint, a LibreTranslate instance, and the local model runtime.
package translate

import (
	"fmt"
	"strings"
)

// languageCodes maps accepted language names and aliases to ISO 639-1
// codes. Codes pass through unchanged.
var languageCodes = map[string]string{
	"hindi":    "hi",
	"marathi":  "mr",
	"english":  "en",
	"tamil":    "ta",
	"telugu":   "te",
	"bengali":  "bn",
	"gujarati": "gu",
	"kannada":  "kn",
	"punjabi":  "pa",
	"spanish":  "es",
	"french":   "fr",
	"german":   "de",
}

// ResolveLanguage normalizes a language name or code to its ISO code.
func ResolveLanguage(lang string) (string, error) {
	l := strings.ToLower(strings.TrimSpace(lang))
	if l == "" {
		return "", fmt.Errorf("empty target language")
	}
	if code, ok := languageCodes[l]; ok {
		return code, nil
	}
	if len(l) == 2 {
		return l, nil
	}
	return "", fmt.Errorf("unsupported language %q", lang)
}
