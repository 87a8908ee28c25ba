package ocr

import (
	"regexp"
	"strings"
)

// PostProcess applies light-touch cleaning to raw OCR output:
//   - Strips zero-width / invisible unicode characters
//   - Normalises line endings and collapses excessive blank lines
//   - Drops one-character tokens that are almost always recognition
//     noise (keeping the real single-letter English words)
var (
	zeroWidthChars    = regexp.MustCompile("[\u200B-\u200D\uFEFF\u00AD\u2060]")
	excessiveNewlines = regexp.MustCompile(`\n{4,}`)
	trailingSpaces    = regexp.MustCompile(`(?m)[ \t]+$`)
)

func PostProcess(text string) string {
	if text == "" {
		return ""
	}

	text = zeroWidthChars.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = trailingSpaces.ReplaceAllString(text, "")
	text = excessiveNewlines.ReplaceAllString(text, "\n\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = dropNoiseTokens(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func dropNoiseTokens(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return strings.TrimSpace(line)
	}
	kept := fields[:0]
	for _, w := range fields {
		if len([]rune(w)) > 1 || isRealSingleToken(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func isRealSingleToken(w string) bool {
	switch strings.ToLower(w) {
	case "a", "i", "o":
		return true
	}
	// Keep single digits and punctuation; dropping them mangles lists
	// and numbering.
	r := []rune(w)[0]
	return r >= '0' && r <= '9' || strings.ContainsRune(".,!?;:()-", r)
}
