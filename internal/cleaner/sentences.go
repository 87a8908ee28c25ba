package cleaner

import (
	"regexp"
	"strings"
)

// Sentence splitting is a heuristic: split on terminal punctuation
// followed by whitespace and an uppercase letter or digit, guarded
// against the common abbreviations that end with a period mid-sentence.
var (
	sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

	abbreviations = map[string]bool{
		"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
		"sr": true, "jr": true, "st": true, "vs": true, "etc": true,
		"e.g": true, "i.e": true, "fig": true, "no": true, "vol": true,
		"inc": true, "ltd": true, "co": true, "dept": true, "approx": true,
	}
)

// SplitSentences splits text into trimmed sentences. Newlines count as
// soft boundaries only when the line already ends with terminal
// punctuation; otherwise text flows across them, which matters for
// PDF extractions where lines break mid-sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	// Flatten line breaks so wrapped lines rejoin their sentence.
	flat := strings.Join(strings.Fields(text), " ")

	var sentences []string
	start := 0
	matches := sentenceEnd.FindAllStringIndex(flat, -1)
	for _, m := range matches {
		candidate := flat[start:m[1]]
		if endsWithAbbreviation(candidate) {
			continue
		}
		s := strings.TrimSpace(candidate)
		if s != "" {
			sentences = append(sentences, s)
		}
		start = m[1]
	}
	if rest := strings.TrimSpace(flat[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func endsWithAbbreviation(s string) bool {
	s = strings.TrimRight(strings.TrimSpace(s), ".")
	i := strings.LastIndexAny(s, " \t")
	last := strings.ToLower(s[i+1:])
	if abbreviations[last] {
		return true
	}
	// A single capital letter before the period is an initial, as in
	// "J. Smith".
	return len(last) == 1 && last >= "a" && last <= "z"
}
