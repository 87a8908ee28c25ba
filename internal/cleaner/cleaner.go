// Package cleaner normalizes extracted text into the form the
// summarizers consume: page markers stripped, whitespace collapsed,
// optionally stopwords and special characters removed, and too-short
// sentence fragments dropped.
package cleaner

import (
	"regexp"
	"strings"

	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

var (
	pageMarker     = regexp.MustCompile(`\n?-{3}\s*Page\s+\d+\s*-{3}\n?`)
	multiSpace     = regexp.MustCompile(`[ \t]+`)
	multiNewline   = regexp.MustCompile(`\n{2,}`)
	specialChars   = regexp.MustCompile(`[^\w\s.,!?;:]`)
	collapseSpaces = regexp.MustCompile(`\s+`)
)

// Clean is pure and never fails; empty input yields an empty result.
func Clean(raw string, opts types.CleanOptions) *types.CleanedText {
	out := &types.CleanedText{
		OriginalLength: len(raw),
		Options:        opts,
		Sentences:      []string{},
	}
	if strings.TrimSpace(raw) == "" {
		return out
	}

	text := pageMarker.ReplaceAllString(raw, "\n")

	if opts.RemoveSpecialChars {
		text = specialChars.ReplaceAllString(text, " ")
	}
	if opts.NormalizeWhitespace {
		text = multiSpace.ReplaceAllString(text, " ")
		text = multiNewline.ReplaceAllString(text, "\n")
		text = strings.TrimSpace(text)
	}
	if opts.RemoveStopwords {
		text = stripStopwords(text)
	}

	sentences := SplitSentences(text)
	if opts.MinSentenceLength > 0 {
		kept := sentences[:0]
		for _, s := range sentences {
			if len(s) >= opts.MinSentenceLength {
				kept = append(kept, s)
			}
		}
		sentences = kept
	}

	out.Text = strings.TrimSpace(text)
	out.Sentences = sentences
	out.WordCount = types.CountWords(out.Text)
	out.SentenceCount = len(sentences)
	return out
}

// stripStopwords removes stopword tokens while preserving sentence
// punctuation attached to kept words.
func stripStopwords(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		bare := strings.ToLower(strings.Trim(w, ".,!?;:"))
		if IsStopword(bare) {
			// Keep terminal punctuation so sentence boundaries survive.
			if trail := trailingPunct(w); trail != "" && len(kept) > 0 {
				kept[len(kept)-1] += trail
			}
			continue
		}
		kept = append(kept, w)
	}
	return collapseSpaces.ReplaceAllString(strings.Join(kept, " "), " ")
}

func trailingPunct(w string) string {
	trimmed := strings.TrimRight(w, ".,!?;:")
	return w[len(trimmed):]
}
