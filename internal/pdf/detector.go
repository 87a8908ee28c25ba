package pdf

import (
	"context"
	"strings"
	"unicode"

	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// DetectorThresholds tune the text-density bands (characters of usable
// embedded text per page) that separate scanned, mixed, and searchable.
type DetectorThresholds struct {
	ScannedBelow int // below this the page is scanned
	MixedBelow   int // below this (and above ScannedBelow) the page is ambiguous
}

func DefaultThresholds() DetectorThresholds {
	return DetectorThresholds{ScannedBelow: 50, MixedBelow: 200}
}

// PageDensity summarizes the usable embedded text of one page.
type PageDensity struct {
	Page      int
	CharCount int
	WordCount int
	Scanned   bool
}

// ScorePage decides whether a page's embedded text layer is usable or
// the page must be treated as scanned. Beyond raw length it discounts
// garbage glyphs and scrambled single-character runs, which broken text
// layers commonly produce.
func ScorePage(text string, th DetectorThresholds) PageDensity {
	clean := strings.TrimSpace(text)
	usable := 0
	garbage := 0
	for _, r := range clean {
		switch {
		case r == '�' || (unicode.IsControl(r) && r != '\n' && r != '\t'):
			garbage++
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsPunct(r):
			usable++
		}
	}
	words := strings.Fields(clean)
	single := 0
	for _, w := range words {
		if len([]rune(w)) == 1 {
			single++
		}
	}
	// A text layer dominated by lone characters is scrambled output,
	// not prose; count it as half-usable.
	if len(words) > 0 && float64(single)/float64(len(words)) > 0.5 {
		usable /= 2
	}
	if garbage > usable/10 {
		usable -= garbage * 5
	}
	if usable < 0 {
		usable = 0
	}
	return PageDensity{
		CharCount: usable,
		WordCount: len(words),
		Scanned:   usable < th.ScannedBelow,
	}
}

// DetectTextType samples the first samplePages pages and classifies the
// document. The detector never blocks on OCR: ambiguous evidence
// defaults to searchable (the cheap path) and callers opt in to OCR
// explicitly.
func DetectTextType(ctx context.Context, doc Document, samplePages int, th DetectorThresholds) (*types.TextTypeResult, error) {
	total := doc.PageCount()
	if total == 0 {
		return &types.TextTypeResult{TextType: types.TextTypeUnknown, Confidence: "medium"}, nil
	}
	if samplePages <= 0 {
		samplePages = 3
	}
	n := samplePages
	if n > total {
		n = total
	}

	scanned := 0
	sumChars := 0
	for p := 0; p < n; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.PageText(p)
		if err != nil {
			// An unreadable sampled page is the strongest scanned signal
			// a text layer can give.
			scanned++
			continue
		}
		d := ScorePage(text, th)
		sumChars += d.CharCount
		if d.Scanned {
			scanned++
		}
	}

	avg := float64(sumChars) / float64(n)
	ratio := float64(scanned) / float64(n)

	result := &types.TextTypeResult{
		Ratio:         ratio,
		AvgTextLength: avg,
		PagesAnalyzed: n,
	}

	switch {
	case scanned*2 > n:
		result.TextType = types.TextTypeScanned
		result.Recommendation = "Use OCR for better results"
	case avg < float64(th.MixedBelow):
		result.TextType = types.TextTypeMixed
		result.Recommendation = "Try direct extraction first, use OCR if needed"
	default:
		result.TextType = types.TextTypeSearchable
		result.Recommendation = "Direct extraction should work well"
	}

	if avg >= float64(th.MixedBelow) || avg < float64(th.ScannedBelow) {
		result.Confidence = "high"
	} else {
		result.Confidence = "medium"
	}
	return result, nil
}
