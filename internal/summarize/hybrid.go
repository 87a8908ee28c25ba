package summarize

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/toricodesthings/pdf-summary-service/internal/cache"
	"github.com/toricodesthings/pdf-summary-service/internal/cleaner"
	"github.com/toricodesthings/pdf-summary-service/internal/pipeline"
	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// Hybrid runs an extractive prefilter to cut the input down, generates
// an abstract over the survivors, then assembles a structured summary
// from both passes.
type Hybrid struct {
	extractive  *Extractive
	abstractive *Abstractive
	cache       *cache.Cache
	log         zerolog.Logger
}

func NewHybrid(ex *Extractive, ab *Abstractive, c *cache.Cache, log zerolog.Logger) *Hybrid {
	return &Hybrid{
		extractive:  ex,
		abstractive: ab,
		cache:       c,
		log:         log.With().Str("component", "hybrid").Logger(),
	}
}

type HybridOptions struct {
	// Ratio is the extractive prefilter fraction.
	Ratio       float64         `json:"ratio"`
	Algorithm   types.Algorithm `json:"algorithm"`
	MaxLength   int             `json:"maxLength"`
	MinLength   int             `json:"minLength"`
	UseCache    bool            `json:"useCache"`
	UsePipeline bool            `json:"usePipeline"`
	// KindHint narrows structure detection; "resume" restricts section
	// scanning to the known resume headings. Empty means heuristic.
	KindHint string `json:"kindHint"`
}

// Summarize produces the structured hybrid summary. The structured
// payload is never entirely empty: when every structural probe comes up
// blank the abstract itself fills the final field.
func (h *Hybrid) Summarize(ctx context.Context, documentID, text string, opts HybridOptions) (*types.SummaryResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, pipeline.InvalidParameters("no text to summarize")
	}
	if opts.Ratio <= 0 || opts.Ratio > 1 {
		return nil, pipeline.InvalidParameters("ratio must be in (0, 1], got %v", opts.Ratio)
	}

	// UsePipeline is a performance toggle and stays out of the key.
	key := cache.Fingerprint("summary/hybrid", documentID, text,
		opts.Ratio, opts.Algorithm, opts.MaxLength, opts.MinLength, opts.KindHint)
	compute := func(ctx context.Context) (any, error) {
		return h.summarize(ctx, documentID, key, text, opts)
	}
	if !opts.UseCache {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return v.(*types.SummaryResult), nil
	}
	v, hit, err := h.cache.GetOrCompute(ctx, key, compute)
	if err != nil {
		return nil, err
	}
	if hit {
		h.log.Debug().Str("documentId", documentID).Msg("hybrid summary served from cache")
	}
	return v.(*types.SummaryResult), nil
}

func (h *Hybrid) summarize(ctx context.Context, documentID, fingerprint, text string, opts HybridOptions) (*types.SummaryResult, error) {
	stripped := stripContactNoise(text)
	sentences := cleaner.SplitSentences(stripped)
	if len(sentences) == 0 {
		return nil, pipeline.InvalidParameters("no summarizable content")
	}

	// The prefilter shares the extractive score cache, so repeat hybrid
	// requests at different ratios reuse one scoring pass.
	pre, err := h.extractive.Summarize(ctx, documentID, sentences, ExtractiveOptions{
		Algorithm: opts.Algorithm,
		Ratio:     opts.Ratio,
		UseCache:  opts.UseCache,
	})
	if err != nil {
		return nil, err
	}

	abs, err := h.abstractive.Summarize(ctx, documentID, pre.SummaryText, AbstractiveOptions{
		MaxLength:   opts.MaxLength,
		MinLength:   opts.MinLength,
		UsePipeline: opts.UsePipeline,
	})
	if err != nil {
		return nil, err
	}

	structured := buildStructure(stripped, abs.SummaryText, pre.Sentences, opts.KindHint)

	original := types.CountWords(text)
	summaryWords := types.CountWords(abs.SummaryText)
	res := &types.SummaryResult{
		DocumentID:     documentID,
		Method:         types.MethodHybrid,
		Algorithm:      pre.Algorithm,
		Fingerprint:    fingerprint,
		SummaryText:    abs.SummaryText,
		Sentences:      pre.Sentences,
		OriginalLength: original,
		SummaryLength:  summaryWords,
		Structured:     structured,
	}
	if original > 0 {
		res.CompressionRatio = float64(summaryWords) / float64(original)
	}
	return res, nil
}

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
	pageMarkers  = regexp.MustCompile(`-{3}\s*Page\s+\d+\s*-{3}`)

	// Common resume/report section headings scanned for in addition to
	// generic title-case headings.
	knownSections = []string{"Education", "Projects", "Skills", "Work Experience", "Experience", "Certifications"}

	headingPattern = regexp.MustCompile(`(?m)^([A-Z][^\n]{2,60})$`)
)

func stripContactNoise(text string) string {
	text = pageMarkers.ReplaceAllString(text, " ")
	text = emailPattern.ReplaceAllString(text, " ")
	text = phonePattern.ReplaceAllString(text, " ")
	return text
}

// buildStructure derives the structured fields. Title comes from the
// first short line of the document, objective from the opening of the
// abstract, key points from extractive sentences the abstract did not
// absorb, and section summaries from recognizable headings.
func buildStructure(original, abstract string, extracted []string, kindHint string) *types.StructuredSummary {
	s := &types.StructuredSummary{FinalAbstract: abstract}

	s.Title = findTitle(original)
	absSentences := cleaner.SplitSentences(abstract)
	if s.Title == "" && len(absSentences) > 0 {
		s.Title = absSentences[0]
	}

	if len(absSentences) > 1 {
		end := min(3, len(absSentences))
		s.Objective = strings.Join(absSentences[1:end], " ")
	}

	lowerAbstract := strings.ToLower(abstract)
	for _, sent := range extracted {
		if len(s.KeyPoints) >= 5 {
			break
		}
		if !strings.Contains(lowerAbstract, strings.ToLower(strings.TrimRight(sent, ".!?"))) {
			s.KeyPoints = append(s.KeyPoints, sent)
		}
	}

	s.SectionSummary = summarizeSections(original, kindHint == "resume")

	if s.Title == "" && s.Objective == "" && len(s.KeyPoints) == 0 &&
		len(s.SectionSummary) == 0 && s.FinalAbstract == "" {
		s.FinalAbstract = strings.Join(extracted, " ")
	}
	return s
}

// findTitle returns the first line with 3 to 12 words, the usual shape
// of a document title.
func findTitle(text string) string {
	for _, line := range strings.Split(pageMarkers.ReplaceAllString(text, "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if n := types.CountWords(line); n >= 3 && n <= 12 {
			return line
		}
		// Only scan the opening of the document.
		break
	}
	return ""
}

// summarizeSections locates known headings in the original text and
// keeps the first couple of sentences under each. resumeOnly limits
// detection to the known resume headings.
func summarizeSections(text string, resumeOnly bool) map[string]string {
	lines := strings.Split(text, "\n")
	sections := make(map[string]string)

	heading := func(line string) string {
		line = strings.TrimSpace(line)
		for _, known := range knownSections {
			if strings.EqualFold(line, known) {
				return known
			}
		}
		if resumeOnly {
			return ""
		}
		if headingPattern.MatchString(line) && types.CountWords(line) <= 5 && !strings.HasSuffix(line, ".") {
			return line
		}
		return ""
	}

	var current string
	var body []string
	flush := func() {
		if current == "" || len(body) == 0 {
			return
		}
		sentences := cleaner.SplitSentences(strings.Join(body, " "))
		end := min(2, len(sentences))
		if end > 0 {
			sections[current] = strings.Join(sentences[:end], " ")
		}
	}
	for _, line := range lines {
		if h := heading(line); h != "" {
			flush()
			current, body = h, nil
			continue
		}
		if current != "" && strings.TrimSpace(line) != "" {
			body = append(body, strings.TrimSpace(line))
		}
	}
	flush()

	if len(sections) == 0 {
		return nil
	}
	return sections
}
