package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/toricodesthings/pdf-summary-service/internal/cache"
	"github.com/toricodesthings/pdf-summary-service/internal/cleaner"
	"github.com/toricodesthings/pdf-summary-service/internal/pipeline"
	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// minChunkChars drops fragments too small to summarize on their own;
// they are almost always page-footer residue.
const minChunkChars = 50

// Generator is the model backend contract for abstractive generation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// GeneratorFactory builds a cold generator for a given model name,
// used when the warm shared backend is bypassed or a different model
// is requested.
type GeneratorFactory func(model string) Generator

// Abstractive produces model-written summaries by chunking long inputs,
// summarizing chunks in parallel, and consolidating.
type Abstractive struct {
	gen          Generator
	factory      GeneratorFactory
	cache        *cache.Cache
	chunkWords   int
	chunkWorkers int
	log          zerolog.Logger
}

func NewAbstractive(gen Generator, factory GeneratorFactory, c *cache.Cache, chunkWords, chunkWorkers int, log zerolog.Logger) *Abstractive {
	if chunkWords <= 0 {
		chunkWords = 1000
	}
	if chunkWorkers <= 0 {
		chunkWorkers = 2
	}
	return &Abstractive{
		gen:          gen,
		factory:      factory,
		cache:        c,
		chunkWords:   chunkWords,
		chunkWorkers: chunkWorkers,
		log:          log.With().Str("component", "abstractive").Logger(),
	}
}

// AbstractiveOptions for one generation run. MaxLength and MinLength
// are word targets passed to the model as instructions, so outputs are
// close to, not exactly at, the bounds. UsePipeline keeps the warm
// shared backend; disabling it builds a cold one per request, which
// changes performance only, never the result contract.
type AbstractiveOptions struct {
	ModelName   string `json:"modelName"`
	MaxLength   int    `json:"maxLength"`
	MinLength   int    `json:"minLength"`
	UseCache    bool   `json:"useCache"`
	UsePipeline bool   `json:"usePipeline"`
}

// Summarize generates an abstractive summary of text. Model failures
// surface as a summarization-unavailable error; callers decide whether
// to fall back extractively.
func (a *Abstractive) Summarize(ctx context.Context, documentID, text string, opts AbstractiveOptions) (*types.SummaryResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, pipeline.InvalidParameters("no text to summarize")
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = 150
	}
	if opts.MinLength <= 0 {
		opts.MinLength = 30
	}
	if opts.MinLength >= opts.MaxLength {
		return nil, pipeline.InvalidParameters("minLength %d must be below maxLength %d", opts.MinLength, opts.MaxLength)
	}

	gen := a.gen
	model := opts.ModelName
	if model == "" {
		model = a.gen.Model()
	}
	if a.factory != nil && (!opts.UsePipeline || model != a.gen.Model()) {
		gen = a.factory(model)
	}

	// UsePipeline is excluded from the key: warm and cold backends must
	// produce interchangeable results.
	key := cache.Fingerprint("summary/abstractive", documentID, text, opts.MaxLength, opts.MinLength, model)
	compute := func(ctx context.Context) (any, error) {
		return a.summarize(ctx, gen, documentID, key, text, opts)
	}
	if !opts.UseCache {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return v.(*types.SummaryResult), nil
	}
	v, hit, err := a.cache.GetOrCompute(ctx, key, compute)
	if err != nil {
		return nil, err
	}
	if hit {
		a.log.Debug().Str("documentId", documentID).Msg("abstractive summary served from cache")
	}
	return v.(*types.SummaryResult), nil
}

func (a *Abstractive) summarize(ctx context.Context, gen Generator, documentID, fingerprint, text string, opts AbstractiveOptions) (*types.SummaryResult, error) {
	chunks := chunkBySentences(text, a.chunkWords)
	if len(chunks) == 0 {
		return nil, pipeline.InvalidParameters("no summarizable content")
	}

	a.log.Info().
		Str("documentId", documentID).
		Int("chunks", len(chunks)).
		Str("model", gen.Model()).
		Msg("starting abstractive summarization")

	parts := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.chunkWorkers)
	for i, chunk := range chunks {
		g.Go(func() error {
			out, err := gen.Generate(gctx, summaryPrompt(chunk, opts.MinLength, opts.MaxLength))
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i+1, err)
			}
			parts[i] = strings.TrimSpace(out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, pipeline.SummarizationUnavailable("abstractive model failed", err)
	}

	summary := strings.TrimSpace(strings.Join(parts, " "))

	// Multi-chunk outputs usually overshoot the word target; a
	// consolidation pass brings them back inside it.
	if len(chunks) > 1 && types.CountWords(summary) > opts.MaxLength {
		condensed, err := gen.Generate(ctx, summaryPrompt(summary, opts.MinLength, opts.MaxLength))
		if err != nil {
			a.log.Warn().Err(err).Msg("consolidation pass failed, keeping joined chunk summaries")
		} else if strings.TrimSpace(condensed) != "" {
			summary = strings.TrimSpace(condensed)
		}
	}

	original := types.CountWords(text)
	summaryWords := types.CountWords(summary)
	res := &types.SummaryResult{
		DocumentID:     documentID,
		Method:         types.MethodAbstractive,
		Fingerprint:    fingerprint,
		SummaryText:    summary,
		OriginalLength: original,
		SummaryLength:  summaryWords,
	}
	if original > 0 {
		res.CompressionRatio = float64(summaryWords) / float64(original)
	}
	return res, nil
}

func summaryPrompt(text string, minWords, maxWords int) string {
	return fmt.Sprintf(
		"Summarize the following text in %d to %d words. Respond with the summary only, no preamble.\n\n%s",
		minWords, maxWords, text)
}

// chunkBySentences groups sentences into chunks of roughly targetWords
// words, never splitting a sentence. Chunks below minChunkChars are
// dropped.
func chunkBySentences(text string, targetWords int) []string {
	sentences := cleaner.SplitSentences(text)
	var chunks []string
	var cur []string
	words := 0
	flush := func() {
		if len(cur) == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(cur, " "))
		if len(chunk) >= minChunkChars {
			chunks = append(chunks, chunk)
		}
		cur, words = nil, 0
	}
	for _, s := range sentences {
		w := types.CountWords(s)
		if words > 0 && words+w > targetWords {
			flush()
		}
		cur = append(cur, s)
		words += w
	}
	flush()
	return chunks
}
