package summarize

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/toricodesthings/pdf-summary-service/internal/cache"
	"github.com/toricodesthings/pdf-summary-service/internal/pipeline"
	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// pagerank iteration constants.
const (
	damping       = 0.85
	maxIterations = 100
	tolerance     = 1e-6
)

// Extractive scores sentences with the selected algorithm and keeps the
// top fraction, re-emitted in document order.
type Extractive struct {
	cache *cache.Cache
	log   zerolog.Logger
}

func NewExtractive(c *cache.Cache, log zerolog.Logger) *Extractive {
	return &Extractive{cache: c, log: log.With().Str("component", "extractive").Logger()}
}

// Options for one extractive run.
type ExtractiveOptions struct {
	Algorithm types.Algorithm `json:"algorithm"`
	// Ratio is the fraction of sentences to keep, in (0, 1].
	Ratio float64 `json:"ratio"`
	// UseCache reuses sentence scores across requests; scoring is the
	// dominant cost and does not depend on the ratio.
	UseCache bool `json:"useCache"`
}

// Summarize selects the highest-scoring sentences. A budget that
// exceeds the sentence count returns every sentence; fewer than two
// sentences short-circuits the scoring entirely.
func (e *Extractive) Summarize(ctx context.Context, documentID string, sentences []string, opts ExtractiveOptions) (*types.SummaryResult, error) {
	if opts.Ratio <= 0 || opts.Ratio > 1 {
		return nil, pipeline.InvalidParameters("ratio must be in (0, 1], got %v", opts.Ratio)
	}
	if opts.Algorithm == "" {
		opts.Algorithm = types.AlgorithmTextRank
	}
	if len(sentences) == 0 {
		return nil, pipeline.InvalidParameters("no sentences to summarize")
	}

	key := cache.Fingerprint("summary/extractive", documentID, sentences, opts.Algorithm, opts.Ratio)
	if opts.UseCache {
		if v, ok := e.cache.Get(key); ok {
			return v.(*types.SummaryResult), nil
		}
	}

	budget := int(float64(len(sentences))*opts.Ratio + 0.5)
	if budget < 1 {
		budget = 1
	}

	var selected []string
	if budget >= len(sentences) || len(sentences) < 2 {
		selected = sentences
	} else {
		scores, err := e.scores(ctx, sentences, opts)
		if err != nil {
			return nil, err
		}
		selected = topByScore(sentences, scores, budget)
	}
	res := e.assemble(documentID, key, sentences, selected, opts)
	if opts.UseCache {
		e.cache.Put(key, res)
	}
	return res, nil
}

// scores computes (or reuses) the per-sentence scores. The cache key
// excludes the ratio, so repeat requests at different target lengths
// share one scoring pass.
func (e *Extractive) scores(ctx context.Context, sentences []string, opts ExtractiveOptions) ([]float64, error) {
	if !opts.UseCache {
		return Score(sentences, opts.Algorithm), nil
	}
	key := cache.Fingerprint("summary/extractive/scores", sentences, opts.Algorithm)
	v, hit, err := e.cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		return Score(sentences, opts.Algorithm), nil
	})
	if err != nil {
		return nil, err
	}
	if hit {
		e.log.Debug().Str("algorithm", string(opts.Algorithm)).Msg("sentence scores served from cache")
	}
	return v.([]float64), nil
}

func (e *Extractive) assemble(documentID, fingerprint string, sentences, selected []string, opts ExtractiveOptions) *types.SummaryResult {
	text := strings.Join(selected, " ")
	original := 0
	for _, s := range sentences {
		original += types.CountWords(s)
	}
	summaryWords := types.CountWords(text)

	res := &types.SummaryResult{
		DocumentID:     documentID,
		Method:         types.MethodExtractive,
		Algorithm:      opts.Algorithm,
		Fingerprint:    fingerprint,
		SummaryText:    text,
		Sentences:      selected,
		OriginalLength: original,
		SummaryLength:  summaryWords,
	}
	if original > 0 {
		res.CompressionRatio = float64(summaryWords) / float64(original)
	}
	return res
}

// Score returns one relevance score per sentence for the given
// algorithm. Scores are only comparable within one call.
func Score(sentences []string, algo types.Algorithm) []float64 {
	m, tokenized := termMatrix(sentences)
	switch algo {
	case types.AlgorithmTFIDF:
		return tfidfScores(m, tokenized)
	case types.AlgorithmLSA:
		return lsaScores(m)
	default:
		return textrankScores(m)
	}
}

// textrankScores runs pagerank over the row-normalized sentence
// similarity graph.
func textrankScores(m *mat.Dense) []float64 {
	n, _ := m.Dims()
	sim := cosineSimilarity(m)

	// Row-normalize into a transition matrix; dangling sentences
	// distribute uniformly.
	trans := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		row := sim.RawRowView(i)
		var sum float64
		for _, v := range row {
			sum += v
		}
		for j := 0; j < n; j++ {
			if sum > 0 {
				trans.Set(i, j, row[j]/sum)
			} else {
				trans.Set(i, j, 1/float64(n))
			}
		}
	}

	scores := make([]float64, n)
	next := make([]float64, n)
	for i := range scores {
		scores[i] = 1 / float64(n)
	}
	base := (1 - damping) / float64(n)
	for iter := 0; iter < maxIterations; iter++ {
		for j := 0; j < n; j++ {
			var acc float64
			for i := 0; i < n; i++ {
				acc += scores[i] * trans.At(i, j)
			}
			next[j] = base + damping*acc
		}
		var delta float64
		for i := range scores {
			d := next[i] - scores[i]
			if d < 0 {
				d = -d
			}
			delta += d
		}
		scores, next = next, scores
		if delta < tolerance {
			break
		}
	}
	return scores
}

// tfidfScores weights each sentence by its summed term weights,
// normalized by token count so long sentences do not dominate.
func tfidfScores(m *mat.Dense, tokenized [][]string) []float64 {
	n, cols := m.Dims()
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < cols; j++ {
			sum += m.At(i, j)
		}
		if len(tokenized[i]) > 0 {
			scores[i] = sum / float64(len(tokenized[i]))
		}
	}
	return scores
}

// lsaScores projects sentences onto the top latent components and
// scores each by its projection norm.
func lsaScores(m *mat.Dense) []float64 {
	n, cols := m.Dims()
	scores := make([]float64, n)

	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDThin) {
		// Degenerate matrix; fall back to flat scores so selection
		// degrades to document order.
		return scores
	}
	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)

	k := min(min(n, cols), 3)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < k && j < len(values); j++ {
			v := u.At(i, j) * values[j]
			sum += v * v
		}
		scores[i] = sum
	}
	return scores
}

// topByScore keeps the budget highest-scoring sentences, ties broken
// toward the earlier sentence, and returns them in document order.
func topByScore(sentences []string, scores []float64, budget int) []string {
	idx := make([]int, len(sentences))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if scores[idx[a]] != scores[idx[b]] {
			return scores[idx[a]] > scores[idx[b]]
		}
		return idx[a] < idx[b]
	})

	chosen := idx[:budget]
	sort.Ints(chosen)
	out := make([]string, 0, budget)
	for _, i := range chosen {
		out = append(out, sentences[i])
	}
	return out
}
