package summarize

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toricodesthings/pdf-summary-service/internal/cache"
	"github.com/toricodesthings/pdf-summary-service/internal/pipeline"
	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

var docSentences = []string{
	"Machine learning systems require large volumes of training data to perform well.",
	"The weather was mild on the day the results were announced.",
	"Training data quality directly determines how well machine learning models generalize.",
	"Researchers collected training data from multiple machine learning benchmarks.",
	"A minor formatting issue was corrected in the appendix.",
	"Data augmentation expands training data without new collection effort.",
	"The committee thanked the volunteers for organizing the venue.",
	"Model evaluation used held-out data to measure generalization.",
}

func newExtractive(t *testing.T) *Extractive {
	t.Helper()
	c, err := cache.New(32, zerolog.Nop())
	require.NoError(t, err)
	return NewExtractive(c, zerolog.Nop())
}

func TestExtractiveAllAlgorithms(t *testing.T) {
	ex := newExtractive(t)
	for _, algo := range []types.Algorithm{types.AlgorithmTextRank, types.AlgorithmTFIDF, types.AlgorithmLSA} {
		t.Run(string(algo), func(t *testing.T) {
			res, err := ex.Summarize(context.Background(), "doc", docSentences, ExtractiveOptions{
				Algorithm: algo,
				Ratio:     0.4,
			})
			require.NoError(t, err)

			assert.Equal(t, types.MethodExtractive, res.Method)
			assert.Equal(t, algo, res.Algorithm)
			assert.NotEmpty(t, res.SummaryText)
			assert.Less(t, len(res.Sentences), len(docSentences))
			assert.Greater(t, res.CompressionRatio, 0.0)
			assert.LessOrEqual(t, res.CompressionRatio, 1.0)
		})
	}
}

func TestExtractiveDocumentOrderPreserved(t *testing.T) {
	ex := newExtractive(t)
	res, err := ex.Summarize(context.Background(), "doc", docSentences, ExtractiveOptions{Ratio: 0.5})
	require.NoError(t, err)

	pos := -1
	for _, s := range res.Sentences {
		idx := indexOf(docSentences, s)
		require.GreaterOrEqual(t, idx, 0, "selected sentence must come from the input")
		assert.Greater(t, idx, pos, "selection must be emitted in document order")
		pos = idx
	}
}

func TestExtractiveBudgetExceedsSentences(t *testing.T) {
	ex := newExtractive(t)
	in := docSentences[:2]
	res, err := ex.Summarize(context.Background(), "doc", in, ExtractiveOptions{Ratio: 1.0})
	require.NoError(t, err)
	assert.Equal(t, in, res.Sentences)
}

func TestExtractiveSingleSentence(t *testing.T) {
	ex := newExtractive(t)
	res, err := ex.Summarize(context.Background(), "doc", docSentences[:1], ExtractiveOptions{Ratio: 0.3})
	require.NoError(t, err)
	require.Len(t, res.Sentences, 1)
}

func TestExtractiveInvalidRatio(t *testing.T) {
	ex := newExtractive(t)
	for _, ratio := range []float64{0, -0.5, 1.5} {
		_, err := ex.Summarize(context.Background(), "doc", docSentences, ExtractiveOptions{Ratio: ratio})
		require.Error(t, err)
		assert.Equal(t, pipeline.KindInvalidParameters, pipeline.KindOf(err))
	}
}

func TestExtractiveEmptyInput(t *testing.T) {
	ex := newExtractive(t)
	_, err := ex.Summarize(context.Background(), "doc", nil, ExtractiveOptions{Ratio: 0.3})
	require.Error(t, err)
	assert.Equal(t, pipeline.KindInvalidParameters, pipeline.KindOf(err))
}

func TestExtractiveDeterministic(t *testing.T) {
	ex := newExtractive(t)
	opts := ExtractiveOptions{Ratio: 0.4}
	a, err := ex.Summarize(context.Background(), "doc", docSentences, opts)
	require.NoError(t, err)
	b, err := ex.Summarize(context.Background(), "doc", docSentences, opts)
	require.NoError(t, err)
	assert.Equal(t, a.Sentences, b.Sentences)
}

func TestExtractiveScoresSharedAcrossRatios(t *testing.T) {
	c, err := cache.New(32, zerolog.Nop())
	require.NoError(t, err)
	ex := NewExtractive(c, zerolog.Nop())

	_, err = ex.Summarize(context.Background(), "doc", docSentences, ExtractiveOptions{Ratio: 0.3, UseCache: true})
	require.NoError(t, err)

	// The score entry is keyed without the ratio, so a request at a
	// different target length finds it.
	key := cache.Fingerprint("summary/extractive/scores", docSentences, types.AlgorithmTextRank)
	_, ok := c.Get(key)
	require.True(t, ok, "scoring pass must be cached ratio-independently")

	_, err = ex.Summarize(context.Background(), "doc", docSentences, ExtractiveOptions{Ratio: 0.6, UseCache: true})
	require.NoError(t, err)
}

func TestExtractiveConcurrentScoringShared(t *testing.T) {
	ex := newExtractive(t)
	opts := ExtractiveOptions{Algorithm: types.AlgorithmTextRank, UseCache: true}

	// All goroutines start scoring together; singleflight must collapse
	// them into one computation, observable as every caller receiving
	// the same backing slice.
	release := make(chan struct{})
	results := make([][]float64, 10)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-release
			scores, err := ex.scores(context.Background(), docSentences, opts)
			assert.NoError(t, err)
			results[i] = scores
		}()
	}
	close(release)
	wg.Wait()

	require.NotEmpty(t, results[0])
	for i := 1; i < len(results); i++ {
		assert.True(t, &results[i][0] == &results[0][0], "concurrent identical requests must share one scoring pass")
	}
}

func TestTextRankFavorsCentralSentences(t *testing.T) {
	scores := Score(docSentences, types.AlgorithmTextRank)
	require.Len(t, scores, len(docSentences))

	// The training-data sentences reference each other; the weather
	// aside does not. Centrality should reflect that.
	weather := 1
	central := 2
	assert.Greater(t, scores[central], scores[weather])
}

func TestScoreTieBreakStable(t *testing.T) {
	identical := []string{
		"Alpha beta gamma delta epsilon.",
		"Alpha beta gamma delta epsilon.",
		"Alpha beta gamma delta epsilon.",
	}
	scores := Score(identical, types.AlgorithmTFIDF)
	selected := topByScore(identical, scores, 1)
	require.Len(t, selected, 1)
	assert.Equal(t, identical[0], selected[0], "ties must break toward the earlier sentence")
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestTokenize(t *testing.T) {
	toks := Tokenize("The QUICK, brown fox (aged 3) jumped!")
	assert.Equal(t, []string{"quick", "brown", "fox", "aged", "jumped"}, toks)
}

func TestTermMatrixEmptyVocabulary(t *testing.T) {
	m, _ := termMatrix([]string{"the a of", "and or but"})
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 1, c)
	for _, algo := range []types.Algorithm{types.AlgorithmTextRank, types.AlgorithmTFIDF, types.AlgorithmLSA} {
		scores := Score([]string{"the a of", "and or but"}, algo)
		assert.Len(t, scores, 2)
	}
}
