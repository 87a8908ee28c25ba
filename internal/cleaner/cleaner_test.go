package cleaner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

func TestCleanEmptyInput(t *testing.T) {
	out := Clean("", types.DefaultCleanOptions())
	assert.Empty(t, out.Text)
	assert.Empty(t, out.Sentences)
	assert.Zero(t, out.WordCount)
	assert.Zero(t, out.SentenceCount)

	out = Clean("   \n\t  ", types.DefaultCleanOptions())
	assert.Empty(t, out.Text)
}

func TestCleanStripsPageMarkers(t *testing.T) {
	raw := "--- Page 1 ---\nFirst page content here.\n--- Page 2 ---\nSecond page content here."
	out := Clean(raw, types.DefaultCleanOptions())
	assert.NotContains(t, out.Text, "--- Page")
	assert.Contains(t, out.Text, "First page content")
	assert.Contains(t, out.Text, "Second page content")
}

func TestCleanNormalizesWhitespace(t *testing.T) {
	raw := "Too   many    spaces here.\n\n\n\nAnd blank lines everywhere."
	out := Clean(raw, types.DefaultCleanOptions())
	assert.NotContains(t, out.Text, "  ")
	assert.NotContains(t, out.Text, "\n\n")
}

func TestCleanRemoveSpecialChars(t *testing.T) {
	opts := types.DefaultCleanOptions()
	opts.RemoveSpecialChars = true
	out := Clean("Revenue grew 40% (net) & see «chart» for details.", opts)
	for _, bad := range []string{"%", "(", ")", "&", "«", "»"} {
		assert.NotContains(t, out.Text, bad)
	}
	assert.Contains(t, out.Text, "Revenue grew 40")
}

func TestCleanKeepsSentencePunctuation(t *testing.T) {
	opts := types.DefaultCleanOptions()
	opts.RemoveSpecialChars = true
	out := Clean("Is this kept? Yes, it is! Definitely.", opts)
	assert.Contains(t, out.Text, "?")
	assert.Contains(t, out.Text, "!")
	assert.Contains(t, out.Text, ",")
}

func TestCleanRemoveStopwords(t *testing.T) {
	opts := types.DefaultCleanOptions()
	opts.RemoveStopwords = true
	opts.MinSentenceLength = 0
	out := Clean("The quick brown fox jumps over the lazy dog.", opts)

	words := strings.Fields(strings.ToLower(out.Text))
	assert.NotContains(t, words, "the")
	assert.NotContains(t, words, "over")
	assert.Contains(t, out.Text, "quick")
	assert.Contains(t, out.Text, "fox")
}

func TestCleanMinSentenceLength(t *testing.T) {
	opts := types.DefaultCleanOptions()
	opts.MinSentenceLength = 20
	out := Clean("Short. This sentence is comfortably long enough to keep.", opts)
	require.Len(t, out.Sentences, 1)
	assert.Contains(t, out.Sentences[0], "comfortably")
}

func TestCleanCounts(t *testing.T) {
	raw := "One two three. Four five six seven."
	out := Clean(raw, types.DefaultCleanOptions())
	assert.Equal(t, len(raw), out.OriginalLength)
	assert.Equal(t, 7, out.WordCount)
	assert.Equal(t, 2, out.SentenceCount)
}

func TestSplitSentences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "basic",
			in:   "First sentence. Second sentence! Third sentence?",
			want: []string{"First sentence.", "Second sentence!", "Third sentence?"},
		},
		{
			name: "abbreviations not split",
			in:   "Dr. Smith visited the lab. Mr. Jones followed.",
			want: []string{"Dr. Smith visited the lab.", "Mr. Jones followed."},
		},
		{
			name: "initials not split",
			in:   "The paper by J. Smith was cited. It held up.",
			want: []string{"The paper by J. Smith was cited.", "It held up."},
		},
		{
			name: "wrapped lines rejoin",
			in:   "This sentence was broken\nacross two lines by the PDF. Next one follows.",
			want: []string{"This sentence was broken across two lines by the PDF.", "Next one follows."},
		},
		{
			name: "trailing fragment kept",
			in:   "Complete sentence. Trailing fragment without period",
			want: []string{"Complete sentence.", "Trailing fragment without period"},
		},
		{
			name: "empty",
			in:   "   ",
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitSentences(tc.in))
		})
	}
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("the"))
	assert.True(t, IsStopword("wouldn't"))
	assert.False(t, IsStopword("revenue"))
	assert.False(t, IsStopword(""))
}
