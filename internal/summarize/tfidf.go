// Package summarize implements the three summarization methods:
// extractive (TextRank, TF-IDF, LSA sentence scoring), abstractive
// (model-backed chunked generation), and hybrid (extractive prefilter
// feeding abstractive generation into a structured summary).
package summarize

import (
	"math"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/mat"

	"github.com/toricodesthings/pdf-summary-service/internal/cleaner"
)

// Tokenize lowercases a sentence and returns its content tokens:
// punctuation stripped, stopwords and single characters dropped.
func Tokenize(sentence string) []string {
	var tokens []string
	for _, f := range strings.Fields(strings.ToLower(sentence)) {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(w) < 2 || cleaner.IsStopword(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// termMatrix builds a sentence-by-term TF-IDF matrix. Rows follow the
// sentence order given; columns follow first-seen term order, so the
// construction is deterministic for identical input.
func termMatrix(sentences []string) (*mat.Dense, [][]string) {
	tokenized := make([][]string, len(sentences))
	vocab := make(map[string]int)
	var terms []string
	for i, s := range sentences {
		tokenized[i] = Tokenize(s)
		for _, t := range tokenized[i] {
			if _, ok := vocab[t]; !ok {
				vocab[t] = len(terms)
				terms = append(terms, t)
			}
		}
	}
	if len(terms) == 0 {
		return mat.NewDense(len(sentences), 1, nil), tokenized
	}

	// Document frequency per term.
	df := make([]int, len(terms))
	for _, toks := range tokenized {
		seen := make(map[int]bool, len(toks))
		for _, t := range toks {
			j := vocab[t]
			if !seen[j] {
				seen[j] = true
				df[j]++
			}
		}
	}

	n := float64(len(sentences))
	m := mat.NewDense(len(sentences), len(terms), nil)
	for i, toks := range tokenized {
		if len(toks) == 0 {
			continue
		}
		counts := make(map[int]int, len(toks))
		for _, t := range toks {
			counts[vocab[t]]++
		}
		for j, c := range counts {
			tf := float64(c) / float64(len(toks))
			idf := math.Log((n+1)/(float64(df[j])+1)) + 1
			m.Set(i, j, tf*idf)
		}
	}
	return m, tokenized
}

// cosineSimilarity computes the pairwise cosine similarity of the rows
// of m, with zero-norm rows similar to nothing.
func cosineSimilarity(m *mat.Dense) *mat.Dense {
	r, _ := m.Dims()
	norms := make([]float64, r)
	for i := 0; i < r; i++ {
		norms[i] = mat.Norm(m.RowView(i), 2)
	}
	sim := mat.NewDense(r, r, nil)
	for i := 0; i < r; i++ {
		if norms[i] == 0 {
			continue
		}
		for j := i + 1; j < r; j++ {
			if norms[j] == 0 {
				continue
			}
			dot := mat.Dot(m.RowView(i), m.RowView(j))
			v := dot / (norms[i] * norms[j])
			sim.Set(i, j, v)
			sim.Set(j, i, v)
		}
	}
	return sim
}
