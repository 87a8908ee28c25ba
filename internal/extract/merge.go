package extract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// ParsePageRange expands a spec like "1-5,8,11-12" into zero-based page
// indexes, deduplicated and sorted. Page numbers in the spec are
// one-based; out-of-range pages are rejected. An empty spec means every
// page.
func ParsePageRange(spec string, totalPages int) ([]int, error) {
	if strings.TrimSpace(spec) == "" {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i
		}
		return pages, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, err := parseRangePart(part)
		if err != nil {
			return nil, err
		}
		if lo < 1 || hi > totalPages {
			return nil, fmt.Errorf("pages %d-%d outside document (1-%d)", lo, hi, totalPages)
		}
		for p := lo; p <= hi; p++ {
			seen[p-1] = true
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("empty page range")
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

func parseRangePart(part string) (lo, hi int, err error) {
	if first, second, ok := strings.Cut(part, "-"); ok {
		a, err := strconv.Atoi(strings.TrimSpace(first))
		if err != nil {
			return 0, 0, fmt.Errorf("bad page number %q", first)
		}
		b, err := strconv.Atoi(strings.TrimSpace(second))
		if err != nil {
			return 0, 0, fmt.Errorf("bad page number %q", second)
		}
		if a > b {
			return 0, 0, fmt.Errorf("descending range %q", part)
		}
		return a, b, nil
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, 0, fmt.Errorf("bad page number %q", part)
	}
	return n, n, nil
}

// Merge assembles per-page results, already in request order, into the
// final document text with page markers. Failed and empty pages are
// skipped in the merged text but kept in the page list.
func Merge(documentID, fingerprint string, totalPages int, pages []types.PageText) *types.ExtractionResult {
	res := &types.ExtractionResult{
		DocumentID:  documentID,
		Fingerprint: fingerprint,
		Pages:       pages,
		TotalPages:  totalPages,
	}

	var b strings.Builder
	for _, p := range pages {
		switch {
		case p.Failed:
			res.FailedPages++
			continue
		case strings.TrimSpace(p.Text) == "":
			continue
		}
		res.PagesExtracted++
		if p.Method == "ocr" {
			res.OCRPages++
		} else {
			res.TextLayerPages++
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s\n", p.PageNumber, strings.TrimSpace(p.Text))
	}
	res.Text = strings.TrimSpace(b.String())
	return res
}
