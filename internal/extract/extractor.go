// Package extract runs the hybrid text-extraction pipeline: embedded
// text layer first, OCR per page where the layer is unusable, merged
// back in page order.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/toricodesthings/pdf-summary-service/internal/cache"
	"github.com/toricodesthings/pdf-summary-service/internal/ocr"
	"github.com/toricodesthings/pdf-summary-service/internal/pdf"
	"github.com/toricodesthings/pdf-summary-service/internal/pipeline"
	"github.com/toricodesthings/pdf-summary-service/internal/preprocess"
	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// Options control one extraction run. The zero value extracts every
// page from the text layer only, with no OCR assistance.
type Options struct {
	// UseOCR enables per-page OCR for pages whose text layer scores
	// below the scanned threshold.
	UseOCR bool `json:"useOCR"`
	// Quality selects the render and recognition preset.
	Quality types.OCRQuality `json:"quality"`
	// Languages is the OCR trained-data set, e.g. ["eng","hin"].
	Languages []string `json:"languages"`
	// PreprocessImages runs grayscale/binarization before OCR.
	PreprocessImages bool `json:"preprocessImages"`
	// PageRange limits extraction, e.g. "1-5,8". Empty means all pages.
	PageRange string `json:"pageRange"`
	// ChunkSize is how many pages are in flight per batch; batches run
	// sequentially so memory stays bounded on very large documents.
	ChunkSize int `json:"chunkSize"`
}

// Extractor coordinates document opening, page workers, and the OCR
// gate. One Extractor serves all requests.
type Extractor struct {
	opener      pdf.Opener
	engine      ocr.Engine
	cache       *cache.Cache
	ocrGate     *semaphore.Weighted
	pageWorkers int
	maxPages    int
	thresholds  pdf.DetectorThresholds
	log         zerolog.Logger
}

// Config carries the tunables an Extractor is built from.
type Config struct {
	PageWorkers      int
	MaxOCRConcurrent int
	// MaxPagesWithoutRange caps how many pages an unbounded request may
	// process.
	MaxPagesWithoutRange int
	Thresholds           pdf.DetectorThresholds
}

func New(opener pdf.Opener, engine ocr.Engine, c *cache.Cache, cfg Config, log zerolog.Logger) *Extractor {
	if cfg.PageWorkers <= 0 {
		cfg.PageWorkers = 4
	}
	if cfg.MaxOCRConcurrent <= 0 {
		cfg.MaxOCRConcurrent = 1
	}
	if cfg.MaxPagesWithoutRange <= 0 {
		cfg.MaxPagesWithoutRange = 1000
	}
	if cfg.Thresholds == (pdf.DetectorThresholds{}) {
		cfg.Thresholds = pdf.DefaultThresholds()
	}
	return &Extractor{
		opener:      opener,
		engine:      engine,
		cache:       c,
		ocrGate:     semaphore.NewWeighted(int64(cfg.MaxOCRConcurrent)),
		pageWorkers: cfg.PageWorkers,
		maxPages:    cfg.MaxPagesWithoutRange,
		thresholds:  cfg.Thresholds,
		log:         log.With().Str("component", "extractor").Logger(),
	}
}

// Fingerprint identifies one (document, options) extraction. Identical
// inputs always produce the same key, so repeat requests are served
// from cache.
func Fingerprint(documentID string, opts Options) string {
	return cache.Fingerprint("extract", documentID, opts)
}

// Extract runs the pipeline for one document. Individual page failures
// are recorded per page, not fatal; only a document that yields no text
// at all is an error.
func (e *Extractor) Extract(ctx context.Context, documentID, path string, opts Options) (*types.ExtractionResult, error) {
	if opts.Quality == "" {
		opts.Quality = types.OCRQualityHigh
	}

	key := Fingerprint(documentID, opts)
	v, hit, err := e.cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		return e.extract(ctx, documentID, path, key, opts)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		e.log.Debug().Str("documentId", documentID).Msg("extraction served from cache")
	}
	return v.(*types.ExtractionResult), nil
}

func (e *Extractor) extract(ctx context.Context, documentID, path, fingerprint string, opts Options) (*types.ExtractionResult, error) {
	doc, err := e.opener.Open(ctx, path)
	if err != nil {
		return nil, pipeline.DocumentUnreadable(fmt.Sprintf("open %s", documentID), err)
	}
	defer doc.Close()

	total := doc.PageCount()
	if total == 0 {
		return nil, pipeline.DocumentUnreadable(fmt.Sprintf("document %s has no pages", documentID), nil)
	}

	pages, err := ParsePageRange(opts.PageRange, total)
	if err != nil {
		return nil, pipeline.InvalidParameters("page range %q: %v", opts.PageRange, err)
	}
	if opts.PageRange == "" && len(pages) > e.maxPages {
		pages = pages[:e.maxPages]
	}

	e.log.Info().
		Str("documentId", documentID).
		Int("totalPages", total).
		Int("requestedPages", len(pages)).
		Bool("useOCR", opts.UseOCR).
		Str("quality", string(opts.Quality)).
		Msg("starting extraction")

	chunk := opts.ChunkSize
	if chunk <= 0 || chunk > len(pages) {
		chunk = len(pages)
	}

	results := make([]types.PageText, len(pages))
	for start := 0; start < len(pages); start += chunk {
		end := min(start+chunk, len(pages))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.pageWorkers)
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = e.processPage(gctx, doc, pages[i], opts)
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	res := Merge(documentID, fingerprint, total, results)
	if res.PagesExtracted == 0 {
		return nil, pipeline.ExtractionFailed(
			fmt.Sprintf("no text could be extracted from %s (%d pages attempted)", documentID, len(pages)), nil)
	}
	if res.OCRPages > 0 && res.TextLayerPages > 0 {
		res.TextType = types.TextTypeMixed
	} else if res.OCRPages > 0 {
		res.TextType = types.TextTypeScanned
	} else {
		res.TextType = types.TextTypeSearchable
	}

	e.log.Info().
		Str("documentId", documentID).
		Int("pagesExtracted", res.PagesExtracted).
		Int("ocrPages", res.OCRPages).
		Int("failedPages", res.FailedPages).
		Msg("extraction complete")
	return res, nil
}

// processPage extracts one page. Any failure is folded into the
// returned PageText so a bad page never sinks the document.
func (e *Extractor) processPage(ctx context.Context, doc pdf.Document, page int, opts Options) types.PageText {
	out := types.PageText{PageNumber: page + 1, Method: "text-layer"}

	text, err := doc.PageText(page)
	if err == nil {
		d := pdf.ScorePage(text, e.thresholds)
		if !d.Scanned || !opts.UseOCR || e.engine == nil {
			out.Text = strings.TrimSpace(text)
			out.WordCount = types.CountWords(out.Text)
			return out
		}
	} else if !opts.UseOCR || e.engine == nil {
		out.Failed = true
		out.Error = err.Error()
		return out
	}

	ocrText, err := e.ocrPage(ctx, doc, page, opts)
	if err != nil {
		// Fall back to whatever the text layer gave, however thin.
		if strings.TrimSpace(text) != "" {
			out.Text = strings.TrimSpace(text)
			out.WordCount = types.CountWords(out.Text)
			return out
		}
		out.Failed = true
		out.Error = err.Error()
		return out
	}
	out.Method = "ocr"
	out.Text = ocrText
	out.WordCount = types.CountWords(ocrText)
	return out
}

func (e *Extractor) ocrPage(ctx context.Context, doc pdf.Document, page int, opts Options) (string, error) {
	if err := e.ocrGate.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire ocr slot: %w", err)
	}
	defer e.ocrGate.Release(1)

	img, err := doc.RenderPage(page, opts.Quality.RenderScale())
	if err != nil {
		return "", err
	}
	if opts.PreprocessImages {
		img = preprocess.Enhance(img, opts.Quality)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page %d: %w", page+1, err)
	}

	text, err := e.engine.Recognize(ctx, ocr.Request{
		PNG:       buf.Bytes(),
		Languages: opts.Languages,
		Quality:   opts.Quality,
	})
	if err != nil {
		return "", fmt.Errorf("ocr page %d: %w", page+1, err)
	}
	return text, nil
}
