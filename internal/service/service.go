// Package service is the pipeline facade: it owns the stage
// implementations, chains them (detect, extract, clean, summarize,
// translate), and keeps per-document stage state so each operation can
// be called independently.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/toricodesthings/pdf-summary-service/internal/cache"
	"github.com/toricodesthings/pdf-summary-service/internal/cleaner"
	"github.com/toricodesthings/pdf-summary-service/internal/config"
	"github.com/toricodesthings/pdf-summary-service/internal/extract"
	"github.com/toricodesthings/pdf-summary-service/internal/inference"
	"github.com/toricodesthings/pdf-summary-service/internal/ocr"
	"github.com/toricodesthings/pdf-summary-service/internal/pdf"
	"github.com/toricodesthings/pdf-summary-service/internal/pipeline"
	"github.com/toricodesthings/pdf-summary-service/internal/store"
	"github.com/toricodesthings/pdf-summary-service/internal/summarize"
	"github.com/toricodesthings/pdf-summary-service/internal/translate"
	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// Service wires every pipeline stage together. One Service serves all
// requests for the process lifetime.
type Service struct {
	cfg   config.Config
	store *store.Store
	cache *cache.Cache

	opener      pdf.Opener
	extractor   *extract.Extractor
	extractive  *summarize.Extractive
	abstractive *summarize.Abstractive
	hybrid      *summarize.Hybrid
	translator  *translate.Translator
	inference   *inference.Client

	thresholds pdf.DetectorThresholds

	// Latest stage fingerprints per document, so downstream operations
	// can pick up where the previous stage left off.
	lastExtraction sync.Map // documentID -> fingerprint
	lastClean      sync.Map // documentID -> fingerprint
	lastSummary    sync.Map // documentID + "/" + method -> fingerprint

	startedAt time.Time
	log       zerolog.Logger
}

// New builds the full pipeline from configuration. The OCR engine and
// PDF opener are injectable for tests; pass nil to use the defaults.
func New(cfg config.Config, opener pdf.Opener, engine ocr.Engine, log zerolog.Logger) (*Service, error) {
	if opener == nil {
		opener = pdf.FitzOpener{}
	}
	if engine == nil {
		engine = ocr.NewTesseractEngine()
	}

	st, err := store.New(cfg.UploadDir, log)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(cfg.CacheCapacity, log)
	if err != nil {
		return nil, err
	}

	thresholds := pdf.DetectorThresholds{
		ScannedBelow: cfg.ScannedTextThreshold,
		MixedBelow:   cfg.MixedTextThreshold,
	}

	extractor := extract.New(opener, engine, c, extract.Config{
		PageWorkers:          cfg.MaxPageWorkers,
		MaxOCRConcurrent:     int(cfg.MaxOCRConcurrent),
		MaxPagesWithoutRange: cfg.MaxPagesWithoutRange,
		Thresholds:           thresholds,
	}, log)

	inf := inference.NewClient(cfg.InferenceURL, cfg.InferenceModel, cfg.InferenceTimeout, log)

	// The factory builds a cold client when a request asks for a
	// different model or bypasses the warm pipeline.
	factory := func(model string) summarize.Generator {
		return inference.NewClient(cfg.InferenceURL, model, cfg.InferenceTimeout, log)
	}

	extractive := summarize.NewExtractive(c, log)
	abstractive := summarize.NewAbstractive(inf, factory, c, cfg.AbstractiveChunkWords, cfg.MaxChunkWorkers, log)
	hybrid := summarize.NewHybrid(extractive, abstractive, c, log)

	providers := []translate.Provider{
		translate.NewGoogleProvider(cfg.GoogleTranslateURL, cfg.ProviderTimeout),
		translate.NewLibreProvider(cfg.LibreTranslateURL, cfg.ProviderTimeout),
		translate.NewLocalProvider(inf),
	}
	translator := translate.NewTranslator(
		providers, c, rate.Every(cfg.ProviderRateEvery), cfg.ProviderRateBurst, log)

	return &Service{
		cfg:         cfg,
		store:       st,
		cache:       c,
		opener:      opener,
		extractor:   extractor,
		extractive:  extractive,
		abstractive: abstractive,
		hybrid:      hybrid,
		translator:  translator,
		inference:   inf,
		thresholds:  thresholds,
		startedAt:   time.Now(),
		log:         log.With().Str("component", "service").Logger(),
	}, nil
}

// Store exposes the document store to the HTTP surface.
func (s *Service) Store() *store.Store { return s.store }

// Cache exposes the result cache for the stats endpoint.
func (s *Service) Cache() *cache.Cache { return s.cache }

// Uptime reports how long the service has been running.
func (s *Service) Uptime() time.Duration { return time.Since(s.startedAt) }

// PingInference reports whether the model runtime is reachable.
func (s *Service) PingInference(ctx context.Context) error {
	return s.inference.Ping(ctx)
}

// PDFInfo opens a stored document and reports its shape without
// extracting anything.
func (s *Service) PDFInfo(ctx context.Context, documentID string) (*types.DocumentInfo, error) {
	path, err := s.store.Path(documentID)
	if err != nil {
		return nil, err
	}
	size, err := s.store.Size(documentID)
	if err != nil {
		return nil, err
	}
	doc, err := s.opener.Open(ctx, path)
	if err != nil {
		return nil, pipeline.DocumentUnreadable("open "+documentID, err)
	}
	defer doc.Close()

	meta := doc.Metadata()
	enc := meta["encryption"]
	return &types.DocumentInfo{
		DocumentID: documentID,
		SizeBytes:  size,
		PageCount:  doc.PageCount(),
		Title:      meta["title"],
		Author:     meta["author"],
		Encrypted:  enc != "" && !strings.EqualFold(enc, "none"),
	}, nil
}

// DetectTextType classifies a stored document by sampling its opening
// pages. samplePages of zero uses the configured default.
func (s *Service) DetectTextType(ctx context.Context, documentID string, samplePages int) (*types.TextTypeResult, error) {
	if samplePages <= 0 {
		samplePages = s.cfg.DefaultSamplePages
	}
	path, err := s.store.Path(documentID)
	if err != nil {
		return nil, err
	}

	key := cache.Fingerprint("detect", documentID, samplePages)
	v, _, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		doc, err := s.opener.Open(ctx, path)
		if err != nil {
			return nil, pipeline.DocumentUnreadable("open "+documentID, err)
		}
		defer doc.Close()
		return pdf.DetectTextType(ctx, doc, samplePages, s.thresholds)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.TextTypeResult), nil
}

// ExtractText runs extraction and records the result as the document's
// latest extraction for downstream stages.
func (s *Service) ExtractText(ctx context.Context, documentID string, opts extract.Options) (*types.ExtractionResult, error) {
	path, err := s.store.Path(documentID)
	if err != nil {
		return nil, err
	}
	if opts.Quality == "" {
		opts.Quality = types.OCRQuality(s.cfg.DefaultOCRQuality)
	}
	if len(opts.Languages) == 0 {
		opts.Languages = strings.Split(s.cfg.DefaultOCRLanguages, "+")
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = s.cfg.DefaultChunkSize
	}
	res, err := s.extractor.Extract(ctx, documentID, path, opts)
	if err != nil {
		return nil, err
	}
	s.lastExtraction.Store(documentID, res.Fingerprint)
	return res, nil
}

// CleanText normalizes the document's latest extraction, running a
// default extraction first when none exists yet.
func (s *Service) CleanText(ctx context.Context, documentID string, opts types.CleanOptions) (*types.CleanedText, error) {
	ext, err := s.latestExtraction(ctx, documentID)
	if err != nil {
		return nil, err
	}

	key := cache.Fingerprint("clean", ext.Fingerprint, opts)
	v, _, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		res := cleaner.Clean(ext.Text, opts)
		res.DocumentID = documentID
		res.Fingerprint = key
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	s.lastClean.Store(documentID, key)
	return v.(*types.CleanedText), nil
}

// latestExtraction returns the document's most recent extraction,
// falling back to a fresh default extraction. OCR is enabled in the
// fallback; searchable pages skip it per the page scorer.
func (s *Service) latestExtraction(ctx context.Context, documentID string) (*types.ExtractionResult, error) {
	if fp, ok := s.lastExtraction.Load(documentID); ok {
		if v, ok := s.cache.Get(fp.(string)); ok {
			return v.(*types.ExtractionResult), nil
		}
	}
	return s.ExtractText(ctx, documentID, extract.Options{
		UseOCR:           true,
		PreprocessImages: true,
	})
}

// latestClean returns the document's most recent cleaned text, cleaning
// with defaults when none exists.
func (s *Service) latestClean(ctx context.Context, documentID string) (*types.CleanedText, error) {
	if fp, ok := s.lastClean.Load(documentID); ok {
		if v, ok := s.cache.Get(fp.(string)); ok {
			return v.(*types.CleanedText), nil
		}
	}
	opts := types.DefaultCleanOptions()
	opts.MinSentenceLength = s.cfg.DefaultMinSentenceLength
	return s.CleanText(ctx, documentID, opts)
}
