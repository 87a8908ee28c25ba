package service

import (
	"context"

	"github.com/toricodesthings/pdf-summary-service/internal/pipeline"
	"github.com/toricodesthings/pdf-summary-service/internal/summarize"
	"github.com/toricodesthings/pdf-summary-service/internal/translate"
	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// ExtractiveParams are the request-level knobs for extractive
// summarization. Zero values fall back to configured defaults.
type ExtractiveParams struct {
	Algorithm types.Algorithm
	Ratio     float64
	UseCache  *bool
}

// SummarizeExtractive summarizes the document's latest cleaned text.
func (s *Service) SummarizeExtractive(ctx context.Context, documentID string, p ExtractiveParams) (*types.SummaryResult, error) {
	cleaned, err := s.latestClean(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(cleaned.Sentences) == 0 {
		return nil, pipeline.ExtractionFailed("document has no sentences to summarize", nil)
	}
	res, err := s.extractive.Summarize(ctx, documentID, cleaned.Sentences, summarize.ExtractiveOptions{
		Algorithm: p.Algorithm,
		Ratio:     orFloat(p.Ratio, s.cfg.DefaultSummaryRatio),
		UseCache:  orBool(p.UseCache, true),
	})
	if err != nil {
		return nil, err
	}
	s.lastSummary.Store(summaryKey(documentID, types.MethodExtractive), res.Fingerprint)
	return res, nil
}

// AbstractiveParams are the request-level knobs for abstractive
// summarization.
type AbstractiveParams struct {
	ModelName   string
	MaxLength   int
	MinLength   int
	UseCache    *bool
	UsePipeline *bool
}

// SummarizeAbstractive summarizes the document's latest cleaned text
// with the model backend.
func (s *Service) SummarizeAbstractive(ctx context.Context, documentID string, p AbstractiveParams) (*types.SummaryResult, error) {
	cleaned, err := s.latestClean(ctx, documentID)
	if err != nil {
		return nil, err
	}
	res, err := s.abstractive.Summarize(ctx, documentID, cleaned.Text, summarize.AbstractiveOptions{
		ModelName:   p.ModelName,
		MaxLength:   orInt(p.MaxLength, s.cfg.DefaultMaxLength),
		MinLength:   orInt(p.MinLength, s.cfg.DefaultMinLength),
		UseCache:    orBool(p.UseCache, true),
		UsePipeline: orBool(p.UsePipeline, true),
	})
	if err != nil {
		return nil, err
	}
	s.lastSummary.Store(summaryKey(documentID, types.MethodAbstractive), res.Fingerprint)
	return res, nil
}

// HybridParams are the request-level knobs for hybrid summarization.
type HybridParams struct {
	Algorithm   types.Algorithm
	Ratio       float64
	MaxLength   int
	MinLength   int
	UseCache    *bool
	UsePipeline *bool
	KindHint    string
}

// SummarizeHybrid produces the structured hybrid summary.
func (s *Service) SummarizeHybrid(ctx context.Context, documentID string, p HybridParams) (*types.SummaryResult, error) {
	cleaned, err := s.latestClean(ctx, documentID)
	if err != nil {
		return nil, err
	}
	res, err := s.hybrid.Summarize(ctx, documentID, cleaned.Text, summarize.HybridOptions{
		Algorithm:   p.Algorithm,
		Ratio:       orFloat(p.Ratio, s.cfg.DefaultSummaryRatio),
		MaxLength:   orInt(p.MaxLength, s.cfg.DefaultMaxLength),
		MinLength:   orInt(p.MinLength, s.cfg.DefaultMinLength),
		UseCache:    orBool(p.UseCache, true),
		UsePipeline: orBool(p.UsePipeline, true),
		KindHint:    p.KindHint,
	})
	if err != nil {
		return nil, err
	}
	s.lastSummary.Store(summaryKey(documentID, types.MethodHybrid), res.Fingerprint)
	return res, nil
}

// TranslateParams identify which summary to translate and where to.
type TranslateParams struct {
	SummaryType    types.SummaryMethod
	TargetLanguage string
	Provider       types.Provider
	UseCache       *bool
}

// TranslateSummary translates the document's latest summary of the
// requested type, generating one with defaults when none exists.
func (s *Service) TranslateSummary(ctx context.Context, documentID string, p TranslateParams) (*types.TranslationResult, error) {
	summary, err := s.latestSummary(ctx, documentID, p.SummaryType)
	if err != nil {
		return nil, err
	}
	res, err := s.translator.Translate(ctx, translate.Request{
		Text:           summary.SummaryText,
		TargetLanguage: p.TargetLanguage,
		Provider:       p.Provider,
		UseCache:       orBool(p.UseCache, true),
	})
	if err != nil {
		return nil, err
	}
	res.DocumentID = documentID
	res.SummaryType = p.SummaryType
	return res, nil
}

func (s *Service) latestSummary(ctx context.Context, documentID string, method types.SummaryMethod) (*types.SummaryResult, error) {
	if fp, ok := s.lastSummary.Load(summaryKey(documentID, method)); ok {
		if v, ok := s.cache.Get(fp.(string)); ok {
			return v.(*types.SummaryResult), nil
		}
	}
	switch method {
	case types.MethodExtractive:
		return s.SummarizeExtractive(ctx, documentID, ExtractiveParams{})
	case types.MethodAbstractive:
		return s.SummarizeAbstractive(ctx, documentID, AbstractiveParams{})
	default:
		return s.SummarizeHybrid(ctx, documentID, HybridParams{})
	}
}

func summaryKey(documentID string, method types.SummaryMethod) string {
	return documentID + "/" + string(method)
}

func orFloat(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func orBool(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}
