package types

import (
	"fmt"
	"strings"
)

// OCRQuality selects an engine configuration preset (render scale, DPI,
// page segmentation, preprocessing depth). Tiers are presets, not an
// accuracy guarantee.
type OCRQuality string

const (
	OCRQualityLow    OCRQuality = "low"
	OCRQualityMedium OCRQuality = "medium"
	OCRQualityHigh   OCRQuality = "high"
)

func ParseOCRQuality(s string) (OCRQuality, error) {
	switch OCRQuality(strings.ToLower(strings.TrimSpace(s))) {
	case OCRQualityLow:
		return OCRQualityLow, nil
	case OCRQualityMedium:
		return OCRQualityMedium, nil
	case OCRQualityHigh, "":
		return OCRQualityHigh, nil
	}
	return "", fmt.Errorf("unknown ocr quality %q", s)
}

// RenderScale maps the quality tier to the page render multiplier.
func (q OCRQuality) RenderScale() float64 {
	switch q {
	case OCRQualityLow:
		return 1.0
	case OCRQualityMedium:
		return 1.5
	default:
		return 2.0
	}
}

// Algorithm identifies an extractive scoring algorithm.
type Algorithm string

const (
	AlgorithmTextRank Algorithm = "textrank"
	AlgorithmTFIDF    Algorithm = "tfidf"
	AlgorithmLSA      Algorithm = "lsa"
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case AlgorithmTextRank, "":
		return AlgorithmTextRank, nil
	case AlgorithmTFIDF:
		return AlgorithmTFIDF, nil
	case AlgorithmLSA:
		return AlgorithmLSA, nil
	}
	return "", fmt.Errorf("unknown algorithm %q", s)
}

// SummaryMethod identifies which summarizer produced a result.
type SummaryMethod string

const (
	MethodExtractive  SummaryMethod = "extractive"
	MethodAbstractive SummaryMethod = "abstractive"
	MethodHybrid      SummaryMethod = "hybrid"
)

func ParseSummaryMethod(s string) (SummaryMethod, error) {
	switch SummaryMethod(strings.ToLower(strings.TrimSpace(s))) {
	case MethodExtractive:
		return MethodExtractive, nil
	case MethodAbstractive:
		return MethodAbstractive, nil
	case MethodHybrid, "":
		return MethodHybrid, nil
	}
	return "", fmt.Errorf("unknown summary type %q", s)
}

// Provider identifies a translation backend.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderLibre  Provider = "libre"
	ProviderLocal  Provider = "local"
	ProviderAuto   Provider = "auto"
	// ProviderNone marks results no backend produced, such as a
	// same-language passthrough. Not accepted in requests.
	ProviderNone Provider = "none"
)

func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderGoogle:
		return ProviderGoogle, nil
	case ProviderLibre:
		return ProviderLibre, nil
	case ProviderLocal:
		return ProviderLocal, nil
	case ProviderAuto, "":
		return ProviderAuto, nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// TextType classifies a PDF's text layer.
type TextType string

const (
	TextTypeSearchable TextType = "searchable"
	TextTypeScanned    TextType = "scanned"
	TextTypeMixed      TextType = "mixed"
	TextTypeUnknown    TextType = "unknown"
)

// TextTypeResult reports the sampled text-type classification of a document.
type TextTypeResult struct {
	TextType       TextType `json:"textType"`
	Ratio          float64  `json:"ratio"` // fraction of sampled pages classified scanned
	AvgTextLength  float64  `json:"avgTextLength"`
	PagesAnalyzed  int      `json:"pagesAnalyzed"`
	Confidence     string   `json:"confidence"` // "high" | "medium"
	Recommendation string   `json:"recommendation"`
}

// PageText is the per-page outcome of an extraction.
type PageText struct {
	PageNumber int    `json:"pageNumber"` // 1-indexed
	Text       string `json:"text"`
	Method     string `json:"method"` // "text-layer" | "ocr"
	WordCount  int    `json:"wordCount"`
	Failed     bool   `json:"failed,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ExtractionResult is the merged, page-ordered output of extract_text.
type ExtractionResult struct {
	DocumentID     string     `json:"documentId"`
	Fingerprint    string     `json:"fingerprint"`
	Text           string     `json:"text"`
	Pages          []PageText `json:"pages"`
	TotalPages     int        `json:"totalPages"`
	PagesExtracted int        `json:"pagesExtracted"`
	TextLayerPages int        `json:"textLayerPages"`
	OCRPages       int        `json:"ocrPages"`
	FailedPages    int        `json:"failedPages"`
	TextType       TextType   `json:"textType"`
}

// CleanOptions configures the cleaner. The zero value is not useful;
// use DefaultCleanOptions.
type CleanOptions struct {
	RemoveStopwords     bool `json:"removeStopwords"`
	NormalizeWhitespace bool `json:"normalizeWhitespace"`
	RemoveSpecialChars  bool `json:"removeSpecialChars"`
	MinSentenceLength   int  `json:"minSentenceLength"`
}

func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		RemoveStopwords:     false,
		NormalizeWhitespace: true,
		RemoveSpecialChars:  false,
		MinSentenceLength:   10,
	}
}

// CleanedText is the normalized form an extraction is summarized from.
type CleanedText struct {
	DocumentID     string       `json:"documentId"`
	Fingerprint    string       `json:"fingerprint"`
	Text           string       `json:"text"`
	Sentences      []string     `json:"sentences"`
	OriginalLength int          `json:"originalLength"`
	WordCount      int          `json:"wordCount"`
	SentenceCount  int          `json:"sentenceCount"`
	Options        CleanOptions `json:"options"`
}

// StructuredSummary is the hybrid summarizer's formatted payload.
type StructuredSummary struct {
	Title          string            `json:"title"`
	Objective      string            `json:"objective"`
	KeyPoints      []string          `json:"keyPoints"`
	SectionSummary map[string]string `json:"sectionSummary,omitempty"`
	FinalAbstract  string            `json:"finalAbstract"`
}

// SummaryResult carries one summary regardless of method. Structured is
// populated only for the hybrid method.
type SummaryResult struct {
	DocumentID       string             `json:"documentId"`
	Method           SummaryMethod      `json:"method"`
	Algorithm        Algorithm          `json:"algorithm,omitempty"`
	Fingerprint      string             `json:"fingerprint"`
	SummaryText      string             `json:"summaryText"`
	Sentences        []string           `json:"sentences,omitempty"`
	OriginalLength   int                `json:"originalLength"` // words
	SummaryLength    int                `json:"summaryLength"`  // words
	CompressionRatio float64            `json:"compressionRatio"`
	Structured       *StructuredSummary `json:"structured,omitempty"`
}

// TranslationResult records a translation, including which provider
// actually served it when fallback was involved.
type TranslationResult struct {
	DocumentID     string        `json:"documentId,omitempty"`
	SummaryType    SummaryMethod `json:"summaryType,omitempty"`
	TargetLanguage string        `json:"targetLanguage"`
	Provider       Provider      `json:"provider"`
	TranslatedText string        `json:"translatedText"`
	Cached         bool          `json:"cached"`
}

// DocumentInfo describes a stored PDF without extracting it.
type DocumentInfo struct {
	DocumentID string `json:"documentId"`
	SizeBytes  int64  `json:"sizeBytes"`
	PageCount  int    `json:"pageCount"`
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	Encrypted  bool   `json:"encrypted"`
}

// CountWords reports the whitespace-separated token count of s.
func CountWords(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	return len(strings.Fields(s))
}
