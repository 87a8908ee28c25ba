package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port string

	// Storage
	UploadDir string

	// Limits
	MaxJSONBodyBytes int64
	MaxPDFBytes      int64

	// Concurrency
	MaxConcurrentRequests int64
	MaxOCRConcurrent      int64
	MaxPageWorkers        int // per-document page extraction workers cap
	MaxChunkWorkers       int // per-request abstractive chunk workers cap

	// Server timeouts
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// Request timeouts
	ExtractTimeout   time.Duration
	CleanTimeout     time.Duration
	SummarizeTimeout time.Duration
	TranslateTimeout time.Duration

	// Cache
	CacheCapacity int

	// Extraction defaults
	DefaultOCRQuality    string
	DefaultOCRLanguages  string // "+"-joined tesseract codes, e.g. "eng+hin+mar"
	DefaultChunkSize     int    // pages in flight per extraction batch
	DefaultSamplePages   int
	MaxPagesWithoutRange int

	// Text-type detection thresholds (chars of embedded text per page)
	ScannedTextThreshold int
	MixedTextThreshold   int

	// Cleaner defaults
	DefaultMinSentenceLength int

	// Summarizer defaults
	DefaultSummaryRatio   float64
	DefaultMaxLength      int
	DefaultMinLength      int
	AbstractiveChunkWords int

	// Inference backend (abstractive summarization + local translation)
	InferenceURL     string
	InferenceModel   string
	InferenceTimeout time.Duration

	// Translation providers
	GoogleTranslateURL string
	LibreTranslateURL  string
	ProviderTimeout    time.Duration
	ProviderRateEvery  time.Duration
	ProviderRateBurst  int

	// rate limiting (per IP)
	RateLimitEvery time.Duration
	RateLimitBurst int

	// health
	HealthDegradeRatio float64

	// logging
	LogLevel  string
	LogFormat string // "json" | "console"
}

func Load() Config {
	return Config{
		Port: envStr("PORT", "8080"),

		UploadDir: envStr("UPLOAD_DIR", "uploads"),

		MaxJSONBodyBytes: int64(envInt("MAX_JSON_BODY_BYTES", 2<<20)),
		MaxPDFBytes:      int64(envInt("MAX_PDF_BYTES", int(200<<20))),

		MaxConcurrentRequests: int64(envInt("MAX_CONCURRENT_REQUESTS", 15)),
		MaxOCRConcurrent:      int64(envInt("MAX_OCR_CONCURRENT", 3)),
		MaxPageWorkers:        envInt("MAX_PAGE_WORKERS", 8),
		MaxChunkWorkers:       envInt("MAX_CHUNK_WORKERS", 4),

		ReadHeaderTimeout: envDur("READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:       envDur("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:      envDur("WRITE_TIMEOUT", 180*time.Second),
		IdleTimeout:       envDur("IDLE_TIMEOUT", 60*time.Second),

		ExtractTimeout:   envDur("EXTRACT_TIMEOUT", 160*time.Second),
		CleanTimeout:     envDur("CLEAN_TIMEOUT", 30*time.Second),
		SummarizeTimeout: envDur("SUMMARIZE_TIMEOUT", 180*time.Second),
		TranslateTimeout: envDur("TRANSLATE_TIMEOUT", 90*time.Second),

		CacheCapacity: envInt("CACHE_CAPACITY", 256),

		DefaultOCRQuality:    envStr("DEFAULT_OCR_QUALITY", "high"),
		DefaultOCRLanguages:  envStr("DEFAULT_OCR_LANGUAGES", "eng+hin+mar"),
		DefaultChunkSize:     envInt("DEFAULT_CHUNK_SIZE", 50),
		DefaultSamplePages:   envInt("DEFAULT_SAMPLE_PAGES", 3),
		MaxPagesWithoutRange: envInt("MAX_PAGES_WITHOUT_RANGE", 1000),

		ScannedTextThreshold: envInt("SCANNED_TEXT_THRESHOLD", 50),
		MixedTextThreshold:   envInt("MIXED_TEXT_THRESHOLD", 200),

		DefaultMinSentenceLength: envInt("DEFAULT_MIN_SENTENCE_LENGTH", 10),

		DefaultSummaryRatio:   envFloat("DEFAULT_SUMMARY_RATIO", 0.3),
		DefaultMaxLength:      envInt("DEFAULT_MAX_LENGTH", 150),
		DefaultMinLength:      envInt("DEFAULT_MIN_LENGTH", 30),
		AbstractiveChunkWords: envInt("ABSTRACTIVE_CHUNK_WORDS", 1000),

		InferenceURL:     envStr("INFERENCE_URL", "http://localhost:11434"),
		InferenceModel:   envStr("INFERENCE_MODEL", "llama3.2"),
		InferenceTimeout: envDur("INFERENCE_TIMEOUT", 120*time.Second),

		GoogleTranslateURL: envStr("GOOGLE_TRANSLATE_URL", "https://translate.googleapis.com/translate_a/single"),
		LibreTranslateURL:  envStr("LIBRE_TRANSLATE_URL", "https://libretranslate.de/translate"),
		ProviderTimeout:    envDur("PROVIDER_TIMEOUT", 30*time.Second),
		ProviderRateEvery:  envDur("PROVIDER_RATE_EVERY", 200*time.Millisecond),
		ProviderRateBurst:  envInt("PROVIDER_RATE_BURST", 5),

		RateLimitEvery: envDur("RATE_LIMIT_EVERY", 600*time.Millisecond),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 20),

		HealthDegradeRatio: envFloat("HEALTH_DEGRADE_RATIO", 0.9),

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "console"),
	}
}

func (c Config) Validate() error {
	if c.DefaultSummaryRatio <= 0 || c.DefaultSummaryRatio > 1 {
		return fmt.Errorf("DEFAULT_SUMMARY_RATIO must be in (0,1], got %v", c.DefaultSummaryRatio)
	}
	if c.DefaultMinLength >= c.DefaultMaxLength {
		return fmt.Errorf("DEFAULT_MIN_LENGTH must be below DEFAULT_MAX_LENGTH")
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("CACHE_CAPACITY must be positive")
	}
	if c.MaxPageWorkers <= 0 {
		return fmt.Errorf("MAX_PAGE_WORKERS must be positive")
	}
	return nil
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
