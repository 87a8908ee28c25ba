// Command server runs the PDF summarization service: upload, text-type
// detection, hybrid extraction, cleaning, three summarization methods,
// and summary translation, behind a rate-limited JSON API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/toricodesthings/pdf-summary-service/internal/config"
	"github.com/toricodesthings/pdf-summary-service/internal/extract"
	"github.com/toricodesthings/pdf-summary-service/internal/pipeline"
	"github.com/toricodesthings/pdf-summary-service/internal/service"
	"github.com/toricodesthings/pdf-summary-service/internal/store"
	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	svc, err := service.New(cfg, nil, nil, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build pipeline")
	}

	srv := &server{
		cfg:      cfg,
		svc:      svc,
		log:      log,
		gate:     semaphore.NewWeighted(cfg.MaxConcurrentRequests),
		limiters: map[string]*clientLimiter{},
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	go srv.reapLimiters()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	var w = os.Stderr
	logger := zerolog.New(w)
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Str("service", "pdf-summary").Logger()
}

type server struct {
	cfg    config.Config
	svc    *service.Service
	log    zerolog.Logger
	gate   *semaphore.Weighted
	active atomic.Int64

	mu       sync.Mutex
	limiters map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", s.wrap(http.MethodGet, s.handleHealth, false))
	mux.Handle("/metrics", s.wrap(http.MethodGet, s.handleMetrics, false))

	mux.Handle("/documents/upload", s.wrap(http.MethodPost, s.handleUpload, true))
	mux.Handle("/documents", s.wrap(http.MethodGet, s.handleListDocuments, false))
	mux.Handle("/documents/delete", s.wrap(http.MethodPost, s.handleDeleteDocument, false))

	mux.Handle("/pdf/info", s.wrap(http.MethodPost, s.handlePDFInfo, true))
	mux.Handle("/pdf/detect", s.wrap(http.MethodPost, s.handleDetect, true))
	mux.Handle("/pdf/extract", s.wrap(http.MethodPost, s.handleExtract, true))

	mux.Handle("/text/clean", s.wrap(http.MethodPost, s.handleClean, true))

	mux.Handle("/summary/extractive", s.wrap(http.MethodPost, s.handleExtractive, true))
	mux.Handle("/summary/abstractive", s.wrap(http.MethodPost, s.handleAbstractive, true))
	mux.Handle("/summary/hybrid", s.wrap(http.MethodPost, s.handleHybrid, true))
	mux.Handle("/summary/translate", s.wrap(http.MethodPost, s.handleTranslate, true))

	return mux
}

// wrap applies the standard middleware chain. Heavy endpoints also pass
// through the process-wide concurrency gate.
func (s *server) wrap(method string, h http.HandlerFunc, heavy bool) http.Handler {
	var handler http.Handler = h
	if heavy {
		handler = s.withConcurrencyLimit(handler)
	}
	handler = s.withRateLimit(handler)
	handler = s.withMethod(method, handler)
	handler = s.withRecovery(handler)
	return s.withLogging(handler)
}

func (s *server) withMethod(method string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) withConcurrencyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.gate.TryAcquire(1) {
			w.Header().Set("Retry-After", "5")
			s.respondError(w, http.StatusServiceUnavailable, "server at capacity, retry shortly")
			return
		}
		defer s.gate.Release(1)
		s.active.Add(1)
		defer s.active.Add(-1)
		next.ServeHTTP(w, r)
	})
}

func (s *server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiterFor(clientIP(r)).Allow() {
			s.respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				s.respondError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("elapsed", time.Since(start)).
			Str("ip", clientIP(r)).
			Msg("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *server) limiterFor(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Every(s.cfg.RateLimitEvery), s.cfg.RateLimitBurst)}
		s.limiters[ip] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

// reapLimiters drops limiters for clients idle beyond ten minutes.
func (s *server) reapLimiters() {
	for range time.Tick(time.Minute) {
		s.mu.Lock()
		for ip, cl := range s.limiters {
			if time.Since(cl.lastSeen) > 10*time.Minute {
				delete(s.limiters, ip)
			}
		}
		s.mu.Unlock()
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// --- handlers ---

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	inference := "ok"
	if err := s.svc.PingInference(ctx); err != nil {
		status = "degraded"
		inference = err.Error()
	}
	// Report degraded once in-flight load sits near the concurrency cap.
	load := float64(s.active.Load()) / float64(s.cfg.MaxConcurrentRequests)
	if load >= s.cfg.HealthDegradeRatio {
		status = "degraded"
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"inference":      inference,
		"activeRequests": s.active.Load(),
		"uptime":         s.svc.Uptime().Round(time.Second).String(),
	})
}

func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"uptime":       s.svc.Uptime().Round(time.Second).String(),
		"cacheEntries": s.svc.Cache().Len(),
		"goroutines":   runtime.NumGoroutine(),
		"heapBytes":    m.HeapAlloc,
	})
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.MaxPDFBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	id, err := s.svc.Store().Save(header.Filename, file, s.cfg.MaxPDFBytes)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"documentId": id})
}

func (s *server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.Store().List()
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"documents": docs, "count": len(docs)})
}

func (s *server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID string `json:"documentId"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.svc.Store().Delete(req.DocumentID); err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"deleted": req.DocumentID})
}

func (s *server) handlePDFInfo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID string `json:"documentId"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	info, err := s.svc.PDFInfo(r.Context(), req.DocumentID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID  string `json:"documentId"`
		SamplePages int    `json:"samplePages"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.DetectTextType(r.Context(), req.DocumentID, req.SamplePages)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID       string   `json:"documentId"`
		UseOCR           bool     `json:"useOCR"`
		Quality          string   `json:"quality"`
		Languages        []string `json:"languages"`
		PreprocessImages bool     `json:"preprocessImages"`
		PageRange        string   `json:"pageRange"`
		ChunkSize        int      `json:"chunkSize"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	quality, err := types.ParseOCRQuality(req.Quality)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ExtractTimeout)
	defer cancel()
	res, err := s.svc.ExtractText(ctx, req.DocumentID, extract.Options{
		UseOCR:           req.UseOCR,
		Quality:          quality,
		Languages:        req.Languages,
		PreprocessImages: req.PreprocessImages,
		PageRange:        req.PageRange,
		ChunkSize:        req.ChunkSize,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *server) handleClean(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID          string `json:"documentId"`
		RemoveStopwords     *bool  `json:"removeStopwords"`
		NormalizeWhitespace *bool  `json:"normalizeWhitespace"`
		RemoveSpecialChars  *bool  `json:"removeSpecialChars"`
		MinSentenceLength   *int   `json:"minSentenceLength"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	opts := types.DefaultCleanOptions()
	opts.MinSentenceLength = s.cfg.DefaultMinSentenceLength
	if req.RemoveStopwords != nil {
		opts.RemoveStopwords = *req.RemoveStopwords
	}
	if req.NormalizeWhitespace != nil {
		opts.NormalizeWhitespace = *req.NormalizeWhitespace
	}
	if req.RemoveSpecialChars != nil {
		opts.RemoveSpecialChars = *req.RemoveSpecialChars
	}
	if req.MinSentenceLength != nil {
		opts.MinSentenceLength = *req.MinSentenceLength
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CleanTimeout+s.cfg.ExtractTimeout)
	defer cancel()
	res, err := s.svc.CleanText(ctx, req.DocumentID, opts)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *server) handleExtractive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID string  `json:"documentId"`
		Algorithm  string  `json:"algorithm"`
		Ratio      float64 `json:"ratio"`
		UseCache   *bool   `json:"useCache"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	algo, err := types.ParseAlgorithm(req.Algorithm)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SummarizeTimeout)
	defer cancel()
	res, err := s.svc.SummarizeExtractive(ctx, req.DocumentID, service.ExtractiveParams{
		Algorithm: algo,
		Ratio:     req.Ratio,
		UseCache:  req.UseCache,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *server) handleAbstractive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID  string `json:"documentId"`
		ModelName   string `json:"modelName"`
		MaxLength   int    `json:"maxLength"`
		MinLength   int    `json:"minLength"`
		UseCache    *bool  `json:"useCache"`
		UsePipeline *bool  `json:"usePipeline"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SummarizeTimeout)
	defer cancel()
	res, err := s.svc.SummarizeAbstractive(ctx, req.DocumentID, service.AbstractiveParams{
		ModelName:   req.ModelName,
		MaxLength:   req.MaxLength,
		MinLength:   req.MinLength,
		UseCache:    req.UseCache,
		UsePipeline: req.UsePipeline,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *server) handleHybrid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID  string  `json:"documentId"`
		Algorithm   string  `json:"algorithm"`
		Ratio       float64 `json:"ratio"`
		MaxLength   int     `json:"maxLength"`
		MinLength   int     `json:"minLength"`
		UseCache    *bool   `json:"useCache"`
		UsePipeline *bool   `json:"usePipeline"`
		KindHint    string  `json:"documentKindHint"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	algo, err := types.ParseAlgorithm(req.Algorithm)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SummarizeTimeout)
	defer cancel()
	res, err := s.svc.SummarizeHybrid(ctx, req.DocumentID, service.HybridParams{
		Algorithm:   algo,
		Ratio:       req.Ratio,
		MaxLength:   req.MaxLength,
		MinLength:   req.MinLength,
		UseCache:    req.UseCache,
		UsePipeline: req.UsePipeline,
		KindHint:    req.KindHint,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID     string `json:"documentId"`
		SummaryType    string `json:"summaryType"`
		TargetLanguage string `json:"targetLanguage"`
		Provider       string `json:"provider"`
		UseCache       *bool  `json:"useCache"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	method, err := types.ParseSummaryMethod(req.SummaryType)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	provider, err := types.ParseProvider(req.Provider)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.TranslateTimeout)
	defer cancel()
	res, err := s.svc.TranslateSummary(ctx, req.DocumentID, service.TranslateParams{
		SummaryType:    method,
		TargetLanguage: req.TargetLanguage,
		Provider:       provider,
		UseCache:       req.UseCache,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

// --- response helpers ---

// decode parses a JSON request body, rejecting unknown fields and
// oversized payloads. It writes the error response itself and reports
// whether decoding succeeded.
func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// fail maps pipeline and store errors to their HTTP status.
func (s *server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, http.StatusGatewayTimeout, "operation timed out")
	default:
		kind := pipeline.KindOf(err)
		s.log.Error().Err(err).Str("kind", kind.String()).Msg("operation failed")
		s.respondError(w, kind.HTTPStatus(), err.Error())
	}
}

func (s *server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}
