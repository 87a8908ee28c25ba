package translate

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/toricodesthings/pdf-summary-service/internal/cache"
	"github.com/toricodesthings/pdf-summary-service/internal/pipeline"
	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// Provider is one translation backend.
type Provider interface {
	Name() types.Provider
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Translator runs the provider chain. With the auto provider it tries
// each in order and returns the first success; a named provider is
// tried alone. Each provider has its own rate limiter so a throttled
// backend does not slow the others.
type Translator struct {
	providers []Provider
	limiters  map[types.Provider]*rate.Limiter
	cache     *cache.Cache
	log       zerolog.Logger
}

func NewTranslator(providers []Provider, c *cache.Cache, every rate.Limit, burst int, log zerolog.Logger) *Translator {
	if burst <= 0 {
		burst = 1
	}
	limiters := make(map[types.Provider]*rate.Limiter, len(providers))
	for _, p := range providers {
		limiters[p.Name()] = rate.NewLimiter(every, burst)
	}
	return &Translator{
		providers: providers,
		limiters:  limiters,
		cache:     c,
		log:       log.With().Str("component", "translator").Logger(),
	}
}

// Request is one translation job. UseCache only skips the read path;
// successful translations are always stored.
type Request struct {
	Text           string
	SourceLanguage string // name or code; empty means English
	TargetLanguage string // name or code
	Provider       types.Provider
	UseCache       bool
}

// Translate resolves languages, consults the cache, and walks the
// provider chain. Provider failures are logged and skipped; only the
// whole chain failing is an error.
func (t *Translator) Translate(ctx context.Context, req Request) (*types.TranslationResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, pipeline.InvalidParameters("no text to translate")
	}
	if req.SourceLanguage == "" {
		req.SourceLanguage = "en"
	}
	if req.Provider == "" {
		req.Provider = types.ProviderAuto
	}

	source, err := ResolveLanguage(req.SourceLanguage)
	if err != nil {
		return nil, pipeline.InvalidParameters("source language: %v", err)
	}
	target, err := ResolveLanguage(req.TargetLanguage)
	if err != nil {
		return nil, pipeline.InvalidParameters("target language: %v", err)
	}
	if source == target {
		return &types.TranslationResult{
			TargetLanguage: target,
			Provider:       types.ProviderNone,
			TranslatedText: req.Text,
		}, nil
	}

	key := cache.Fingerprint("translate", req.Text, source, target, req.Provider)
	if req.UseCache {
		if v, ok := t.cache.Get(key); ok {
			res := v.(*types.TranslationResult)
			out := *res
			out.Cached = true
			return &out, nil
		}
	}

	chain := t.chainFor(req.Provider)
	if len(chain) == 0 {
		return nil, pipeline.InvalidParameters("provider %q not configured", req.Provider)
	}

	var lastErr error
	for _, p := range chain {
		if err := t.limiters[p.Name()].Wait(ctx); err != nil {
			return nil, err
		}
		out, err := p.Translate(ctx, req.Text, source, target)
		if err != nil {
			lastErr = err
			t.log.Warn().
				Err(err).
				Str("provider", string(p.Name())).
				Str("target", target).
				Msg("translation provider failed, trying next")
			continue
		}
		res := &types.TranslationResult{
			TargetLanguage: target,
			Provider:       p.Name(),
			TranslatedText: Postprocess(out),
		}
		t.cache.Put(key, res)
		return res, nil
	}
	return nil, pipeline.TranslationUnavailable("all translation providers failed", lastErr)
}

func (t *Translator) chainFor(p types.Provider) []Provider {
	if p == types.ProviderAuto {
		return t.providers
	}
	for _, prov := range t.providers {
		if prov.Name() == p {
			return []Provider{prov}
		}
	}
	return nil
}

var (
	spaceBeforePunct = regexp.MustCompile(`\s+([.,!?;:])`)
	repeatedSpaces   = regexp.MustCompile(`[ \t]{2,}`)
)

// Postprocess tidies provider output: collapsed whitespace and no
// stray space before punctuation, which machine translation to Indic
// scripts commonly introduces.
func Postprocess(text string) string {
	text = repeatedSpaces.ReplaceAllString(text, " ")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
