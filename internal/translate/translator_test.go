package translate

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/toricodesthings/pdf-summary-service/internal/cache"
	"github.com/toricodesthings/pdf-summary-service/internal/pipeline"
	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

type fakeProvider struct {
	name  types.Provider
	out   string
	err   error
	calls atomic.Int32
}

func (p *fakeProvider) Name() types.Provider { return p.name }

func (p *fakeProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	p.calls.Add(1)
	if p.err != nil {
		return "", p.err
	}
	return p.out, nil
}

func newTranslator(t *testing.T, providers ...Provider) *Translator {
	t.Helper()
	c, err := cache.New(32, zerolog.Nop())
	require.NoError(t, err)
	return NewTranslator(providers, c, rate.Inf, 1, zerolog.Nop())
}

func TestTranslateFirstProviderWins(t *testing.T) {
	google := &fakeProvider{name: types.ProviderGoogle, out: "अनुवादित पाठ"}
	libre := &fakeProvider{name: types.ProviderLibre, out: "other"}
	tr := newTranslator(t, google, libre)

	res, err := tr.Translate(context.Background(), Request{Text: "summary text", TargetLanguage: "hindi"})
	require.NoError(t, err)

	assert.Equal(t, types.ProviderGoogle, res.Provider)
	assert.Equal(t, "अनुवादित पाठ", res.TranslatedText)
	assert.Equal(t, "hi", res.TargetLanguage)
	assert.Zero(t, libre.calls.Load())
}

func TestTranslateFallbackChain(t *testing.T) {
	google := &fakeProvider{name: types.ProviderGoogle, err: fmt.Errorf("blocked")}
	libre := &fakeProvider{name: types.ProviderLibre, err: fmt.Errorf("down")}
	local := &fakeProvider{name: types.ProviderLocal, out: "स्थानीय अनुवाद"}
	tr := newTranslator(t, google, libre, local)

	res, err := tr.Translate(context.Background(), Request{Text: "summary text", TargetLanguage: "marathi"})
	require.NoError(t, err)

	assert.Equal(t, types.ProviderLocal, res.Provider, "result must record the provider that served it")
	assert.Equal(t, "mr", res.TargetLanguage)
	assert.Equal(t, int32(1), google.calls.Load())
	assert.Equal(t, int32(1), libre.calls.Load())
}

func TestTranslateAllProvidersFail(t *testing.T) {
	google := &fakeProvider{name: types.ProviderGoogle, err: fmt.Errorf("blocked")}
	local := &fakeProvider{name: types.ProviderLocal, err: fmt.Errorf("no model")}
	tr := newTranslator(t, google, local)

	_, err := tr.Translate(context.Background(), Request{Text: "text", TargetLanguage: "hi"})
	require.Error(t, err)
	assert.Equal(t, pipeline.KindTranslationUnavailable, pipeline.KindOf(err))
}

func TestTranslateNamedProviderOnly(t *testing.T) {
	google := &fakeProvider{name: types.ProviderGoogle, out: "google out"}
	libre := &fakeProvider{name: types.ProviderLibre, err: fmt.Errorf("down")}
	tr := newTranslator(t, google, libre)

	_, err := tr.Translate(context.Background(), Request{
		Text: "text", TargetLanguage: "hi", Provider: types.ProviderLibre,
	})
	require.Error(t, err, "a named provider must not fall back")
	assert.Zero(t, google.calls.Load())
}

func TestTranslateCached(t *testing.T) {
	google := &fakeProvider{name: types.ProviderGoogle, out: "cached output"}
	tr := newTranslator(t, google)

	req := Request{Text: "repeatable", TargetLanguage: "hindi", UseCache: true}
	first, err := tr.Translate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := tr.Translate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.TranslatedText, second.TranslatedText)
	assert.Equal(t, int32(1), google.calls.Load())
}

func TestTranslateCacheBypass(t *testing.T) {
	google := &fakeProvider{name: types.ProviderGoogle, out: "ताज़ा अनुवाद"}
	tr := newTranslator(t, google)

	req := Request{Text: "repeatable", TargetLanguage: "hindi"}
	_, err := tr.Translate(context.Background(), req)
	require.NoError(t, err)

	second, err := tr.Translate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.Equal(t, int32(2), google.calls.Load(), "disabled cache must hit the provider again")
}

func TestTranslateSameLanguagePassthrough(t *testing.T) {
	google := &fakeProvider{name: types.ProviderGoogle, out: "unused"}
	tr := newTranslator(t, google)

	res, err := tr.Translate(context.Background(), Request{Text: "already english", TargetLanguage: "english"})
	require.NoError(t, err)
	assert.Equal(t, "already english", res.TranslatedText)
	assert.Equal(t, types.ProviderNone, res.Provider, "no backend ran, so none may be credited")
	assert.Zero(t, google.calls.Load())
}

func TestTranslateInvalidInput(t *testing.T) {
	tr := newTranslator(t, &fakeProvider{name: types.ProviderGoogle, out: "x"})

	_, err := tr.Translate(context.Background(), Request{Text: " ", TargetLanguage: "hi"})
	assert.Equal(t, pipeline.KindInvalidParameters, pipeline.KindOf(err))

	_, err = tr.Translate(context.Background(), Request{Text: "text", TargetLanguage: "klingon"})
	assert.Equal(t, pipeline.KindInvalidParameters, pipeline.KindOf(err))

	_, err = tr.Translate(context.Background(), Request{Text: "text", TargetLanguage: "hi", Provider: types.ProviderLibre})
	assert.Equal(t, pipeline.KindInvalidParameters, pipeline.KindOf(err), "unconfigured provider")
}

func TestResolveLanguage(t *testing.T) {
	cases := map[string]string{
		"hindi":   "hi",
		"Marathi": "mr",
		"HINDI":   "hi",
		"hi":      "hi",
		"fr":      "fr",
	}
	for in, want := range cases {
		got, err := ResolveLanguage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ResolveLanguage("")
	assert.Error(t, err)
	_, err = ResolveLanguage("klingon")
	assert.Error(t, err)
}

func TestPostprocess(t *testing.T) {
	assert.Equal(t, "नमस्ते, दुनिया!", Postprocess("  नमस्ते ,  दुनिया !  "))
	assert.Equal(t, "a b.", Postprocess("a   b ."))
	assert.Equal(t, "", Postprocess("   "))
}
