package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// generator is the slice of the inference client the local provider
// needs.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LocalProvider translates with the local model runtime. It is the
// last resort in the fallback chain: slower than the hosted providers
// but available offline.
type LocalProvider struct {
	gen generator
}

func NewLocalProvider(gen generator) *LocalProvider {
	return &LocalProvider{gen: gen}
}

func (p *LocalProvider) Name() types.Provider { return types.ProviderLocal }

func (p *LocalProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. Respond with the translation only, no explanation.\n\n%s",
		languageName(sourceLang), languageName(targetLang), text)
	out, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("local translation: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("empty translation")
	}
	return out, nil
}

// languageName maps a code back to a readable name for the prompt,
// falling back to the code itself.
func languageName(code string) string {
	for name, c := range languageCodes {
		if c == code {
			return name
		}
	}
	return code
}
