package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// LibreProvider calls a LibreTranslate-compatible instance.
type LibreProvider struct {
	endpoint string
	http     *http.Client
}

func NewLibreProvider(endpoint string, timeout time.Duration) *LibreProvider {
	if endpoint == "" {
		endpoint = "https://libretranslate.de/translate"
	}
	return &LibreProvider{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

func (p *LibreProvider) Name() types.Provider { return types.ProviderLibre }

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

func (p *LibreProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	body, err := json.Marshal(libreRequest{Q: text, Source: sourceLang, Target: targetLang, Format: "text"})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call libretranslate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("libretranslate returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out libreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("libretranslate error: %s", out.Error)
	}
	if strings.TrimSpace(out.TranslatedText) == "" {
		return "", fmt.Errorf("empty translation")
	}
	return strings.TrimSpace(out.TranslatedText), nil
}
