package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/toricodesthings/pdf-summary-service/internal/types"
)

// GoogleProvider calls the public translate endpoint. Responses are
// nested JSON arrays; the translated segments sit in result[0][i][0].
type GoogleProvider struct {
	endpoint string
	http     *http.Client
}

func NewGoogleProvider(endpoint string, timeout time.Duration) *GoogleProvider {
	if endpoint == "" {
		endpoint = "https://translate.googleapis.com/translate_a/single"
	}
	return &GoogleProvider{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

func (p *GoogleProvider) Name() types.Provider { return types.ProviderGoogle }

func (p *GoogleProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", sourceLang)
	q.Set("tl", targetLang)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call google translate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("google translate returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	// The body is [[["translated","original",...],...],...].
	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty response")
	}
	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("decode segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(seg[0], &part); err != nil {
			continue
		}
		b.WriteString(part)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("no translation segments in response")
	}
	return out, nil
}
