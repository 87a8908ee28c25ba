package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "Summarize")

		json.NewEncoder(w).Encode(generateResponse{Response: "  generated text \n", Done: true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-model", 5*time.Second, zerolog.Nop())
	out, err := c.Generate(context.Background(), "Summarize this.")
	require.NoError(t, err)
	assert.Equal(t, "generated text", out, "output must be trimmed")
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-model", 5*time.Second, zerolog.Nop())
	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestGenerateUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "test-model", 500*time.Millisecond, zerolog.Nop())
	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
}

func TestGenerateContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, "test-model", 5*time.Second, zerolog.Nop())
	_, err := c.Generate(ctx, "prompt")
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", time.Second, zerolog.Nop())
	assert.NoError(t, c.Ping(context.Background()))

	bad := NewClient("http://127.0.0.1:1", "m", 200*time.Millisecond, zerolog.Nop())
	assert.Error(t, bad.Ping(context.Background()))
}
