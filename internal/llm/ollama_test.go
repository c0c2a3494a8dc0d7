package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Equal(t, "classify: where is my order", req.Prompt)
		assert.Equal(t, "you classify intents", req.System)
		assert.False(t, req.Stream)

		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "intent: delivery_inquiry\nconfidence: 0.9", Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3", "")
	out, err := c.Generate(context.Background(), "classify: where is my order", "you classify intents")
	require.NoError(t, err)
	assert.Equal(t, "intent: delivery_inquiry\nconfidence: 0.9", out)
}

func TestOllamaGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "missing-model", "")
	_, err := c.Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "aspirin 500mg", req.Prompt)

		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3", "")
	require.Zero(t, c.Dimensions())

	vec, err := c.Embed(context.Background(), "aspirin 500mg")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 3, c.Dimensions())
}

func TestOllamaEmbedEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3", "custom-embed")
	_, err := c.Embed(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom-embed")
	assert.Zero(t, c.Dimensions())
}

func TestOllamaContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewOllamaClient(srv.URL, "llama3", "")
	_, err := c.Generate(ctx, "hello", "")
	require.Error(t, err)
}

func TestOllamaDefaults(t *testing.T) {
	c := NewOllamaClient("", "llama3", "")
	assert.Equal(t, "http://localhost:11434", c.baseURL)
	assert.Equal(t, "nomic-embed-text", c.embedModel)
	assert.Equal(t, "ollama", c.Name())

	c = NewOllamaClient("http://host:1234/", "llama3", "")
	assert.Equal(t, "http://host:1234", c.baseURL)
}

func TestOllamaMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3", "")
	_, err := c.Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}
