package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// OllamaClient implements Generator and Embedder against an Ollama-style
// HTTP API.
type OllamaClient struct {
	baseURL    string
	genModel   string
	embedModel string
	client     *http.Client
	dims       atomic.Int64 // learned from the first embedding response
}

// NewOllamaClient creates a client for the given endpoint. baseURL defaults
// to "http://localhost:11434"; embedModel defaults to "nomic-embed-text".
func NewOllamaClient(baseURL, genModel, embedModel string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if embedModel == "" {
		embedModel = "nomic-embed-text"
	}
	return &OllamaClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		client:     &http.Client{Timeout: 120 * time.Second},
	}
}

// Name returns the provider name.
func (o *OllamaClient) Name() string { return "ollama" }

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate sends a non-streaming completion request.
func (o *OllamaClient) Generate(ctx context.Context, prompt, system string) (string, error) {
	body := ollamaGenerateRequest{
		Model:  o.genModel,
		Prompt: prompt,
		System: system,
		Stream: false,
	}

	var result ollamaGenerateResponse
	if err := o.post(ctx, "/api/generate", body, &result); err != nil {
		return "", err
	}
	return result.Response, nil
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed computes the embedding vector for text.
func (o *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	body := ollamaEmbedRequest{Model: o.embedModel, Prompt: text}

	var result ollamaEmbedResponse
	if err := o.post(ctx, "/api/embeddings", body, &result); err != nil {
		return nil, err
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding from %s", o.embedModel)
	}
	o.dims.Store(int64(len(result.Embedding)))
	return result.Embedding, nil
}

// Dimensions returns the embedding length seen so far, or 0 before the
// first successful Embed call.
func (o *OllamaClient) Dimensions() int {
	return int(o.dims.Load())
}

func (o *OllamaClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
