package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaClient embeds text through a local Ollama server.
type OllamaClient struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
}

type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &OllamaClient{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: t},
	}
}

func (c *OllamaClient) Name() string { return "ollama/" + c.model }

// Dimension is set lazily on the first embed; 0 until then.
func (c *OllamaClient) Dimension() int { return c.dimension }

func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float64, error) {
	type reqBody struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	data, _ := json.Marshal(reqBody{Model: c.model, Prompt: text})
	url := fmt.Sprintf("%s/api/embeddings", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama embeddings failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	if c.dimension == 0 {
		c.dimension = len(out.Embedding)
	}
	return out.Embedding, nil
}

// Healthy verifies the server is reachable and the configured model is
// present. A failure here is fatal before any indexing begins.
func (c *OllamaClient) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not reachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	var out struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	for _, m := range out.Models {
		if m.Name == c.model || strings.HasPrefix(m.Name, c.model+":") {
			return nil
		}
	}
	return fmt.Errorf("model %q not found; run: ollama pull %s", c.model, c.model)
}
