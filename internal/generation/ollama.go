// Package generation wraps the generative model used for answer synthesis.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaGenerator produces answers through a local Ollama server, bound
// to one model and one sampling temperature for the process lifetime.
type OllamaGenerator struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

type OllamaConfig struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

func NewOllamaGenerator(cfg OllamaConfig) *OllamaGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	t := cfg.Timeout
	if t == 0 {
		t = 120 * time.Second
	}
	return &OllamaGenerator{
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: t},
	}
}

func (g *OllamaGenerator) Name() string { return "ollama/" + g.model }

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	type reqBody struct {
		Model   string         `json:"model"`
		Prompt  string         `json:"prompt"`
		Stream  bool           `json:"stream"`
		Options map[string]any `json:"options,omitempty"`
	}
	body := reqBody{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  false,
		Options: map[string]any{"temperature": g.temperature},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	var out struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return strings.TrimSpace(out.Response), nil
}
