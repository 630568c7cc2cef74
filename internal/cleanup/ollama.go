package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"murmur/internal/provider"
)

// Ollama вызывает локальный сервер Ollama. Ключ не нужен.
type Ollama struct {
	baseURL string
	hc      *http.Client
}

// NewOllama создаёт адаптер для baseURL вида http://localhost:11434.
func NewOllama(baseURL string, hc *http.Client) *Ollama {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Ollama{baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (o *Ollama) Kind() provider.Kind { return provider.Ollama }

// generateRequest запрос к Ollama API.
type generateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Stream  bool   `json:"stream"`
	Options struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict"`
	} `json:"options"`
}

// generateResponse ответ от Ollama API.
type generateResponse struct {
	Response        *string `json:"response"`
	Error           string  `json:"error,omitempty"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

func (o *Ollama) Clean(ctx context.Context, text, _, model, systemPrompt string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Outcome{Text: text, Provider: provider.Ollama}, nil
	}

	req := generateRequest{
		Model:  model,
		Prompt: userMessage(systemPrompt, text),
		Stream: false,
	}
	req.Options.Temperature = temperature
	req.Options.NumPredict = maxOutputTokens

	var resp generateResponse
	if err := postJSON(ctx, o.hc, provider.Ollama, o.baseURL+"/api/generate", nil, req, &resp); err != nil {
		return Outcome{}, err
	}
	if resp.Error != "" {
		return Outcome{}, fmt.Errorf("ollama: %s", resp.Error)
	}
	if resp.Response == nil {
		return Outcome{}, ErrParse
	}

	return Outcome{
		Text:         strings.TrimSpace(*resp.Response),
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
		Provider:     provider.Ollama,
	}, nil
}

// Models возвращает список моделей, установленных на сервере.
func (o *Ollama) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := o.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Provider: provider.Ollama, StatusCode: resp.StatusCode}
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	models := make([]string, len(result.Models))
	for i, m := range result.Models {
		models[i] = m.Name
	}
	return models, nil
}
