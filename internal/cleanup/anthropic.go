package cleanup

import (
	"context"
	"net/http"
	"strings"

	"murmur/internal/provider"
)

const anthropicVersion = "2023-06-01"

// Anthropic вызывает Messages API.
type Anthropic struct {
	endpoint string
	hc       *http.Client
}

// NewAnthropic создаёт адаптер для endpoint вида https://api.anthropic.com/v1/messages.
func NewAnthropic(endpoint string, hc *http.Client) *Anthropic {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Anthropic{endpoint: endpoint, hc: hc}
}

func (a *Anthropic) Kind() provider.Kind { return provider.Claude }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *Anthropic) Clean(ctx context.Context, text, apiKey, model, systemPrompt string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Outcome{Text: text, Provider: provider.Claude}, nil
	}

	body := anthropicRequest{
		Model:     model,
		MaxTokens: maxOutputTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: userMessage(systemPrompt, text)},
		},
	}
	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := postJSON(ctx, a.hc, provider.Claude, a.endpoint, headers, body, &resp); err != nil {
		return Outcome{}, err
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == nil {
		return Outcome{}, ErrParse
	}

	return Outcome{
		Text:         strings.TrimSpace(*resp.Content[0].Text),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Provider:     provider.Claude,
	}, nil
}
