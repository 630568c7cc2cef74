package cleanup

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"murmur/internal/provider"
)

// OpenAI вызывает chat completions через go-openai.
type OpenAI struct {
	baseURL string
	hc      *http.Client
}

// NewOpenAI создаёт адаптер. baseURL - адрес вида https://api.openai.com/v1,
// подходит и для совместимых серверов.
func NewOpenAI(baseURL string, hc *http.Client) *OpenAI {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &OpenAI{baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (o *OpenAI) Kind() provider.Kind { return provider.OpenAI }

func (o *OpenAI) Clean(ctx context.Context, text, apiKey, model, systemPrompt string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Outcome{Text: text, Provider: provider.OpenAI}, nil
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = o.baseURL
	cfg.HTTPClient = o.hc
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Input:\n" + text},
		},
		MaxTokens:   maxOutputTokens,
		Temperature: temperature,
	})
	if err != nil {
		return Outcome{}, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return Outcome{}, ErrParse
	}

	return Outcome{
		Text:         strings.TrimSpace(resp.Choices[0].Message.Content),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Provider:     provider.OpenAI,
	}, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: provider.OpenAI, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{Provider: provider.OpenAI, StatusCode: reqErr.HTTPStatusCode, Body: string(reqErr.Body)}
	}
	return err
}
