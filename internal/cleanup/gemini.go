package cleanup

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"murmur/internal/provider"
)

// Gemini вызывает generateContent.
type Gemini struct {
	base string
	hc   *http.Client
}

// NewGemini создаёт адаптер. base - адрес без модели, например .../v1beta/models.
func NewGemini(base string, hc *http.Client) *Gemini {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Gemini{base: strings.TrimRight(base, "/"), hc: hc}
}

func (g *Gemini) Kind() provider.Kind { return provider.Gemini }

type geminiPart struct {
	Text *string `json:"text,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (g *Gemini) Clean(ctx context.Context, text, apiKey, model, systemPrompt string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Outcome{Text: text, Provider: provider.Gemini}, nil
	}

	msg := userMessage(systemPrompt, text)
	var body geminiRequest
	body.Contents = []geminiContent{{Parts: []geminiPart{{Text: &msg}}}}
	body.GenerationConfig.Temperature = temperature
	body.GenerationConfig.MaxOutputTokens = maxOutputTokens

	endpoint := g.base + "/" + model + ":generateContent?key=" + url.QueryEscape(apiKey)

	var resp geminiResponse
	if err := postJSON(ctx, g.hc, provider.Gemini, endpoint, nil, body, &resp); err != nil {
		return Outcome{}, err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 || resp.Candidates[0].Content.Parts[0].Text == nil {
		return Outcome{}, ErrParse
	}

	return Outcome{
		Text:         strings.TrimSpace(*resp.Candidates[0].Content.Parts[0].Text),
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		Provider:     provider.Gemini,
	}, nil
}
