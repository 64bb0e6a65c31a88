package brain

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// chatProvider covers every OpenAI-compatible endpoint. Groq and
// Perplexity both speak this protocol, only the base URL and model
// differ.
type chatProvider struct {
	name   string
	model  string
	client openai.Client
	params func(*openai.ChatCompletionNewParams)
}

func newGroq(key string) *chatProvider {
	return &chatProvider{
		name:  "groq",
		model: "llama-3.3-70b-versatile",
		client: openai.NewClient(
			option.WithAPIKey(key),
			option.WithBaseURL("https://api.groq.com/openai/v1"),
		),
		params: func(p *openai.ChatCompletionNewParams) {
			p.Temperature = openai.Float(0.7)
			p.MaxTokens = openai.Int(500)
		},
	}
}

func newPerplexity(key string) *chatProvider {
	return &chatProvider{
		name:  "perplexity",
		model: "sonar",
		client: openai.NewClient(
			option.WithAPIKey(key),
			option.WithBaseURL("https://api.perplexity.ai"),
		),
	}
}

func (p *chatProvider) Name() string { return p.name }

func (p *chatProvider) Ask(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: p.model,
	}
	if p.params != nil {
		p.params(&params)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
