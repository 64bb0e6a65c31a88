package brain

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/genai"
)

type geminiProvider struct {
	key   string
	model string

	once    sync.Once
	client  *genai.Client
	initErr error
}

func newGemini(key string) *geminiProvider {
	return &geminiProvider{key: key, model: "gemini-1.5-flash"}
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) Ask(ctx context.Context, prompt string) (string, error) {
	p.once.Do(func() {
		p.client, p.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.key,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if p.initErr != nil {
		return "", p.initErr
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}
