package brain

import (
	"context"
	"sync"
)

// fakeProvider answers from a canned script for tests.
type fakeProvider struct {
	name  string
	reply string
	err   error

	mu      sync.Mutex
	prompts []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Ask(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
