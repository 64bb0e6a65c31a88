package voice

import (
	"context"
	"sync"
	"time"
)

// FakeEngine stands in for real synthesis in tests. Each Speak call
// either finishes after Delay or blocks until released, and every
// spoken text is recorded.
type FakeEngine struct {
	Delay time.Duration
	Err   error // returned by every Speak call when set

	mu      sync.Mutex
	spoken  []string
	release chan struct{}
}

// Hold makes subsequent Speak calls block until Release is called,
// letting a test observe the speaking state mid-utterance.
func (f *FakeEngine) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.release = make(chan struct{})
}

func (f *FakeEngine) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.release != nil {
		close(f.release)
		f.release = nil
	}
}

func (f *FakeEngine) Spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.spoken))
	copy(out, f.spoken)
	return out
}

func (f *FakeEngine) Name() string { return "fake" }

func (f *FakeEngine) Speak(ctx context.Context, text string) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	release := f.release
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	} else if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.Err
}
