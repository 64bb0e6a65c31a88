package recognizer

import (
	"context"
	"sync"
)

// Fake replays scripted recognition outcomes in order, then repeats the
// last one. A nil error with empty text behaves like ErrUnclear.
type Fake struct {
	mu      sync.Mutex
	script  []FakeTurn
	pos     int
	Heard   []string // languages requested, for assertions
	SeenPCM [][]byte
}

type FakeTurn struct {
	Text string
	Err  error
}

func NewFake(turns ...FakeTurn) *Fake {
	return &Fake{script: turns}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Recognize(_ context.Context, pcm []byte, lang string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Heard = append(f.Heard, lang)
	f.SeenPCM = append(f.SeenPCM, pcm)

	if len(f.script) == 0 {
		return Result{}, ErrUnclear
	}
	turn := f.script[f.pos]
	if f.pos < len(f.script)-1 {
		f.pos++
	}
	if turn.Err != nil {
		return Result{}, turn.Err
	}
	if turn.Text == "" {
		return Result{}, ErrUnclear
	}
	return Result{Text: turn.Text, Confidence: 0.9}, nil
}

// Calls reports how many Recognize calls were made.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.SeenPCM)
}
