// Package recognizer converts one captured utterance of PCM audio into
// text via a remote speech recognition backend.
package recognizer

import (
	"context"
	"errors"
)

// ErrUnclear means the backend answered but could not make out any
// words. Callers treat it like silence: log, retry on the next loop.
var ErrUnclear = errors.New("could not understand audio")

// ErrNoSpeech means the backend classified the clip as containing no
// speech at all.
var ErrNoSpeech = errors.New("no speech in audio")

// Result carries the recognized text and the backend's confidence in
// it, where reported (0 when the backend gives none).
type Result struct {
	Text       string
	Confidence float64
}

// Recognizer performs one-shot recognition of a complete utterance.
// Implementations must be safe for sequential reuse; the coordinator
// issues at most one Recognize call at a time.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, pcm []byte, lang string) (Result, error)
}

// New returns the default recognizer chain: the free Google web-speech
// endpoint, which needs no credentials.
func New() Recognizer {
	return NewGoogle("")
}
