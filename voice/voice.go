// Package voice is the speech output channel. A Speaker serializes all
// synthesis and playback on one worker goroutine and is the sole writer
// of the process-wide speaking flag; everything else only reads it.
package voice

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kidlatpogi/L.I.N.N.Y/log"
)

// Engine synthesizes and plays one utterance, blocking until playback
// finishes or ctx is canceled.
type Engine interface {
	Name() string
	Speak(ctx context.Context, text string) error
}

type request struct {
	text       string
	onComplete func()
}

// Speaker queues utterances onto a dedicated worker. Only one utterance
// is ever in flight; callers are never blocked by Say.
type Speaker struct {
	engine Engine

	queue    chan request
	speaking atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc // cancels the in-flight utterance

	closeOnce sync.Once
	done      chan struct{}
}

const queueDepth = 8

func NewSpeaker(engine Engine) *Speaker {
	s := &Speaker{
		engine: engine,
		queue:  make(chan request, queueDepth),
		done:   make(chan struct{}),
	}
	go s.worker()
	return s
}

// Say enqueues text for synthesis and returns immediately. When the
// queue is full the utterance is dropped rather than blocking the
// caller; the dispatcher never legitimately gets that far ahead of
// playback.
func (s *Speaker) Say(text string) {
	s.SayThen(text, nil)
}

// SayThen is Say with a completion callback. The callback runs only
// when the utterance played to its natural end; an interrupted or
// failed utterance must not be mistaken for a finished one by
// dependent logic such as delayed unmute.
func (s *Speaker) SayThen(text string, onComplete func()) {
	if text == "" {
		return
	}
	select {
	case s.queue <- request{text: text, onComplete: onComplete}:
	default:
		log.Warnf("speech queue full, dropping: %q", text)
	}
}

// Speaking reports whether audio is being synthesized or played right
// now. The coordinator polls this to suspend capture.
func (s *Speaker) Speaking() bool {
	return s.speaking.Load()
}

// Interrupt stops the current utterance immediately and clears anything
// queued behind it. Calling it when nothing is speaking is a no-op.
func (s *Speaker) Interrupt() {
	// Drain queued utterances first, while the worker is still stuck
	// on the current one; then cut the current one short.
	for {
		select {
		case <-s.queue:
			continue
		default:
		}
		break
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
}

// Close interrupts playback and stops the worker.
func (s *Speaker) Close() {
	s.closeOnce.Do(func() {
		s.Interrupt()
		close(s.done)
	})
}

func (s *Speaker) worker() {
	for {
		select {
		case <-s.done:
			return
		case req := <-s.queue:
			s.speakOne(req)
		}
	}
}

func (s *Speaker) speakOne(req request) {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.speaking.Store(true)
	defer func() {
		// Guaranteed release, even when the engine fails.
		s.speaking.Store(false)
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	log.Spoken(req.text)
	err := s.engine.Speak(ctx, req.text)
	if err != nil && ctx.Err() == nil {
		log.Errorf("tts error: %v", err)
	}

	if err == nil && ctx.Err() == nil && req.onComplete != nil {
		req.onComplete()
	}
}
