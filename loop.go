package main

import (
	"context"
	"errors"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/kidlatpogi/L.I.N.N.Y/audio"
	"github.com/kidlatpogi/L.I.N.N.Y/chime"
	"github.com/kidlatpogi/L.I.N.N.Y/dispatch"
	"github.com/kidlatpogi/L.I.N.N.Y/log"
	"github.com/kidlatpogi/L.I.N.N.Y/recognizer"
	"github.com/kidlatpogi/L.I.N.N.Y/voice"
)

const (
	captureTimeout = 6 * time.Second
	phraseLimit    = 12 * time.Second
	suspendPoll    = 100 * time.Millisecond
	errorBackoff   = 500 * time.Millisecond

	// Housekeeping cadence, in loop cycles. The recognizer path
	// allocates a fresh FLAC buffer per utterance; returning memory to
	// the OS periodically keeps an always-on process lean.
	housekeepCycles = 50
)

// Coordinator owns the listen/speak mutual exclusion loop: capture one
// utterance, recognize it, hand it to the dispatcher, repeat forever.
// Capture is suspended whenever the assistant is speaking or muted.
type Coordinator struct {
	listener   *audio.Listener
	rec        recognizer.Recognizer
	speaker    *voice.Speaker
	dispatcher *dispatch.Dispatcher
	mute       *atomic.Bool
	lang       string

	utterances atomic.Int64
}

func NewCoordinator(listener *audio.Listener, rec recognizer.Recognizer, speaker *voice.Speaker, dispatcher *dispatch.Dispatcher, mute *atomic.Bool, lang string) *Coordinator {
	return &Coordinator{
		listener:   listener,
		rec:        rec,
		speaker:    speaker,
		dispatcher: dispatcher,
		mute:       mute,
		lang:       lang,
	}
}

// Utterances reports how many utterances were recognized this session.
func (c *Coordinator) Utterances() int {
	return int(c.utterances.Load())
}

func (c *Coordinator) suspended() bool {
	return c.speaker.Speaking() || c.mute.Load()
}

// Run drives the loop until ctx is canceled. No error inside an
// iteration ever stops the loop; panics are caught at the iteration
// boundary and announced with an error chime.
func (c *Coordinator) Run(ctx context.Context) {
	cycles := 0
	for ctx.Err() == nil {
		c.safeIterate(ctx)
		cycles++
		if cycles%housekeepCycles == 0 {
			debug.FreeOSMemory()
		}
	}
}

func (c *Coordinator) safeIterate(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("loop panic: %v\n%s", r, debug.Stack())
			chime.Error()
			sleepCtx(ctx, errorBackoff)
		}
	}()
	c.iterate(ctx)
}

func (c *Coordinator) iterate(ctx context.Context) {
	// Never capture while speaking or muted; self-heard speech would
	// loop back in as a command.
	for c.suspended() {
		if !sleepCtx(ctx, suspendPoll) {
			return
		}
	}

	pcm, err := c.listener.Capture(ctx, captureTimeout, phraseLimit)
	switch {
	case err == nil:
	case errors.Is(err, audio.ErrTimeout), errors.Is(err, context.Canceled):
		return
	default:
		log.Errorf("capture: %v", err)
		sleepCtx(ctx, errorBackoff)
		return
	}

	// Speech or a mute may have started mid-capture; the clip would
	// then contain our own voice. Discard it before paying for a
	// recognition call.
	if c.suspended() {
		log.Info("discarding capture that overlapped speech or mute")
		return
	}

	result, err := c.rec.Recognize(ctx, pcm, c.lang)
	switch {
	case err == nil:
	case errors.Is(err, recognizer.ErrUnclear), errors.Is(err, recognizer.ErrNoSpeech):
		return
	case errors.Is(err, context.Canceled):
		return
	default:
		log.Errorf("recognition: %v", err)
		sleepCtx(ctx, errorBackoff)
		return
	}

	c.utterances.Add(1)
	log.Utterance(result.Text)
	if c.dispatcher.Awoken(result.Text) {
		chime.Wake()
	}
	c.dispatcher.Dispatch(dispatch.UtteranceEvent{
		Text: result.Text,
		When: time.Now(),
		Lang: c.lang,
	})
}

// sleepCtx sleeps for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
