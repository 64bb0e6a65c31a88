package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errLaunch = errors.New("collaborator failed")

// In-package fakes for exercising the rule table without touching the
// OS or the network.

type fakeSpeaker struct {
	mu         sync.Mutex
	said       []string
	interrupts int
	// holdCompletions leaves SayThen callbacks unrun, simulating
	// interrupted speech.
	holdCompletions bool
}

func (f *fakeSpeaker) Say(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.said = append(f.said, text)
}

func (f *fakeSpeaker) SayThen(text string, onComplete func()) {
	f.mu.Lock()
	f.said = append(f.said, text)
	hold := f.holdCompletions
	f.mu.Unlock()
	if !hold && onComplete != nil {
		onComplete()
	}
}

func (f *fakeSpeaker) Interrupt() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interrupts++
}

func (f *fakeSpeaker) spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.said))
	copy(out, f.said)
	return out
}

type fakeBrain struct {
	mu        sync.Mutex
	questions []string
	reply     string
}

func (f *fakeBrain) Answer(_ context.Context, q string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions = append(f.questions, q)
	return f.reply
}

func (f *fakeBrain) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.questions)
}

type fakeSystem struct {
	mu      sync.Mutex
	actions []string
	err     error
}

func (f *fakeSystem) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, name)
	return f.err
}

func (f *fakeSystem) Lock() error     { return f.record("lock") }
func (f *fakeSystem) PowerOff() error { return f.record("poweroff") }
func (f *fakeSystem) Reboot() error   { return f.record("reboot") }
func (f *fakeSystem) Sleep() error    { return f.record("sleep") }

func (f *fakeSystem) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.actions))
	copy(out, f.actions)
	return out
}

type fakeMedia struct {
	mu   sync.Mutex
	keys []MediaKey
	err  error
}

func (f *fakeMedia) Key(kind MediaKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, kind)
	return f.err
}

func (f *fakeMedia) pressed() []MediaKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]MediaKey, len(f.keys))
	copy(out, f.keys)
	return out
}

type fakeLauncher struct {
	mu       sync.Mutex
	launched []string
	err      error
}

func (f *fakeLauncher) Launch(nameOrURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launched = append(f.launched, nameOrURL)
	return f.err
}

func (f *fakeLauncher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.launched))
	copy(out, f.launched)
	return out
}

// fakeTimers captures scheduled callbacks so tests fire them on
// demand instead of waiting.
type fakeTimers struct {
	mu        sync.Mutex
	scheduled []scheduledTimer
}

type scheduledTimer struct {
	after time.Duration
	fn    func()
}

func (f *fakeTimers) Schedule(d time.Duration, announce func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, scheduledTimer{d, announce})
}

func (f *fakeTimers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scheduled)
}

func (f *fakeTimers) fire(i int) {
	f.mu.Lock()
	timer := f.scheduled[i]
	f.mu.Unlock()
	timer.fn()
}
