// Package chime plays short synthesized cues: a wake acknowledgment
// tick, a ready tone at startup, and a low double-beep on errors.
package chime

var disabled bool

func Disable() { disabled = true }

const (
	sampleRate = 44100

	// Wake tick: high pitch, short
	wakeFreq   = 1200
	wakeVolume = 0.5
	wakeDecay  = 60

	// Ready tone: medium pitch, slightly longer
	readyFreq   = 900
	readyVolume = 0.5
	readyDecay  = 40

	// Error: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)
