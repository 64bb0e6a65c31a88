package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/kidlatpogi/L.I.N.N.Y/encoder"
)

// ErrTimeout means no speech started within the capture timeout. It is
// the normal outcome of most loop iterations and is never fatal.
var ErrTimeout = errors.New("no speech detected within timeout")

const (
	preRollDur     = 300 * time.Millisecond
	silenceTailDur = 700 * time.Millisecond

	// Ambient threshold tuning. The gain scales the measured room
	// noise; the floor keeps a dead-quiet room from producing a
	// threshold that every breath crosses.
	thresholdGain  = 1.75
	thresholdFloor = 0.008

	startDebounce = 3 // consecutive voiced chunks to open an utterance
)

// Listener owns one capture device and performs bounded single-utterance
// captures against it. It is not safe for concurrent Capture calls; the
// coordinator is the only caller.
type Listener struct {
	ctx    Context
	device *DeviceInfo
	config CaptureConfig

	mu        sync.Mutex
	capture   CaptureDevice
	threshold float64
	vp        *vadProcessor
}

func NewListener(ctx Context, device *DeviceInfo, config CaptureConfig) *Listener {
	l := &Listener{
		ctx:       ctx,
		device:    device,
		config:    config,
		threshold: thresholdFloor,
	}
	// VAD is a refinement; without it the energy gate stands alone.
	if vp, err := newVADProcessor(int(config.SampleRate)); err == nil {
		l.vp = vp
	}
	return l
}

// open lazily (re)opens the capture device. A device that failed is
// dropped so the next call gets a fresh one.
func (l *Listener) open() (CaptureDevice, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.capture != nil {
		return l.capture, nil
	}
	capture, err := l.ctx.NewCapture(l.device, l.config)
	if err != nil {
		return nil, fmt.Errorf("opening capture device: %w", err)
	}
	l.capture = capture
	return capture, nil
}

func (l *Listener) dropCapture() {
	l.mu.Lock()
	if l.capture != nil {
		l.capture.Close()
		l.capture = nil
	}
	l.mu.Unlock()
}

func (l *Listener) Close() {
	l.dropCapture()
}

func (l *Listener) DeviceName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.capture != nil {
		return l.capture.DeviceName()
	}
	if l.device != nil {
		return l.device.Name
	}
	return "system default"
}

func (l *Listener) Threshold() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.threshold
}

// Calibrate measures ambient room noise for the given duration and
// derives the energy threshold used by Capture. It runs once at
// startup and is never rerun; the threshold stays fixed for the
// session.
func (l *Listener) Calibrate(ctx context.Context, d time.Duration) error {
	capture, err := l.open()
	if err != nil {
		return err
	}

	chunks := make(chan []byte, 64)
	capture.SetCallback(func(data []byte, _ uint32) {
		pcm := make([]byte, len(data))
		copy(pcm, data)
		select {
		case chunks <- pcm:
		default:
		}
	})
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		l.dropCapture()
		return fmt.Errorf("starting calibration capture: %w", err)
	}
	defer func() {
		capture.Stop()
		capture.ClearCallback()
	}()

	want := int(d.Seconds() * float64(l.config.SampleRate))
	var got int
	var sum float64
	var n int
	for got < want {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk := <-chunks:
			got += len(chunk) / 2
			sum += RMS(chunk)
			n++
		}
	}

	threshold := thresholdFloor
	if n > 0 {
		if t := (sum / float64(n)) * thresholdGain; t > threshold {
			threshold = t
		}
	}

	l.mu.Lock()
	l.threshold = threshold
	l.mu.Unlock()
	return nil
}

// Capture performs one bounded utterance capture: it waits up to
// timeout for speech to start, then records until the speaker pauses
// for the silence tail or phraseLimit is reached. The returned PCM
// includes a short pre-roll so a clipped first syllable still reaches
// the recognizer. Timing is derived from sample counts, not wall
// clock, so replayed audio behaves identically to a live microphone.
func (l *Listener) Capture(ctx context.Context, timeout, phraseLimit time.Duration) ([]byte, error) {
	capture, err := l.open()
	if err != nil {
		return nil, err
	}

	if l.vp != nil {
		l.vp.Reset()
	}

	chunks := make(chan []byte, 64)
	capture.SetCallback(func(data []byte, _ uint32) {
		pcm := make([]byte, len(data))
		copy(pcm, data)
		select {
		case chunks <- pcm:
		default:
		}
	})
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		l.dropCapture()
		return nil, fmt.Errorf("starting capture: %w", err)
	}
	defer func() {
		capture.Stop()
		capture.ClearCallback()
	}()

	threshold := l.Threshold()
	rate := float64(l.config.SampleRate)
	timeoutSamples := int(timeout.Seconds() * rate)
	limitSamples := int(phraseLimit.Seconds() * rate)
	tailSamples := int(silenceTailDur.Seconds() * rate)
	preRollBytes := int(preRollDur.Seconds()*rate) * 2

	var (
		preRoll   []byte
		utterance []byte
		waited    int
		silence   int
		voicedRun int
		recording bool
	)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk := <-chunks:
			samples := len(chunk) / 2
			voiced := RMS(chunk) >= threshold
			if !voiced && l.vp != nil {
				voiced = l.vp.Voiced(chunk)
			} else if l.vp != nil {
				l.vp.Voiced(chunk)
			}

			if !recording {
				preRoll = append(preRoll, chunk...)
				if over := len(preRoll) - preRollBytes; over > 0 {
					preRoll = preRoll[over:]
				}
				if voiced {
					voicedRun++
					if voicedRun >= startDebounce {
						recording = true
						utterance = append(utterance, preRoll...)
					}
				} else {
					voicedRun = 0
				}
				waited += samples
				if !recording && waited >= timeoutSamples {
					return nil, ErrTimeout
				}
				continue
			}

			utterance = append(utterance, chunk...)
			if voiced {
				silence = 0
			} else {
				silence += samples
				if silence >= tailSamples {
					return utterance, nil
				}
			}
			if len(utterance)/2 >= limitSamples {
				return utterance, nil
			}
		}
	}
}

// OpenListener builds a Listener on the named device, or on the system
// default when name is empty. Matching is by case-insensitive substring
// so a config value like "usb" finds "USB Audio Device".
func OpenListener(ctx Context, deviceName string) (*Listener, error) {
	config := CaptureConfig{SampleRate: encoder.SampleRate, Channels: encoder.Channels}
	if deviceName == "" {
		return NewListener(ctx, nil, config), nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(deviceName)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), lower) {
			return NewListener(ctx, &devices[i], config), nil
		}
	}
	return nil, fmt.Errorf("no capture device matching %q", deviceName)
}

// RMS returns the normalized root mean square level of 16-bit PCM.
func RMS(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}
	var sumSquares float64
	n := 0
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcm[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
		n++
	}
	return math.Sqrt(sumSquares / float64(n))
}
