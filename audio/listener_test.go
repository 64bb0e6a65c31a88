package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"
)

const testRate = 16000

func genTone(freq float64, durationMs int) []byte {
	n := testRate * durationMs / 1000
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		sample := int16(12000 * math.Sin(2*math.Pi*freq*float64(i)/testRate))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}
	return buf
}

func genSilence(durationMs int) []byte {
	return make([]byte, testRate*durationMs/1000*2)
}

func newTestListener(pcm []byte) (*Listener, *FakeContext) {
	fc := NewFakeContext(pcm)
	l := NewListener(fc, nil, CaptureConfig{SampleRate: testRate, Channels: 1})
	return l, fc
}

func TestCalibrateRaisesThresholdAboveNoise(t *testing.T) {
	// Quiet tone as "room noise"; amplitude 12000 gives RMS ~0.26.
	l, _ := newTestListener(genTone(200, 2000))
	if err := l.Calibrate(context.Background(), 500*time.Millisecond); err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if th := l.Threshold(); th <= thresholdFloor {
		t.Errorf("threshold %f not raised above floor %f", th, thresholdFloor)
	}
}

func TestCalibrateSilentRoomUsesFloor(t *testing.T) {
	l, _ := newTestListener(genSilence(2000))
	if err := l.Calibrate(context.Background(), 500*time.Millisecond); err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if th := l.Threshold(); th != thresholdFloor {
		t.Errorf("threshold = %f, want floor %f", th, thresholdFloor)
	}
}

func TestCaptureTimesOutOnSilence(t *testing.T) {
	l, _ := newTestListener(genSilence(5000))
	_, err := l.Capture(context.Background(), 1*time.Second, 5*time.Second)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestCaptureReturnsUtterance(t *testing.T) {
	// 500ms lead-in silence, 800ms speech, then trailing silence from
	// the fake. The tail detector should close the utterance.
	script := append(genSilence(500), genTone(440, 800)...)
	l, _ := newTestListener(script)

	pcm, err := l.Capture(context.Background(), 3*time.Second, 10*time.Second)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	// At least the speech body must be present (pre-roll and tail vary).
	minSamples := testRate * 700 / 1000
	if len(pcm)/2 < minSamples {
		t.Errorf("captured %d samples, want at least %d", len(pcm)/2, minSamples)
	}
}

func TestCaptureHonorsPhraseLimit(t *testing.T) {
	l, _ := newTestListener(genTone(440, 5000))

	pcm, err := l.Capture(context.Background(), 2*time.Second, 1*time.Second)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	// Limit plus one callback chunk of slack.
	maxSamples := testRate + fakeFrameSize
	if len(pcm)/2 > maxSamples {
		t.Errorf("captured %d samples, phrase limit allows ~%d", len(pcm)/2, maxSamples)
	}
}

func TestCaptureCancellation(t *testing.T) {
	l, _ := newTestListener(genSilence(60000))
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := l.Capture(ctx, time.Minute, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestListenerReopensAfterFailure(t *testing.T) {
	l, fc := newTestListener(genSilence(5000))
	fc.FailNextOpens(1)

	if _, err := l.Capture(context.Background(), 200*time.Millisecond, time.Second); err == nil {
		t.Fatal("expected error from failed open")
	}
	// Next call must lazily reopen and proceed to a normal timeout.
	_, err := l.Capture(context.Background(), 200*time.Millisecond, time.Second)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("after reopen err = %v, want ErrTimeout", err)
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %f", got)
	}
	if got := RMS(genSilence(100)); got != 0 {
		t.Errorf("RMS(silence) = %f", got)
	}
	loud := RMS(genTone(440, 100))
	if loud < 0.2 || loud > 0.4 {
		t.Errorf("RMS(tone) = %f, want ~0.26", loud)
	}
}
