package audio

import (
	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

const (
	vadMode     = 3
	vadFrameMs  = 20
	vadDebounce = 3 // consecutive speech frames to confirm voice
)

// vadProcessor refines the energy gate with WebRTC VAD so that sharp
// non-speech transients (keyboard, door) are less likely to open an
// utterance. It is optional: a nil processor means energy-only.
type vadProcessor struct {
	vad        *webrtcvad.VAD
	sampleRate int
	frameBytes int
	buf        []byte
	speechRun  int
}

func newVADProcessor(sampleRate int) (*vadProcessor, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(vadMode); err != nil {
		return nil, err
	}
	return &vadProcessor{
		vad:        v,
		sampleRate: sampleRate,
		frameBytes: sampleRate * vadFrameMs / 1000 * 2,
	}, nil
}

// Voiced consumes one capture chunk and reports whether debounced
// speech is currently active.
func (p *vadProcessor) Voiced(chunk []byte) bool {
	p.buf = append(p.buf, chunk...)
	for len(p.buf) >= p.frameBytes {
		frame := p.buf[:p.frameBytes]
		p.buf = p.buf[p.frameBytes:]

		active, err := p.vad.Process(p.sampleRate, frame)
		if err != nil {
			continue
		}
		if active {
			p.speechRun++
		} else {
			p.speechRun = 0
		}
	}
	return p.speechRun >= vadDebounce
}

func (p *vadProcessor) Reset() {
	p.buf = p.buf[:0]
	p.speechRun = 0
}
