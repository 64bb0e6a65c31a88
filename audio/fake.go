package audio

import (
	"sync"
	"time"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext replays a scripted PCM buffer through the CaptureDevice
// interface, followed by endless silence, so Listener behavior can be
// tested without a microphone.
type FakeContext struct {
	pcm     []byte
	failGen int // NewCapture fails this many times before succeeding
	mu      sync.Mutex
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{pcm: pcm}
}

// FailNextOpens makes the next n NewCapture calls fail, for testing
// the lazy-reopen path.
func (f *FakeContext) FailNextOpens(n int) {
	f.mu.Lock()
	f.failGen = n
	f.mu.Unlock()
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return nil, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGen > 0 {
		f.failGen--
		return nil, errFakeOpen
	}
	return &FakeCapture{pcm: f.pcm}, nil
}

type fakeOpenError struct{}

func (fakeOpenError) Error() string { return "fake capture unavailable" }

var errFakeOpen = fakeOpenError{}

type FakeCapture struct {
	pcm []byte

	mu       sync.Mutex
	cb       DataCallback
	pos      int
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	chunkBytes := fakeFrameSize * fakeBytesPerFrame
	silence := make([]byte, chunkBytes)

	go func() {
		defer close(f.feedDone)
		for {
			select {
			case <-f.stopCh:
				return
			case <-time.After(time.Millisecond):
			}

			f.mu.Lock()
			cb := f.cb
			pos := f.pos
			f.mu.Unlock()
			if cb == nil {
				continue
			}

			if pos < len(f.pcm) {
				end := min(pos+chunkBytes, len(f.pcm))
				chunk := make([]byte, end-pos)
				copy(chunk, f.pcm[pos:end])
				cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
				f.mu.Lock()
				f.pos = end
				f.mu.Unlock()
			} else {
				cb(silence, fakeFrameSize)
			}
		}
	}()

	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
}

func (f *FakeCapture) Close() {
	f.Stop()
}
