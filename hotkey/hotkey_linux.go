//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Kernel input_event constants for the keys in the mute combination.
const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
	keyLCtrl   = 29
	keyRCtrl   = 97
	keyLShift  = 42
	keyRShift  = 54
	keySpace   = 57
)

// struct input_event is 24 bytes on 64-bit kernels: 16 bytes timeval,
// then u16 type, u16 code, s32 value.
const inputEventSize = 24

// linuxHotkey reads /dev/input event devices directly so the combo is
// seen on Wayland and in consoles, where X grabs are unavailable.
type linuxHotkey struct {
	keydown chan struct{}
	keyup   chan struct{}
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

func New() Hotkey {
	return &linuxHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *linuxHotkey) Register() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	h.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			// Some event nodes stay root-only; one readable keyboard
			// is enough.
			continue
		}
		h.files = append(h.files, f)
		go h.watch(f)
	}

	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

// watch tracks modifier state per device and emits Keydown on the
// first Ctrl+Shift+Space press, Keyup when space is released.
func (h *linuxHotkey) watch(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	var ctrl, shift, comboDown bool

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[off+16:])
			code := binary.LittleEndian.Uint16(buf[off+18:])
			value := int32(binary.LittleEndian.Uint32(buf[off+20:]))
			if evType != evKey {
				continue
			}

			// value 2 is autorepeat; it must neither press nor release.
			pressed := value == keyPress
			released := value == keyRelease

			switch code {
			case keyLCtrl, keyRCtrl:
				ctrl = pressed || (!released && ctrl)
			case keyLShift, keyRShift:
				shift = pressed || (!released && shift)
			case keySpace:
				switch {
				case pressed && !comboDown && ctrl && shift:
					comboDown = true
					select {
					case h.keydown <- struct{}{}:
					default:
					}
				case released && comboDown:
					comboDown = false
					select {
					case h.keyup <- struct{}{}:
					default:
					}
				}
			}
		}
	}
}

func (h *linuxHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *linuxHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *linuxHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if hasKeyCaps(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

// hasKeyCaps filters out mice and buttons: real keyboards advertise a
// long EV_KEY capability bitmap in sysfs.
func hasKeyCaps(eventName string) bool {
	caps, err := os.ReadFile(filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key"))
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(caps))) > 10
}

// Diagnose reports whether the hotkey can work at all on this machine,
// for the doctor's failure output.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		f.Close()
		return fmt.Sprintf("%d keyboard device(s), %s is readable", len(keyboards), path), nil
	}
	return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
}
