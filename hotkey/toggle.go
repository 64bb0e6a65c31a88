package hotkey

// MuteToggle turns raw key transitions into one event per complete
// press. The coordinator flips MuteState on each event; a toggle works
// even while the assistant is muted, which a voice command cannot.
type MuteToggle struct {
	events chan struct{}
	done   chan struct{}
}

func NewMuteToggle(hk Hotkey) *MuteToggle {
	t := &MuteToggle{
		events: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go t.run(hk)
	return t
}

// Events delivers one value per press-and-release of the hotkey.
func (t *MuteToggle) Events() <-chan struct{} { return t.events }

// Close stops the watcher. No events are delivered afterward.
func (t *MuteToggle) Close() {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}

func (t *MuteToggle) run(hk Hotkey) {
	for {
		select {
		case <-t.done:
			return
		case <-hk.Keydown():
		}
		select {
		case <-t.done:
			return
		case <-hk.Keyup():
		}
		select {
		case t.events <- struct{}{}:
		default:
		}
	}
}
