// Package hotkey watches for the global mute key combination
// (Ctrl+Shift+Space) without needing window focus.
package hotkey

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}
