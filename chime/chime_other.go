//go:build !linux

package chime

// Cues need a raw playback path; outside Linux the speech engine's own
// output is the only audible feedback.

func Init()  {}
func Wake()  {}
func Ready() {}
func Error() {}
