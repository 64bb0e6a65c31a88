package dispatch

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"time"
)

// External collaborators the dispatcher delegates side effects to. All
// calls are synchronous and best-effort; a failure surfaces as a spoken
// apology, never as a crash.

type MediaKey string

const (
	MediaPlayPause  MediaKey = "play-pause"
	MediaNext       MediaKey = "next"
	MediaPrevious   MediaKey = "previous"
	MediaVolumeUp   MediaKey = "volume-up"
	MediaVolumeDown MediaKey = "volume-down"
	MediaMute       MediaKey = "mute"
)

type SystemControl interface {
	Lock() error
	PowerOff() error
	Reboot() error
	Sleep() error
}

type MediaControl interface {
	Key(kind MediaKey) error
}

type Lighting interface {
	TurnOn() error
	TurnOff() error
	SetBrightness(pct int) error
	SetColor(name string) error
	SetMode(name string) error
}

type AppLauncher interface {
	Launch(nameOrURL string) error
}

type Calendar interface {
	Schedule(ctx context.Context, hint string) (string, error)
}

type Weather interface {
	Current(ctx context.Context) (string, error)
}

// TimerScheduler arranges a future spoken announcement.
type TimerScheduler interface {
	Schedule(d time.Duration, announce func())
}

// Collaborators bundles every external delegate. Nil fields are legal;
// the matching commands then answer with a "not set up" apology.
type Collaborators struct {
	System   SystemControl
	Media    MediaControl
	Lights   Lighting
	Apps     AppLauncher
	Calendar Calendar
	Weather  Weather
	Timers   TimerScheduler
}

// DefaultCollaborators wires the delegates that work out of the box:
// OS power actions, desktop media keys, app launching and timers.
// Lights, calendar and weather need external services and stay nil.
func DefaultCollaborators() Collaborators {
	return Collaborators{
		System: execSystem{},
		Media:  execMedia{},
		Apps:   execLauncher{},
		Timers: afterFuncTimers{},
	}
}

func run(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (%s)", name, err, string(out))
	}
	return nil
}

// execSystem drives power state through the usual desktop commands.
type execSystem struct{}

func (execSystem) Lock() error {
	if runtime.GOOS == "windows" {
		return run("rundll32.exe", "user32.dll,LockWorkStation")
	}
	return run("loginctl", "lock-session")
}

func (execSystem) PowerOff() error {
	if runtime.GOOS == "windows" {
		return run("shutdown", "/s", "/t", "0")
	}
	return run("systemctl", "poweroff")
}

func (execSystem) Reboot() error {
	if runtime.GOOS == "windows" {
		return run("shutdown", "/r", "/t", "0")
	}
	return run("systemctl", "reboot")
}

func (execSystem) Sleep() error {
	if runtime.GOOS == "windows" {
		return run("rundll32.exe", "powrprof.dll,SetSuspendState", "0,1,0")
	}
	return run("systemctl", "suspend")
}

// execMedia uses playerctl and pactl, which cover the common Linux
// desktop players. Elsewhere media transport is unavailable.
type execMedia struct{}

func (execMedia) Key(kind MediaKey) error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("media keys unsupported on %s", runtime.GOOS)
	}
	switch kind {
	case MediaPlayPause:
		return run("playerctl", "play-pause")
	case MediaNext:
		return run("playerctl", "next")
	case MediaPrevious:
		return run("playerctl", "previous")
	case MediaVolumeUp:
		return run("pactl", "set-sink-volume", "@DEFAULT_SINK@", "+10%")
	case MediaVolumeDown:
		return run("pactl", "set-sink-volume", "@DEFAULT_SINK@", "-10%")
	case MediaMute:
		return run("pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle")
	}
	return fmt.Errorf("unknown media key %q", kind)
}

// execLauncher starts applications by name and opens URLs with the
// desktop handler.
type execLauncher struct{}

func (execLauncher) Launch(nameOrURL string) error {
	if u, err := url.Parse(nameOrURL); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if runtime.GOOS == "windows" {
			return exec.Command("cmd", "/c", "start", nameOrURL).Start()
		}
		return exec.Command("xdg-open", nameOrURL).Start()
	}
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/c", "start", "", nameOrURL).Start()
	}
	bin, err := exec.LookPath(nameOrURL)
	if err != nil {
		return fmt.Errorf("app %q not found", nameOrURL)
	}
	return exec.Command(bin).Start()
}

type afterFuncTimers struct{}

func (afterFuncTimers) Schedule(d time.Duration, announce func()) {
	time.AfterFunc(d, announce)
}
