package dispatch

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kidlatpogi/L.I.N.N.Y/config"
)

type harness struct {
	d      *Dispatcher
	speak  *fakeSpeaker
	brain  *fakeBrain
	system *fakeSystem
	media  *fakeMedia
	apps   *fakeLauncher
	timers *fakeTimers
	mute   *atomic.Bool
	quits  *atomic.Int32
}

func newHarness() *harness {
	h := &harness{
		speak:  &fakeSpeaker{},
		brain:  &fakeBrain{reply: "brain says hi"},
		system: &fakeSystem{},
		media:  &fakeMedia{},
		apps:   &fakeLauncher{},
		timers: &fakeTimers{},
		mute:   &atomic.Bool{},
		quits:  &atomic.Int32{},
	}
	h.d = New(Params{
		Config: config.Default(),
		Speak:  h.speak,
		Brain:  func() Brain { return h.brain },
		Collab: Collaborators{
			System: h.system,
			Media:  h.media,
			Apps:   h.apps,
			Timers: h.timers,
		},
		Mute: h.mute,
		Quit: func() { h.quits.Add(1) },
	})
	return h
}

func (h *harness) hear(text string) {
	h.d.process(UtteranceEvent{Text: text, When: time.Now(), Lang: "en-US"})
}

func TestNoWakeWordMeansNoAction(t *testing.T) {
	h := newHarness()
	h.hear("hello there")

	if n := len(h.speak.spoken()); n != 0 {
		t.Fatalf("spoke %d times without wake word", n)
	}
	if h.brain.calls() != 0 || len(h.system.calls()) != 0 || len(h.media.pressed()) != 0 {
		t.Fatal("collaborators touched without wake word")
	}
}

func TestPauseOutranksPlay(t *testing.T) {
	h := newHarness()
	h.hear("Linny, pause and play music")

	keys := h.media.pressed()
	if len(keys) != 1 || keys[0] != MediaPlayPause {
		t.Fatalf("media keys = %v, want one play-pause", keys)
	}
	if h.brain.calls() != 0 {
		t.Fatal("fell through to inference")
	}
	if len(h.apps.calls()) != 0 {
		t.Fatal("video search launched for a pause command")
	}
	if n := len(h.speak.spoken()); n != 1 {
		t.Fatalf("spoke %d times, want 1", n)
	}
}

func TestTimeQuerySpeaksOnceWithFormattedTime(t *testing.T) {
	h := newHarness()
	h.hear("Linny, what time is it")

	said := h.speak.spoken()
	if len(said) != 1 {
		t.Fatalf("spoke %d times, want exactly 1: %v", len(said), said)
	}
	if !strings.HasPrefix(said[0], "It is currently ") || !strings.Contains(said[0], ":") {
		t.Fatalf("time response = %q", said[0])
	}
	if h.brain.calls() != 0 {
		t.Fatal("inference called for a time query")
	}
	if len(h.system.calls())+len(h.media.pressed())+len(h.apps.calls()) != 0 {
		t.Fatal("collaborators called for a time query")
	}
}

func TestTimeQueryInFilipino(t *testing.T) {
	h := newHarness()
	h.d.process(UtteranceEvent{Text: "linny anong oras na", When: time.Now(), Lang: "fil-PH"})

	said := h.speak.spoken()
	if len(said) != 1 || !strings.HasPrefix(said[0], "Ngayon ay ") {
		t.Fatalf("spoken = %v", said)
	}
}

func TestBrainFallbackSpeaksThinkingThenAnswer(t *testing.T) {
	h := newHarness()
	h.hear("Linny tell me a story about dragons")

	if h.brain.calls() != 1 {
		t.Fatalf("brain calls = %d, want 1", h.brain.calls())
	}
	if q := h.brain.questions[0]; q != "tell me a story about dragons" {
		t.Fatalf("brain question = %q, alias not stripped", q)
	}
	said := h.speak.spoken()
	if len(said) != 2 {
		t.Fatalf("spoke %d times, want thinking phrase plus answer: %v", len(said), said)
	}
	if said[1] != "brain says hi" {
		t.Fatalf("answer = %q", said[1])
	}
}

func TestWakeAliasVariants(t *testing.T) {
	h := newHarness()
	for _, text := range []string{
		"lenny what time is it",
		"hey lily, what time is it",
		"Leni what time is it",
	} {
		h.speak.said = nil
		h.hear(text)
		if len(h.speak.spoken()) != 1 {
			t.Errorf("%q: spoke %d times, want 1", text, len(h.speak.spoken()))
		}
	}
}

func TestWakeWordAloneAsksForCommand(t *testing.T) {
	h := newHarness()
	h.hear("Linny")

	said := h.speak.spoken()
	if len(said) != 1 || said[0] != "Yes?" {
		t.Fatalf("spoken = %v", said)
	}
}

func TestShutdownSpeaksBeforePowerAction(t *testing.T) {
	h := newHarness()
	h.hear("Linny shutdown the computer")

	said := h.speak.spoken()
	if len(said) != 1 || said[0] != "Shutting down the system now" {
		t.Fatalf("spoken = %v", said)
	}
	if len(h.system.calls()) != 0 {
		t.Fatal("power action ran before the scheduled delay")
	}
	if h.timers.count() != 1 {
		t.Fatalf("scheduled %d timers, want 1", h.timers.count())
	}
	h.timers.fire(0)
	if got := h.system.calls(); len(got) != 1 || got[0] != "poweroff" {
		t.Fatalf("system calls = %v", got)
	}
}

func TestInterruptedConfirmationCancelsPowerAction(t *testing.T) {
	h := newHarness()
	h.speak.holdCompletions = true
	h.hear("Linny shut down")

	if h.timers.count() != 0 {
		t.Fatal("power action scheduled despite interrupted confirmation")
	}
	if len(h.system.calls()) != 0 {
		t.Fatal("power action ran despite interrupted confirmation")
	}
}

func TestLockCommand(t *testing.T) {
	h := newHarness()
	h.hear("Linny lock the screen")
	h.timers.fire(0)

	if got := h.system.calls(); len(got) != 1 || got[0] != "lock" {
		t.Fatalf("system calls = %v", got)
	}
}

func TestClockDoesNotTriggerLock(t *testing.T) {
	h := newHarness()
	h.hear("Linny what does the clock on the wall mean")

	if len(h.system.calls()) != 0 {
		t.Fatal("lock fired on the word clock")
	}
}

func TestAppLaunchMutesUntilCooldown(t *testing.T) {
	h := newHarness()
	h.hear("Linny open firefox")

	if !h.mute.Load() {
		t.Fatal("capture not muted during app launch")
	}
	if got := h.apps.calls(); len(got) != 1 || got[0] != "firefox" {
		t.Fatalf("launched = %v", got)
	}
	if h.timers.count() != 1 {
		t.Fatalf("scheduled %d cooldowns, want 1", h.timers.count())
	}
	h.timers.fire(0)
	if h.mute.Load() {
		t.Fatal("still muted after cooldown")
	}
}

func TestAppLaunchStaysMutedWhenConfirmationInterrupted(t *testing.T) {
	h := newHarness()
	h.speak.holdCompletions = true
	h.hear("Linny open firefox")

	if h.timers.count() != 0 {
		t.Fatal("unmute scheduled despite interrupted confirmation")
	}
}

func TestFailedLaunchUnmutesAndApologizes(t *testing.T) {
	h := newHarness()
	h.apps.err = errLaunch
	h.hear("Linny open doom")

	if h.mute.Load() {
		t.Fatal("left muted after failed launch")
	}
	said := h.speak.spoken()
	if len(said) != 1 || !strings.HasPrefix(said[0], "Sorry") {
		t.Fatalf("spoken = %v", said)
	}
}

func TestPlaySongOpensVideoSearch(t *testing.T) {
	h := newHarness()
	h.hear("Linny play bohemian rhapsody")

	got := h.apps.calls()
	if len(got) != 1 || !strings.Contains(got[0], "search_query=bohemian+rhapsody") {
		t.Fatalf("launched = %v", got)
	}
	said := h.speak.spoken()
	if len(said) != 1 || said[0] != "Searching for bohemian rhapsody..." {
		t.Fatalf("spoken = %v", said)
	}
}

func TestPlayKeepsTitleContainingKeyword(t *testing.T) {
	h := newHarness()
	h.hear("Linny play coldplay")

	got := h.apps.calls()
	if len(got) != 1 || !strings.Contains(got[0], "search_query=coldplay") {
		t.Fatalf("launched = %v", got)
	}
	said := h.speak.spoken()
	if len(said) != 1 || said[0] != "Searching for coldplay..." {
		t.Fatalf("spoken = %v", said)
	}
}

func TestTimerSchedulesAnnouncement(t *testing.T) {
	h := newHarness()
	h.hear("Linny set a timer for 5 minutes")

	if h.timers.count() != 1 {
		t.Fatalf("scheduled %d timers, want 1", h.timers.count())
	}
	if d := h.timers.scheduled[0].after; d != 5*time.Minute {
		t.Fatalf("timer duration = %v", d)
	}
	said := h.speak.spoken()
	if len(said) != 1 || said[0] != "Timer set for 5 minutes" {
		t.Fatalf("spoken = %v", said)
	}

	h.timers.fire(0)
	said = h.speak.spoken()
	if said[len(said)-1] != "Time's up!" {
		t.Fatalf("announcement = %v", said)
	}
}

func TestIdentity(t *testing.T) {
	h := newHarness()
	h.hear("Linny who are you")

	said := h.speak.spoken()
	if len(said) != 1 || said[0] != "I am Linny, your loyal intelligent neural network." {
		t.Fatalf("spoken = %v", said)
	}
}

func TestMuteMusicPressesMediaMuteKey(t *testing.T) {
	h := newHarness()
	h.hear("Linny mute the music")

	keys := h.media.pressed()
	if len(keys) != 1 || keys[0] != MediaMute {
		t.Fatalf("media keys = %v, want one mute", keys)
	}
	if h.mute.Load() {
		t.Fatal("muting system audio must not mute the assistant")
	}
	said := h.speak.spoken()
	if len(said) != 1 || said[0] != "Audio muted" {
		t.Fatalf("spoken = %v", said)
	}
}

func TestMuteCommandSetsMuteState(t *testing.T) {
	h := newHarness()
	h.hear("Linny stop listening")

	if !h.mute.Load() {
		t.Fatal("mute state not set")
	}
	if len(h.speak.spoken()) != 1 {
		t.Fatal("mute must still be confirmed out loud")
	}
}

func TestExitQuitsAfterFarewell(t *testing.T) {
	h := newHarness()
	h.hear("Linny goodbye")

	if h.quits.Load() != 1 {
		t.Fatalf("quits = %d, want 1", h.quits.Load())
	}
}

func TestExitSkippedWhenFarewellInterrupted(t *testing.T) {
	h := newHarness()
	h.speak.holdCompletions = true
	h.hear("Linny goodbye")

	if h.quits.Load() != 0 {
		t.Fatal("quit despite interrupted farewell")
	}
}

func TestNilLightingApologizes(t *testing.T) {
	h := newHarness()
	h.hear("Linny turn on the lights")

	said := h.speak.spoken()
	if len(said) != 1 || !strings.HasPrefix(said[0], "Sorry") {
		t.Fatalf("spoken = %v", said)
	}
}

func TestMediaFailureApologizes(t *testing.T) {
	h := newHarness()
	h.media.err = errLaunch
	h.hear("Linny pause the music")

	said := h.speak.spoken()
	if len(said) != 1 || !strings.HasPrefix(said[0], "Sorry") {
		t.Fatalf("spoken = %v", said)
	}
}
