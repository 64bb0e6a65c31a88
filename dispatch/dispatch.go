// Package dispatch turns one recognized utterance into one action.
// Commands are matched against a fixed-priority table so the common
// intents are handled locally and instantly; only unmatched text goes
// to the inference router. Every dispatch runs on its own goroutine so
// the capture loop never waits on a slow action.
package dispatch

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/kidlatpogi/L.I.N.N.Y/config"
	"github.com/kidlatpogi/L.I.N.N.Y/log"
)

// UtteranceEvent is one successfully recognized utterance. It is
// consumed exactly once by Dispatch and then discarded.
type UtteranceEvent struct {
	Text string
	When time.Time
	Lang string
}

// Speaker is the output channel surface the dispatcher needs.
type Speaker interface {
	Say(text string)
	SayThen(text string, onComplete func())
	Interrupt()
}

// Brain answers free-form questions. It never fails; worst case it
// returns an offline apology.
type Brain interface {
	Answer(ctx context.Context, question string) string
}

// Params wires a Dispatcher. Brain is a getter so a settings reload
// can swap the router atomically underneath live dispatches.
type Params struct {
	Config *config.Config
	Speak  Speaker
	Brain  func() Brain
	Collab Collaborators
	Mute   *atomic.Bool
	Quit   func()
}

type rule struct {
	name  string
	match func(cmd string) bool
	run   func(cmd, lang string)
}

type Dispatcher struct {
	speak  Speaker
	brain  func() Brain
	collab Collaborators

	aliases  []string
	userName string
	mute     *atomic.Bool
	quit     func()
	rules    []rule

	// Delay between a spoken confirmation finishing and a destructive
	// action firing, and the cooldown before capture resumes after an
	// app launch.
	actionDelay    time.Duration
	unmuteCooldown time.Duration
}

func New(p Params) *Dispatcher {
	d := &Dispatcher{
		speak:          p.Speak,
		brain:          p.Brain,
		collab:         p.Collab,
		aliases:        p.Config.WakeAliases,
		userName:       p.Config.UserName,
		mute:           p.Mute,
		quit:           p.Quit,
		actionDelay:    time.Second,
		unmuteCooldown: 3 * time.Second,
	}
	d.rules = []rule{
		{"power", d.matchPower, d.runPower},
		{"media", d.matchMedia, d.runMedia},
		{"lights", d.matchLights, d.runLights},
		{"app", d.matchLaunch, d.runLaunch},
		{"clock", d.matchClock, d.runClock},
		{"calendar", d.matchCalendar, d.runCalendar},
		{"weather", d.matchWeather, d.runWeather},
		{"timer", d.matchTimer, d.runTimer},
		{"misc", d.matchMisc, d.runMisc},
		{"play", d.matchPlay, d.runPlay},
	}
	return d
}

// Dispatch classifies and executes ev on its own goroutine. Errors and
// panics stay inside that goroutine; the caller fires and forgets.
func (d *Dispatcher) Dispatch(ev UtteranceEvent) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("dispatch panic: %v", r)
			}
		}()
		d.process(ev)
	}()
}

func (d *Dispatcher) process(ev UtteranceEvent) {
	cmd, ok := d.wakeCommand(ev.Text)
	if !ok {
		return
	}
	if cmd == "" {
		d.speak.Say(phraseAttend.in(ev.Lang))
		return
	}

	for _, r := range d.rules {
		if r.match(cmd) {
			log.DispatchHit(r.name, cmd)
			r.run(cmd, ev.Lang)
			return
		}
	}

	log.DispatchHit("brain", cmd)
	d.speak.Say(pickThinking(ev.Lang, d.userName))
	reply := d.brain().Answer(context.Background(), cmd)
	d.speak.Say(reply)
}

// Awoken reports whether text contains the wake word or one of its
// aliases, without acting on it. The coordinator uses this to play the
// acknowledgment chime.
func (d *Dispatcher) Awoken(text string) bool {
	_, ok := d.wakeCommand(text)
	return ok
}

// wakeCommand reports whether text contains the wake word or one of
// its phonetic aliases and returns whatever follows the alias.
func (d *Dispatcher) wakeCommand(text string) (string, bool) {
	lower := strings.ToLower(text)
	best := -1
	bestEnd := 0
	for _, alias := range d.aliases {
		idx := strings.Index(lower, alias)
		if idx < 0 {
			continue
		}
		if best == -1 || idx < best {
			best = idx
			bestEnd = idx + len(alias)
		}
	}
	if best == -1 {
		return "", false
	}
	cmd := strings.TrimLeft(lower[bestEnd:], " ,.!?")
	return strings.TrimSpace(cmd), true
}

// containsWord matches kw against cmd on word boundaries when kw is a
// single word, or as a plain substring when it is a phrase. Boundary
// matching keeps "lock" from firing on "clock".
func containsWord(cmd, kw string) bool {
	if strings.ContainsRune(kw, ' ') {
		return strings.Contains(cmd, kw)
	}
	start := 0
	for {
		idx := strings.Index(cmd[start:], kw)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(kw)
		leftOK := idx == 0 || !isWordRune(rune(cmd[idx-1]))
		rightOK := end == len(cmd) || !isWordRune(rune(cmd[end]))
		if leftOK && rightOK {
			return true
		}
		start = idx + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// afterWord returns everything following the first word-boundary
// occurrence of kw, or "" when kw never stands alone.
func afterWord(cmd, kw string) string {
	start := 0
	for {
		idx := strings.Index(cmd[start:], kw)
		if idx < 0 {
			return ""
		}
		idx += start
		end := idx + len(kw)
		leftOK := idx == 0 || !isWordRune(rune(cmd[idx-1]))
		rightOK := end == len(cmd) || !isWordRune(rune(cmd[end]))
		if leftOK && rightOK {
			return cmd[end:]
		}
		start = idx + 1
	}
}

func containsAny(cmd string, kws ...string) bool {
	for _, kw := range kws {
		if containsWord(cmd, kw) {
			return true
		}
	}
	return false
}

// --- power ---

func (d *Dispatcher) matchPower(cmd string) bool {
	if strings.Contains(cmd, "yourself") {
		// "shut yourself down" is an exit request, not a power action.
		return false
	}
	return containsAny(cmd,
		"shutdown", "shut down", "power off", "patayin ang computer",
		"restart", "reboot",
		"lock", "i-lock",
		"go to sleep", "standby", "suspend")
}

func (d *Dispatcher) runPower(cmd, lang string) {
	var confirm string
	var action func() error
	switch {
	case containsAny(cmd, "restart", "reboot"):
		confirm, action = phraseReboot.in(lang), d.collab.System.Reboot
	case containsAny(cmd, "lock", "i-lock"):
		confirm, action = phraseLock.in(lang), d.collab.System.Lock
	case containsAny(cmd, "go to sleep", "standby", "suspend"):
		confirm, action = phraseSleep.in(lang), d.collab.System.Sleep
	default:
		confirm, action = phraseShutdown.in(lang), d.collab.System.PowerOff
	}

	// Confirmation first: the action may take the audio path with it.
	// The delayed action is skipped entirely if speech is interrupted.
	d.speak.SayThen(confirm, func() {
		d.collab.Timers.Schedule(d.actionDelay, func() {
			if err := action(); err != nil {
				log.Errorf("power action failed: %v", err)
			}
		})
	})
}

// --- media transport ---

func (d *Dispatcher) matchMedia(cmd string) bool {
	return containsAny(cmd,
		"pause", "resume", "stop music", "tigil",
		"next song", "next track", "skip", "previous",
		"volume up", "lakasan", "volume down", "hinaan",
		"mute the music", "mute the volume", "mute the sound", "i-mute ang tunog")
}

func (d *Dispatcher) runMedia(cmd, lang string) {
	var key MediaKey
	var confirm string
	switch {
	case containsAny(cmd, "pause", "stop music", "tigil"):
		key, confirm = MediaPlayPause, phrasePaused.in(lang)
	case containsWord(cmd, "resume"):
		key, confirm = MediaPlayPause, phraseResumed.in(lang)
	case containsAny(cmd, "next song", "next track", "skip"):
		key, confirm = MediaNext, phraseNext.in(lang)
	case containsWord(cmd, "previous"):
		key, confirm = MediaPrevious, phrasePrevious.in(lang)
	case containsAny(cmd, "volume up", "lakasan"):
		key, confirm = MediaVolumeUp, phraseVolumeUp.in(lang)
	case containsAny(cmd, "mute the music", "mute the volume", "mute the sound", "i-mute ang tunog"):
		key, confirm = MediaMute, phraseAudioMute.in(lang)
	default:
		key, confirm = MediaVolumeDown, phraseVolumeDn.in(lang)
	}

	if err := d.collab.Media.Key(key); err != nil {
		log.Errorf("media key %s: %v", key, err)
		d.speak.Say(phraseCantDo.in(lang))
		return
	}
	d.speak.Say(confirm)
}

// --- lighting ---

var brightnessRe = regexp.MustCompile(`(\d{1,3})\s*(?:percent|%)?`)

func (d *Dispatcher) matchLights(cmd string) bool {
	return containsAny(cmd, "light", "lights", "ilaw")
}

func (d *Dispatcher) runLights(cmd, lang string) {
	if d.collab.Lights == nil {
		d.speak.Say(phraseNoLights.in(lang))
		return
	}

	var err error
	confirm := phraseLightsOn.in(lang)
	switch {
	case containsAny(cmd, "off", "patayin"):
		err = d.collab.Lights.TurnOff()
		confirm = phraseLightsOff.in(lang)
	case containsWord(cmd, "brightness"):
		m := brightnessRe.FindStringSubmatch(cmd)
		if m == nil {
			d.speak.Say(phraseCantDo.in(lang))
			return
		}
		pct, _ := strconv.Atoi(m[1])
		err = d.collab.Lights.SetBrightness(pct)
		confirm = "Brightness set to " + m[1] + " percent"
	case containsWord(cmd, "color"):
		color := afterKeyword(cmd, "color")
		err = d.collab.Lights.SetColor(color)
		confirm = "Color set to " + color
	case containsWord(cmd, "mode"):
		err = d.collab.Lights.SetMode(beforeKeyword(cmd, "mode"))
		confirm = "Mode set"
	default:
		err = d.collab.Lights.TurnOn()
	}

	if err != nil {
		log.Errorf("lighting: %v", err)
		d.speak.Say(phraseCantDo.in(lang))
		return
	}
	d.speak.Say(confirm)
}

// afterKeyword returns the words following the first occurrence of kw.
func afterKeyword(cmd, kw string) string {
	idx := strings.Index(cmd, kw)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(cmd[idx+len(kw):])
	rest = strings.TrimPrefix(rest, "to ")
	return strings.TrimSpace(rest)
}

// beforeKeyword returns the word immediately preceding kw, for
// phrasings like "movie mode".
func beforeKeyword(cmd, kw string) string {
	idx := strings.Index(cmd, kw)
	if idx <= 0 {
		return ""
	}
	fields := strings.Fields(cmd[:idx])
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// --- application launch ---

func (d *Dispatcher) matchLaunch(cmd string) bool {
	return strings.HasPrefix(cmd, "open ") ||
		strings.HasPrefix(cmd, "launch ") ||
		strings.HasPrefix(cmd, "buksan ang ")
}

func (d *Dispatcher) runLaunch(cmd, lang string) {
	app := cmd
	for _, prefix := range []string{"open ", "launch ", "buksan ang "} {
		if strings.HasPrefix(app, prefix) {
			app = strings.TrimSpace(strings.TrimPrefix(app, prefix))
			break
		}
	}
	if app == "" {
		d.speak.Say(phraseCantDo.in(lang))
		return
	}

	// Mute right away so the launched app's own audio is not heard as
	// a command; capture resumes only after a cooldown past the
	// confirmation, and not at all if the confirmation is interrupted.
	d.mute.Store(true)
	if err := d.collab.Apps.Launch(app); err != nil {
		log.Errorf("launch %q: %v", app, err)
		d.mute.Store(false)
		d.speak.Say(phraseCantDo.in(lang))
		return
	}
	d.speak.SayThen(launchConfirm(lang, app), func() {
		d.collab.Timers.Schedule(d.unmuteCooldown, func() {
			d.mute.Store(false)
		})
	})
}

// --- time and date ---

func (d *Dispatcher) matchClock(cmd string) bool {
	return containsAny(cmd, "time", "oras", "date", "petsa", "anong araw")
}

func (d *Dispatcher) runClock(cmd, lang string) {
	now := time.Now()
	var response string
	switch {
	case containsAny(cmd, "date", "petsa", "anong araw"):
		formatted := now.Format("Monday, January 2")
		if filipino(lang) {
			response = "Ngayon ay " + formatted
		} else {
			response = "Today is " + formatted
		}
	default:
		formatted := now.Format("03:04 PM")
		if filipino(lang) {
			response = "Ngayon ay " + formatted
		} else {
			response = "It is currently " + formatted
		}
	}
	d.speak.Say(response)
}

// --- calendar ---

func (d *Dispatcher) matchCalendar(cmd string) bool {
	return containsAny(cmd, "schedule", "calendar", "events", "upcoming")
}

func (d *Dispatcher) runCalendar(cmd, lang string) {
	if d.collab.Calendar == nil {
		d.speak.Say(phraseNoCal.in(lang))
		return
	}
	summary, err := d.collab.Calendar.Schedule(context.Background(), cmd)
	if err != nil {
		log.Errorf("calendar: %v", err)
		d.speak.Say(phraseCantDo.in(lang))
		return
	}
	d.speak.Say(summary)
}

// --- weather ---

func (d *Dispatcher) matchWeather(cmd string) bool {
	return containsAny(cmd, "weather", "panahon", "temperature", "ulan")
}

func (d *Dispatcher) runWeather(cmd, lang string) {
	if d.collab.Weather == nil {
		d.speak.Say(phraseNoWeather.in(lang))
		return
	}
	summary, err := d.collab.Weather.Current(context.Background())
	if err != nil {
		log.Errorf("weather: %v", err)
		d.speak.Say(phraseCantDo.in(lang))
		return
	}
	d.speak.Say(summary)
}

// --- timers ---

var minutesRe = regexp.MustCompile(`(\d+)\s*min`)

func (d *Dispatcher) matchTimer(cmd string) bool {
	return containsWord(cmd, "timer") || strings.Contains(cmd, "remind me in")
}

func (d *Dispatcher) runTimer(cmd, lang string) {
	m := minutesRe.FindStringSubmatch(cmd)
	if m == nil {
		d.speak.Say(phraseCantDo.in(lang))
		return
	}
	minutes, _ := strconv.Atoi(m[1])
	if minutes <= 0 {
		d.speak.Say(phraseCantDo.in(lang))
		return
	}
	announcement := phraseTimerUp.in(lang)
	d.collab.Timers.Schedule(time.Duration(minutes)*time.Minute, func() {
		d.speak.Say(announcement)
	})
	d.speak.Say(timerConfirm(lang, minutes))
}

// --- miscellaneous ---

func (d *Dispatcher) matchMisc(cmd string) bool {
	return containsAny(cmd,
		"who are you", "sino ka",
		"mute", "stop listening", "tumahimik",
		"thank you", "thanks", "salamat",
		"goodbye", "paalam", "exit", "shut yourself down", "turn yourself off")
}

func (d *Dispatcher) runMisc(cmd, lang string) {
	switch {
	case containsAny(cmd, "who are you", "sino ka"):
		d.speak.Say(phraseIdentity.in(lang))
	case containsAny(cmd, "mute", "stop listening", "tumahimik"):
		d.mute.Store(true)
		d.speak.Say(phraseMuted.in(lang))
	case containsAny(cmd, "thank you", "thanks", "salamat"):
		d.speak.Say(phraseWelcome.in(lang))
	default:
		// Exit after the farewell has been heard.
		d.speak.SayThen(phraseGoodbye.in(lang), func() {
			if d.quit != nil {
				d.quit()
			}
		})
	}
}

// --- play on video platform ---

func (d *Dispatcher) matchPlay(cmd string) bool {
	return containsWord(cmd, "play")
}

func (d *Dispatcher) runPlay(cmd, lang string) {
	// Strip only the standalone keyword; titles may contain "play".
	song := strings.TrimSpace(afterWord(cmd, "play"))
	if song == "" {
		// Bare "play" is a transport command.
		if err := d.collab.Media.Key(MediaPlayPause); err != nil {
			d.speak.Say(phraseCantDo.in(lang))
			return
		}
		d.speak.Say(phraseResumed.in(lang))
		return
	}

	query := "https://www.youtube.com/results?search_query=" + url.QueryEscape(song)
	if err := d.collab.Apps.Launch(query); err != nil {
		log.Errorf("play %q: %v", song, err)
		d.speak.Say(phraseCantPlay.in(lang))
		return
	}
	d.speak.Say(playConfirm(lang, song))
}
