package dispatch

import (
	"math/rand"
	"strconv"
	"strings"
)

// Spoken phrase tables, keyed by language. Recognition languages are
// "en-US" and "fil-PH"; anything else falls back to English.

func filipino(lang string) bool {
	return strings.EqualFold(lang, "fil-PH")
}

func thinkingPhrases(lang, userName string) []string {
	if filipino(lang) {
		return []string{
			"Sandali lang...",
			"Tingnan ko...",
			"Isipin ko muna...",
			"Antay lang...",
			"Hmm, tignan natin...",
			"Teka, " + userName + "...",
		}
	}
	return []string{
		"Let me check...",
		"One moment...",
		"Processing...",
		"On it...",
		"Thinking...",
		"Let me think...",
		"Just a moment...",
		"Hold on, " + userName + "...",
	}
}

func pickThinking(lang, userName string) string {
	phrases := thinkingPhrases(lang, userName)
	return phrases[rand.Intn(len(phrases))]
}

type phrase struct{ en, fil string }

func (p phrase) in(lang string) string {
	if filipino(lang) && p.fil != "" {
		return p.fil
	}
	return p.en
}

var (
	phraseShutdown  = phrase{"Shutting down the system now", "Mag-shutdown na ang system"}
	phraseReboot    = phrase{"Restarting the system now", "Magre-restart na ang system"}
	phraseLock      = phrase{"Locking the screen", "Ilo-lock ko na ang screen"}
	phraseSleep     = phrase{"Putting the system to sleep", "Matutulog na ang system"}
	phrasePaused    = phrase{"Paused", "Naka-pause na"}
	phraseResumed   = phrase{"Resuming", "Tuloy na ulit"}
	phraseNext      = phrase{"Skipping", "Susunod na kanta"}
	phrasePrevious  = phrase{"Going back", "Babalik sa nakaraan"}
	phraseVolumeUp  = phrase{"Volume up", "Nilakasan ko na"}
	phraseVolumeDn  = phrase{"Volume down", "Hininaan ko na"}
	phraseAudioMute = phrase{"Audio muted", "Naka-mute na ang tunog"}
	phraseLightsOn  = phrase{"Lights on", "Bukas na ang ilaw"}
	phraseLightsOff = phrase{"Lights off", "Patay na ang ilaw"}
	phraseMuted     = phrase{"Going quiet. Press the hotkey to wake me", "Tatahimik muna ako"}
	phraseIdentity  = phrase{
		"I am Linny, your loyal intelligent neural network.",
		"Ako si Linny, ang iyong tapat na AI assistant.",
	}
	phraseWelcome   = phrase{"You're welcome!", "Walang anuman!"}
	phraseGoodbye   = phrase{"Goodbye! Shutting myself down.", "Paalam! Magsasara na ako."}
	phraseAttend    = phrase{"Yes?", "Ano yun?"}
	phraseCantDo    = phrase{"Sorry, I couldn't do that", "Sorry, hindi ko magawa yan"}
	phraseCantPlay  = phrase{"Sorry, I couldn't play that", "Sorry, hindi ko ma-play yan"}
	phraseNoLights  = phrase{"Sorry, the lights are not set up", "Sorry, hindi naka-setup ang ilaw"}
	phraseNoCal     = phrase{"Sorry, the calendar is not connected", "Sorry, hindi konektado ang calendar"}
	phraseNoWeather = phrase{"Sorry, weather lookup is not set up", "Sorry, hindi naka-setup ang weather"}
	phraseTimerUp   = phrase{"Time's up!", "Tapos na ang timer!"}
)

func timerConfirm(lang string, minutes int) string {
	if filipino(lang) {
		if minutes == 1 {
			return "Sige, timer for isang minuto"
		}
		return "Sige, timer for " + strconv.Itoa(minutes) + " minutos"
	}
	if minutes == 1 {
		return "Timer set for one minute"
	}
	return "Timer set for " + strconv.Itoa(minutes) + " minutes"
}

func launchConfirm(lang, app string) string {
	if filipino(lang) {
		return "Bubuksan ko ang " + app
	}
	return "Opening " + app
}

func playConfirm(lang, song string) string {
	if filipino(lang) {
		return "Hahanapin ko ang " + song + "..."
	}
	return "Searching for " + song + "..."
}
