package voice

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Espeak is the offline fallback engine. It shells out to espeak-ng,
// which plays straight to the default audio device, so there is no
// decoding or mixing on our side.
type Espeak struct {
	binary string
	lang   string
}

// NewEspeak prefers espeak-ng but accepts the legacy espeak binary.
func NewEspeak(lang string) (*Espeak, error) {
	bin, err := exec.LookPath("espeak-ng")
	if err != nil {
		bin, err = exec.LookPath("espeak")
		if err != nil {
			return nil, fmt.Errorf("espeak-ng not installed: %w", err)
		}
	}
	voice := "en"
	if strings.EqualFold(lang, "fil-PH") {
		voice = "tl"
	}
	return &Espeak{binary: bin, lang: voice}, nil
}

func (e *Espeak) Name() string { return "espeak:" + e.lang }

func (e *Espeak) Speak(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, e.binary, "-v", e.lang, "-s", "160", text)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("espeak: %w", err)
	}
	return nil
}
