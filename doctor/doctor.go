// Package doctor runs interactive end-to-end checks of every part the
// assistant depends on: the mute hotkey, the microphone and remote
// recognition, speech output, and the configured brain providers.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kidlatpogi/L.I.N.N.Y/audio"
	"github.com/kidlatpogi/L.I.N.N.Y/brain"
	"github.com/kidlatpogi/L.I.N.N.Y/config"
	"github.com/kidlatpogi/L.I.N.N.Y/hotkey"
	"github.com/kidlatpogi/L.I.N.N.Y/recognizer"
	"github.com/kidlatpogi/L.I.N.N.Y/voice"
)

// Run executes the diagnostic checks and returns an exit code
// (0=all pass, 1=any fail).
func Run(cfg *config.Config) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("linny doctor - interactive system diagnostics")
	fmt.Println("=============================================")

	allPass := true

	if !checkHotkey() {
		allPass = false
	}
	if allPass && !checkMicAndRecognition(cfg) {
		allPass = false
	}
	if allPass && !checkSpeech(cfg) {
		allPass = false
	}
	if !checkBrain(cfg) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkey() bool {
	fmt.Println()
	fmt.Println("[1/4] Mute hotkey")
	fmt.Println("Press Ctrl+Shift+Space...")

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		if diag, derr := hotkey.Diagnose(); derr == nil {
			fmt.Printf("  %s\n", diag)
		} else {
			fmt.Printf("  %v\n", derr)
		}
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// Hotkey capture may leave the terminal in raw mode.
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicAndRecognition(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[2/4] Microphone and recognition")

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer actx.Close()

	listener, err := audio.OpenListener(actx, cfg.Microphone)
	if err != nil {
		fmt.Printf("  FAIL: cannot open microphone: %v\n", err)
		return false
	}
	defer listener.Close()

	fmt.Printf("Using device: %s\n", listener.DeviceName())
	fmt.Println("Calibrating ambient noise, stay quiet for a second...")
	if err := listener.Calibrate(context.Background(), time.Second); err != nil {
		fmt.Printf("  FAIL: calibration: %v\n", err)
		return false
	}
	fmt.Printf("  Energy threshold: %.4f\n", listener.Threshold())

	fmt.Println("Say something within the next 10 seconds...")
	pcm, err := listener.Capture(context.Background(), 10*time.Second, 8*time.Second)
	if err != nil {
		fmt.Printf("  FAIL: capture: %v\n", err)
		return false
	}
	fmt.Printf("  Captured %.1f KB, recognizing...\n", float64(len(pcm))/1024)

	rec := recognizer.New()
	result, err := rec.Recognize(context.Background(), pcm, cfg.Language)
	if err != nil {
		fmt.Printf("  FAIL: recognition: %v\n", err)
		return false
	}
	fmt.Printf("\n  Recognized text: %s\n\n", result.Text)

	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: recognition verified by user")
		return true
	}
	fmt.Println("  FAIL: recognition not confirmed")
	return false
}

func checkSpeech(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[3/4] Speech output")

	var engine voice.Engine
	if cfg.Engine == "espeak" {
		e, err := voice.NewEspeak(cfg.Language)
		if err != nil {
			fmt.Printf("  FAIL: %v\n", err)
			return false
		}
		engine = e
	} else {
		engine = voice.NewEdge(voice.VoiceFor(cfg.Language))
	}

	fmt.Printf("Speaking a test phrase with %s...\n", engine.Name())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := engine.Speak(ctx, "Systems check. Can you hear me?"); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Did you hear the voice? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: speech output verified by user")
		return true
	}
	fmt.Println("  FAIL: speech output not confirmed")
	return false
}

func checkBrain(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[4/4] Brain providers")

	router := brain.NewRouter(cfg)
	names := router.ProviderNames()
	if len(names) == 0 {
		fmt.Println("  WARN: no API keys configured; only built-in commands will work")
		return true
	}
	fmt.Printf("  Configured: %s\n", strings.Join(names, ", "))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	reply := router.Answer(ctx, "Reply with the single word: ready")
	fmt.Printf("  Answer: %s\n", reply)
	if strings.HasPrefix(reply, "Sorry,") {
		fmt.Println("  FAIL: no provider answered; check keys and connectivity")
		return false
	}
	fmt.Println("  PASS: brain reachable")
	return true
}
