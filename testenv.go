package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kidlatpogi/L.I.N.N.Y/brain"
	"github.com/kidlatpogi/L.I.N.N.Y/chime"
	"github.com/kidlatpogi/L.I.N.N.Y/config"
	"github.com/kidlatpogi/L.I.N.N.Y/dispatch"
	"github.com/kidlatpogi/L.I.N.N.Y/log"
	"github.com/kidlatpogi/L.I.N.N.Y/voice"
)

// runTestMode drives the dispatcher from stdin instead of the
// microphone: each HEAR line is treated as a recognized utterance and
// spoken output is printed rather than synthesized. No audio hardware,
// no OS side effects.
//
// Protocol, one command per line:
//
//	HEAR <text>   inject an utterance
//	SLEEP <ms>    pause the driver
//	WAIT          block until speech output goes idle
//	QUIT          exit
func runTestMode(cfg *config.Config) {
	chime.Disable()

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	speaker := voice.NewSpeaker(&printEngine{})
	defer speaker.Close()

	router := brain.NewRouter(cfg)
	var mute atomic.Bool

	dispatcher := dispatch.New(dispatch.Params{
		Config: cfg,
		Speak:  speaker,
		Brain:  func() dispatch.Brain { return router },
		Collab: testCollaborators(),
		Mute:   &mute,
		Quit:   func() { os.Exit(0) },
	})

	log.SessionStart(cfg.Language, "print", len(router.ProviderNames()))

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "HEAR "):
			text := strings.TrimPrefix(line, "HEAR ")
			log.Utterance(text)
			dispatcher.Dispatch(dispatch.UtteranceEvent{
				Text: text,
				When: time.Now(),
				Lang: cfg.Language,
			})
		case strings.HasPrefix(line, "SLEEP "):
			if ms, err := strconv.Atoi(strings.TrimPrefix(line, "SLEEP ")); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case line == "WAIT":
			for speaker.Speaking() {
				time.Sleep(5 * time.Millisecond)
			}
		case line == "QUIT":
			return
		}
	}
}

// printEngine prints instead of synthesizing so test drivers can
// assert on output.
type printEngine struct{}

func (printEngine) Name() string { return "print" }

func (printEngine) Speak(_ context.Context, text string) error {
	fmt.Printf("SPOKE: %s\n", text)
	return nil
}

// testCollaborators print the action they would have taken.
func testCollaborators() dispatch.Collaborators {
	return dispatch.Collaborators{
		System: printSystem{},
		Media:  printMedia{},
		Apps:   printLauncher{},
		Timers: printTimers{},
	}
}

type printSystem struct{}

func (printSystem) Lock() error     { fmt.Println("ACTION: lock"); return nil }
func (printSystem) PowerOff() error { fmt.Println("ACTION: poweroff"); return nil }
func (printSystem) Reboot() error   { fmt.Println("ACTION: reboot"); return nil }
func (printSystem) Sleep() error    { fmt.Println("ACTION: sleep"); return nil }

type printMedia struct{}

func (printMedia) Key(kind dispatch.MediaKey) error {
	fmt.Printf("ACTION: media %s\n", kind)
	return nil
}

type printLauncher struct{}

func (printLauncher) Launch(nameOrURL string) error {
	fmt.Printf("ACTION: launch %s\n", nameOrURL)
	return nil
}

type printTimers struct{}

func (printTimers) Schedule(d time.Duration, announce func()) {
	fmt.Printf("ACTION: timer in %s\n", d)
	time.AfterFunc(d, announce)
}
