package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kidlatpogi/L.I.N.N.Y/audio"
	"github.com/kidlatpogi/L.I.N.N.Y/brain"
	"github.com/kidlatpogi/L.I.N.N.Y/chime"
	"github.com/kidlatpogi/L.I.N.N.Y/config"
	"github.com/kidlatpogi/L.I.N.N.Y/dispatch"
	"github.com/kidlatpogi/L.I.N.N.Y/doctor"
	"github.com/kidlatpogi/L.I.N.N.Y/hotkey"
	"github.com/kidlatpogi/L.I.N.N.Y/log"
	"github.com/kidlatpogi/L.I.N.N.Y/recognizer"
	"github.com/kidlatpogi/L.I.N.N.Y/shutdown"
	"github.com/kidlatpogi/L.I.N.N.Y/voice"
)

var version = "dev"

var shutdownOnce sync.Once

func gracefulShutdown(coord *Coordinator, speaker *voice.Speaker, exit func()) {
	shutdownOnce.Do(func() {
		if coord != nil {
			log.SessionEnd(coord.Utterances())
		}
		if speaker != nil {
			speaker.Close()
		}
		log.Close()
		exit()
	})
}

func run() {
	configFlag := flag.String("config", "", "Config file path (default: linny_config.json next to the executable)")
	setupFlag := flag.Bool("setup", false, "Select microphone device interactively")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	langFlag := flag.String("lang", "", "Recognition language: en-US or fil-PH (overrides config)")
	nameFlag := flag.String("name", "", "User name spoken in greetings (overrides config)")
	engineFlag := flag.String("engine", "", "Speech engine: edge or espeak (overrides config)")
	muteFlag := flag.Bool("mute", false, "Start muted; unmute with Ctrl+Shift+Space")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven, no audio hardware)")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("linny %s\n", version)
		return
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *langFlag != "" {
		cfg.Language = *langFlag
	}
	if *nameFlag != "" {
		cfg.UserName = *nameFlag
	}
	if *engineFlag != "" {
		cfg.Engine = *engineFlag
	}
	if *deviceFlag != "" {
		cfg.Microphone = *deviceFlag
	}

	logDir, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving log path: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logDir)

	if *doctorFlag {
		os.Exit(doctor.Run(cfg))
	}
	if *testFlag {
		runTestMode(cfg)
		return
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to audio: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	var listener *audio.Listener
	if *setupFlag {
		device, err := audio.SelectDevice(actx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error selecting device: %v\n", err)
			os.Exit(1)
		}
		if device != nil {
			cfg.Microphone = device.Name
		}
		if err := config.Save(configPath, cfg); err != nil {
			log.Warnf("could not save config: %v", err)
		}
	}
	listener, err = audio.OpenListener(actx, cfg.Microphone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening microphone: %v\n", err)
		os.Exit(1)
	}
	defer listener.Close()

	engine, err := buildEngine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing speech engine: %v\n", err)
		os.Exit(1)
	}
	speaker := voice.NewSpeaker(engine)

	// The brain router is replaced wholesale on settings reload;
	// in-flight dispatches keep the instance they started with.
	var router atomic.Pointer[brain.Router]
	router.Store(brain.NewRouter(cfg))

	var mute atomic.Bool
	mute.Store(*muteFlag)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := dispatch.New(dispatch.Params{
		Config: cfg,
		Speak:  speaker,
		Brain:  func() dispatch.Brain { return router.Load() },
		Collab: dispatch.DefaultCollaborators(),
		Mute:   &mute,
		Quit:   cancel,
	})

	coord := NewCoordinator(listener, recognizer.New(), speaker, dispatcher, &mute, cfg.Language)

	// Mute hotkey works even when voice commands cannot (muted, or a
	// launched app is hogging the audio path).
	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Warnf("hotkey unavailable: %v", err)
	} else {
		defer hk.Unregister()
		toggle := hotkey.NewMuteToggle(hk)
		defer toggle.Close()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-toggle.Events():
					muted := !mute.Load()
					mute.Store(muted)
					if muted {
						speaker.Interrupt()
						log.Info("muted via hotkey")
					} else {
						log.Info("unmuted via hotkey")
					}
				}
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	shutdown.Notify(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	reloadCh := make(chan os.Signal, 1)
	shutdown.NotifyReload(reloadCh)
	go func() {
		for range reloadCh {
			fresh, err := config.Load(configPath)
			if err != nil {
				log.Errorf("reload: %v", err)
				continue
			}
			router.Store(brain.NewRouter(fresh))
			log.Infof("settings reloaded, %d providers configured", len(router.Load().ProviderNames()))
		}
	}()

	log.SessionStart(cfg.Language, cfg.Engine, len(router.Load().ProviderNames()))
	fmt.Printf("linny %s listening on %s (%s, %s)\n", version, listener.DeviceName(), cfg.Language, engine.Name())

	chime.Init()
	log.Info("calibrating ambient noise")
	if err := listener.Calibrate(ctx, time.Second); err != nil {
		log.Warnf("calibration failed, using floor threshold: %v", err)
	}
	chime.Ready()

	speaker.Say(greeting(cfg))

	coord.Run(ctx)
	gracefulShutdown(coord, speaker, func() { os.Exit(0) })
}

func buildEngine(cfg *config.Config) (voice.Engine, error) {
	if cfg.Engine == "espeak" {
		return voice.NewEspeak(cfg.Language)
	}
	return voice.NewEdge(voice.VoiceFor(cfg.Language)), nil
}

func greeting(cfg *config.Config) string {
	if cfg.Language == "fil-PH" {
		return "Magandang umaga, " + cfg.UserName + ". Online na ang mga sistema."
	}
	return "Good morning, " + cfg.UserName + ". Systems are online."
}
