package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	convFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: LINNY_LOG_PATH environment variable
	envPath := os.Getenv("LINNY_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	convPath := filepath.Join(dir, "conversation_log.txt")
	convFile, err = os.OpenFile(convPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if convFile != nil {
		convFile.Close()
		convFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// Utterance records one recognized user utterance in the conversation log.
func Utterance(text string) {
	convLine("heard", text)
}

// Spoken records one synthesized reply in the conversation log.
func Spoken(text string) {
	convLine("spoke", text)
}

func convLine(kind, text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, kind, text)
	convFile.WriteString(line)
}

// BrainReply records which provider answered and how long the cascade took.
func BrainReply(provider string, searchIntent bool, elapsed time.Duration, chars int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("provider", provider).
		Bool("search_intent", searchIntent).
		Float64("total_ms", float64(elapsed.Milliseconds())).
		Int("chars", chars).
		Msg("brain_reply")
}

// BrainDecline records a provider that failed or was skipped.
func BrainDecline(provider, reason string) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Str("provider", provider).
		Str("reason", reason).
		Msg("brain_decline")
}

// DispatchHit records which rule category an utterance resolved to.
func DispatchHit(category, command string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("category", category).
		Str("command", command).
		Msg("dispatch")
}

func SessionStart(lang, engine string, providers int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("lang", lang).
		Str("engine", engine).
		Int("providers", providers).
		Msg("session_start")
}

func SessionEnd(utterances int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("utterances", utterances).
		Msg("session_end")
}
