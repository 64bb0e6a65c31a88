// Package config loads linny_config.json and merges environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const FileName = "linny_config.json"

// Config holds everything tunable at startup. Keyword lists live here
// rather than in code because they were tuned empirically across many
// rewrites of this assistant.
type Config struct {
	GroqAPIKey       string `json:"groq_api_key"`
	PerplexityAPIKey string `json:"perplexity_api_key"`
	GeminiAPIKey     string `json:"gemini_api_key"`

	WakeWord string `json:"wake_word"`
	UserName string `json:"user_name"`
	Language string `json:"language"` // "en-US" or "fil-PH"

	Microphone string `json:"microphone"` // device name, empty = system default
	Engine     string `json:"tts_engine"` // "edge" or "espeak"

	// WakeAliases are phonetic variants of the wake word; recognition
	// regularly mangles "Linny" into these.
	WakeAliases    []string `json:"wake_aliases"`
	SearchKeywords []string `json:"search_keywords"`
}

// Default returns the built-in configuration, as used when no config
// file exists yet.
func Default() *Config { return defaults() }

func defaults() *Config {
	return &Config{
		WakeWord: "Linny",
		UserName: "Zeus",
		Language: "en-US",
		Engine:   "edge",
		WakeAliases: []string{
			"linny", "lini", "leni", "liney", "line he",
			"lennie", "lenny", "lily", "lilly", "lany",
		},
		SearchKeywords: []string{
			"search", "price", "news", "who won", "latest", "weather",
			"current", "find", "lookup", "what is", "what's",
			"hanap", "presyo", "balita", "panahon",
		},
	}
}

// DefaultPath returns the config file next to the executable, falling
// back to the working directory.
func DefaultPath() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exe), FileName)
	}
	return FileName
}

// Load reads the config file at path, fills in defaults for missing
// fields, and applies environment overrides. A missing file is not an
// error; the defaults are returned.
func Load(path string) (*Config, error) {
	// .env is optional; ignore absence.
	godotenv.Load()

	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// first run
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	normalize(cfg)
	return cfg, nil
}

// Save writes the config back out, pretty-printed like the settings
// dashboard does.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.GroqAPIKey = v
	}
	if v := os.Getenv("PERPLEXITY_API_KEY"); v != "" {
		cfg.PerplexityAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("LINNY_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("LINNY_USER_NAME"); v != "" {
		cfg.UserName = v
	}
}

func normalize(cfg *Config) {
	def := defaults()
	if strings.TrimSpace(cfg.WakeWord) == "" {
		cfg.WakeWord = def.WakeWord
	}
	if strings.TrimSpace(cfg.UserName) == "" {
		cfg.UserName = def.UserName
	}
	if cfg.Language != "fil-PH" {
		cfg.Language = "en-US"
	}
	if cfg.Engine != "espeak" {
		cfg.Engine = "edge"
	}
	if len(cfg.WakeAliases) == 0 {
		cfg.WakeAliases = def.WakeAliases
	}
	if len(cfg.SearchKeywords) == 0 {
		cfg.SearchKeywords = def.SearchKeywords
	}
	// The configured wake word always counts as its own alias.
	ww := strings.ToLower(strings.TrimSpace(cfg.WakeWord))
	for _, a := range cfg.WakeAliases {
		if a == ww {
			return
		}
	}
	cfg.WakeAliases = append(cfg.WakeAliases, ww)
}
