package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BrowserChromedp   = "chromedp"
	BrowserRod        = "rod"
	BrowserPlaywright = "playwright"
)

// ErrCredentialMissing is returned by Validate when no API key is configured.
var ErrCredentialMissing = errors.New("OPENAI_API_KEY is not set")

type RuntimeConfig struct {
	APIKey         string
	APIBaseURL     string
	Model          string
	Temperature    float64
	MaxTokens      int
	MaxRetries     int
	RequestTimeout time.Duration

	QuestionLimit int

	Browser          string
	Headless         bool
	HumanClick       bool
	ChromeBinary     string
	ChromeExtraFlags string
	ChromeStartup    time.Duration

	LogLevel string

	// Warnings collects problems found while loading, logged by the caller
	// once its logger is set up.
	Warnings []string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envBoolOr(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func homeDir() string {
	h, _ := os.UserHomeDir()
	return h
}

// FileConfig is the on-disk shape of the optional config file, JSON or
// YAML by extension. The API key is never part of it.
type FileConfig struct {
	APIBaseURL string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	MaxRetries *int   `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	Questions  *int   `json:"questions,omitempty" yaml:"questions,omitempty"`
	Browser    string `json:"browser,omitempty" yaml:"browser,omitempty"`
	Headless   *bool  `json:"headless,omitempty" yaml:"headless,omitempty"`
	HumanClick bool   `json:"humanClick,omitempty" yaml:"humanClick,omitempty"`
	TimeoutSec int    `json:"timeoutSec,omitempty" yaml:"timeoutSec,omitempty"`
}

func configPath() string {
	return envOr("QUIZ_CONFIG", filepath.Join(homeDir(), ".quizpilot", "config.json"))
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeFileConfig(path string, data []byte) (FileConfig, error) {
	var fc FileConfig
	if isYAML(path) {
		return fc, yaml.Unmarshal(data, &fc)
	}
	return fc, json.Unmarshal(data, &fc)
}

func encodeFileConfig(path string, fc FileConfig) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(fc)
	}
	return json.MarshalIndent(fc, "", "  ")
}

// Load reads an optional .env file, then the environment, then the config
// file for anything the environment left unset.
func Load() *RuntimeConfig {
	var warnings []string
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		warnings = append(warnings, fmt.Sprintf("cannot read .env: %v", err))
	}

	cfg := &RuntimeConfig{
		APIKey:           os.Getenv("OPENAI_API_KEY"),
		APIBaseURL:       strings.TrimRight(envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		Model:            envOr("QUIZ_MODEL", "gpt-4"),
		Temperature:      0.2,
		MaxTokens:        30,
		MaxRetries:       envIntOr("QUIZ_MAX_RETRIES", 3),
		RequestTimeout:   60 * time.Second,
		QuestionLimit:    envIntOr("QUIZ_QUESTIONS", 26),
		Browser:          strings.ToLower(envOr("QUIZ_BROWSER", BrowserChromedp)),
		Headless:         envBoolOr("QUIZ_HEADLESS", true),
		HumanClick:       envBoolOr("QUIZ_HUMAN_CLICK", false),
		ChromeBinary:     os.Getenv("CHROME_BINARY"),
		ChromeExtraFlags: os.Getenv("CHROME_FLAGS"),
		ChromeStartup:    15 * time.Second,
		LogLevel:         envOr("QUIZ_LOG_LEVEL", "info"),
		Warnings:         warnings,
	}

	path := configPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("cannot read config file %s: %v", path, err))
		}
		return cfg
	}

	fc, err := decodeFileConfig(path, data)
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring malformed config file %s: %v", path, err))
		return cfg
	}

	if fc.APIBaseURL != "" && os.Getenv("OPENAI_BASE_URL") == "" {
		cfg.APIBaseURL = strings.TrimRight(fc.APIBaseURL, "/")
	}
	if fc.Model != "" && os.Getenv("QUIZ_MODEL") == "" {
		cfg.Model = fc.Model
	}
	if fc.MaxRetries != nil && *fc.MaxRetries >= 0 && os.Getenv("QUIZ_MAX_RETRIES") == "" {
		cfg.MaxRetries = *fc.MaxRetries
	}
	if fc.Questions != nil && *fc.Questions >= 0 && os.Getenv("QUIZ_QUESTIONS") == "" {
		cfg.QuestionLimit = *fc.Questions
	}
	if fc.Browser != "" && os.Getenv("QUIZ_BROWSER") == "" {
		cfg.Browser = strings.ToLower(fc.Browser)
	}
	if fc.Headless != nil && os.Getenv("QUIZ_HEADLESS") == "" {
		cfg.Headless = *fc.Headless
	}
	if fc.HumanClick && os.Getenv("QUIZ_HUMAN_CLICK") == "" {
		cfg.HumanClick = true
	}
	if fc.TimeoutSec > 0 {
		cfg.RequestTimeout = time.Duration(fc.TimeoutSec) * time.Second
	}

	return cfg
}

// Validate checks the config before any browser or network work starts.
func (c *RuntimeConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrCredentialMissing
	}
	switch c.Browser {
	case BrowserChromedp, BrowserRod, BrowserPlaywright:
	default:
		return fmt.Errorf("unknown browser %q (want %s, %s or %s)", c.Browser, BrowserChromedp, BrowserRod, BrowserPlaywright)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be > 0, got %d", c.MaxTokens)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *RuntimeConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func DefaultFileConfig() FileConfig {
	h := true
	retries := 3
	questions := 26
	return FileConfig{
		APIBaseURL: "https://api.openai.com/v1",
		Model:      "gpt-4",
		MaxRetries: &retries,
		Questions:  &questions,
		Browser:    BrowserChromedp,
		Headless:   &h,
		TimeoutSec: 60,
	}
}

func HandleConfigCommand(cfg *RuntimeConfig, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: quizpilot config <command>")
		fmt.Println("Commands:")
		fmt.Println("  init    - Create default config file")
		fmt.Println("  show    - Show current configuration")
		return nil
	}

	switch args[0] {
	case "init":
		path := configPath()

		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Config file already exists at %s\n", path)
			fmt.Print("Overwrite? (y/N): ")
			var response string
			_, _ = fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				return nil
			}
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}

		data, err := encodeFileConfig(path, DefaultFileConfig())
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		fmt.Printf("Config file created at %s\n", path)
		fmt.Println("The API key is read from OPENAI_API_KEY (environment or .env), never from this file.")

	case "show":
		fmt.Println("Current configuration:")
		fmt.Printf("  API key:     %s\n", MaskToken(cfg.APIKey))
		fmt.Printf("  Base URL:    %s\n", cfg.APIBaseURL)
		fmt.Printf("  Model:       %s\n", cfg.Model)
		fmt.Printf("  Max retries: %d\n", cfg.MaxRetries)
		fmt.Printf("  Questions:   %d\n", cfg.QuestionLimit)
		fmt.Printf("  Browser:     %s\n", cfg.Browser)
		fmt.Printf("  Headless:    %v\n", cfg.Headless)
		fmt.Printf("  Human click: %v\n", cfg.HumanClick)
		fmt.Printf("  Timeouts:    request=%v chrome=%v\n", cfg.RequestTimeout, cfg.ChromeStartup)

	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
	return nil
}

func MaskToken(t string) string {
	if t == "" {
		return "(none)"
	}
	if len(t) <= 8 {
		return "***"
	}
	return t[:4] + "..." + t[len(t)-4:]
}
