// Package config loads surf service settings from the environment, with an
// optional YAML override file pointed at by SURF_CONFIG.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the service reads at startup.
type Config struct {
	Port string `yaml:"port"`

	// LLM provider credentials and model overrides.
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIModel     string `yaml:"openai_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`
	GroqAPIKey      string `yaml:"groq_api_key"`
	GroqModel       string `yaml:"groq_model"`
	GroqBaseURL     string `yaml:"groq_base_url"`

	// TavilyAPIKey enables the research capability. Empty disables it.
	TavilyAPIKey string `yaml:"tavily_api_key"`

	// Artifact directories.
	ScreenshotsDir string `yaml:"screenshots_dir"`
	ResultsDir     string `yaml:"results_dir"`

	// Workflow limits.
	MaxSteps       int `yaml:"max_steps"`
	RecursionLimit int `yaml:"recursion_limit"`

	// Browser settings.
	ViewportWidth  int      `yaml:"viewport_width"`
	ViewportHeight int      `yaml:"viewport_height"`
	BlockedURLs    []string `yaml:"blocked_urls"`
}

// Load reads configuration from the environment and, if SURF_CONFIG names a
// readable YAML file, merges its non-zero fields over the environment values.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnv("SURF_PORT", "8000"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		GroqModel:       getEnv("GROQ_MODEL", "llama3-70b-8192"),
		GroqBaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		TavilyAPIKey:    getEnv("TAVILY_API_KEY", ""),
		ScreenshotsDir:  getEnv("SURF_SCREENSHOTS_DIR", "screenshots"),
		ResultsDir:      getEnv("SURF_RESULTS_DIR", "results"),
		MaxSteps:        getEnvInt("SURF_MAX_STEPS", 40),
		RecursionLimit:  getEnvInt("SURF_RECURSION_LIMIT", 100),
		ViewportWidth:   getEnvInt("SURF_VIEWPORT_WIDTH", 1280),
		ViewportHeight:  getEnvInt("SURF_VIEWPORT_HEIGHT", 1080),
		BlockedURLs:     splitList(getEnv("SURF_BLOCKED_URLS", "")),
	}

	if path := os.Getenv("SURF_CONFIG"); path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// EnsureDirs creates the artifact directories if they do not exist yet.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.ScreenshotsDir, c.ResultsDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	mergeString(&cfg.Port, overlay.Port)
	mergeString(&cfg.OpenAIAPIKey, overlay.OpenAIAPIKey)
	mergeString(&cfg.OpenAIModel, overlay.OpenAIModel)
	mergeString(&cfg.AnthropicAPIKey, overlay.AnthropicAPIKey)
	mergeString(&cfg.AnthropicModel, overlay.AnthropicModel)
	mergeString(&cfg.GroqAPIKey, overlay.GroqAPIKey)
	mergeString(&cfg.GroqModel, overlay.GroqModel)
	mergeString(&cfg.GroqBaseURL, overlay.GroqBaseURL)
	mergeString(&cfg.TavilyAPIKey, overlay.TavilyAPIKey)
	mergeString(&cfg.ScreenshotsDir, overlay.ScreenshotsDir)
	mergeString(&cfg.ResultsDir, overlay.ResultsDir)
	mergeInt(&cfg.MaxSteps, overlay.MaxSteps)
	mergeInt(&cfg.RecursionLimit, overlay.RecursionLimit)
	mergeInt(&cfg.ViewportWidth, overlay.ViewportWidth)
	mergeInt(&cfg.ViewportHeight, overlay.ViewportHeight)
	if len(overlay.BlockedURLs) > 0 {
		cfg.BlockedURLs = overlay.BlockedURLs
	}

	return nil
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
