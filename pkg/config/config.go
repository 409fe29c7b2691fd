// Package config resolves runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Provider names accepted by PODSCRIPT_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config is the full runtime configuration. Every field has a usable default;
// only the active provider's API key is mandatory.
type Config struct {
	Provider string `env:"PODSCRIPT_PROVIDER,default=openai"`

	OpenAIAPIKey             string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL            string `env:"OPENAI_BASE_URL"`
	OpenAIGenerationModel    string `env:"OPENAI_GENERATION_MODEL,default=gpt-4o-mini"`
	OpenAITranscriptionModel string `env:"OPENAI_TRANSCRIPTION_MODEL,default=whisper-1"`

	GeminiAPIKey          string `env:"GEMINI_API_KEY"`
	GeminiGenerationModel string `env:"GEMINI_GENERATION_MODEL,default=gemini-2.5-flash"`

	MaxFileSizeBytes   int64 `env:"PODSCRIPT_MAX_FILE_SIZE,default=1073741824"`
	MaxAudioMinutes    int   `env:"PODSCRIPT_MAX_AUDIO_DURATION,default=120"`
	MaxPromptChars     int   `env:"PODSCRIPT_MAX_PROMPT_CHARS,default=8000"`
	HistoryLimit       int   `env:"PODSCRIPT_HISTORY_LIMIT,default=10"`
	RetryAttempts      int   `env:"PODSCRIPT_RETRY_ATTEMPTS,default=3"`
	RequestTimeoutSecs int   `env:"PODSCRIPT_REQUEST_TIMEOUT,default=30"`

	DataDir       string `env:"PODSCRIPT_DATA_DIR,default=./data"`
	ListenAddr    string `env:"PODSCRIPT_LISTEN_ADDR,default=:8080"`
	FFProbeBinary string `env:"PODSCRIPT_FFPROBE_BINARY,default=ffprobe"`

	Extras env.EnvSet
}

// Load reads .env (when present) and the process environment, then checks
// that the selected provider is usable.
func Load() (*Config, error) {
	// A missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{}
	extras, err := env.UnmarshalFromEnviron(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Extras = extras
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return errors.New("config: OPENAI_API_KEY is required when PODSCRIPT_PROVIDER=openai")
		}
	case ProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return errors.New("config: GEMINI_API_KEY is required when PODSCRIPT_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}

	if c.MaxFileSizeBytes <= 0 || c.MaxAudioMinutes <= 0 || c.MaxPromptChars <= 0 ||
		c.HistoryLimit <= 0 || c.RetryAttempts <= 0 || c.RequestTimeoutSecs <= 0 {
		return errors.New("config: limits must be positive")
	}
	return nil
}

// MaxAudioDuration returns the audio length ceiling as a duration.
func (c *Config) MaxAudioDuration() time.Duration {
	return time.Duration(c.MaxAudioMinutes) * time.Minute
}

// RequestTimeout returns the per-call timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}
