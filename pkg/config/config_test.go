package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) SetupTest() {
	// Tests control the full environment; anything inherited would leak in.
	for _, key := range []string{
		"PODSCRIPT_PROVIDER", "OPENAI_API_KEY", "GEMINI_API_KEY",
		"PODSCRIPT_MAX_FILE_SIZE", "PODSCRIPT_MAX_AUDIO_DURATION",
		"PODSCRIPT_HISTORY_LIMIT", "PODSCRIPT_RETRY_ATTEMPTS",
		"PODSCRIPT_REQUEST_TIMEOUT", "PODSCRIPT_LISTEN_ADDR",
	} {
		// Setenv registers the restore; Unsetenv clears for the test body.
		s.T().Setenv(key, "")
		s.Require().NoError(os.Unsetenv(key))
	}
}

func (s *ConfigSuite) TestDefaults() {
	s.T().Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal(ProviderOpenAI, cfg.Provider)
	s.Equal("gpt-4o-mini", cfg.OpenAIGenerationModel)
	s.Equal("whisper-1", cfg.OpenAITranscriptionModel)
	s.Equal(int64(1<<30), cfg.MaxFileSizeBytes)
	s.Equal(120*time.Minute, cfg.MaxAudioDuration())
	s.Equal(8000, cfg.MaxPromptChars)
	s.Equal(10, cfg.HistoryLimit)
	s.Equal(3, cfg.RetryAttempts)
	s.Equal(30*time.Second, cfg.RequestTimeout())
	s.Equal(":8080", cfg.ListenAddr)
	s.Equal("ffprobe", cfg.FFProbeBinary)
}

func (s *ConfigSuite) TestOverrides() {
	s.T().Setenv("OPENAI_API_KEY", "sk-test")
	s.T().Setenv("PODSCRIPT_MAX_AUDIO_DURATION", "90")
	s.T().Setenv("PODSCRIPT_HISTORY_LIMIT", "5")
	s.T().Setenv("PODSCRIPT_LISTEN_ADDR", ":9090")

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal(90*time.Minute, cfg.MaxAudioDuration())
	s.Equal(5, cfg.HistoryLimit)
	s.Equal(":9090", cfg.ListenAddr)
}

func (s *ConfigSuite) TestOpenAIKeyRequired() {
	_, err := Load()
	s.Require().Error(err)
	s.Contains(err.Error(), "OPENAI_API_KEY")
}

func (s *ConfigSuite) TestGeminiProvider() {
	s.T().Setenv("PODSCRIPT_PROVIDER", "gemini")
	s.T().Setenv("GEMINI_API_KEY", "g-test")

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal(ProviderGemini, cfg.Provider)
	s.Equal("gemini-2.5-flash", cfg.GeminiGenerationModel)
}

func (s *ConfigSuite) TestGeminiKeyRequired() {
	s.T().Setenv("PODSCRIPT_PROVIDER", "gemini")

	_, err := Load()
	s.Require().Error(err)
	s.Contains(err.Error(), "GEMINI_API_KEY")
}

func (s *ConfigSuite) TestUnknownProviderRejected() {
	s.T().Setenv("PODSCRIPT_PROVIDER", "cohere")

	_, err := Load()
	s.Require().Error(err)
	s.Contains(err.Error(), "unknown provider")
}

func (s *ConfigSuite) TestNonPositiveLimitRejected() {
	s.T().Setenv("OPENAI_API_KEY", "sk-test")
	s.T().Setenv("PODSCRIPT_RETRY_ATTEMPTS", "0")

	_, err := Load()
	s.Require().Error(err)
	s.Contains(err.Error(), "limits must be positive")
}
