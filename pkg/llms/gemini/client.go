// Package gemini is the alternate text-generation backend, selected with
// PODSCRIPT_PROVIDER=gemini. It mirrors the openai package's contract so the
// orchestrator never knows which provider is underneath.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/podscript-ai/podscript/pkg/logging"
	"github.com/podscript-ai/podscript/pkg/model"
	"github.com/podscript-ai/podscript/pkg/retry"
	"github.com/podscript-ai/podscript/pkg/utils"
)

const (
	providerName       = "gemini"
	defaultModelName   = "gemini-2.5-flash"
	defaultCallTimeout = 30 * time.Second
)

// Config carries the startup settings for the Gemini client.
type Config struct {
	APIKey          string
	BaseURL         string
	GenerationModel string
	CallTimeout     time.Duration
	RetryAttempts   int
	RetryBaseDelay  time.Duration
}

// Client implements model.TextGenerator over the Gemini API.
type Client struct {
	api     *genai.Client
	cfg     Config
	machine *retry.Machine
}

// Option customizes the client.
type Option func(*Client)

// WithRetryMachine overrides the retry machine (used by tests).
func WithRetryMachine(m *retry.Machine) Option {
	return func(c *Client) {
		if m != nil {
			c.machine = m
		}
	}
}

func NewClient(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, utils.WrapIfNotNil(errors.New("api key is required"))
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}

	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  strings.TrimSpace(cfg.APIKey),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	api, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	c := &Client{
		api:     api,
		cfg:     cfg,
		machine: retry.New(cfg.RetryAttempts, cfg.RetryBaseDelay),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate issues one generation call with the shared retry discipline.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...model.GenerateOption) (string, model.GenerationMetadata, error) {
	start := time.Now()
	cfg := model.ResolveGenerateOpts(opts...)
	modelName := c.resolveModelName(cfg)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	if strings.TrimSpace(prompt) == "" {
		return "", meta, utils.WrapIfNotNil(errors.New("prompt is required"))
	}

	log := logging.NewLogger(ctx).WithField("provider", providerName)
	log.Infof("generation_request model=%q prompt_chars=%d max_tokens=%v", modelName, len([]rune(prompt)), cfg.MaxTokens)

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	config := &genai.GenerateContentConfig{}
	if cfg.Temperature != nil {
		temp := float32(*cfg.Temperature)
		config.Temperature = &temp
	}
	if cfg.MaxTokens != nil {
		config.MaxOutputTokens = int32(*cfg.MaxTokens)
	}

	timeout := c.cfg.CallTimeout
	if cfg.Timeout != nil && *cfg.Timeout > 0 {
		timeout = *cfg.Timeout
	}

	attempts := 0
	var output string
	err := c.machine.Do(ctx, func(ctx context.Context) error {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		response, err := c.api.Models.GenerateContent(attemptCtx, modelName, contents, config)
		if err != nil {
			return err
		}
		if response == nil {
			return model.NewError(model.KindExtraction, model.ReasonMalformedResponse, "generate content returned nil response")
		}
		applyUsageMetadata(meta, response)

		output = strings.TrimSpace(response.Text())
		if output == "" {
			return model.NewError(model.KindExtraction, model.ReasonMalformedResponse, "generation output is empty")
		}
		return nil
	}, classifyTransient)
	meta[model.MetadataKeyAttempts] = strconv.Itoa(attempts)

	if err != nil {
		log.Errorf("generation_failed attempts=%d error=%v", attempts, err)
		if model.ReasonOf(err) != "" {
			return "", meta, utils.WrapIfNotNil(err)
		}
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			return "", meta, utils.WrapIfNotNil(
				model.WrapError(model.KindTransport, model.ReasonServiceUnavailable, "generation retries exhausted", err),
			)
		}
		return "", meta, utils.WrapIfNotNil(
			model.WrapError(model.KindTransport, model.ReasonServiceUnavailable, "generation rejected by service", err),
		)
	}

	return output, meta, nil
}

// classifyTransient mirrors the openai package's verdicts for Gemini's error
// shape. The Gemini API reports no machine-readable retry delay, so rate
// limits fall back to the exponential schedule.
func classifyTransient(err error) retry.Classification {
	if errors.Is(err, context.DeadlineExceeded) {
		return retry.Classification{Transient: true}
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusRequestTimeout,
			apiErr.Code == http.StatusTooManyRequests,
			apiErr.Code >= http.StatusInternalServerError:
			return retry.Classification{Transient: true}
		default:
			return retry.Classification{}
		}
	}

	return retry.Classification{}
}

func (c *Client) resolveModelName(cfg model.GenerateConfig) string {
	if cfg.Model != nil {
		if name := strings.TrimSpace(*cfg.Model); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(c.cfg.GenerationModel); name != "" {
		return name
	}
	return defaultModelName
}

func initMetadata(modelName string) model.GenerationMetadata {
	if strings.TrimSpace(modelName) == "" {
		modelName = "unknown"
	}
	return model.GenerationMetadata{
		model.MetadataKeyProvider: providerName,
		model.MetadataKeyModel:    modelName,
	}
}

func setLatencyMetadata(meta model.GenerationMetadata, start time.Time) {
	if meta == nil {
		return
	}
	meta[model.MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}

func applyUsageMetadata(meta model.GenerationMetadata, response *genai.GenerateContentResponse) {
	if meta == nil || response == nil || response.UsageMetadata == nil {
		return
	}
	usage := response.UsageMetadata
	meta[model.MetadataKeyInputTokens] = strconv.Itoa(int(usage.PromptTokenCount))
	meta[model.MetadataKeyOutputTokens] = strconv.Itoa(int(usage.CandidatesTokenCount))
	meta[model.MetadataKeyTotalTokens] = strconv.Itoa(int(usage.TotalTokenCount))
}
