// Package openai wraps the OpenAI APIs used by the pipeline: chat-style
// text generation and Whisper audio transcription. The client is constructed
// once at startup and injected everywhere it is needed; it performs no
// content-specific logic.
package openai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/podscript-ai/podscript/pkg/model"
	"github.com/podscript-ai/podscript/pkg/retry"
	"github.com/podscript-ai/podscript/pkg/utils"
)

const (
	providerName                  = "openai"
	defaultGenerationModelName    = "gpt-4o-mini"
	defaultTranscriptionModelName = "whisper-1"
	defaultCallTimeout            = 30 * time.Second
)

// Config carries the startup settings for the shared client.
type Config struct {
	APIKey             string
	BaseURL            string
	GenerationModel    string
	TranscriptionModel string
	CallTimeout        time.Duration
	RetryAttempts      int
	RetryBaseDelay     time.Duration
}

// Client is the process-wide OpenAI handle. It implements both
// model.TextGenerator and model.Transcriber.
type Client struct {
	api     openai.Client
	cfg     Config
	machine *retry.Machine
}

// Option customizes the client.
type Option func(*Client)

// WithRetryMachine overrides the retry machine (used by tests to remove
// real sleeps).
func WithRetryMachine(m *retry.Machine) Option {
	return func(c *Client) {
		if m != nil {
			c.machine = m
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, utils.WrapIfNotNil(errors.New("api key is required"))
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(strings.TrimSpace(cfg.BaseURL)))
	}

	c := &Client{
		api:     openai.NewClient(requestOpts...),
		cfg:     cfg,
		machine: retry.New(cfg.RetryAttempts, cfg.RetryBaseDelay),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// classifyTransient decides whether an attempt error may be retried. Rate
// limits surface the server-specified delay when the response carries one.
func classifyTransient(err error) retry.Classification {
	if errors.Is(err, context.DeadlineExceeded) {
		return retry.Classification{Transient: true}
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode >= http.StatusInternalServerError:
			return retry.Classification{Transient: true}
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return retry.Classification{Transient: true, ServerDelay: retryAfterOf(apiErr)}
		default:
			return retry.Classification{}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return retry.Classification{Transient: true}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return retry.Classification{Transient: true}
	}

	return retry.Classification{}
}

func retryAfterOf(apiErr *openai.Error) time.Duration {
	if apiErr == nil || apiErr.Response == nil {
		return 0
	}
	delay, _ := parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
	return delay
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

// terminalError maps a post-retry failure onto the pipeline taxonomy.
func terminalError(err error, op string) error {
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return model.WrapError(model.KindTransport, model.ReasonServiceUnavailable, op+" retries exhausted", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return model.WrapError(model.KindTransport, model.ReasonServiceUnavailable, op+" abandoned", err)
	}
	return model.WrapError(model.KindTransport, model.ReasonServiceUnavailable, op+" rejected by service", err)
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

func (c *Client) resolveGenerationModel(cfg model.GenerateConfig) string {
	if cfg.Model != nil {
		if name := strings.TrimSpace(*cfg.Model); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(c.cfg.GenerationModel); name != "" {
		return name
	}
	return defaultGenerationModelName
}

func (c *Client) resolveTranscriptionModel() string {
	if name := strings.TrimSpace(c.cfg.TranscriptionModel); name != "" {
		return name
	}
	return defaultTranscriptionModelName
}

func (c *Client) callTimeout(cfg model.GenerateConfig) time.Duration {
	if cfg.Timeout != nil && *cfg.Timeout > 0 {
		return *cfg.Timeout
	}
	return c.cfg.CallTimeout
}
