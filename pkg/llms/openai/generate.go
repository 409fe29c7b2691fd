package openai

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/podscript-ai/podscript/pkg/logging"
	"github.com/podscript-ai/podscript/pkg/model"
	"github.com/podscript-ai/podscript/pkg/utils"
)

// Generate issues one text-generation call with retry/backoff. Transient
// transport failures are retried up to the configured attempt cap; anything
// else propagates immediately.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...model.GenerateOption) (string, model.GenerationMetadata, error) {
	start := time.Now()
	cfg := model.ResolveGenerateOpts(opts...)
	modelName := c.resolveGenerationModel(cfg)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	if strings.TrimSpace(prompt) == "" {
		return "", meta, utils.WrapIfNotNil(errors.New("prompt is required"))
	}

	log := logging.NewLogger(ctx).WithField("provider", providerName)
	log.Infof("generation_request model=%q prompt_chars=%d max_tokens=%v", modelName, len([]rune(prompt)), cfg.MaxTokens)

	params := responses.ResponseNewParams{
		Input: responses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
		Model: shared.ResponsesModel(modelName),
	}
	if cfg.Temperature != nil {
		params.Temperature = openai.Float(*cfg.Temperature)
	}
	if cfg.MaxTokens != nil {
		params.MaxOutputTokens = openai.Int(int64(*cfg.MaxTokens))
	}

	timeout := c.callTimeout(cfg)
	attempts := 0
	var output string
	err := c.machine.Do(ctx, func(ctx context.Context) error {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		response, err := c.api.Responses.New(attemptCtx, params)
		if err != nil {
			return err
		}
		if response == nil {
			return model.NewError(model.KindExtraction, model.ReasonMalformedResponse, "responses API returned nil response")
		}
		applyUsageMetadata(meta, response)

		output = strings.TrimSpace(response.OutputText())
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
		return "", meta, utils.WrapIfNotNil(terminalError(err, "generation"))
	}

	return output, meta, nil
}

func applyUsageMetadata(meta model.GenerationMetadata, response *responses.Response) {
	if meta == nil || response == nil {
		return
	}
	meta[model.MetadataKeyInputTokens] = strconv.FormatInt(response.Usage.InputTokens, 10)
	meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(response.Usage.OutputTokens, 10)
	meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(response.Usage.TotalTokens, 10)
}
