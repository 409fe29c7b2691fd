package openai

import (
	"context"
	"errors"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/podscript-ai/podscript/pkg/logging"
	"github.com/podscript-ai/podscript/pkg/model"
	"github.com/podscript-ai/podscript/pkg/utils"
)

// Transcribe sends the audio file to the Whisper API and returns the raw
// transcribed text. Input validation (format, size, duration) happens in the
// audio package before this is called; here the file is trusted and only the
// network call is guarded by retry/backoff.
func (c *Client) Transcribe(ctx context.Context, filePath string, languageHint string) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", utils.WrapIfNotNil(errors.New("file path is required"))
	}

	modelName := c.resolveTranscriptionModel()
	log := logging.NewLogger(ctx).WithField("provider", providerName)
	log.Infof("transcription_request model=%q language_hint=%q", modelName, languageHint)

	var transcript string
	attempts := 0
	err := c.machine.Do(ctx, func(ctx context.Context) error {
		attempts++
		file, err := os.Open(filePath)
		if err != nil {
			return model.WrapError(model.KindValidation, model.ReasonEmptyContent, "audio file unreadable", err)
		}
		defer func() {
			_ = file.Close()
		}()

		params := openai.AudioTranscriptionNewParams{
			File:           file,
			Model:          openai.AudioModel(modelName),
			ResponseFormat: openai.AudioResponseFormatJSON,
		}
		if hint := strings.TrimSpace(languageHint); hint != "" {
			params.Language = param.NewOpt(hint)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()

		response, err := c.api.Audio.Transcriptions.New(attemptCtx, params)
		if err != nil {
			return err
		}
		if response == nil {
			return model.NewError(model.KindExtraction, model.ReasonMalformedResponse, "transcriptions API returned nil response")
		}

		transcript = strings.TrimSpace(response.Text)
		if transcript == "" {
			return model.NewError(model.KindExtraction, model.ReasonMalformedResponse, "transcription response is empty")
		}
		return nil
	}, classifyTransient)

	if err != nil {
		log.Errorf("transcription_failed attempts=%d error=%v", attempts, err)
		if model.ReasonOf(err) != "" {
			return "", utils.WrapIfNotNil(err)
		}
		return "", utils.WrapIfNotNil(terminalError(err, "transcription"))
	}

	return transcript, nil
}
