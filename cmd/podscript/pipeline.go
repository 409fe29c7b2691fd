package main

import (
	"context"

	"github.com/podscript-ai/podscript/pkg/audio"
	"github.com/podscript-ai/podscript/pkg/config"
	"github.com/podscript-ai/podscript/pkg/content"
	"github.com/podscript-ai/podscript/pkg/history"
	"github.com/podscript-ai/podscript/pkg/llms/gemini"
	"github.com/podscript-ai/podscript/pkg/llms/openai"
	"github.com/podscript-ai/podscript/pkg/manuscript"
	"github.com/podscript-ai/podscript/pkg/model"
)

// pipeline bundles everything a command needs to run the content flow.
type pipeline struct {
	cfg   *config.Config
	orch  *content.Orchestrator
	store *history.FileStore
}

func buildPipeline(ctx context.Context) (*pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var openaiClient *openai.Client
	if cfg.OpenAIAPIKey != "" {
		openaiClient, err = openai.NewClient(openai.Config{
			APIKey:             cfg.OpenAIAPIKey,
			BaseURL:            cfg.OpenAIBaseURL,
			GenerationModel:    cfg.OpenAIGenerationModel,
			TranscriptionModel: cfg.OpenAITranscriptionModel,
			CallTimeout:        cfg.RequestTimeout(),
			RetryAttempts:      cfg.RetryAttempts,
		})
		if err != nil {
			return nil, err
		}
	}

	var generator model.TextGenerator
	switch cfg.Provider {
	case config.ProviderGemini:
		generator, err = gemini.NewClient(ctx, gemini.Config{
			APIKey:          cfg.GeminiAPIKey,
			GenerationModel: cfg.GeminiGenerationModel,
			CallTimeout:     cfg.RequestTimeout(),
			RetryAttempts:   cfg.RetryAttempts,
		})
		if err != nil {
			return nil, err
		}
	default:
		generator = openaiClient
	}

	// Speech-to-text always goes through the transcription API; without an
	// OpenAI key, audio input is rejected with a clear message.
	var transcriber model.Transcriber = noTranscriber{}
	if openaiClient != nil {
		transcriber = openaiClient
	}

	processor := audio.NewProcessor(
		transcriber,
		audio.FFProbe{Binary: cfg.FFProbeBinary},
		audio.Limits{MaxFileSize: cfg.MaxFileSizeBytes, MaxDuration: cfg.MaxAudioDuration()},
	)

	store := history.NewFileStore(cfg.DataDir, history.WithLimit(cfg.HistoryLimit))
	orch := content.NewOrchestrator(
		generator,
		processor,
		manuscript.NewLoader(nil),
		store,
		content.NewPromptBuilder(cfg.MaxPromptChars),
	)

	return &pipeline{cfg: cfg, orch: orch, store: store}, nil
}

type noTranscriber struct{}

func (noTranscriber) Transcribe(context.Context, string, string) (string, error) {
	return "", model.NewError(
		model.KindValidation, model.ReasonUnsupportedFormat,
		"audio transcription requires OPENAI_API_KEY; supply a manuscript instead",
	)
}
