package content

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/podscript-ai/podscript/pkg/history"
	"github.com/podscript-ai/podscript/pkg/logging"
	"github.com/podscript-ai/podscript/pkg/manuscript"
	"github.com/podscript-ai/podscript/pkg/model"
	"github.com/podscript-ai/podscript/pkg/utils"
)

// Per-type output budgets, sized to the artifact's upper length bound.
var maxTokensByType = map[model.ArtifactType]int{
	model.ArtifactTitles:      500,
	model.ArtifactDescription: 500,
	model.ArtifactBlog:        1500,
}

const generationTemperature = 0.7

// AudioTranscriber is what the orchestrator needs from the audio pipeline.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, path string, languageHint string) (model.Transcript, error)
}

// Input describes one processing request. ManuscriptPath takes priority over
// AudioPath: when both are set the audio file is never touched.
type Input struct {
	Show           string
	AudioPath      string
	ManuscriptPath string
	Language       string
	Types          []model.ArtifactType
}

// Outcome is the per-type result of a Process call. Types are independent:
// one failing never discards another's artifact.
type Outcome struct {
	Type     model.ArtifactType
	Artifact model.ArtifactResult
	Metadata model.GenerationMetadata
	Err      error
}

// Result bundles the resolved transcript with the per-type outcomes, in the
// order the types were requested.
type Result struct {
	Transcript model.Transcript
	Outcomes   []Outcome
}

// Orchestrator drives the pipeline: resolve a transcript, generate each
// requested artifact concurrently, validate, and (on explicit Commit) record
// payloads into history.
type Orchestrator struct {
	generator   model.TextGenerator
	audio       AudioTranscriber
	manuscripts *manuscript.Loader
	store       history.Store
	prompts     *PromptBuilder
}

func NewOrchestrator(
	generator model.TextGenerator,
	audio AudioTranscriber,
	manuscripts *manuscript.Loader,
	store history.Store,
	prompts *PromptBuilder,
) *Orchestrator {
	if prompts == nil {
		prompts = NewPromptBuilder(DefaultMaxPromptChars)
	}
	return &Orchestrator{
		generator:   generator,
		audio:       audio,
		manuscripts: manuscripts,
		store:       store,
		prompts:     prompts,
	}
}

// Process resolves the transcript and generates every requested artifact.
// Transcript resolution failures abort the whole call; generation failures
// are reported per type in the outcomes.
func (o *Orchestrator) Process(ctx context.Context, input Input) (Result, error) {
	var result Result

	types := input.Types
	if len(types) == 0 {
		types = model.AllArtifactTypes()
	}

	transcript, err := o.resolveTranscript(ctx, input)
	if err != nil {
		return result, utils.WrapIfNotNil(err)
	}
	if strings.TrimSpace(input.Language) != "" {
		transcript.Language = input.Language
	}
	result.Transcript = transcript

	log := logging.NewLogger(ctx).WithField("show", input.Show)
	log.Infof("processing source=%s language=%s types=%d chars=%d",
		transcript.Source, transcript.Language, len(types), len([]rune(transcript.Text)))

	result.Outcomes = make([]Outcome, len(types))
	var wg sync.WaitGroup
	for i, artifactType := range types {
		wg.Add(1)
		go func(i int, artifactType model.ArtifactType) {
			defer wg.Done()
			result.Outcomes[i] = o.generateOne(ctx, input.Show, artifactType, transcript)
		}(i, artifactType)
	}
	wg.Wait()

	return result, nil
}

func (o *Orchestrator) resolveTranscript(ctx context.Context, input Input) (model.Transcript, error) {
	switch {
	case strings.TrimSpace(input.ManuscriptPath) != "":
		return o.manuscripts.Load(input.ManuscriptPath)
	case strings.TrimSpace(input.AudioPath) != "":
		return o.audio.Transcribe(ctx, input.AudioPath, input.Language)
	default:
		return model.Transcript{}, model.NewError(
			model.KindValidation, model.ReasonEmptyContent,
			"neither a manuscript nor an audio file was supplied",
		)
	}
}

func (o *Orchestrator) generateOne(ctx context.Context, show string, artifactType model.ArtifactType, transcript model.Transcript) Outcome {
	outcome := Outcome{Type: artifactType}

	exemplars := o.exemplars(ctx, show, artifactType)
	prompt := o.prompts.Build(model.ArtifactRequest{
		Type:       artifactType,
		Language:   transcript.Language,
		Transcript: transcript,
	}, exemplars)

	opts := []model.GenerateOption{model.WithTemperature(generationTemperature)}
	if budget, ok := maxTokensByType[artifactType]; ok {
		opts = append(opts, model.WithMaxTokens(budget))
	}

	response, meta, err := o.generator.Generate(ctx, prompt, opts...)
	outcome.Metadata = meta
	if err != nil {
		outcome.Err = utils.WrapIfNotNil(err)
		return outcome
	}

	artifact, err := buildArtifact(artifactType, response)
	if err != nil {
		outcome.Err = utils.WrapIfNotNil(err)
		return outcome
	}
	outcome.Artifact = artifact
	return outcome
}

// exemplars loads recent payloads for style continuity. History read failures
// only cost the exemplars, never the generation.
func (o *Orchestrator) exemplars(ctx context.Context, show string, artifactType model.ArtifactType) []string {
	if o.store == nil || strings.TrimSpace(show) == "" {
		return nil
	}
	entries, err := o.store.Recent(show, artifactType, o.prompts.ExemplarCount())
	if err != nil {
		logging.NewLogger(ctx).Warnf("history read failed for show=%q type=%s: %v", show, artifactType, err)
		return nil
	}
	payloads := make([]string, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, entry.Payload)
	}
	return payloads
}

func buildArtifact(artifactType model.ArtifactType, response string) (model.ArtifactResult, error) {
	artifact := model.ArtifactResult{Type: artifactType, GeneratedAt: time.Now().UTC()}

	switch artifactType {
	case model.ArtifactTitles:
		titles, err := ExtractTitles(response)
		if err != nil {
			return model.ArtifactResult{}, err
		}
		artifact.Titles = titles
	case model.ArtifactDescription:
		body, err := ValidateDescription(response)
		if err != nil {
			return model.ArtifactResult{}, err
		}
		artifact.Body = body
	case model.ArtifactBlog:
		body, err := ValidateBlog(response)
		if err != nil {
			return model.ArtifactResult{}, err
		}
		artifact.Body = body
	default:
		return model.ArtifactResult{}, model.NewError(
			model.KindValidation, model.ReasonUnsupportedFormat,
			"unknown artifact type "+string(artifactType),
		)
	}
	return artifact, nil
}

// Commit records successful outcomes into history. Persistence is explicit
// and separate from Process so a caller can discard results they dislike.
func (o *Orchestrator) Commit(show string, outcomes []Outcome) error {
	if o.store == nil {
		return nil
	}
	var errs []error
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			continue
		}
		if _, err := o.store.Append(show, outcome.Type, outcome.Artifact.Payload()); err != nil {
			errs = append(errs, err)
		}
	}
	return utils.WrapIfNotNil(errors.Join(errs...))
}
