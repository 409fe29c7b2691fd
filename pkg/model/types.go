package model

import (
	"context"
	"strings"
	"time"
)

// TranscriptSource identifies where a transcript came from.
type TranscriptSource string

const (
	SourceAudio      TranscriptSource = "audio"
	SourceManuscript TranscriptSource = "manuscript"
)

// Language codes used throughout the pipeline.
const (
	LanguageJapanese = "ja"
	LanguageEnglish  = "en"
	LanguageUnknown  = "unknown"
)

// Transcript is the normalized plain text derived from an audio file or a
// manuscript. It is immutable once produced; generation only reads it.
type Transcript struct {
	Text     string           `json:"text"`
	Source   TranscriptSource `json:"source"`
	Language string           `json:"language"`
}

// ArtifactType selects which marketing artifact to produce.
type ArtifactType string

const (
	ArtifactTitles      ArtifactType = "titles"
	ArtifactDescription ArtifactType = "description"
	ArtifactBlog        ArtifactType = "blog"
)

// AllArtifactTypes lists the supported artifact types in presentation order.
func AllArtifactTypes() []ArtifactType {
	return []ArtifactType{ArtifactTitles, ArtifactDescription, ArtifactBlog}
}

// ParseArtifactType maps a user-supplied name onto an ArtifactType.
func ParseArtifactType(name string) (ArtifactType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "titles", "title":
		return ArtifactTitles, true
	case "description", "desc":
		return ArtifactDescription, true
	case "blog", "blog_post", "blogpost":
		return ArtifactBlog, true
	}
	return "", false
}

// ArtifactRequest describes a single generation call. It is created per call
// and never persisted.
type ArtifactRequest struct {
	Type       ArtifactType
	Language   string
	Transcript Transcript
}

// ArtifactResult is a validated generation outcome. Titles holds exactly 3
// distinct candidates when Type is ArtifactTitles; Body holds the text for
// the other types.
type ArtifactResult struct {
	Type        ArtifactType `json:"type"`
	Titles      []string     `json:"titles,omitempty"`
	Body        string       `json:"body,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Payload returns the textual form of the result as stored in history and
// injected into style exemplar sections.
func (r ArtifactResult) Payload() string {
	if r.Type == ArtifactTitles {
		return strings.Join(r.Titles, "\n")
	}
	return r.Body
}

// HistoryEntry is one persisted artifact payload keyed by show and type.
type HistoryEntry struct {
	ID         string       `json:"id"`
	Show       string       `json:"show"`
	Type       ArtifactType `json:"type"`
	Payload    string       `json:"payload"`
	InsertedAt time.Time    `json:"inserted_at"`
}

// TextGenerator is the text-generation boundary. Implementations are pure
// call-and-retry wrappers with no content-specific logic.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, GenerationMetadata, error)
}

// Transcriber is the speech-to-text boundary. languageHint may be empty for
// service-side auto-detection.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string, languageHint string) (string, error)
}

// GenerationMetadata carries provider-reported facts about one generation.
type GenerationMetadata map[string]string

const (
	MetadataKeyProvider     = "provider"
	MetadataKeyModel        = "model"
	MetadataKeyLatencyMs    = "latency_ms"
	MetadataKeyAttempts     = "attempts"
	MetadataKeyInputTokens  = "input_tokens"
	MetadataKeyOutputTokens = "output_tokens"
	MetadataKeyTotalTokens  = "total_tokens"
)
