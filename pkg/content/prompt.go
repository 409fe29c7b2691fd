// Package content turns transcripts into marketing artifacts: it builds the
// prompts, runs generation per artifact type, and validates what comes back.
package content

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/podscript-ai/podscript/pkg/model"
)

const (
	// DefaultMaxPromptChars bounds the whole rendered prompt in runes.
	DefaultMaxPromptChars = 8000
	// exemplarCount is how many past payloads are injected as style exemplars.
	exemplarCount = 3

	truncationMarker = "\n[transcript truncated]"
	exemplarOpen     = "--- past output ---"
	exemplarClose    = "--- end past output ---"
)

// PromptBuilder assembles generation prompts from a transcript, the artifact
// type's constraints, and recent history used as style exemplars.
type PromptBuilder struct {
	maxChars int
}

func NewPromptBuilder(maxChars int) *PromptBuilder {
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}
	return &PromptBuilder{maxChars: maxChars}
}

// ExemplarCount is how many history payloads Build expects at most.
func (b *PromptBuilder) ExemplarCount() int {
	return exemplarCount
}

// Build renders the full prompt. The rune ceiling applies to the whole
// rendered prompt, not just the transcript: the instruction, language and
// exemplar sections are spent first, and the transcript gets what remains,
// truncated with a marker so the model is told text is missing rather than
// silently cut. Exemplars beyond the configured count are ignored.
func (b *PromptBuilder) Build(req model.ArtifactRequest, exemplars []string) string {
	var sb strings.Builder

	sb.WriteString(instructionFor(req.Type))
	sb.WriteString("\n")
	sb.WriteString(languageInstruction(req.Language))
	sb.WriteString("\n")

	if len(exemplars) > exemplarCount {
		exemplars = exemplars[:exemplarCount]
	}
	if len(exemplars) > 0 {
		sb.WriteString("\nMatch the tone and style of these previous outputs for the same show:\n")
		for _, exemplar := range exemplars {
			sb.WriteString(exemplarOpen)
			sb.WriteString("\n")
			sb.WriteString(strings.TrimSpace(exemplar))
			sb.WriteString("\n")
			sb.WriteString(exemplarClose)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nTranscript:\n")
	budget := b.maxChars - utf8.RuneCountInString(sb.String()) - 1
	sb.WriteString(fitTranscript(req.Transcript.Text, budget))
	sb.WriteString("\n")

	return sb.String()
}

// fitTranscript trims text to at most budget runes. When trimming happens the
// truncation marker is part of the budget; a budget too small for even the
// marker yields a bare prefix.
func fitTranscript(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	marker := utf8.RuneCountInString(truncationMarker)
	if budget <= marker {
		return string(runes[:budget])
	}
	return string(runes[:budget-marker]) + truncationMarker
}

func instructionFor(artifactType model.ArtifactType) string {
	switch artifactType {
	case model.ArtifactTitles:
		return "You are an experienced podcast editor. From the transcript below, " +
			"propose exactly 3 distinct episode titles. Each title must be catchy, " +
			"specific to the episode's content, and different from the others. " +
			"Answer as a numbered list:\n1. first title\n2. second title\n3. third title\n" +
			"Output nothing but the list."
	case model.ArtifactDescription:
		return fmt.Sprintf("You are an experienced podcast editor. From the transcript below, "+
			"write one episode description between %d and %d characters. It must summarize "+
			"the episode, hook a potential listener, and contain no headings, lists or links. "+
			"Output only the description.", DescriptionMinChars, DescriptionMaxChars)
	case model.ArtifactBlog:
		return fmt.Sprintf("You are an experienced podcast editor. From the transcript below, "+
			"write a blog post between %d and %d characters in Markdown. It must open with "+
			"a level-1 heading, use section headings, and read as a standalone article rather "+
			"than a transcript summary. Output only the blog post.", BlogMinChars, BlogMaxChars)
	default:
		return "Summarize the transcript below."
	}
}

func languageInstruction(language string) string {
	switch language {
	case model.LanguageJapanese:
		return "回答はすべて日本語で書いてください。"
	case model.LanguageEnglish:
		return "Write the answer in English."
	default:
		return "Write the answer in the same language as the transcript."
	}
}
