package manuscript

import (
	"strings"
	"time"
	"unicode"

	"github.com/podscript-ai/podscript/pkg/model"
)

// readingSpeed is the characters-per-second estimate used for reading time.
const readingSpeed = 5

// DetectLanguage classifies text as ja, en or unknown by character class.
// Any CJK presence wins: English loanwords are common inside Japanese prose,
// the reverse is not. English requires an ASCII-letter majority of the
// non-whitespace runes; ties and digit/punctuation noise stay unknown.
func DetectLanguage(text string) string {
	japanese := 0
	letters := 0
	total := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case isJapanese(r):
			japanese++
		case r < 128 && unicode.IsLetter(r):
			letters++
		}
	}

	switch {
	case japanese > 0:
		return model.LanguageJapanese
	case letters*2 > total:
		return model.LanguageEnglish
	default:
		return model.LanguageUnknown
	}
}

func isJapanese(r rune) bool {
	return (r >= 0x3040 && r <= 0x309F) || // hiragana
		(r >= 0x30A0 && r <= 0x30FF) || // katakana
		(r >= 0x4E00 && r <= 0x9FAF) // kanji
}

// Metadata summarizes a manuscript for display.
type Metadata struct {
	Characters  int           `json:"characters"`
	Lines       int           `json:"lines"`
	Paragraphs  int           `json:"paragraphs"`
	ReadingTime time.Duration `json:"reading_time"`
	Language    string        `json:"language"`
}

// ExtractMetadata computes display metadata for normalized text.
func ExtractMetadata(text string) Metadata {
	characters := len([]rune(text))

	paragraphs := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}

	return Metadata{
		Characters:  characters,
		Lines:       len(strings.Split(text, "\n")),
		Paragraphs:  paragraphs,
		ReadingTime: time.Duration(characters/readingSpeed) * time.Second,
		Language:    DetectLanguage(text),
	}
}
