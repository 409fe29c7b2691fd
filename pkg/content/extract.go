package content

import (
	"regexp"
	"strings"

	"github.com/podscript-ai/podscript/pkg/model"
	"github.com/podscript-ai/podscript/pkg/utils"
)

// TitleCount is the exact number of titles a generation must yield.
const TitleCount = 3

var (
	numberedItemPattern = regexp.MustCompile(`^\s*\d+[.)]\s*(.+)$`)
	bulletItemPattern   = regexp.MustCompile(`^\s*[-•*]\s*(.+)$`)
	quotedItemPattern   = regexp.MustCompile(`[「"“](.+?)[」"”]`)
	codeFencePattern    = regexp.MustCompile("(?s)```[a-zA-Z]*\n?(.*?)```")
	labelLinePattern    = regexp.MustCompile(`(?i)^\s*(titles?|タイトル(案|候補)?)\s*[:：]?\s*$`)
)

// ExtractTitles parses a model response into exactly TitleCount distinct
// titles. Strategies are tried in order of how explicitly the response is
// structured: numbered list, bulleted list, quoted phrases, then plain lines.
// A structured strategy is authoritative once it yields enough raw
// candidates; at that point a list whose items collapse as duplicates must
// fail rather than fall through to a weaker parse of the same text. A
// strategy that merely brushes the text (one quoted phrase inside prose)
// does fall through.
func ExtractTitles(response string) ([]string, error) {
	text := stripCodeFences(response)

	structured := []func(string) []string{
		extractNumbered,
		extractBulleted,
		extractQuoted,
	}
	candidates := extractLines(text)
	for _, strategy := range structured {
		if found := strategy(text); len(found) >= TitleCount {
			candidates = found
			break
		}
	}

	titles := dedupe(candidates)
	if len(titles) < TitleCount {
		return nil, utils.WrapIfNotNil(model.NewError(
			model.KindExtraction, model.ReasonMalformedResponse,
			"response did not contain 3 distinct titles",
		))
	}
	return titles[:TitleCount], nil
}

// stripCodeFences unwraps fenced blocks so a response delivered inside
// ``` markers parses the same as a bare one.
func stripCodeFences(text string) string {
	if matches := codeFencePattern.FindStringSubmatch(text); matches != nil {
		return matches[1]
	}
	return text
}

func extractNumbered(text string) []string {
	return matchLines(text, numberedItemPattern)
}

func extractBulleted(text string) []string {
	return matchLines(text, bulletItemPattern)
}

func matchLines(text string, pattern *regexp.Regexp) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if matches := pattern.FindStringSubmatch(line); matches != nil {
			if title := cleanTitle(matches[1]); title != "" {
				out = append(out, title)
			}
		}
	}
	return out
}

func extractQuoted(text string) []string {
	var out []string
	for _, matches := range quotedItemPattern.FindAllStringSubmatch(text, -1) {
		if title := cleanTitle(matches[1]); title != "" {
			out = append(out, title)
		}
	}
	return out
}

func extractLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if labelLinePattern.MatchString(line) {
			continue
		}
		if title := cleanTitle(line); title != "" {
			out = append(out, title)
		}
	}
	return out
}

// cleanTitle strips wrapping quotes and trailing punctuation-only noise.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}, {"「", "」"}, {"'", "'"}} {
		if strings.HasPrefix(title, pair[0]) && strings.HasSuffix(title, pair[1]) && len(title) > len(pair[0])+len(pair[1]) {
			title = strings.TrimSuffix(strings.TrimPrefix(title, pair[0]), pair[1])
			title = strings.TrimSpace(title)
		}
	}
	return title
}

func dedupe(titles []string) []string {
	seen := make(map[string]bool, len(titles))
	out := make([]string, 0, len(titles))
	for _, title := range titles {
		key := strings.ToLower(strings.Join(strings.Fields(title), " "))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, title)
	}
	return out
}
