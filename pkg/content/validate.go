package content

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/podscript-ai/podscript/pkg/model"
	"github.com/podscript-ai/podscript/pkg/utils"
)

// Length bounds are inclusive and measured in runes, not bytes, so Japanese
// and English text are held to the same visible length.
const (
	DescriptionMinChars = 200
	DescriptionMaxChars = 400
	BlogMinChars        = 1000
	BlogMaxChars        = 2000
)

var headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s`)

// ValidateDescription checks the generated description's length bounds and
// returns the cleaned text.
func ValidateDescription(response string) (string, error) {
	text := cleanBody(response)
	if err := checkLength(text, DescriptionMinChars, DescriptionMaxChars, "description"); err != nil {
		return "", err
	}
	return text, nil
}

// cleanBody strips code fences and a single pair of wrapping quotes some
// models put around prose answers.
func cleanBody(response string) string {
	text := strings.TrimSpace(stripCodeFences(response))
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}, {"「", "」"}} {
		if strings.HasPrefix(text, pair[0]) && strings.HasSuffix(text, pair[1]) && len(text) > len(pair[0])+len(pair[1]) {
			text = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, pair[0]), pair[1]))
		}
	}
	return text
}

// ValidateBlog checks the generated blog post's length bounds and requires at
// least one Markdown heading.
func ValidateBlog(response string) (string, error) {
	text := cleanBody(response)
	if err := checkLength(text, BlogMinChars, BlogMaxChars, "blog post"); err != nil {
		return "", err
	}
	if !headingPattern.MatchString(text) {
		return "", utils.WrapIfNotNil(model.NewError(
			model.KindExtraction, model.ReasonMissingHeading,
			"blog post has no Markdown heading",
		))
	}
	return text, nil
}

func checkLength(text string, minChars, maxChars int, what string) error {
	length := len([]rune(text))
	if length < minChars || length > maxChars {
		return utils.WrapIfNotNil(model.NewError(
			model.KindExtraction, model.ReasonLengthOutOfRange,
			fmt.Sprintf("%s is %d characters, allowed range is %d-%d", what, length, minChars, maxChars),
		))
	}
	return nil
}
