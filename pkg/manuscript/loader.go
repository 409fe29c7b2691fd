// Package manuscript loads and normalizes text manuscripts, the transcript
// source that takes priority over audio when both are supplied.
package manuscript

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/podscript-ai/podscript/pkg/model"
	"github.com/podscript-ai/podscript/pkg/utils"
)

const utf8BOM = "\uFEFF"

var (
	// URLs are replaced rather than deleted so sentence boundaries survive.
	// CJK ranges are excluded from the URL tail: Japanese prose regularly
	// runs straight into a pasted link with no whitespace between them.
	urlPattern        = regexp.MustCompile(`https?://[^\s<>"\x{3000}-\x{303F}\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FAF}]+`)
	multiSpacePattern = regexp.MustCompile(` {2,}`)
	multiBreakPattern = regexp.MustCompile(`\n{3,}`)
)

// Loader reads manuscripts from the supplied filesystem. Tests inject a
// memory fs.
type Loader struct {
	fs afero.Fs
}

func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs}
}

// Load reads a .txt manuscript, normalizes it and detects its language.
// Each precondition fails with its own validation reason.
func (l *Loader) Load(path string) (model.Transcript, error) {
	var empty model.Transcript

	if !strings.EqualFold(filepath.Ext(path), ".txt") {
		return empty, utils.WrapIfNotNil(
			model.NewError(model.KindValidation, model.ReasonUnsupportedFormat, "manuscript must be a .txt file"),
		)
	}

	raw, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return empty, utils.WrapIfNotNil(
			model.WrapError(model.KindValidation, model.ReasonEmptyContent, "manuscript unreadable", err),
		)
	}

	content := strings.TrimPrefix(string(raw), utf8BOM)
	if !utf8.ValidString(content) {
		return empty, utils.WrapIfNotNil(
			model.NewError(model.KindValidation, model.ReasonEncoding, "manuscript is not valid UTF-8"),
		)
	}

	content = Normalize(content)
	if content == "" {
		return empty, utils.WrapIfNotNil(
			model.NewError(model.KindValidation, model.ReasonEmptyContent, "manuscript is empty"),
		)
	}

	return model.Transcript{
		Text:     content,
		Source:   model.SourceManuscript,
		Language: DetectLanguage(content),
	}, nil
}

// Normalize cleans a manuscript: line endings to LF, tabs and full-width
// spaces to regular spaces, URLs replaced with a placeholder, whitespace
// runs collapsed.
func Normalize(text string) string {
	if text == "" {
		return text
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", " ")
	text = strings.ReplaceAll(text, "　", " ")
	text = urlPattern.ReplaceAllString(text, "[URL]")
	text = multiSpacePattern.ReplaceAllString(text, " ")
	text = multiBreakPattern.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
