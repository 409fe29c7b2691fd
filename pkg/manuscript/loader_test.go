package manuscript

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/podscript-ai/podscript/pkg/model"
)

type LoaderSuite struct {
	suite.Suite
	fs     afero.Fs
	loader *Loader
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}

func (s *LoaderSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
	s.loader = NewLoader(s.fs)
}

func (s *LoaderSuite) write(path, content string) {
	s.Require().NoError(afero.WriteFile(s.fs, path, []byte(content), 0o644))
}

func (s *LoaderSuite) TestLoadJapaneseManuscript() {
	s.write("episode.txt", "これはテストです。\n")

	transcript, err := s.loader.Load("episode.txt")
	s.Require().NoError(err)
	s.Equal("これはテストです。", transcript.Text)
	s.Equal(model.SourceManuscript, transcript.Source)
	s.Equal(model.LanguageJapanese, transcript.Language)
}

func (s *LoaderSuite) TestLoadStripsBOM() {
	s.write("bom.txt", "\ufeffHello world")

	transcript, err := s.loader.Load("bom.txt")
	s.Require().NoError(err)
	s.Equal("Hello world", transcript.Text)
	s.Equal(model.LanguageEnglish, transcript.Language)
}

func (s *LoaderSuite) TestLoadRejectsWrongExtension() {
	s.write("episode.md", "content")

	_, err := s.loader.Load("episode.md")
	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindValidation))
	s.Equal(model.ReasonUnsupportedFormat, model.ReasonOf(err))
}

func (s *LoaderSuite) TestLoadRejectsEmptyContent() {
	s.write("blank.txt", "   \n\t\n  ")

	_, err := s.loader.Load("blank.txt")
	s.Require().Error(err)
	s.Equal(model.ReasonEmptyContent, model.ReasonOf(err))
}

func (s *LoaderSuite) TestLoadRejectsInvalidUTF8() {
	s.Require().NoError(afero.WriteFile(s.fs, "broken.txt", []byte{0xff, 0xfe, 0x41}, 0o644))

	_, err := s.loader.Load("broken.txt")
	s.Require().Error(err)
	s.Equal(model.ReasonEncoding, model.ReasonOf(err))
}

func (s *LoaderSuite) TestLoadMissingFile() {
	_, err := s.loader.Load("missing.txt")
	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindValidation))
}

func (s *LoaderSuite) TestNormalizeLineEndingsAndWhitespace() {
	in := "one\r\ntwo\rthree\tfour　five\n\n\n\nsix   seven"
	s.Equal("one\ntwo\nthree four five\n\nsix seven", Normalize(in))
}

func (s *LoaderSuite) TestNormalizeStripsURLs() {
	in := "see https://example.com/a?b=c for details"
	s.Equal("see [URL] for details", Normalize(in))
}

func (s *LoaderSuite) TestNormalizeStopsURLAtJapaneseText() {
	in := "リンクはhttps://example.com/pageです"
	s.Equal("リンクは[URL]です", Normalize(in))
}

func (s *LoaderSuite) TestDetectLanguage() {
	s.Equal(model.LanguageJapanese, DetectLanguage("これはテストです。"))
	s.Equal(model.LanguageJapanese, DetectLanguage("podcastの新エピソード"))
	s.Equal(model.LanguageEnglish, DetectLanguage("plain english text"))
	s.Equal(model.LanguageUnknown, DetectLanguage("12345 !!! ---"))
	s.Equal(model.LanguageUnknown, DetectLanguage(""))
}

// A stray letter inside digit/punctuation noise is not an English majority,
// and an exact tie stays unknown.
func (s *LoaderSuite) TestDetectLanguageRequiresLetterMajority() {
	s.Equal(model.LanguageUnknown, DetectLanguage("12345 a !!!"))
	s.Equal(model.LanguageUnknown, DetectLanguage("ab12"))
	s.Equal(model.LanguageEnglish, DetectLanguage("ab1"))
}

func (s *LoaderSuite) TestExtractMetadata() {
	meta := ExtractMetadata("first paragraph\n\nsecond one")
	s.Equal(2, meta.Paragraphs)
	s.Equal(3, meta.Lines)
	s.Equal(27, meta.Characters)
	s.Equal(time.Duration(27/readingSpeed)*time.Second, meta.ReadingTime)
	s.Equal(model.LanguageEnglish, meta.Language)
}
