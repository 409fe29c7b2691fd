package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/podscript-ai/podscript/pkg/model"
)

type fakeProber struct {
	duration time.Duration
	err      error
}

func (f fakeProber) Duration(context.Context, string) (time.Duration, error) {
	return f.duration, f.err
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type ProcessorSuite struct {
	suite.Suite
	fs afero.Fs
}

func TestProcessorSuite(t *testing.T) {
	suite.Run(t, new(ProcessorSuite))
}

func (s *ProcessorSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
}

// id3Header is enough of an mp3 file for content sniffing to recognize it.
var id3Header = append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), make([]byte, 128)...)

func (s *ProcessorSuite) write(path string, data []byte) {
	s.Require().NoError(afero.WriteFile(s.fs, path, data, 0o644))
}

func (s *ProcessorSuite) newProcessor(t model.Transcriber, p Prober, limits Limits, opts ...Option) *Processor {
	opts = append([]Option{WithFs(s.fs)}, opts...)
	return NewProcessor(t, p, limits, opts...)
}

func (s *ProcessorSuite) TestTranscribeHappyPath() {
	s.write("episode.mp3", id3Header)
	tr := &fakeTranscriber{text: "これはテストです。"}
	p := s.newProcessor(tr, fakeProber{duration: 30 * time.Minute}, DefaultLimits())

	transcript, err := p.Transcribe(context.Background(), "episode.mp3", "")
	s.Require().NoError(err)
	s.Equal("これはテストです。", transcript.Text)
	s.Equal(model.SourceAudio, transcript.Source)
	s.Equal(model.LanguageJapanese, transcript.Language)
	s.Equal(1, tr.calls)
}

func (s *ProcessorSuite) TestLanguageHintWinsOverDetection() {
	s.write("episode.mp3", id3Header)
	tr := &fakeTranscriber{text: "these are english words"}
	p := s.newProcessor(tr, fakeProber{duration: time.Minute}, DefaultLimits())

	transcript, err := p.Transcribe(context.Background(), "episode.mp3", model.LanguageJapanese)
	s.Require().NoError(err)
	s.Equal(model.LanguageJapanese, transcript.Language)
}

func (s *ProcessorSuite) TestRejectsUnsupportedExtension() {
	s.write("episode.ogg", id3Header)
	p := s.newProcessor(&fakeTranscriber{}, fakeProber{duration: time.Minute}, DefaultLimits())

	err := p.Validate(context.Background(), "episode.ogg")
	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindValidation))
	s.Equal(model.ReasonUnsupportedFormat, model.ReasonOf(err))
}

func (s *ProcessorSuite) TestExtensionIsCaseInsensitive() {
	s.write("EPISODE.M4A", id3Header)
	p := s.newProcessor(&fakeTranscriber{}, fakeProber{duration: time.Minute}, DefaultLimits(), WithoutSniffing())

	s.NoError(p.Validate(context.Background(), "EPISODE.M4A"))
}

func (s *ProcessorSuite) TestRejectsOversizedFile() {
	s.write("big.mp3", make([]byte, 64))
	limits := Limits{MaxFileSize: 32, MaxDuration: time.Hour}
	p := s.newProcessor(&fakeTranscriber{}, fakeProber{duration: time.Minute}, limits)

	err := p.Validate(context.Background(), "big.mp3")
	s.Require().Error(err)
	s.Equal(model.ReasonFileTooLarge, model.ReasonOf(err))
}

func (s *ProcessorSuite) TestRejectsNonAudioContent() {
	s.write("fake.mp3", []byte("%PDF-1.7 definitely not audio"))
	p := s.newProcessor(&fakeTranscriber{}, fakeProber{duration: time.Minute}, DefaultLimits())

	err := p.Validate(context.Background(), "fake.mp3")
	s.Require().Error(err)
	s.Equal(model.ReasonUnsupportedFormat, model.ReasonOf(err))
}

func (s *ProcessorSuite) TestRejectsExcessiveDuration() {
	s.write("long.mp3", id3Header)
	limits := Limits{MaxFileSize: 1 << 30, MaxDuration: 120 * time.Minute}
	p := s.newProcessor(&fakeTranscriber{}, fakeProber{duration: 121 * time.Minute}, limits)

	err := p.Validate(context.Background(), "long.mp3")
	s.Require().Error(err)
	s.Equal(model.ReasonDurationExceeded, model.ReasonOf(err))
}

func (s *ProcessorSuite) TestUnreadableMetadata() {
	s.write("odd.mp3", id3Header)
	p := s.newProcessor(&fakeTranscriber{}, fakeProber{err: errors.New("no container")}, DefaultLimits())

	err := p.Validate(context.Background(), "odd.mp3")
	s.Require().Error(err)
	s.Equal(model.ReasonMetadataUnreadable, model.ReasonOf(err))
}

func (s *ProcessorSuite) TestMissingFile() {
	p := s.newProcessor(&fakeTranscriber{}, fakeProber{duration: time.Minute}, DefaultLimits())

	err := p.Validate(context.Background(), "missing.mp3")
	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindValidation))
}

// Each limit violation must surface its own reason, even when several limits
// are exceeded at once: the first check in the documented order wins.
func (s *ProcessorSuite) TestSingleLimitAttribution() {
	s.write("both.mp3", make([]byte, 64))
	limits := Limits{MaxFileSize: 32, MaxDuration: time.Minute}
	p := s.newProcessor(&fakeTranscriber{}, fakeProber{duration: time.Hour}, limits)

	err := p.Validate(context.Background(), "both.mp3")
	s.Require().Error(err)
	s.Equal(model.ReasonFileTooLarge, model.ReasonOf(err))
}

func (s *ProcessorSuite) TestTranscriberErrorPassesThrough() {
	s.write("episode.mp3", id3Header)
	boom := model.NewError(model.KindTransport, model.ReasonServiceUnavailable, "service down")
	tr := &fakeTranscriber{err: boom}
	p := s.newProcessor(tr, fakeProber{duration: time.Minute}, DefaultLimits())

	_, err := p.Transcribe(context.Background(), "episode.mp3", "")
	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindTransport))
	s.Equal(model.ReasonServiceUnavailable, model.ReasonOf(err))
}

func (s *ProcessorSuite) TestValidationFailureSkipsTranscriber() {
	s.write("episode.flac", id3Header)
	tr := &fakeTranscriber{text: "should not be called"}
	p := s.newProcessor(tr, fakeProber{duration: time.Minute}, DefaultLimits())

	_, err := p.Transcribe(context.Background(), "episode.flac", "")
	s.Require().Error(err)
	s.Zero(tr.calls)
}
