// Package audio validates podcast audio files and turns them into
// transcripts through the speech-to-text boundary. Every validation limit
// fails with its own reason code before any network call is made.
package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/podscript-ai/podscript/pkg/logging"
	"github.com/podscript-ai/podscript/pkg/manuscript"
	"github.com/podscript-ai/podscript/pkg/model"
	"github.com/podscript-ai/podscript/pkg/utils"
)

var supportedExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".m4a": true,
}

// Limits are the externally supplied validation bounds.
type Limits struct {
	MaxFileSize int64
	MaxDuration time.Duration
}

// DefaultLimits matches the product defaults: 1 GiB, 120 minutes.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize: 1 << 30,
		MaxDuration: 120 * time.Minute,
	}
}

// Processor validates audio inputs and delegates the transcription call.
type Processor struct {
	transcriber model.Transcriber
	prober      Prober
	fs          afero.Fs
	limits      Limits
	sniff       bool
}

// Option customizes a Processor.
type Option func(*Processor)

// WithFs overrides the filesystem (used by tests).
func WithFs(fs afero.Fs) Option {
	return func(p *Processor) {
		if fs != nil {
			p.fs = fs
		}
	}
}

// WithoutSniffing disables content-type sniffing for inputs whose bytes
// cannot be inspected (stream-backed files).
func WithoutSniffing() Option {
	return func(p *Processor) {
		p.sniff = false
	}
}

func NewProcessor(transcriber model.Transcriber, prober Prober, limits Limits, opts ...Option) *Processor {
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = DefaultLimits().MaxFileSize
	}
	if limits.MaxDuration <= 0 {
		limits.MaxDuration = DefaultLimits().MaxDuration
	}
	p := &Processor{
		transcriber: transcriber,
		prober:      prober,
		fs:          afero.NewOsFs(),
		limits:      limits,
		sniff:       true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validate checks extension, size, content type and container duration, in
// that order, so each rejection names the limit that was actually violated.
func (p *Processor) Validate(ctx context.Context, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return utils.WrapIfNotNil(model.NewError(
			model.KindValidation, model.ReasonUnsupportedFormat,
			fmt.Sprintf("unsupported audio format %q", ext),
		))
	}

	info, err := p.fs.Stat(path)
	if err != nil {
		return utils.WrapIfNotNil(model.WrapError(
			model.KindValidation, model.ReasonEmptyContent, "audio file unreadable", err,
		))
	}
	if info.Size() > p.limits.MaxFileSize {
		return utils.WrapIfNotNil(model.NewError(
			model.KindValidation, model.ReasonFileTooLarge,
			fmt.Sprintf("audio file is %d bytes, limit is %d", info.Size(), p.limits.MaxFileSize),
		))
	}

	if p.sniff {
		if err := p.sniffContentType(path); err != nil {
			return err
		}
	}

	duration, err := p.prober.Duration(ctx, path)
	if err != nil {
		return utils.WrapIfNotNil(model.WrapError(
			model.KindValidation, model.ReasonMetadataUnreadable, "could not read audio duration", err,
		))
	}
	if duration > p.limits.MaxDuration {
		return utils.WrapIfNotNil(model.NewError(
			model.KindValidation, model.ReasonDurationExceeded,
			fmt.Sprintf("audio runs %s, limit is %s", duration.Round(time.Second), p.limits.MaxDuration),
		))
	}

	return nil
}

func (p *Processor) sniffContentType(path string) error {
	file, err := p.fs.Open(path)
	if err != nil {
		return utils.WrapIfNotNil(model.WrapError(
			model.KindValidation, model.ReasonEmptyContent, "audio file unreadable", err,
		))
	}
	defer func() {
		_ = file.Close()
	}()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return utils.WrapIfNotNil(model.WrapError(
			model.KindValidation, model.ReasonMetadataUnreadable, "could not sniff content type", err,
		))
	}
	// m4a containers commonly sniff as video/mp4.
	if strings.HasPrefix(mtype.String(), "audio/") || strings.HasPrefix(mtype.String(), "video/mp4") {
		return nil
	}
	return utils.WrapIfNotNil(model.NewError(
		model.KindValidation, model.ReasonUnsupportedFormat,
		fmt.Sprintf("file content is %s, not audio", mtype.String()),
	))
}

// Transcribe validates the file and issues the speech-to-text call. The
// transcript language is the caller's hint when given, otherwise detected
// from the transcribed text.
func (p *Processor) Transcribe(ctx context.Context, path string, languageHint string) (model.Transcript, error) {
	var empty model.Transcript

	if err := p.Validate(ctx, path); err != nil {
		return empty, err
	}

	log := logging.NewLogger(ctx).WithField("source", string(model.SourceAudio))
	log.Infof("transcribing path=%q language_hint=%q", filepath.Base(path), languageHint)

	text, err := p.transcriber.Transcribe(ctx, path, languageHint)
	if err != nil {
		return empty, utils.WrapIfNotNil(err)
	}

	language := strings.TrimSpace(languageHint)
	if language == "" {
		language = manuscript.DetectLanguage(text)
	}

	return model.Transcript{
		Text:     strings.TrimSpace(text),
		Source:   model.SourceAudio,
		Language: language,
	}, nil
}
