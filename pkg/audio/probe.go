package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Prober reads the duration from an audio container's metadata. Tests inject
// a fake; production uses FFProbe.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// FFProbe shells out to the ffprobe binary and decodes its JSON output.
type FFProbe struct {
	Binary string
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (p FFProbe) Duration(ctx context.Context, path string) (time.Duration, error) {
	binary := strings.TrimSpace(p.Binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, errors.New("ffprobe: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, fmt.Errorf("ffprobe parse: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(result.Format.Duration), 64)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("ffprobe: no duration in container metadata for %s", path)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
