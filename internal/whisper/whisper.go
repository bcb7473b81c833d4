// Package whisper runs local speech-to-text through a whisper.cpp style CLI
// and turns its timestamped output into time-aligned transcript segments.
package whisper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"videonote/internal/models"
)

// ProgressFunc receives the fraction of media time transcribed so far, in
// [0, 1].
type ProgressFunc func(ratio float64)

// Transcriber wraps a whisper CLI binary.
type Transcriber struct {
	bin    string
	model  string
	logger *slog.Logger
}

// NewTranscriber creates a transcriber invoking bin with the given model
// argument (a ggml model path or a model size the binary resolves itself).
func NewTranscriber(bin, model string, logger *slog.Logger) *Transcriber {
	if bin == "" {
		bin = "whisper-cli"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{bin: bin, model: model, logger: logger}
}

// Transcribe runs whisper over the audio file, reporting per-segment progress
// against the media duration, and assembles the full transcription result.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string, cb ProgressFunc) (models.TranscriptionResult, error) {
	duration, err := ProbeDuration(ctx, audioPath)
	if err != nil {
		t.logger.Warn("could not probe audio duration, progress will be coarse", "error", err)
	}

	args := []string{"-f", audioPath, "-l", "auto"}
	if t.model != "" {
		args = append([]string{"-m", t.model}, args...)
	}

	cmd := exec.CommandContext(ctx, t.bin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return models.TranscriptionResult{}, fmt.Errorf("create whisper stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return models.TranscriptionResult{}, fmt.Errorf("create whisper stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return models.TranscriptionResult{}, fmt.Errorf("start whisper: %w", err)
	}

	language := "unknown"
	var lastErrLine string
	errScanner := bufio.NewScanner(stderr)
	go func() {
		for errScanner.Scan() {
			line := strings.TrimSpace(errScanner.Text())
			if line == "" {
				continue
			}
			lastErrLine = line
			if lang, ok := ParseLanguageLine(line); ok {
				language = lang
			}
		}
	}()

	var segments []models.TranscriptionSegment
	var textParts []string

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		seg, ok := ParseSegmentLine(scanner.Text())
		if !ok {
			continue
		}
		segments = append(segments, seg)
		textParts = append(textParts, seg.Text)
		if cb != nil && duration > 0 {
			cb(math.Min(seg.End/duration, 1))
		}
	}
	if err := scanner.Err(); err != nil {
		return models.TranscriptionResult{}, fmt.Errorf("read whisper output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return models.TranscriptionResult{}, ctx.Err()
		}
		if lastErrLine != "" {
			return models.TranscriptionResult{}, fmt.Errorf("whisper failed: %s", lastErrLine)
		}
		return models.TranscriptionResult{}, fmt.Errorf("whisper failed: %w", err)
	}

	if len(segments) == 0 {
		return models.TranscriptionResult{}, errors.New("whisper produced no transcript")
	}

	if duration <= 0 {
		duration = segments[len(segments)-1].End
	}

	return models.TranscriptionResult{
		Text:     strings.Join(textParts, "\n"),
		Segments: segments,
		Language: language,
		Duration: round2(duration),
	}, nil
}

// ParseSegmentLine parses one whisper output line of the form
// "[00:00:00.000 --> 00:00:04.600]   some text".
func ParseSegmentLine(line string) (models.TranscriptionSegment, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") {
		return models.TranscriptionSegment{}, false
	}
	closing := strings.Index(line, "]")
	if closing < 0 {
		return models.TranscriptionSegment{}, false
	}

	window := line[1:closing]
	parts := strings.Split(window, "-->")
	if len(parts) != 2 {
		return models.TranscriptionSegment{}, false
	}

	start, err := ParseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return models.TranscriptionSegment{}, false
	}
	end, err := ParseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return models.TranscriptionSegment{}, false
	}

	text := strings.TrimSpace(line[closing+1:])
	if text == "" {
		return models.TranscriptionSegment{}, false
	}

	return models.TranscriptionSegment{
		Start: round2(start),
		End:   round2(end),
		Text:  text,
	}, true
}

// ParseTimestamp converts "hh:mm:ss.mmm" (or "mm:ss.mmm") to seconds.
func ParseTimestamp(ts string) (float64, error) {
	parts := strings.Split(ts, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}

	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.ReplaceAll(p, ",", "."), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", ts)
		}
		total = total*60 + v
	}
	return total, nil
}

// ParseLanguageLine extracts the detected language from whisper's
// "auto-detected language: en (p = 0.97)" log line.
func ParseLanguageLine(line string) (string, bool) {
	const marker = "auto-detected language:"
	idx := strings.Index(line, marker)
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimSpace(line[idx+len(marker):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// ProbeDuration returns the media duration in seconds via ffprobe.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx,
		"ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe error: %w", err)
	}
	val := strings.TrimSpace(string(out))
	if val == "" {
		return 0, errors.New("empty duration response")
	}
	dur, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration from ffprobe: %w", err)
	}
	return dur, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
