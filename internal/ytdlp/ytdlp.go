// Package ytdlp shells out to yt-dlp for video metadata, video download, and
// audio extraction. Progress is parsed from the tool's own stdout; retries and
// network handling stay inside yt-dlp.
package ytdlp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ProgressFunc receives the raw download percentage reported by yt-dlp.
type ProgressFunc func(percent int)

// Options configures the yt-dlp invocation.
type Options struct {
	// Bin is the yt-dlp executable, default "yt-dlp".
	Bin string
	// CookiesFile, when set and readable, takes priority over
	// CookiesFromBrowser.
	CookiesFile        string
	CookiesFromBrowser string
}

// Client wraps yt-dlp executions.
type Client struct {
	opts   Options
	logger *slog.Logger
}

// NewClient creates a yt-dlp client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.Bin == "" {
		opts.Bin = "yt-dlp"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{opts: opts, logger: logger}
}

// Platform classifies a video URL by hosting site.
func Platform(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	host := u.Hostname()
	switch {
	case strings.Contains(host, "youtube") || strings.Contains(host, "youtu.be"):
		return "youtube"
	case strings.Contains(host, "bilibili") || strings.Contains(host, "b23.tv"):
		return "bilibili"
	default:
		return "unknown"
	}
}

// VideoMetadata is the subset of yt-dlp's -J output the backend uses.
type VideoMetadata struct {
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	Duration  float64 `json:"duration"`
}

// ExtractInfo fetches video metadata without downloading.
func (c *Client) ExtractInfo(ctx context.Context, videoURL string) (VideoMetadata, error) {
	args := c.baseArgs(videoURL)
	args = append(args, "-J", "--no-playlist", videoURL)

	cmd := exec.CommandContext(ctx, c.opts.Bin, args...)
	out, err := cmd.Output()
	if err != nil {
		return VideoMetadata{}, fmt.Errorf("yt-dlp metadata extraction failed: %w", exitDetail(err))
	}

	var meta VideoMetadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return VideoMetadata{}, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}
	return meta, nil
}

// DownloadRequest describes one video download.
type DownloadRequest struct {
	URL     string
	Format  string // "mp4" or "mp3"
	Quality string // best / 1080p / 720p / 480p
	// OutputDir receives the artifact, named ID.<ext>.
	OutputDir string
	ID        string
}

// qualityFormat maps a requested quality to a yt-dlp format selector.
func qualityFormat(quality string) string {
	switch quality {
	case "1080p":
		return "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[height<=1080]"
	case "720p":
		return "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/best[height<=720]"
	case "480p":
		return "bestvideo[height<=480][ext=mp4]+bestaudio[ext=m4a]/best[height<=480]"
	default:
		return "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	}
}

// Download fetches the video described by req, reporting raw download
// percentages through cb, and returns the path of the produced file.
func (c *Client) Download(ctx context.Context, req DownloadRequest, cb ProgressFunc) (string, error) {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	args := c.baseArgs(req.URL)
	args = append(args, "--newline", "-o", filepath.Join(req.OutputDir, req.ID+".%(ext)s"))
	if req.Format == "mp3" {
		args = append(args,
			"-f", "bestaudio/best",
			"--extract-audio",
			"--audio-format", "mp3",
			"--audio-quality", "192K",
		)
	} else {
		args = append(args, "-f", qualityFormat(req.Quality))
	}
	args = append(args, req.URL)

	if err := c.run(ctx, args, cb); err != nil {
		return "", err
	}

	path, err := findByPrefix(req.OutputDir, req.ID)
	if err != nil {
		return "", errors.New("downloaded file not found")
	}
	return path, nil
}

// ExtractAudio downloads the URL's audio track as a wav file into outputDir.
func (c *Client) ExtractAudio(ctx context.Context, videoURL, outputDir string, cb ProgressFunc) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	args := c.baseArgs(videoURL)
	args = append(args,
		"--newline",
		"-o", filepath.Join(outputDir, "audio.%(ext)s"),
		"-f", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "wav",
		videoURL,
	)

	if err := c.run(ctx, args, cb); err != nil {
		return "", err
	}

	path, err := findBySuffix(outputDir, ".wav")
	if err != nil {
		return "", errors.New("audio extraction produced no wav file")
	}
	return path, nil
}

// run executes yt-dlp, scanning stdout for progress lines and keeping the last
// stderr line for diagnostics.
func (c *Client) run(ctx context.Context, args []string, cb ProgressFunc) error {
	cmd := exec.CommandContext(ctx, c.opts.Bin, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create yt-dlp stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("create yt-dlp stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start yt-dlp: %w", err)
	}

	var lastErrLine string
	errScanner := bufio.NewScanner(stderr)
	go func() {
		for errScanner.Scan() {
			if line := strings.TrimSpace(errScanner.Text()); line != "" {
				lastErrLine = line
			}
		}
	}()

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if pct, ok := ParseProgressLine(scanner.Text()); ok && cb != nil {
			cb(pct)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read yt-dlp output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if lastErrLine != "" {
			return fmt.Errorf("yt-dlp failed: %s", lastErrLine)
		}
		return fmt.Errorf("yt-dlp failed: %w", err)
	}
	return nil
}

// ParseProgressLine extracts the percentage from a yt-dlp progress line such
// as "[download]  42.3% of 10.55MiB at 1.20MiB/s ETA 00:05".
func ParseProgressLine(line string) (int, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[download]") {
		return 0, false
	}
	for _, field := range strings.Fields(line) {
		if !strings.HasSuffix(field, "%") {
			continue
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(field, "%"), 64)
		if err != nil {
			return 0, false
		}
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		return int(pct), true
	}
	return 0, false
}

func (c *Client) baseArgs(videoURL string) []string {
	args := []string{"--no-warnings"}

	if c.opts.CookiesFile != "" {
		if _, err := os.Stat(c.opts.CookiesFile); err == nil {
			args = append(args, "--cookies", c.opts.CookiesFile)
		}
	} else if c.opts.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", c.opts.CookiesFromBrowser)
	}

	// Bilibili rejects requests without a site referer.
	if Platform(videoURL) == "bilibili" {
		args = append(args,
			"--referer", "https://www.bilibili.com/",
			"--user-agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		)
	}
	return args
}

// findByPrefix returns the first non-partial file in dir whose name starts
// with prefix.
func findByPrefix(dir, prefix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl") {
			continue
		}
		return filepath.Join(dir, name), nil
	}
	return "", os.ErrNotExist
}

func findBySuffix(dir, suffix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", os.ErrNotExist
}

// exitDetail appends captured stderr to exec exit errors for diagnostics.
func exitDetail(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		lines := strings.Split(strings.TrimSpace(string(exitErr.Stderr)), "\n")
		return fmt.Errorf("%w: %s", err, lines[len(lines)-1])
	}
	return err
}
