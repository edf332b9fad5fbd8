package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/captionforge/captionforge/internal/logging"
	"github.com/captionforge/captionforge/pkg/models"
)

// FFmpeg implements Toolchain on top of the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	log         *logging.Logger
}

// NewFFmpeg creates a new FFmpeg toolchain. A nil logger disables
// invocation logging.
func NewFFmpeg(ffmpegPath, ffprobePath string, log *logging.Logger) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		log:         log,
	}
}

var _ Toolchain = (*FFmpeg)(nil)

// run executes the prepared command, recording the invocation and its
// duration when a logger is configured.
func (f *FFmpeg) run(cmd *exec.Cmd, tool string, args []string) error {
	start := time.Now()
	err := cmd.Run()
	if f.log != nil {
		f.log.LogToolInvocation(tool, args, time.Since(start), err)
	}
	return err
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
	} `json:"streams"`
}

// Probe extracts duration, dimensions and frame rate from a video file
func (f *FFmpeg) Probe(ctx context.Context, inputPath string) (*ProbeResult, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrMediaNotFound, inputPath)
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := f.run(cmd, "ffprobe", args); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, stderr.String())
	}

	var metadata probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	result := &ProbeResult{}

	if duration, err := strconv.ParseFloat(metadata.Format.Duration, 64); err == nil {
		result.Duration = duration
	}

	for _, stream := range metadata.Streams {
		if stream.CodecType == "video" {
			result.Width = stream.Width
			result.Height = stream.Height
			result.FrameRate = parseFrameRate(stream.AvgFrameRate)
			if result.FrameRate == 0 {
				result.FrameRate = parseFrameRate(stream.RFrameRate)
			}
			break
		}
	}

	return result, nil
}

// parseFrameRate parses ffprobe's "num/den" rational frame rate notation.
func parseFrameRate(rate string) float64 {
	parts := strings.Split(rate, "/")
	if len(parts) != 2 {
		return 0
	}
	num, _ := strconv.ParseFloat(parts[0], 64)
	den, _ := strconv.ParseFloat(parts[1], 64)
	if den == 0 {
		return 0
	}
	return num / den
}

// ExtractAudio produces a mono 16 kHz 16-bit PCM WAV from the video's
// audio stream.
func (f *FFmpeg) ExtractAudio(ctx context.Context, inputPath, outputPath string) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("%w: %s", models.ErrMediaNotFound, inputPath)
	}

	args := []string{
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := f.run(cmd, "ffmpeg", args); err != nil {
		return fmt.Errorf("%w: %v, stderr: %s", models.ErrExtractionFailed, err, stderr.String())
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("%w: no output file produced", models.ErrExtractionFailed)
	}

	return nil
}

// BurnSubtitles re-encodes the video with the ASS subtitle file burned in,
// copying the audio stream unmodified.
func (f *FFmpeg) BurnSubtitles(ctx context.Context, opts BurnOptions) error {
	if _, err := os.Stat(opts.InputPath); err != nil {
		return fmt.Errorf("%w: %s", models.ErrMediaNotFound, opts.InputPath)
	}

	filter := fmt.Sprintf("ass=%s", escapeFilterPath(opts.SubtitlePath))

	args := []string{
		"-i", opts.InputPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "medium",
		"-c:a", "copy",
		"-y",
		opts.OutputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := f.run(cmd, "ffmpeg", args); err != nil {
		return fmt.Errorf("%w: %v, stderr: %s", models.ErrEncodeFailed, err, stderr.String())
	}

	return nil
}

// OverlayFrames composites the transparent PNG sequence over the source
// video, timed at the source frame rate.
func (f *FFmpeg) OverlayFrames(ctx context.Context, opts OverlayOptions) error {
	if _, err := os.Stat(opts.InputPath); err != nil {
		return fmt.Errorf("%w: %s", models.ErrMediaNotFound, opts.InputPath)
	}

	args := []string{
		"-i", opts.InputPath,
		"-framerate", strconv.FormatFloat(opts.FrameRate, 'f', -1, 64),
		"-i", opts.FramePattern,
		"-filter_complex", "[0:v][1:v]overlay=0:0:format=auto[v]",
		"-map", "[v]",
		"-map", "0:a?",
		"-c:v", "libx264",
		"-preset", "medium",
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		"-y",
		opts.OutputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := f.run(cmd, "ffmpeg", args); err != nil {
		return fmt.Errorf("%w: %v, stderr: %s", models.ErrEncodeFailed, err, stderr.String())
	}

	return nil
}

// escapeFilterPath escapes a path for use inside an ffmpeg filter string.
func escapeFilterPath(path string) string {
	escaped := strings.ReplaceAll(path, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, ":", "\\:")
	return escaped
}
