package media

import "context"

// ProbeResult holds the video metadata the pipeline cares about.
type ProbeResult struct {
	Duration  float64
	Width     int
	Height    int
	FrameRate float64
}

// BurnOptions holds options for muxing a subtitle file into a video.
type BurnOptions struct {
	InputPath    string
	SubtitlePath string // ASS file with per-subtitle override tags
	OutputPath   string
}

// OverlayOptions holds options for compositing an overlay frame sequence
// over a source video.
type OverlayOptions struct {
	InputPath    string
	FramePattern string // printf-style PNG sequence path, e.g. dir/frame_%06d.png
	FrameRate    float64
	OutputPath   string
}

// Toolchain abstracts the external media tools the pipeline invokes.
// Implementations return structured errors wrapping the taxonomy in
// pkg/models together with the tool's captured diagnostics.
type Toolchain interface {
	// Probe reads duration, dimensions and frame rate from a video file.
	Probe(ctx context.Context, inputPath string) (*ProbeResult, error)

	// ExtractAudio produces a mono 16 kHz 16-bit PCM file at outputPath.
	ExtractAudio(ctx context.Context, inputPath, outputPath string) error

	// BurnSubtitles re-encodes the video with the subtitle track burned
	// in, copying the audio stream unmodified.
	BurnSubtitles(ctx context.Context, opts BurnOptions) error

	// OverlayFrames composites a transparent PNG sequence over the
	// source video at the source frame rate, copying audio unmodified.
	OverlayFrames(ctx context.Context, opts OverlayOptions) error
}
