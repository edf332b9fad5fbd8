package models

import "errors"

// Error taxonomy for the generation and rendering pipeline. Stage code
// wraps these with context via fmt.Errorf and callers match with errors.Is.
var (
	// ErrMediaNotFound means the source video path does not exist. Raised
	// before any external process is spawned.
	ErrMediaNotFound = errors.New("media not found")

	// ErrExtractionFailed means the audio extraction tool exited non-zero
	// or produced no output file.
	ErrExtractionFailed = errors.New("audio extraction failed")

	// ErrTranscriptionFailed covers transport errors, non-2xx responses
	// and malformed payloads from the speech-to-text service.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrEncodeFailed means subtitle muxing or overlay compositing exited
	// non-zero.
	ErrEncodeFailed = errors.New("video encoding failed")

	// ErrNotFound means no generation record exists under the queried id
	// in either the ephemeral or the durable store. Distinct from a job
	// that exists in the failed state.
	ErrNotFound = errors.New("generation not found")

	// ErrUnsupportedFormat means an export was requested in an
	// unrecognized subtitle format.
	ErrUnsupportedFormat = errors.New("unsupported subtitle format")
)
