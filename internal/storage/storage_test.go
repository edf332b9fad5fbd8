package storage

import (
	"testing"
)

func TestGetContentType(t *testing.T) {
	tests := []struct {
		filePath string
		wantType string
	}{
		{"video.mp4", "video/mp4"},
		{"video.mov", "video/quicktime"},
		{"video.mkv", "video/x-matroska"},
		{"video.webm", "video/webm"},
		{"audio.wav", "audio/wav"},
		{"captions.srt", "application/x-subrip"},
		{"captions.vtt", "text/vtt"},
		{"captions.ass", "text/x-ssa"},
		{"words.json", "application/json"},
		{"unknown.xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filePath, func(t *testing.T) {
			contentType := getContentType(tt.filePath)
			if contentType != tt.wantType {
				t.Errorf("getContentType(%q) = %q, want %q", tt.filePath, contentType, tt.wantType)
			}
		})
	}
}

func TestArtifactKey(t *testing.T) {
	key := ArtifactKey("gen-1", "captions.srt")
	if key != "generations/gen-1/captions.srt" {
		t.Errorf("unexpected artifact key %q", key)
	}
}
