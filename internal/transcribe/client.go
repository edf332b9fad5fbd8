package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/captionforge/captionforge/internal/config"
	"github.com/captionforge/captionforge/pkg/models"
)

// Segment is one contiguous span of transcribed speech.
type Segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	AvgLogProb float64 `json:"avg_logprob"`
	Words      []Word  `json:"words,omitempty"`
}

// Word is one timestamped token.
type Word struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Result is the normalized transcription response.
type Result struct {
	Language string
	Segments []Segment
	Words    []Word // flat word list across all segments, may be empty
}

// Client calls a Whisper-compatible speech-to-text HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a transcription client from config.
func NewClient(cfg config.TranscriberConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// verboseResponse mirrors the service's verbose_json payload.
type verboseResponse struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
	Words    []Word    `json:"words"`
}

// Transcribe uploads the extracted audio file and normalizes the response.
// The audio file is a temporary artifact of the pipeline and is removed on
// both success and failure paths.
func (c *Client) Transcribe(ctx context.Context, audioPath, language string) (*Result, error) {
	defer os.Remove(audioPath)

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening audio: %v", models.ErrTranscriptionFailed, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", models.ErrTranscriptionFailed, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("%w: reading audio: %v", models.ErrTranscriptionFailed, err)
	}

	writer.WriteField("model", c.model)
	writer.WriteField("response_format", "verbose_json")
	writer.WriteField("timestamp_granularities[]", "segment")
	writer.WriteField("timestamp_granularities[]", "word")
	if language != "" {
		writer.WriteField("language", language)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: building request: %v", models.ErrTranscriptionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", models.ErrTranscriptionFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTranscriptionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", models.ErrTranscriptionFailed, resp.StatusCode, diag)
	}

	var payload verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", models.ErrTranscriptionFailed, err)
	}

	result := &Result{
		Language: payload.Language,
		Segments: payload.Segments,
		Words:    payload.Words,
	}
	NormalizeWords(result)

	return result, nil
}
