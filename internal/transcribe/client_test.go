package transcribe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/captionforge/captionforge/internal/config"
	"github.com/captionforge/captionforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF fake wav"), 0644))
	return path
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.TranscriberConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "whisper-1",
		Timeout: 5 * time.Second,
	})
}

func TestTranscribeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		assert.Equal(t, "en", r.FormValue("language"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"language": "en",
			"segments": [
				{"start": 2.0, "end": 4.0, "text": "hello world", "avg_logprob": -0.2,
				 "words": [{"word": "hello", "start": 2.0, "end": 2.8}, {"word": "world", "start": 3.0, "end": 3.9}]}
			]
		}`))
	}))
	defer server.Close()

	audioPath := writeTempAudio(t)
	result, err := newTestClient(server.URL).Transcribe(context.Background(), audioPath, "en")
	require.NoError(t, err)

	require.Len(t, result.Segments, 1)
	seg := result.Segments[0]
	assert.Equal(t, "hello world", seg.Text)
	require.Len(t, seg.Words, 2)
	assert.Equal(t, "hello", seg.Words[0].Word)
	assert.Equal(t, 2.8, seg.Words[0].End)

	// Temp audio is removed on success.
	_, statErr := os.Stat(audioPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTranscribeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	audioPath := writeTempAudio(t)
	_, err := newTestClient(server.URL).Transcribe(context.Background(), audioPath, "en")
	assert.True(t, errors.Is(err, models.ErrTranscriptionFailed))
	assert.Contains(t, err.Error(), "quota exceeded")

	// Temp audio is removed on failure too.
	_, statErr := os.Stat(audioPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTranscribeMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Transcribe(context.Background(), writeTempAudio(t), "")
	assert.True(t, errors.Is(err, models.ErrTranscriptionFailed))
}

func TestNormalizeWordsKeepsNativeTimings(t *testing.T) {
	r := &Result{Segments: []Segment{{
		Start: 2.0, End: 4.0, Text: "hello world",
		Words: []Word{{Word: "hello", Start: 2.0, End: 2.8}, {Word: "world", Start: 3.0, End: 3.9}},
	}}}

	NormalizeWords(r)

	require.Len(t, r.Segments[0].Words, 2)
	assert.Equal(t, 2.8, r.Segments[0].Words[0].End)
	assert.Equal(t, 3.0, r.Segments[0].Words[1].Start)
}

func TestNormalizeWordsRecoversFromFlatList(t *testing.T) {
	r := &Result{
		Segments: []Segment{{Start: 2.0, End: 4.0, Text: "hello world"}},
		Words: []Word{
			{Word: "before", Start: 0.5, End: 1.0}, // outside span, ignored
			{Word: "hello", Start: 2.0, End: 2.8},
			{Word: "world", Start: 3.0, End: 3.9},
			{Word: "after", Start: 4.5, End: 5.0}, // outside span, ignored
		},
	}

	NormalizeWords(r)

	words := r.Segments[0].Words
	require.Len(t, words, 2)
	assert.Equal(t, "hello", words[0].Word)
	assert.Equal(t, "world", words[1].Word)
}

func TestNormalizeWordsEvenDistribution(t *testing.T) {
	r := &Result{Segments: []Segment{{Start: 2.0, End: 4.0, Text: "hello world"}}}

	NormalizeWords(r)

	words := r.Segments[0].Words
	require.Len(t, words, 2)
	assert.InDelta(t, 2.0, words[0].Start, 1e-9)
	assert.InDelta(t, 3.0, words[0].End, 1e-9)
	assert.InDelta(t, 3.0, words[1].Start, 1e-9)
	assert.InDelta(t, 4.0, words[1].End, 1e-9)
}

func TestDistributeWordsContiguous(t *testing.T) {
	words := DistributeWords("one two three four five", 10.0, 13.7)
	require.Len(t, words, 5)

	// Words are contiguous with no gaps or overlaps and the durations sum
	// to the segment duration.
	var total float64
	for i, w := range words {
		assert.Greater(t, w.End, w.Start)
		if i > 0 {
			assert.Equal(t, words[i-1].End, w.Start)
		}
		total += w.End - w.Start
	}
	assert.InDelta(t, 3.7, total, 1e-9)
	assert.Equal(t, 13.7, words[4].End)
}

func TestDistributeWordsEmptyText(t *testing.T) {
	assert.Nil(t, DistributeWords("   ", 0, 1))
}
