package models

import "time"

// GenerationJob tracks one end-to-end subtitle generation request. The
// ephemeral record expires two hours after its last write; a completed job
// is mirrored to durable storage, and the durable copy is authoritative
// once written.
type GenerationJob struct {
	ID          string     `json:"id"`
	VideoID     string     `json:"video_id"`
	Status      string     `json:"status"`
	Stage       string     `json:"stage"`
	Progress    float64    `json:"progress"`
	Language    string     `json:"language"`
	StyleName   string     `json:"style_name"`
	PosName     string     `json:"position_name"`
	Subtitles   []Subtitle `json:"subtitles,omitempty"`
	AudioPath   string     `json:"audio_path,omitempty"`
	SRTPath     string     `json:"srt_path,omitempty"`
	WordsPath   string     `json:"words_path,omitempty"`
	RenderPath  string     `json:"render_path,omitempty"`
	ErrorMsg    string     `json:"error_msg,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// GenerationStatus constants
const (
	GenerationStatusPending    = "pending"
	GenerationStatusProcessing = "processing"
	GenerationStatusCompleted  = "completed"
	GenerationStatusFailed     = "failed"
)

// Pipeline stages, in strict forward order.
const (
	StageAudioExtraction = "audio_extraction"
	StageTranscription   = "transcription"
	StageSubtitles       = "subtitle_processing"
	StageFileGeneration  = "file_generation"
	StageWordTiming      = "word_timing_generation"
	StageCompleted       = "completed"
)

// StageOrder maps each stage to its position in the pipeline. Transitions
// may only move to a strictly higher position.
var StageOrder = map[string]int{
	StageAudioExtraction: 0,
	StageTranscription:   1,
	StageSubtitles:       2,
	StageFileGeneration:  3,
	StageWordTiming:      4,
	StageCompleted:       5,
}

// Terminal reports whether the pipeline has finished running for the job.
// Terminal jobs still accept style and position edits.
func (j *GenerationJob) Terminal() bool {
	return j.Status == GenerationStatusCompleted || j.Status == GenerationStatusFailed
}

// SubtitleByID returns the subtitle with the given id, or nil.
func (j *GenerationJob) SubtitleByID(id string) *Subtitle {
	for i := range j.Subtitles {
		if j.Subtitles[i].ID == id {
			return &j.Subtitles[i]
		}
	}
	return nil
}

// InvalidateArtifacts clears derived artifact paths after a style or
// position edit; exports and renders must be regenerated.
func (j *GenerationJob) InvalidateArtifacts() {
	j.SRTPath = ""
	j.WordsPath = ""
	j.RenderPath = ""
}
