// Package models defines the request and result shapes exchanged with clients.
package models

// VideoInfo is the metadata preview for a video URL.
type VideoInfo struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Duration  int    `json:"duration"` // seconds
	Platform  string `json:"platform"`
	URL       string `json:"url"`
}

// TranscriptionSegment is one time-aligned piece of a transcript.
type TranscriptionSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the full output of a transcription task.
type TranscriptionResult struct {
	Text     string                 `json:"text"`
	Segments []TranscriptionSegment `json:"segments"`
	Language string                 `json:"language"`
	Duration float64                `json:"duration"`
}

// NoteResult is the structured note generated from a transcript.
type NoteResult struct {
	Markdown string   `json:"markdown"`
	Title    string   `json:"title"`
	Outline  []string `json:"outline"`
}

// TaskResponse acknowledges an accepted long-running operation.
type TaskResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
