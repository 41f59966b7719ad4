package analysis

import (
	"time"
)

// RecordID identifies a persisted analysis record
type RecordID string

// Verdict enum
type Verdict string

const (
	VerdictReal       Verdict = "REAL"
	VerdictFake       Verdict = "FAKE"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictUnknown    Verdict = "UNKNOWN"
)

// MediaType enum
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
	MediaText  MediaType = "text"
)

// Valid reports whether m is one of the four supported media types.
func (m MediaType) Valid() bool {
	switch m {
	case MediaImage, MediaAudio, MediaVideo, MediaText:
		return true
	}
	return false
}

// Liveness value object: 100 = confirmed live/human, 0 = confirmed spoof/synthetic.
type Liveness struct {
	Score    int    `json:"score"`
	Analysis string `json:"analysis"`
}

// Aggregate Root: Result
// One forensic verdict. IDs are assigned by whichever store persists the
// record, never by the caller before persistence.
type Result struct {
	ID          RecordID  `json:"id,omitempty"`
	Score       int       `json:"score"`
	Verdict     Verdict   `json:"verdict"`
	RiskLevel   RiskLevel `json:"riskLevel"`
	Reasoning   string    `json:"reasoning"`
	Indicators  []string  `json:"indicators"`
	Timestamp   time.Time `json:"timestamp"`
	MediaType   MediaType `json:"mediaType"`
	FileName    string    `json:"fileName,omitempty"`
	Liveness    *Liveness `json:"liveness,omitempty"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
}

// Input is the raw material handed to the gateway: binary content plus a MIME
// type for image/audio/video, or a non-empty string for text.
type Input struct {
	MediaType MediaType
	MIME      string
	Data      []byte
	Text      string
	FileName  string
}

// DefaultMIME fills the MIME type per media type when the upload did not
// carry one.
func (in Input) DefaultMIME() string {
	if in.MIME != "" {
		return in.MIME
	}
	switch in.MediaType {
	case MediaImage:
		return "image/jpeg"
	case MediaAudio:
		return "audio/mp3"
	case MediaVideo:
		return "video/mp4"
	}
	return "application/octet-stream"
}
