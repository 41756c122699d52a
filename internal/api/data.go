package api

// RawSegment is one time-stamped text span as returned by the recognizer
// service. Start, End and Text are pointers so that absent fields can be
// told apart from zero values.
type RawSegment struct {
	Start        *float64 `json:"start"`
	End          *float64 `json:"end"`
	Text         *string  `json:"text"`
	Tokens       []int    `json:"tokens,omitempty"`
	AvgLogprob   *float64 `json:"avg_logprob,omitempty"`
	NoSpeechProb *float64 `json:"no_speech_prob,omitempty"`
}

// RawTranscription is the recognizer service response for one audio chunk.
type RawTranscription struct {
	Text     string       `json:"text"`
	Language string       `json:"language,omitempty"`
	Segments []RawSegment `json:"segments"`
}

// RawSpeakerTurn is one speaker-attributed span from the diarizer service.
type RawSpeakerTurn struct {
	Speaker string   `json:"speaker"`
	Start   *float64 `json:"start"`
	End     *float64 `json:"end"`
}

// RawDiarization is the diarizer service response.
type RawDiarization struct {
	Segments    []RawSpeakerTurn `json:"segments"`
	NumSpeakers int              `json:"num_speakers"`
}

// Segment mirrors the OpenAI Whisper verbose_json segment shape. Fields the
// recognizer does not produce keep compatibility placeholders.
type Segment struct {
	ID               int     `json:"id"`
	Seek             int     `json:"seek"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	Tokens           []int   `json:"tokens"`
	Temperature      float64 `json:"temperature"`
	AvgLogprob       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
	Speaker          string  `json:"speaker,omitempty"`
}

// TranscriptionResponse mirrors the OpenAI Whisper transcription response.
type TranscriptionResponse struct {
	Task     string    `json:"task"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	Model    string    `json:"model,omitempty"`
}

// ModelInfo describes one model in the OpenAI-compatible model list.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
	Root    string `json:"root"`
}

// ModelList is the GET /v1/models response.
type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}
