package domain

// Segment is one timestamped span of recognized speech. Segments arrive
// time-ordered and non-overlapping from the recognizer.
type Segment struct {
	ID           int
	Start        float64
	End          float64
	Text         string
	Tokens       []int
	AvgLogprob   float64
	NoSpeechProb float64
}

// AnnotatedSegment is a Segment with an optional speaker label attached by
// the diarization merge. Speaker is empty when no label was assigned.
type AnnotatedSegment struct {
	Segment
	Speaker string
}

// SpeakerInterval is one speaker-attributed span of the diarization timeline.
type SpeakerInterval struct {
	Speaker string
	Start   float64
	End     float64
}

// Transcription is the merged result of one request. It is built once and
// not modified after the response is serialized.
type Transcription struct {
	Text     string
	Segments []AnnotatedSegment
	Language string
	Duration float64
	Model    string
	Task     string
}
