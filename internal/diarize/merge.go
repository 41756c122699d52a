package diarize

import (
	"fmt"
	"strings"

	"github.com/parakeet-asr/whisper-wrapper/internal/domain"
)

// Assign labels each segment with the speaker whose interval overlaps it the
// most. Ties go to the interval with the earliest start. A segment that
// overlaps no interval at all stays unlabeled. Segment order is never
// changed. With no intervals the call is a no-op.
//
// Collaborator-native speaker labels are replaced by deterministic
// "Speaker N" labels, numbered by order of first appearance in the
// diarization timeline. Intervals must be sorted by start time, ingest
// guarantees that.
func Assign(segments []domain.AnnotatedSegment, intervals []domain.SpeakerInterval) {
	if len(intervals) == 0 {
		return
	}
	labels := numberSpeakers(intervals)
	for i := range segments {
		best := -1
		bestOverlap := 0.0
		for j, iv := range intervals {
			ov := overlap(segments[i].Segment, iv)
			if ov > bestOverlap {
				best, bestOverlap = j, ov
			}
		}
		if best >= 0 {
			segments[i].Speaker = labels[intervals[best].Speaker]
		}
	}
}

// InjectLabels rebuilds the transcription text with per-segment speaker
// prefixes, "Speaker 1: hello Speaker 2: hi". Segment texts themselves are
// left untouched, renderers add their own prefixes.
func InjectLabels(tr *domain.Transcription) {
	parts := make([]string, 0, len(tr.Segments))
	for _, s := range tr.Segments {
		if s.Speaker != "" {
			parts = append(parts, s.Speaker+": "+s.Text)
		} else {
			parts = append(parts, s.Text)
		}
	}
	tr.Text = strings.Join(parts, " ")
}

func overlap(s domain.Segment, iv domain.SpeakerInterval) float64 {
	start := s.Start
	if iv.Start > start {
		start = iv.Start
	}
	end := s.End
	if iv.End < end {
		end = iv.End
	}
	if end <= start {
		return 0
	}
	return end - start
}

func numberSpeakers(intervals []domain.SpeakerInterval) map[string]string {
	res := map[string]string{}
	for _, iv := range intervals {
		if _, ok := res[iv.Speaker]; !ok {
			res[iv.Speaker] = fmt.Sprintf("Speaker %d", len(res)+1)
		}
	}
	return res
}
