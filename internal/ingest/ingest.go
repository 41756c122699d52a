package ingest

import (
	"fmt"
	"sort"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/parakeet-asr/whisper-wrapper/internal/api"
	"github.com/parakeet-asr/whisper-wrapper/internal/domain"
)

const defaultNoSpeechProb = 0.1

// Segments converts raw recognizer spans into canonical segments. Record
// order is preserved. Malformed records are dropped with a warning, a
// partial transcript beats no transcript. Timestamps are shifted by offset
// seconds so chunked audio lines up with the original timeline.
func Segments(raw []api.RawSegment, offset float64) []domain.Segment {
	res := make([]domain.Segment, 0, len(raw))
	for i, r := range raw {
		if err := validateSegment(r); err != nil {
			goapp.Log.Warn().Err(err).Int("index", i).Msg("dropping recognizer record")
			continue
		}
		s := domain.Segment{
			Start:        *r.Start + offset,
			End:          *r.End + offset,
			Text:         *r.Text,
			Tokens:       r.Tokens,
			NoSpeechProb: defaultNoSpeechProb,
		}
		if r.AvgLogprob != nil {
			s.AvgLogprob = *r.AvgLogprob
		}
		if r.NoSpeechProb != nil {
			s.NoSpeechProb = *r.NoSpeechProb
		}
		res = append(res, s)
	}
	return res
}

// Intervals converts raw diarizer turns into canonical speaker intervals,
// sorted by start time. Malformed records are dropped with a warning.
func Intervals(raw []api.RawSpeakerTurn) []domain.SpeakerInterval {
	res := make([]domain.SpeakerInterval, 0, len(raw))
	for i, r := range raw {
		if err := validateTurn(r); err != nil {
			goapp.Log.Warn().Err(err).Int("index", i).Msg("dropping diarizer record")
			continue
		}
		res = append(res, domain.SpeakerInterval{Speaker: r.Speaker, Start: *r.Start, End: *r.End})
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Start < res[j].Start })
	return res
}

func validateSegment(r api.RawSegment) error {
	if r.Start == nil {
		return fmt.Errorf("%w: no start", domain.ErrMalformedUpstreamResult)
	}
	if r.End == nil {
		return fmt.Errorf("%w: no end", domain.ErrMalformedUpstreamResult)
	}
	if r.Text == nil {
		return fmt.Errorf("%w: no text", domain.ErrMalformedUpstreamResult)
	}
	if *r.Start > *r.End {
		return fmt.Errorf("%w: start %.3f > end %.3f", domain.ErrMalformedUpstreamResult, *r.Start, *r.End)
	}
	return nil
}

func validateTurn(r api.RawSpeakerTurn) error {
	if r.Speaker == "" {
		return fmt.Errorf("%w: no speaker", domain.ErrMalformedUpstreamResult)
	}
	if r.Start == nil {
		return fmt.Errorf("%w: no start", domain.ErrMalformedUpstreamResult)
	}
	if r.End == nil {
		return fmt.Errorf("%w: no end", domain.ErrMalformedUpstreamResult)
	}
	if *r.Start > *r.End {
		return fmt.Errorf("%w: start %.3f > end %.3f", domain.ErrMalformedUpstreamResult, *r.Start, *r.End)
	}
	return nil
}
