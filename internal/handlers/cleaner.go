package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/parakeet-asr/whisper-wrapper/internal/domain"
	"github.com/parakeet-asr/whisper-wrapper/internal/utils"
)

// Cleaner normalizes whitespace in segment texts. Recognizer output often
// carries leading spaces per segment.
type Cleaner struct {
}

// NewCleaner creates a text cleaner
func NewCleaner() *Cleaner {
	res := Cleaner{}
	goapp.Log.Info().Msg("Cleaner")
	return &res
}

func (sp *Cleaner) Process(ctx context.Context, data *domain.Transcription) (*domain.Transcription, error) {
	defer utils.MeasureTime("cleaner", time.Now())
	texts := make([]string, 0, len(data.Segments))
	for i := range data.Segments {
		data.Segments[i].Text = strings.Join(strings.Fields(data.Segments[i].Text), " ")
		if data.Segments[i].Text != "" {
			texts = append(texts, data.Segments[i].Text)
		}
	}
	if len(texts) > 0 {
		data.Text = strings.Join(texts, " ")
	} else {
		data.Text = strings.TrimSpace(data.Text)
	}
	return data, nil
}
