package handlers

import (
	"context"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/parakeet-asr/whisper-wrapper/internal/domain"
)

type Handler interface {
	Process(context.Context, *domain.Transcription) (*domain.Transcription, error)
}

// ListHandler passes a transcription through a list of post-processing
// middleware. A failing middleware is logged and skipped, the transcription
// keeps the last good state.
type ListHandler struct {
	handlers []Handler
}

func NewListHandler() (*ListHandler, error) {
	res := &ListHandler{}
	return res, nil
}

func (sp *ListHandler) Process(ctx context.Context, data *domain.Transcription) (*domain.Transcription, error) {
	res := data
	for i, h := range sp.handlers {
		goapp.Log.Debug().Int("handler", i).Msg("Processing")
		if dataNew, err := h.Process(ctx, res); err != nil {
			goapp.Log.Error().Err(err).Msg("Can't process")
		} else {
			res = dataNew
		}
		goapp.Log.Debug().Int("handler", i).Msg("Finished")
	}
	return res, nil
}

func (sp *ListHandler) Add(h Handler) {
	sp.handlers = append(sp.handlers, h)
}
