package service

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
	"github.com/parakeet-asr/whisper-wrapper/internal/api"
	"github.com/parakeet-asr/whisper-wrapper/internal/audio"
	"github.com/parakeet-asr/whisper-wrapper/internal/diarize"
	"github.com/parakeet-asr/whisper-wrapper/internal/domain"
	"github.com/parakeet-asr/whisper-wrapper/internal/ingest"
	"github.com/parakeet-asr/whisper-wrapper/internal/render"
	"github.com/parakeet-asr/whisper-wrapper/internal/utils"
)

type transcriptionParams struct {
	model          string
	language       string
	prompt         string
	format         string
	temperature    float64
	timestamps     bool
	wordTimestamps bool
	diarize        bool
	labelText      bool
}

func transcribe(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer utils.MeasureTime("transcribe", time.Now())
		ctx := c.Request().Context()
		reqID := ulid.Make().String()

		prm, err := parseParams(c, data)
		if err != nil {
			return err
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "no file")
		}
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "can't read file")
		}
		defer f.Close()
		wavData, err := io.ReadAll(f)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "can't read file")
		}
		goapp.Log.Info().Str("id", reqID).Str("file", fh.Filename).Str("format", prm.format).
			Bool("diarize", prm.diarize).Msg("transcription requested")

		key := cacheKey(wavData, prm)
		if data.Cache != nil {
			cached, err := data.Cache.Get(ctx, key)
			if err != nil {
				goapp.Log.Warn().Err(err).Msg("cache get failed")
			} else if cached != nil {
				goapp.Log.Info().Str("id", reqID).Msg("serving cached result")
				return respond(c, cached, prm)
			}
		}

		info, err := audio.Probe(wavData)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unsupported or corrupt audio, expecting wav")
		}
		chunks, err := audio.Split(wavData, data.ChunkDuration)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "can't split audio")
		}
		goapp.Log.Info().Str("id", reqID).Float64("duration", info.Duration).Int("chunks", len(chunks)).Send()

		tr, err := recognize(c, data, chunks, prm, info.Duration)
		if err != nil {
			return err
		}
		if data.Middleware != nil {
			tr, err = data.Middleware.Process(ctx, tr)
			if err != nil {
				goapp.Log.Error().Err(err).Msg("middleware failed")
			}
		}
		if prm.diarize {
			// diarization degrades to an unlabeled transcript when the
			// service is missing or fails
			if data.Diarizer == nil {
				goapp.Log.Warn().Str("id", reqID).Msg("diarization requested but no diarizer configured")
			} else if raw, err := data.Diarizer.Diarize(ctx, wavData); err != nil {
				goapp.Log.Warn().Err(err).Msg("diarization failed, returning unlabeled transcript")
			} else {
				diarize.Assign(tr.Segments, ingest.Intervals(raw.Segments))
				if prm.labelText {
					diarize.InjectLabels(tr)
				}
			}
		}

		resp := toResponse(tr)
		if data.Cache != nil {
			if err := data.Cache.Save(ctx, key, resp); err != nil {
				goapp.Log.Warn().Err(err).Msg("cache save failed")
			}
		}
		return respond(c, resp, prm)
	}
}

func recognize(c echo.Context, data *Data, chunks [][]byte, prm *transcriptionParams, duration float64) (*domain.Transcription, error) {
	ctx := c.Request().Context()
	tr := &domain.Transcription{
		Language: prm.language,
		Duration: duration,
		Model:    data.ModelName,
		Task:     "transcribe",
	}
	var texts []string
	for i, chunk := range chunks {
		goapp.Log.Debug().Int("chunk", i+1).Int("of", len(chunks)).Msg("recognizing")
		raw, err := data.Recognizer.Recognize(ctx, chunk, prm.language)
		if err != nil {
			goapp.Log.Error().Err(err).Msg("recognizer failed")
			return nil, echo.NewHTTPError(http.StatusBadGateway, "transcription backend failed")
		}
		if tr.Language == "" {
			tr.Language = raw.Language
		}
		if raw.Text != "" {
			texts = append(texts, raw.Text)
		}
		for _, s := range ingest.Segments(raw.Segments, float64(i*data.ChunkDuration)) {
			tr.Segments = append(tr.Segments, domain.AnnotatedSegment{Segment: s})
		}
	}
	for i := range tr.Segments {
		tr.Segments[i].ID = i
	}
	tr.Text = strings.Join(texts, " ")
	return tr, nil
}

func parseParams(c echo.Context, data *Data) (*transcriptionParams, error) {
	res := &transcriptionParams{
		model:     c.FormValue("model"),
		language:  c.FormValue("language"),
		prompt:    c.FormValue("prompt"),
		format:    c.FormValue("response_format"),
		diarize:   data.DiarizeDefault,
		labelText: data.LabelTextDefault,
	}
	if res.format == "" {
		res.format = render.FormatJSON
	}
	if !render.Supported(res.format) {
		return nil, echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("%v: %s", domain.ErrUnsupportedFormat, res.format))
	}
	var err error
	if res.temperature, err = parseFloat(c, "temperature", 0); err != nil {
		return nil, err
	}
	// timestamps and word_timestamps are accepted for API compatibility,
	// segments are always computed and each format decides what to emit
	if res.timestamps, err = parseBool(c, "timestamps", false); err != nil {
		return nil, err
	}
	if res.wordTimestamps, err = parseBool(c, "word_timestamps", false); err != nil {
		return nil, err
	}
	if res.diarize, err = parseBool(c, "diarize", res.diarize); err != nil {
		return nil, err
	}
	if res.labelText, err = parseBool(c, "include_diarization_in_text", res.labelText); err != nil {
		return nil, err
	}
	return res, nil
}

func parseBool(c echo.Context, name string, def bool) (bool, error) {
	v := c.FormValue(name)
	if v == "" {
		return def, nil
	}
	res, err := strconv.ParseBool(v)
	if err != nil {
		return false, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("wrong %s value '%s'", name, v))
	}
	return res, nil
}

func parseFloat(c echo.Context, name string, def float64) (float64, error) {
	v := c.FormValue(name)
	if v == "" {
		return def, nil
	}
	res, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("wrong %s value '%s'", name, v))
	}
	return res, nil
}

// cacheKey hashes the audio content together with every parameter that
// changes the computed result. Render-only parameters stay out, any format
// can be produced from a cached response.
func cacheKey(wavData []byte, prm *transcriptionParams) string {
	h := sha256.New()
	h.Write(wavData)
	fmt.Fprintf(h, "|%s|%s|%t|%t", prm.model, prm.language, prm.diarize, prm.labelText)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func toResponse(tr *domain.Transcription) *api.TranscriptionResponse {
	res := &api.TranscriptionResponse{
		Task:     tr.Task,
		Language: tr.Language,
		Duration: tr.Duration,
		Text:     tr.Text,
		Model:    tr.Model,
	}
	for _, s := range tr.Segments {
		res.Segments = append(res.Segments, api.Segment{
			ID:               s.ID,
			Start:            s.Start,
			End:              s.End,
			Text:             s.Text,
			Tokens:           s.Tokens,
			AvgLogprob:       s.AvgLogprob,
			CompressionRatio: 1.0,
			NoSpeechProb:     s.NoSpeechProb,
			Speaker:          s.Speaker,
		})
	}
	return res
}

func respond(c echo.Context, resp *api.TranscriptionResponse, prm *transcriptionParams) error {
	b, contentType, err := render.Render(resp, prm.format, render.Options{IncludeSpeakers: prm.diarize && prm.labelText})
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.Blob(http.StatusOK, contentType, b)
}
