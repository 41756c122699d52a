package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/parakeet-asr/whisper-wrapper/internal/api"
	"github.com/parakeet-asr/whisper-wrapper/internal/domain"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Recognizer is the speech recognition collaborator.
type Recognizer interface {
	Recognize(ctx context.Context, wavData []byte, language string) (*api.RawTranscription, error)
}

// SpeakerDiarizer is the speaker diarization collaborator.
type SpeakerDiarizer interface {
	Diarize(ctx context.Context, wavData []byte) (*api.RawDiarization, error)
}

// ResultCache stores completed responses. Get returns (nil, nil) on a miss.
type ResultCache interface {
	Get(ctx context.Context, key string) (*api.TranscriptionResponse, error)
	Save(ctx context.Context, key string, resp *api.TranscriptionResponse) error
}

// Handler post-processes a finished transcription.
type Handler interface {
	Process(context.Context, *domain.Transcription) (*domain.Transcription, error)
}

// Data keeps data required for service work
type Data struct {
	Port       int
	Recognizer Recognizer
	Diarizer   SpeakerDiarizer
	Cache      ResultCache
	Middleware Handler

	ModelName     string
	ChunkDuration int
	// DiarizeDefault and LabelTextDefault back the diarize and
	// include_diarization_in_text form fields when a request omits them.
	DiarizeDefault   bool
	LabelTextDefault bool

	Ctx context.Context
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) (<-chan struct{}, error) {
	goapp.Log.Info().Msgf("Starting wrapper service at %d", data.Port)
	if err := validate(data); err != nil {
		return nil, err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 5 * time.Minute
	e.Server.WriteTimeout = 15 * time.Minute

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	res := make(chan struct{}, 1)
	go func() {
		defer close(res)
		if err := gracehttp.Serve(e.Server); err != nil {
			goapp.Log.Error().Err(err).Msg("can't start web server")
		}
		goapp.Log.Info().Msg("exit http routine")
	}()
	return res, nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("wrapper", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.GET("/live", live(data))
	e.GET("/health", health(data))
	e.GET("/v1/models", models(data))
	e.POST("/v1/audio/transcriptions", transcribe(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func health(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":              "ok",
			"model":               data.ModelName,
			"diarization":         data.Diarizer != nil,
			"chunk_duration":      data.ChunkDuration,
			"diarize_default":     data.DiarizeDefault,
			"diarization_in_text": data.LabelTextDefault,
		})
	}
}

func models(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, api.ModelList{
			Object: "list",
			Data: []api.ModelInfo{
				{ID: "whisper-1", Object: "model", Created: 1677649963, OwnedBy: "parakeet", Root: "whisper-1"},
			},
		})
	}
}

func validate(data *Data) error {
	if data.Recognizer == nil {
		return fmt.Errorf("no Recognizer")
	}
	return nil
}
