package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/labstack/gommon/color"
	"github.com/parakeet-asr/whisper-wrapper/internal/db"
	"github.com/parakeet-asr/whisper-wrapper/internal/handlers"
	"github.com/parakeet-asr/whisper-wrapper/internal/service"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	data := &service.Data{}
	data.Ctx = ctx
	data.Port = cfg.GetInt("port")
	data.ModelName = cfg.GetString("model.name")
	data.ChunkDuration = cfg.GetInt("chunk.duration")
	if data.ChunkDuration == 0 {
		data.ChunkDuration = 300
	}
	data.DiarizeDefault = cfg.GetBool("diarize.default")
	data.LabelTextDefault = cfg.GetBool("diarize.inText")

	recognizer, err := handlers.NewRecognizer(cfg.GetString("asr.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init recognizer")
	}
	data.Recognizer = recognizer

	if url := cfg.GetString("diarizer.url"); url != "" {
		diarizer, err := handlers.NewDiarizer(url)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init diarizer")
		}
		data.Diarizer = diarizer
	} else {
		goapp.Log.Warn().Msg("no diarizer URL, speaker diarization disabled")
	}

	cacheTTL := time.Duration(cfg.GetInt("cache.ttl")) * time.Minute
	if cacheTTL == 0 {
		cacheTTL = time.Hour * 6
	}
	if url := cfg.GetString("redis.url"); url != "" {
		cache, err := db.NewRedisResultCache(url, cfg.GetString("redis.key"), cacheTTL)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init redis cache")
		}
		defer cache.Close()
		data.Cache = cache
	} else {
		data.Cache = db.NewMemoryResultCache(cacheTTL)
	}

	hList, err := handlers.NewListHandler()
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init list handler")
	}
	hList.Add(handlers.NewCleaner())
	data.Middleware = hList

	doneCh, err := service.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}

	/////////////////////// Waiting for terminate
	waitCh := make(chan os.Signal, 2)
	signal.Notify(waitCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-waitCh:
		goapp.Log.Info().Msg("Got exit signal")
	case <-doneCh:
		goapp.Log.Info().Msg("Service exit")
	}
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

var (
	version = "DEV"
)

func printBanner() {
	banner :=
		`
    PARAKEET WHISPER WRAPPER v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/parakeet-asr/whisper-wrapper"))
}
