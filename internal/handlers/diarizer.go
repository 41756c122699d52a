package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/parakeet-asr/whisper-wrapper/internal/api"
	"github.com/parakeet-asr/whisper-wrapper/internal/utils"
)

// Diarizer communicates with the speaker diarization service
type Diarizer struct {
	httpclient *http.Client
	url        string
	timeout    time.Duration
}

// NewDiarizer creates a diarizer client
func NewDiarizer(getURL string) (*Diarizer, error) {
	res := Diarizer{}
	if getURL == "" {
		return nil, fmt.Errorf("no getURL")
	}
	res.url = getURL
	res.timeout = time.Minute * 10
	res.httpclient = asrHTTPClient()
	goapp.Log.Info().Str("url", getURL).Msg("Diarizer")
	return &res, nil
}

// Diarize sends WAV audio and returns the raw speaker timeline.
func (sp *Diarizer) Diarize(ctx context.Context, wavData []byte) (*api.RawDiarization, error) {
	defer utils.MeasureTime("diarizer", time.Now())
	ctx, cancelF := context.WithTimeout(ctx, sp.timeout)
	defer cancelF()

	req, err := http.NewRequest(http.MethodPost, sp.url, bytes.NewReader(wavData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "audio/wav")
	req = req.WithContext(ctx)
	resp, err := sp.httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1000))
		_ = resp.Body.Close()
	}()
	if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
		err = fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
		return nil, err
	}
	res := &api.RawDiarization{}
	err = json.NewDecoder(resp.Body).Decode(&res)
	if err != nil {
		return nil, err
	}
	goapp.Log.Debug().Int("speakers", res.NumSpeakers).Int("turns", len(res.Segments)).Msg("diarized")
	return res, nil
}
