package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/parakeet-asr/whisper-wrapper/internal/api"
	"github.com/parakeet-asr/whisper-wrapper/internal/utils"
)

// Recognizer communicates with the speech recognition service
type Recognizer struct {
	httpclient *http.Client
	url        string
	timeout    time.Duration
}

// NewRecognizer creates a recognizer client
func NewRecognizer(getURL string) (*Recognizer, error) {
	res := Recognizer{}
	if getURL == "" {
		return nil, fmt.Errorf("no getURL")
	}
	res.url = getURL
	res.timeout = time.Minute * 10
	res.httpclient = asrHTTPClient()
	goapp.Log.Info().Str("url", getURL).Msg("Recognizer")
	return &res, nil
}

// Recognize sends WAV audio and returns the raw transcription result.
func (sp *Recognizer) Recognize(ctx context.Context, wavData []byte, language string) (*api.RawTranscription, error) {
	defer utils.MeasureTime("recognizer", time.Now())
	ctx, cancelF := context.WithTimeout(ctx, sp.timeout)
	defer cancelF()

	rURL := sp.url
	if language != "" {
		rURL = fmt.Sprintf("%s?language=%s", rURL, url.QueryEscape(language))
	}
	req, err := http.NewRequest(http.MethodPost, rURL, bytes.NewReader(wavData))
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
	res := &api.RawTranscription{}
	err = json.NewDecoder(resp.Body).Decode(&res)
	if err != nil {
		return nil, err
	}
	goapp.Log.Debug().Int("segments", len(res.Segments)).Msg("recognized")
	return res, nil
}

func asrHTTPClient() *http.Client {
	return &http.Client{Transport: newTransport()}
}

func newTransport() http.RoundTripper {
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 5
	res.MaxIdleConns = 2
	res.MaxIdleConnsPerHost = 2
	res.IdleConnTimeout = 90 * time.Second
	return res
}
