package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/parakeet-asr/whisper-wrapper/internal/api"
	"github.com/parakeet-asr/whisper-wrapper/internal/db"
)

type fakeRecognizer struct {
	res   *api.RawTranscription
	err   error
	calls int
}

func (f *fakeRecognizer) Recognize(ctx context.Context, wavData []byte, language string) (*api.RawTranscription, error) {
	f.calls++
	return f.res, f.err
}

type fakeDiarizer struct {
	res *api.RawDiarization
	err error
}

func (f *fakeDiarizer) Diarize(ctx context.Context, wavData []byte) (*api.RawDiarization, error) {
	return f.res, f.err
}

func fp(v float64) *float64 { return &v }

func sp(v string) *string { return &v }

func testWav(t *testing.T) []byte {
	t.Helper()
	name := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(name)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           make([]int, 8000*2),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	return data
}

func testData() *Data {
	return &Data{
		Port: 8000,
		Recognizer: &fakeRecognizer{res: &api.RawTranscription{
			Text:     "hello there friend",
			Language: "en",
			Segments: []api.RawSegment{
				{Start: fp(0), End: fp(1), Text: sp("hello there")},
				{Start: fp(1), End: fp(2), Text: sp("friend")},
			},
		}},
		ModelName:     "parakeet-tdt-0.6b-v3",
		ChunkDuration: 300,
		Ctx:           context.Background(),
	}
}

func postAudio(t *testing.T, data *Data, wavData []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("file", "test.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(wavData); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/audio/transcriptions", &body)
	req.Header.Set(echoHeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	initRoutes(data).ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func TestTranscribe_JSON(t *testing.T) {
	rec := postAudio(t, testData(), testWav(t), map[string]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got["text"] != "hello there friend" {
		t.Errorf("text = %v", got["text"])
	}
	if _, ok := got["segments"]; ok {
		t.Error("json format must not carry segments")
	}
}

func TestTranscribe_VerboseJSON(t *testing.T) {
	rec := postAudio(t, testData(), testWav(t), map[string]string{"response_format": "verbose_json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	var got api.TranscriptionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.Task != "transcribe" || got.Language != "en" || got.Model != "parakeet-tdt-0.6b-v3" {
		t.Errorf("got %+v", got)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(got.Segments))
	}
	if got.Segments[0].ID != 0 || got.Segments[1].ID != 1 {
		t.Errorf("segment ids = %d, %d", got.Segments[0].ID, got.Segments[1].ID)
	}
	if got.Duration < 1.9 || got.Duration > 2.1 {
		t.Errorf("duration = %v, want ~2 (from wav header)", got.Duration)
	}
}

func TestTranscribe_SRTWithSpeakers(t *testing.T) {
	data := testData()
	data.Diarizer = &fakeDiarizer{res: &api.RawDiarization{
		NumSpeakers: 2,
		Segments: []api.RawSpeakerTurn{
			{Speaker: "SPEAKER_00", Start: fp(0), End: fp(1)},
			{Speaker: "SPEAKER_01", Start: fp(1), End: fp(2)},
		},
	}}
	rec := postAudio(t, data, testWav(t), map[string]string{
		"response_format":             "srt",
		"diarize":                     "true",
		"include_diarization_in_text": "true",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	want := "1\n00:00:00,000 --> 00:00:01,000\n[Speaker 1] hello there\n\n" +
		"2\n00:00:01,000 --> 00:00:02,000\n[Speaker 2] friend\n"
	if rec.Body.String() != want {
		t.Errorf("srt = %q, want %q", rec.Body.String(), want)
	}
}

func TestTranscribe_TextWithLabels(t *testing.T) {
	data := testData()
	data.Diarizer = &fakeDiarizer{res: &api.RawDiarization{
		NumSpeakers: 2,
		Segments: []api.RawSpeakerTurn{
			{Speaker: "SPEAKER_00", Start: fp(0), End: fp(1)},
			{Speaker: "SPEAKER_01", Start: fp(1), End: fp(2)},
		},
	}}
	rec := postAudio(t, data, testWav(t), map[string]string{
		"response_format":             "text",
		"diarize":                     "true",
		"include_diarization_in_text": "true",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	want := "Speaker 1: hello there Speaker 2: friend"
	if rec.Body.String() != want {
		t.Errorf("text = %q, want %q", rec.Body.String(), want)
	}
}

func TestTranscribe_DiarizationFailureDegrades(t *testing.T) {
	data := testData()
	data.Diarizer = &fakeDiarizer{err: fmt.Errorf("backend down")}
	rec := postAudio(t, data, testWav(t), map[string]string{
		"response_format": "text",
		"diarize":         "true",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "hello there friend" {
		t.Errorf("text = %q", rec.Body.String())
	}
}

func TestTranscribe_DiarizeWithoutDiarizer(t *testing.T) {
	rec := postAudio(t, testData(), testWav(t), map[string]string{
		"response_format": "text",
		"diarize":         "true",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "hello there friend" {
		t.Errorf("text = %q", rec.Body.String())
	}
}

func TestTranscribe_UnsupportedFormat(t *testing.T) {
	rec := postAudio(t, testData(), testWav(t), map[string]string{"response_format": "yaml"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", rec.Code)
	}
}

func TestTranscribe_NoFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("response_format", "json")
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/v1/audio/transcriptions", &body)
	req.Header.Set(echoHeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	initRoutes(testData()).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", rec.Code)
	}
}

func TestTranscribe_BadAudio(t *testing.T) {
	rec := postAudio(t, testData(), []byte("not a wav"), map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", rec.Code)
	}
}

func TestTranscribe_RecognizerFailure(t *testing.T) {
	data := testData()
	data.Recognizer = &fakeRecognizer{err: fmt.Errorf("backend down")}
	rec := postAudio(t, data, testWav(t), map[string]string{})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("code = %d, want 502", rec.Code)
	}
}

func TestTranscribe_MalformedSegmentDropped(t *testing.T) {
	data := testData()
	data.Recognizer = &fakeRecognizer{res: &api.RawTranscription{
		Text: "good",
		Segments: []api.RawSegment{
			{Start: fp(5), End: fp(2), Text: sp("bad")},
			{Start: fp(0), End: fp(1), Text: sp("good")},
		},
	}}
	rec := postAudio(t, data, testWav(t), map[string]string{"response_format": "verbose_json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	var got api.TranscriptionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(got.Segments) != 1 || got.Segments[0].Text != "good" {
		t.Errorf("segments = %+v, want only the valid one", got.Segments)
	}
}

func TestTranscribe_ServedFromCache(t *testing.T) {
	data := testData()
	data.Cache = db.NewMemoryResultCache(time.Minute)
	recognizer := data.Recognizer.(*fakeRecognizer)
	wavData := testWav(t)

	rec := postAudio(t, data, wavData, map[string]string{"response_format": "verbose_json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	if recognizer.calls != 1 {
		t.Fatalf("recognizer calls = %d, want 1", recognizer.calls)
	}

	// same audio, different format: served from cache, any format can be
	// produced from the cached response
	rec = postAudio(t, data, wavData, map[string]string{"response_format": "srt"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	if recognizer.calls != 1 {
		t.Errorf("recognizer called again for a cached result, calls = %d", recognizer.calls)
	}
	want := "1\n00:00:00,000 --> 00:00:01,000\nhello there\n\n" +
		"2\n00:00:01,000 --> 00:00:02,000\nfriend\n"
	if rec.Body.String() != want {
		t.Errorf("srt from cache = %q, want %q", rec.Body.String(), want)
	}
}

func TestModels(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	initRoutes(testData()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var got api.ModelList
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.Object != "list" || len(got.Data) != 1 || got.Data[0].ID != "whisper-1" {
		t.Errorf("got %+v", got)
	}
}

func TestLive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()
	initRoutes(testData()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "OK") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestCacheKey(t *testing.T) {
	wavData := []byte("audio")
	base := &transcriptionParams{model: "m", language: "en", diarize: true, labelText: false}
	k1 := cacheKey(wavData, base)
	if k1 != cacheKey(wavData, base) {
		t.Error("cacheKey not stable")
	}
	other := *base
	other.diarize = false
	if k1 == cacheKey(wavData, &other) {
		t.Error("diarize flag must change key")
	}
	other = *base
	other.format = "srt" // render-only parameter
	if k1 != cacheKey(wavData, &other) {
		t.Error("response format must not change key")
	}
	if k1 == cacheKey([]byte("other audio"), base) {
		t.Error("audio content must change key")
	}
}
