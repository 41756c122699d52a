package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parakeet-asr/whisper-wrapper/internal/api"
	"github.com/parakeet-asr/whisper-wrapper/internal/domain"
)

const (
	FormatJSON        = "json"
	FormatText        = "text"
	FormatVerboseJSON = "verbose_json"
	FormatSRT         = "srt"
	FormatVTT         = "vtt"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
)

// Options controls per-request rendering behavior.
type Options struct {
	// IncludeSpeakers adds speaker prefixes to srt/vtt cue text.
	IncludeSpeakers bool
}

// Supported tells if format is a known response_format value.
func Supported(format string) bool {
	switch format {
	case FormatJSON, FormatText, FormatVerboseJSON, FormatSRT, FormatVTT:
		return true
	}
	return false
}

// Render serializes resp into the requested format and returns the body
// with its content type. An empty transcript is valid input and yields a
// well-formed empty container. Rendering the same response twice yields
// byte-identical output.
func Render(resp *api.TranscriptionResponse, format string, opts Options) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		b, err := json.Marshal(struct {
			Text string `json:"text"`
		}{Text: resp.Text})
		return b, contentTypeJSON, err
	case FormatText:
		return []byte(resp.Text), contentTypeText, nil
	case FormatVerboseJSON:
		b, err := renderVerbose(resp)
		return b, contentTypeJSON, err
	case FormatSRT:
		return renderSRT(resp.Segments, opts), contentTypeText, nil
	case FormatVTT:
		return renderVTT(resp.Segments, opts), contentTypeText, nil
	}
	return nil, "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
}

func renderVerbose(resp *api.TranscriptionResponse) ([]byte, error) {
	out := *resp
	// own copy of the segments, normalization must not write into the
	// caller's response
	out.Segments = make([]api.Segment, len(resp.Segments))
	copy(out.Segments, resp.Segments)
	for i := range out.Segments {
		if out.Segments[i].Tokens == nil {
			out.Segments[i].Tokens = []int{}
		}
	}
	return json.Marshal(verboseResponse(out))
}

// verboseResponse forces the segments array into verbose_json output even
// when empty. api.TranscriptionResponse keeps omitempty for the plain json
// path.
type verboseResponse struct {
	Task     string        `json:"task"`
	Language string        `json:"language,omitempty"`
	Duration float64       `json:"duration"`
	Text     string        `json:"text"`
	Segments []api.Segment `json:"segments"`
	Model    string        `json:"model,omitempty"`
}

func renderSRT(segments []api.Segment, opts Options) []byte {
	var sb strings.Builder
	for i, s := range segments {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n", i+1,
			formatTimestamp(s.Start, ','), formatTimestamp(s.End, ','), srtText(s, opts))
	}
	return []byte(sb.String())
}

func renderVTT(segments []api.Segment, opts Options) []byte {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for i, s := range segments {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s --> %s\n%s\n",
			formatTimestamp(s.Start, '.'), formatTimestamp(s.End, '.'), vttText(s, opts))
	}
	return []byte(sb.String())
}

func srtText(s api.Segment, opts Options) string {
	// an arrow inside cue text would break SRT parsers
	text := strings.ReplaceAll(strings.TrimSpace(s.Text), "-->", "->")
	if opts.IncludeSpeakers && s.Speaker != "" {
		return fmt.Sprintf("[%s] %s", s.Speaker, text)
	}
	return text
}

func vttText(s api.Segment, opts Options) string {
	text := strings.TrimSpace(s.Text)
	if opts.IncludeSpeakers && s.Speaker != "" {
		return fmt.Sprintf("<v %s>%s", s.Speaker, text)
	}
	return text
}
