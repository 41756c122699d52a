package handlers

import (
	"context"
	"testing"

	"github.com/parakeet-asr/whisper-wrapper/internal/domain"
)

func TestCleaner_Process(t *testing.T) {
	tests := []struct {
		name     string
		tr       *domain.Transcription
		wantText string
		wantSegs []string
	}{
		{name: "trims segment texts",
			tr: &domain.Transcription{
				Text: "  hello   world ",
				Segments: []domain.AnnotatedSegment{
					{Segment: domain.Segment{Text: " hello "}},
					{Segment: domain.Segment{Text: "  world"}},
				},
			},
			wantText: "hello world",
			wantSegs: []string{"hello", "world"},
		},
		{name: "collapses inner whitespace",
			tr: &domain.Transcription{
				Segments: []domain.AnnotatedSegment{
					{Segment: domain.Segment{Text: "a  b\tc"}},
				},
			},
			wantText: "a b c",
			wantSegs: []string{"a b c"},
		},
		{name: "no segments trims text only",
			tr:       &domain.Transcription{Text: " x "},
			wantText: "x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCleaner()
			got, err := c.Process(context.Background(), tt.tr)
			if err != nil {
				t.Fatalf("Process() failed: %v", err)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
			for i, w := range tt.wantSegs {
				if got.Segments[i].Text != w {
					t.Errorf("segment %d = %q, want %q", i, got.Segments[i].Text, w)
				}
			}
		})
	}
}
