package db

import (
	"context"
	"testing"
	"time"

	"github.com/parakeet-asr/whisper-wrapper/internal/api"
)

func TestMemoryResultCache(t *testing.T) {
	mc := NewMemoryResultCache(time.Minute)
	ctx := context.Background()

	got, err := mc.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %v, want miss", got)
	}

	if err := mc.Save(ctx, "k", &api.TranscriptionResponse{Text: "hi"}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err = mc.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got == nil || got.Text != "hi" {
		t.Errorf("Get() = %v, want cached response", got)
	}
}

func TestMemoryResultCache_Expires(t *testing.T) {
	mc := NewMemoryResultCache(-time.Second)
	ctx := context.Background()
	if err := mc.Save(ctx, "k", &api.TranscriptionResponse{Text: "hi"}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := mc.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %v, want expired miss", got)
	}
}
