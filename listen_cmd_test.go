package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shakes-lang/shakes/internal/audio"
	"github.com/shakes-lang/shakes/internal/engine"
)

func TestRecordingLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.wav")
	w, err := audio.NewWAVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Play(make([]float32, 8000), 16000); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	d, err := recordingLength(path)
	if err != nil {
		t.Fatalf("recordingLength failed: %v", err)
	}
	if d != 500*time.Millisecond {
		t.Errorf("length = %v, want 500ms", d)
	}

	junk := filepath.Join(dir, "junk.wav")
	if err := os.WriteFile(junk, []byte("not a wav"), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{junk, filepath.Join(dir, "missing.wav")} {
		if _, err := recordingLength(p); engine.CodeOf(err) != engine.ErrorCodeInvalidInput {
			t.Errorf("recordingLength(%s) = %v, want INVALID_INPUT", filepath.Base(p), err)
		}
	}
}
