package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/shakes-lang/shakes/internal/audio"
	"github.com/shakes-lang/shakes/internal/lexicon"
	"github.com/shakes-lang/shakes/internal/mora"
	"github.com/shakes-lang/shakes/internal/render"
	"github.com/shakes-lang/shakes/internal/rhythm"
	"github.com/shakes-lang/shakes/internal/speech"
)

type stubRecognizer struct {
	res speech.Result
}

func (s stubRecognizer) Recognize(context.Context) speech.Result { return s.res }

func testLexicon() *lexicon.Lexicon {
	return lexicon.FromRows([]lexicon.Row{
		{Mora: "ka", Pattern: "s-S"},
		{Mora: "bi", Pattern: "m-ŝ"},
		{Mora: "ki", Pattern: "s-s"},
		{Mora: "zq", Pattern: "x"},
	})
}

func newTestEngine(t *testing.T) (*Engine, *audio.MockDevice) {
	t.Helper()
	md := audio.NewMockDevice()
	r, err := render.New(md, render.Options{})
	if err != nil {
		t.Fatal(err)
	}
	e, err := New(Options{
		Table:       rhythm.DefaultTable(),
		Lexicon:     testLexicon(),
		Renderer:    r,
		Suggestions: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	return e, md
}

func TestNewRequiresTableAndLexicon(t *testing.T) {
	if _, err := New(Options{Lexicon: testLexicon()}); CodeOf(err) != ErrorCodeDataset {
		t.Errorf("New without table = %v, want DATASET error", err)
	}
	if _, err := New(Options{Table: rhythm.DefaultTable()}); CodeOf(err) != ErrorCodeDataset {
		t.Errorf("New without lexicon = %v, want DATASET error", err)
	}
}

func TestTranslateAndExpand(t *testing.T) {
	e, _ := newTestEngine(t)

	entries := e.Translate("Kabi.")
	want := []mora.Entry{mora.Resolved("ka", "s-S"), mora.Resolved("bi", "m-ŝ")}
	if !reflect.DeepEqual(entries, want) {
		t.Fatalf("Translate = %+v, want %+v", entries, want)
	}

	pulses := e.Expand(entries[1])
	if len(pulses) != 2 || pulses[0].Duration != 150*time.Millisecond || pulses[1].Duration != 130*time.Millisecond {
		t.Errorf("Expand(bi) = %+v", pulses)
	}

	if got := e.Expand(mora.Unresolved("zz")); got != nil {
		t.Errorf("Expand(unresolved) = %+v, want nil", got)
	}
}

func TestPlayText(t *testing.T) {
	e, md := newTestEngine(t)

	rep, err := e.PlayText("kazzbi")
	if err != nil {
		t.Fatalf("PlayText failed: %v", err)
	}
	if rep.Played != 2 || rep.Resolved() != 2 {
		t.Errorf("played=%d resolved=%d, want 2 and 2", rep.Played, rep.Resolved())
	}
	if !reflect.DeepEqual(rep.Misses, []string{"zz"}) {
		t.Errorf("Misses = %v, want [zz]", rep.Misses)
	}
	if rep.Duration != 560*time.Millisecond {
		t.Errorf("Duration = %v, want 560ms", rep.Duration)
	}

	got := md.Durations()
	want := []time.Duration{100, 180, 150, 130}
	if len(got) != len(want) {
		t.Fatalf("played %d pulses, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i]*time.Millisecond {
			t.Errorf("pulse %d = %v, want %vms", i, got[i], want[i])
		}
	}
}

func TestPlayTextUnknownSymbolUsesDefault(t *testing.T) {
	e, md := newTestEngine(t)

	if _, err := e.PlayText("zq"); err != nil {
		t.Fatal(err)
	}
	if got := md.Durations(); len(got) != 1 || got[0] != rhythm.DefaultDuration {
		t.Errorf("durations = %v, want one %v pulse", got, rhythm.DefaultDuration)
	}
}

func TestPlayTextSuggestions(t *testing.T) {
	e, _ := newTestEngine(t)

	rep, err := e.PlayText("kz")
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Suggestions["kz"]) == 0 {
		t.Errorf("no suggestions for kz: %v", rep.Suggestions)
	}
}

func TestPlayTextEmpty(t *testing.T) {
	e, md := newTestEngine(t)

	rep, err := e.PlayText("")
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Entries) != 0 || rep.Played != 0 {
		t.Errorf("report = %+v, want empty", rep)
	}
	if len(md.Buffers()) != 0 {
		t.Error("empty text produced sound")
	}
}

func TestPlayTextDeviceFailure(t *testing.T) {
	e, md := newTestEngine(t)
	md.FailAfter(3)

	rep, err := e.PlayText("kabiki")
	if CodeOf(err) != ErrorCodeAudioDevice {
		t.Fatalf("PlayText = %v, want AUDIO_DEVICE error", err)
	}
	var de *audio.DeviceError
	if !errors.As(err, &de) {
		t.Errorf("error chain lacks *audio.DeviceError: %v", err)
	}
	if rep.Played != 1 {
		t.Errorf("Played = %d, want 1 before failure", rep.Played)
	}

	var ee *Error
	if errors.As(err, &ee) && !ee.IsRetryable() {
		t.Error("device error should be retryable")
	}

	// lexicon is intact and a fresh call succeeds
	md.FailAfter(-1)
	md.Reset()
	if _, err := e.PlayText("kabiki"); err != nil {
		t.Errorf("retry failed: %v", err)
	}
	if _, ok := e.Lexicon().Lookup("ka"); !ok {
		t.Error("lexicon lost entries after device failure")
	}
}

func TestPlayWithoutRenderer(t *testing.T) {
	e, err := New(Options{Table: rhythm.DefaultTable(), Lexicon: testLexicon()})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Play(mora.Resolved("ka", "s")); CodeOf(err) != ErrorCodeAudioDevice {
		t.Errorf("Play = %v, want AUDIO_DEVICE", err)
	}
	if err := e.Play(mora.Unresolved("zz")); err != nil {
		t.Errorf("Play(unresolved) = %v, want nil", err)
	}
	if _, err := e.PlayText("zz"); err != nil {
		t.Errorf("PlayText of only misses = %v, want nil", err)
	}
}

func TestPlaySingle(t *testing.T) {
	e, md := newTestEngine(t)
	if err := e.Play(mora.Resolved("ka", "s-S")); err != nil {
		t.Fatal(err)
	}
	if n := len(md.Buffers()); n != 2 {
		t.Errorf("played %d pulses, want 2", n)
	}
}

func TestSwapLexicon(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SwapLexicon(lexicon.FromRows([]lexicon.Row{{Mora: "zz", Pattern: "S"}}))

	entries := e.Translate("zzka")
	if !entries[0].Resolved || entries[1].Resolved {
		t.Errorf("Translate after swap = %+v", entries)
	}

	e.SwapLexicon(nil)
	if e.Lexicon() == nil {
		t.Error("SwapLexicon(nil) cleared the lexicon")
	}
}

func TestListen(t *testing.T) {
	e, _ := newTestEngine(t)
	if res := e.Listen(context.Background()); res.Ok() || CodeOf(res.Err) != ErrorCodeSpeechCapture {
		t.Errorf("Listen without recognizer = %+v", res)
	}

	e.recognizer = stubRecognizer{speech.OK("kabi")}
	if res := e.Listen(context.Background()); !res.Ok() || res.Text != "kabi" {
		t.Errorf("Listen = %+v, want kabi", res)
	}

	e.recognizer = stubRecognizer{speech.Failed(speech.ErrNoSpeech)}
	res := e.Listen(context.Background())
	if !errors.Is(res.Err, speech.ErrNoSpeech) || CodeOf(res.Err) != ErrorCodeSpeechCapture {
		t.Errorf("Listen failure = %+v", res)
	}
}

func TestOpenWithWAVOutput(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "moras.csv")
	if err := os.WriteFile(dataset, []byte("Romaji,Rhythmic Pattern\nka,s-S\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Dataset.Path = dataset
	cfg.Audio.Output = filepath.Join(dir, "out.wav")
	cfg.Cache.Dir = filepath.Join(dir, "cache")

	e, err := Open(cfg, Needs{Audio: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := e.PlayText("ka"); err != nil {
		t.Fatalf("PlayText failed: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	samples, rate, err := audio.ReadWAV(cfg.Audio.Output)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 44100 || len(samples) != 4410+7938 {
		t.Errorf("wav has %d samples at %dHz, want %d at 44100", len(samples), rate, 4410+7938)
	}
}

func TestOpenErrors(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := Open(cfg, Needs{}); CodeOf(err) != ErrorCodeDataset {
		t.Errorf("Open without dataset = %v, want DATASET", err)
	}

	cfg.Dataset.Path = filepath.Join(t.TempDir(), "missing.csv")
	_, err := Open(cfg, Needs{})
	var dsErr *lexicon.DatasetError
	if !errors.As(err, &dsErr) {
		t.Errorf("Open with missing dataset = %v, want *lexicon.DatasetError in chain", err)
	}

	var ee *Error
	if errors.As(err, &ee) && !ee.IsFatal() {
		t.Error("dataset error should be fatal")
	}
}

func TestOpenDeviceFailureSkipsToneCache(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "moras.csv")
	if err := os.WriteFile(dataset, []byte("Romaji,Rhythmic Pattern\nka,s-S\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Dataset.Path = dataset
	cfg.Audio.Output = filepath.Join(dir, "missing", "out.wav")
	cfg.Cache.Dir = filepath.Join(dir, "cache")

	if _, err := Open(cfg, Needs{Audio: true}); CodeOf(err) != ErrorCodeAudioDevice {
		t.Fatalf("Open = %v, want AUDIO_DEVICE", err)
	}
	if _, err := os.Stat(cfg.Cache.Dir); !os.IsNotExist(err) {
		t.Errorf("tone cache opened for a device that failed: stat = %v", err)
	}
}

func TestMissNote(t *testing.T) {
	tests := []struct {
		suggestions []string
		want        string
	}{
		{nil, "No pattern found for 'zz'"},
		{[]string{"za", "zu"}, "No pattern found for 'zz' (did you mean za, zu?)"},
	}
	for _, tt := range tests {
		if got := MissNote("zz", tt.suggestions); got != tt.want {
			t.Errorf("MissNote(%v) = %q, want %q", tt.suggestions, got, tt.want)
		}
	}

	rep := Report{Suggestions: map[string][]string{"zz": {"za"}}}
	if got := rep.MissNote("zz"); got != "No pattern found for 'zz' (did you mean za?)" {
		t.Errorf("Report.MissNote = %q", got)
	}
}
