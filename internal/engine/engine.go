// Package engine wires the translation pipeline together: text is segmented
// into moras, looked up in the lexicon, expanded into timed pulses with the
// rhythm table and rendered to an audio device.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"

	"github.com/shakes-lang/shakes/internal/audio"
	"github.com/shakes-lang/shakes/internal/cache"
	"github.com/shakes-lang/shakes/internal/lexicon"
	"github.com/shakes-lang/shakes/internal/mora"
	"github.com/shakes-lang/shakes/internal/render"
	"github.com/shakes-lang/shakes/internal/rhythm"
	"github.com/shakes-lang/shakes/internal/speech"
)

// Options holds the collaborators of an Engine. Table and Lexicon are
// required; Renderer and Recognizer may be nil when the caller never plays
// or listens.
type Options struct {
	Table      *rhythm.Table
	Lexicon    *lexicon.Lexicon
	Renderer   *render.Renderer
	Recognizer speech.Recognizer

	// Suggestions per unresolved mora in reports
	Suggestions int
}

// Engine translates and plays text. Translation is safe for concurrent use;
// playback is serialized by the renderer.
type Engine struct {
	table       *rhythm.Table
	lexicon     atomic.Pointer[lexicon.Lexicon]
	renderer    *render.Renderer
	recognizer  speech.Recognizer
	suggestions int
}

// New returns an engine built from opts.
func New(opts Options) (*Engine, error) {
	if opts.Table == nil {
		return nil, NewError(ErrorCodeDataset, "rhythm table required", nil)
	}
	if opts.Lexicon == nil {
		return nil, NewError(ErrorCodeDataset, "lexicon required", nil)
	}
	e := &Engine{
		table:       opts.Table,
		renderer:    opts.Renderer,
		recognizer:  opts.Recognizer,
		suggestions: opts.Suggestions,
	}
	e.lexicon.Store(opts.Lexicon)
	return e, nil
}

// Table returns the rhythm table.
func (e *Engine) Table() *rhythm.Table {
	return e.table
}

// Lexicon returns the current lexicon.
func (e *Engine) Lexicon() *lexicon.Lexicon {
	return e.lexicon.Load()
}

// SwapLexicon replaces the lexicon used by subsequent calls. Calls already
// in progress keep the lexicon they started with.
func (e *Engine) SwapLexicon(lx *lexicon.Lexicon) {
	if lx == nil {
		return
	}
	old := e.lexicon.Swap(lx)
	log.Info("Lexicon replaced", "source", lx.Source(), "entries", lx.Len(), "previous", old.Len())
}

// CanPlay reports whether a renderer is configured.
func (e *Engine) CanPlay() bool {
	return e.renderer != nil
}

// CanListen reports whether a recognizer is configured.
func (e *Engine) CanListen() bool {
	return e.recognizer != nil
}

// Translate segments text and resolves every mora.
func (e *Engine) Translate(text string) []mora.Entry {
	return mora.Translate(text, e.lexicon.Load())
}

// Expand returns the pulses for a resolved entry and nil for an unresolved
// one.
func (e *Engine) Expand(entry mora.Entry) []rhythm.Pulse {
	if !entry.Resolved {
		return nil
	}
	return e.table.Expand(entry.Pattern)
}

// Play renders a single entry. Unresolved entries are logged and skipped.
func (e *Engine) Play(entry mora.Entry) error {
	if !entry.Resolved {
		log.Warn("No pattern found", "mora", entry.Mora)
		return nil
	}
	if e.renderer == nil {
		return NewError(ErrorCodeAudioDevice, "no audio device configured", audio.ErrDeviceUnavailable)
	}
	if err := e.renderer.Render(e.Expand(entry)); err != nil {
		return NewError(ErrorCodeAudioDevice, fmt.Sprintf("playing %q", entry.Mora), err).
			WithContext("mora", entry.Mora).
			WithContext("pattern", entry.Pattern)
	}
	return nil
}

// Report summarizes a PlayText call.
type Report struct {
	Entries     []mora.Entry
	Played      int
	Misses      []string
	Suggestions map[string][]string
	Duration    time.Duration // total audio of the played entries
}

// Resolved returns how many entries had a pattern.
func (r Report) Resolved() int {
	return len(r.Entries) - len(r.Misses)
}

// MissNote describes an unresolved mora and its suggestions.
func MissNote(m string, suggestions []string) string {
	note := fmt.Sprintf("No pattern found for '%s'", m)
	if len(suggestions) > 0 {
		note += fmt.Sprintf(" (did you mean %s?)", strings.Join(suggestions, ", "))
	}
	return note
}

// MissNote describes the unresolved mora m with the report's suggestions.
func (r Report) MissNote(m string) string {
	return MissNote(m, r.Suggestions[m])
}

// Report translates text without playing it.
func (e *Engine) Report(text string) Report {
	lx := e.lexicon.Load()
	entries := mora.Translate(text, lx)
	rep := Report{
		Entries: entries,
		Misses:  mora.Misses(entries),
	}
	if e.suggestions > 0 && len(rep.Misses) > 0 {
		rep.Suggestions = make(map[string][]string, len(rep.Misses))
		for _, m := range rep.Misses {
			if s := lx.Suggest(m, e.suggestions); len(s) > 0 {
				rep.Suggestions[m] = s
			}
		}
	}
	return rep
}

// PlayText translates text and plays every resolved mora in order. Misses
// are logged and reported. A device failure stops playback; the partial
// report is returned with the error.
func (e *Engine) PlayText(text string) (Report, error) {
	rep := e.Report(text)
	if len(rep.Entries) == 0 {
		return rep, nil
	}
	if e.renderer == nil && rep.Resolved() > 0 {
		return rep, NewError(ErrorCodeAudioDevice, "no audio device configured", audio.ErrDeviceUnavailable)
	}

	for _, entry := range rep.Entries {
		if !entry.Resolved {
			log.Warn("No pattern found", "mora", entry.Mora, "suggestions", rep.Suggestions[entry.Mora])
			continue
		}
		pulses := e.Expand(entry)
		if err := e.renderer.Render(pulses); err != nil {
			return rep, NewError(ErrorCodeAudioDevice, fmt.Sprintf("playing %q", entry.Mora), err).
				WithContext("played", rep.Played)
		}
		rep.Played++
		rep.Duration += rhythm.TotalDuration(pulses)
	}

	log.Debug("Text played", "entries", len(rep.Entries), "played", rep.Played, "misses", len(rep.Misses))
	return rep, nil
}

// Listen captures one utterance. Failures are wrapped with the
// SPEECH_CAPTURE code in the result.
func (e *Engine) Listen(ctx context.Context) speech.Result {
	if e.recognizer == nil {
		return speech.Failed(NewError(ErrorCodeSpeechCapture, "listen", ErrNoRecognizer))
	}
	res := e.recognizer.Recognize(ctx)
	if !res.Ok() {
		return speech.Failed(NewError(ErrorCodeSpeechCapture, "listen", res.Err))
	}
	return res
}

// Close releases the audio device.
func (e *Engine) Close() error {
	if e.renderer == nil {
		return nil
	}
	return e.renderer.Close()
}

// Needs selects which optional collaborators Open constructs.
type Needs struct {
	Audio  bool
	Speech bool

	// Recording replaces the microphone with an existing WAV file
	Recording string
}

// Open builds an engine from configuration. The dataset and rhythm table
// are read exactly once here.
func Open(cfg Config, needs Needs) (*Engine, error) {
	table, err := OpenTable(cfg.Rhythm)
	if err != nil {
		return nil, err
	}

	lx, err := OpenLexicon(cfg.Dataset)
	if err != nil {
		return nil, err
	}

	opts := Options{
		Table:       table,
		Lexicon:     lx,
		Suggestions: cfg.Suggestions,
	}

	if needs.Audio {
		r, err := openRenderer(cfg)
		if err != nil {
			return nil, err
		}
		opts.Renderer = r
	}

	if needs.Speech {
		var source speech.Source = speech.CommandSource{
			Command:    cfg.Speech.Recorder,
			Args:       speech.DefaultCommandSource().Args,
			Duration:   cfg.Speech.RecordDuration,
			SampleRate: cfg.Speech.SampleRate,
		}
		if needs.Recording != "" {
			path, err := homedir.Expand(needs.Recording)
			if err != nil {
				closeRenderer(opts.Renderer)
				return nil, NewError(ErrorCodeInvalidInput, "expanding recording path", err)
			}
			source = speech.FileSource{Path: path}
		}
		rec, err := speech.NewGoogleRecognizer(speech.GoogleConfig{
			APIKey:            cfg.Speech.APIKey,
			Endpoint:          cfg.Speech.Endpoint,
			Language:          cfg.Speech.Language,
			Source:            source,
			Timeout:           cfg.Speech.Timeout,
			RequestsPerMinute: cfg.Speech.RequestsPerMinute,
		})
		if err != nil {
			closeRenderer(opts.Renderer)
			return nil, NewError(ErrorCodeSpeechCapture, "creating recognizer", err)
		}
		opts.Recognizer = rec
	}

	return New(opts)
}

// OpenTable loads the rhythm table named by cfg, or the built-in table.
func OpenTable(cfg RhythmConfig) (*rhythm.Table, error) {
	if cfg.Path == "" {
		return rhythm.DefaultTable(), nil
	}
	path, err := homedir.Expand(cfg.Path)
	if err != nil {
		return nil, NewError(ErrorCodeDataset, "expanding rhythm path", err)
	}
	table, err := rhythm.LoadTable(path)
	if err != nil {
		return nil, NewError(ErrorCodeDataset, "loading rhythm table", err)
	}
	return table, nil
}

// OpenLexicon loads the dataset named by cfg.
func OpenLexicon(cfg DatasetConfig) (*lexicon.Lexicon, error) {
	if cfg.Path == "" {
		return nil, NewError(ErrorCodeDataset, "no dataset configured", errors.New("set --dataset or dataset.path"))
	}
	ds, err := lexicon.Open(cfg.Path, cfg.Columns())
	if err != nil {
		return nil, NewError(ErrorCodeDataset, "opening dataset", err)
	}
	if sq, ok := ds.(*lexicon.SQLiteDataset); ok && cfg.Table != "" {
		sq.Table = cfg.Table
	}
	lx, err := lexicon.Build(ds)
	if err != nil {
		return nil, NewError(ErrorCodeDataset, "building lexicon", err)
	}
	return lx, nil
}

func closeRenderer(r *render.Renderer) {
	if r != nil {
		_ = r.Close()
	}
}

func openRenderer(cfg Config) (*render.Renderer, error) {
	device, err := openDevice(cfg.Audio)
	if err != nil {
		return nil, err
	}

	var tones *cache.ToneCache
	if cfg.Cache.Enabled {
		tones, err = openToneCache(cfg.Cache)
		if err != nil {
			// A missing cache only costs synthesis time.
			log.Warn("Tone cache disabled", "error", err)
			tones = nil
		}
	}

	r, err := render.New(device, render.Options{
		Frequency:  cfg.Audio.Frequency,
		SampleRate: cfg.Audio.SampleRate,
		Cache:      tones,
	})
	if err != nil {
		_ = device.Close()
		if tones != nil {
			_ = tones.Close()
		}
		return nil, NewError(ErrorCodeInvalidInput, "creating renderer", err)
	}
	return r, nil
}

// openDevice opens the WAV writer when an output file is set and the
// speaker otherwise.
func openDevice(cfg AudioConfig) (audio.Device, error) {
	if cfg.Output != "" {
		path, err := homedir.Expand(cfg.Output)
		if err != nil {
			return nil, NewError(ErrorCodeInvalidInput, "expanding output path", err)
		}
		w, err := audio.NewWAVWriter(path)
		if err != nil {
			return nil, NewError(ErrorCodeAudioDevice, "opening WAV output", err)
		}
		return w, nil
	}

	pc := audio.DefaultPlayerConfig()
	pc.SampleRate = cfg.SampleRate
	pc.Volume = cfg.Volume
	pc.BufferSize = cfg.BufferSize
	p, err := audio.NewPlayer(pc)
	if err != nil {
		return nil, NewError(ErrorCodeAudioDevice, "opening speaker", err)
	}
	return p, nil
}

func openToneCache(cfg CacheConfig) (*cache.ToneCache, error) {
	cc := &cache.CacheConfig{
		MemoryCapacity:   int64(cfg.MemoryMB) * 1024 * 1024,
		DiskCapacity:     int64(cfg.DiskMB) * 1024 * 1024,
		CompressionLevel: 3,
		MaxAge:           cfg.MaxAge,
	}
	if cfg.Dir != "" && cfg.DiskMB > 0 {
		dir, err := homedir.Expand(cfg.Dir)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		cc.DiskPath = dir
	}
	return cache.NewToneCache(cc) //nolint:wrapcheck
}
