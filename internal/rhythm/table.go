// Package rhythm holds the symbol-to-duration table and expands rhythm
// patterns into timed pulses.
package rhythm

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// DefaultDuration is assigned to symbols the table does not know.
const DefaultDuration = 100 * time.Millisecond

// Symbol is a single rhythm tag such as "s" or "Ś".
type Symbol string

// Normalize returns the NFC form of the symbol so that precomposed and
// combining spellings of the same mark compare equal.
func (s Symbol) Normalize() Symbol {
	return Symbol(norm.NFC.String(string(s)))
}

// Table maps rhythm symbols to pulse durations. It is immutable once built
// and safe for concurrent readers.
type Table struct {
	durations map[Symbol]time.Duration
}

// DefaultTable returns the stock vibration table.
func DefaultTable() *Table {
	t, _ := NewTable(map[Symbol]time.Duration{
		"s": 100 * time.Millisecond,
		"ŝ": 130 * time.Millisecond,
		"m": 150 * time.Millisecond,
		"ḿ": 170 * time.Millisecond,
		"S": 180 * time.Millisecond,
		"Ś": 200 * time.Millisecond,
	})
	return t
}

// NewTable copies the given mapping into a new table.
func NewTable(durations map[Symbol]time.Duration) (*Table, error) {
	if len(durations) == 0 {
		return nil, errors.New("rhythm table is empty")
	}

	t := &Table{durations: make(map[Symbol]time.Duration, len(durations))}
	for sym, d := range durations {
		if sym == "" {
			return nil, errors.New("rhythm table contains an empty symbol")
		}
		if d <= 0 {
			return nil, fmt.Errorf("duration for symbol %q must be positive, got %v", sym, d)
		}
		t.durations[sym.Normalize()] = d
	}
	return t, nil
}

// tableFile is the on-disk YAML layout. Durations are in milliseconds.
type tableFile struct {
	Symbols map[string]int `yaml:"symbols"`
}

// LoadTable reads a YAML rhythm table from path.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rhythm table: %w", err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rhythm table: %w", err)
	}

	durations := make(map[Symbol]time.Duration, len(f.Symbols))
	for sym, ms := range f.Symbols {
		durations[Symbol(sym)] = time.Duration(ms) * time.Millisecond
	}
	return NewTable(durations)
}

// Duration returns the configured duration for sym.
func (t *Table) Duration(sym Symbol) (time.Duration, bool) {
	d, ok := t.durations[sym.Normalize()]
	return d, ok
}

// Symbols returns the known symbols in a stable order.
func (t *Table) Symbols() []Symbol {
	syms := make([]Symbol, 0, len(t.durations))
	for sym := range t.durations {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	return syms
}

// Len returns the number of symbols in the table.
func (t *Table) Len() int {
	return len(t.durations)
}
