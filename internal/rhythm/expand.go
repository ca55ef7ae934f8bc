package rhythm

import (
	"strings"
	"time"
)

// Separator delimits symbols inside a pattern string.
const Separator = "-"

// Pulse is one timed unit of output.
type Pulse struct {
	Symbol   Symbol
	Duration time.Duration

	// Known is false when the symbol was missing from the table and the
	// duration fell back to DefaultDuration.
	Known bool
}

// Milliseconds returns the pulse duration in whole milliseconds.
func (p Pulse) Milliseconds() int64 {
	return p.Duration.Milliseconds()
}

// ParsePattern splits a pattern string into its symbols, in order.
// An empty pattern yields no symbols.
func ParsePattern(pattern string) []Symbol {
	if pattern == "" {
		return nil
	}
	tokens := strings.Split(pattern, Separator)
	syms := make([]Symbol, len(tokens))
	for i, tok := range tokens {
		syms[i] = Symbol(tok)
	}
	return syms
}

// Expand turns a pattern into pulses using the table. Every token produces
// exactly one pulse; tokens the table does not know get DefaultDuration.
func (t *Table) Expand(pattern string) []Pulse {
	syms := ParsePattern(pattern)
	if len(syms) == 0 {
		return nil
	}

	pulses := make([]Pulse, len(syms))
	for i, sym := range syms {
		d, ok := t.Duration(sym)
		if !ok {
			d = DefaultDuration
		}
		pulses[i] = Pulse{Symbol: sym, Duration: d, Known: ok}
	}
	return pulses
}

// TotalDuration sums the durations of a pulse sequence.
func TotalDuration(pulses []Pulse) time.Duration {
	var total time.Duration
	for _, p := range pulses {
		total += p.Duration
	}
	return total
}
