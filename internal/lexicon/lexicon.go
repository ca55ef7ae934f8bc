// Package lexicon builds the mora to rhythm-pattern lookup table from a
// tabular dataset. A Lexicon is frozen after Build and safe to share between
// goroutines without locking.
package lexicon

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Row is a single dataset record before normalization.
type Row struct {
	Mora    string
	Pattern string
}

// Dataset is a source of lexicon rows. Rows is called exactly once per Build.
type Dataset interface {
	Rows() ([]Row, error)
	Source() string
}

// Lexicon maps normalized moras to rhythm patterns.
type Lexicon struct {
	patterns map[string]string
	moras    []string
	source   string
	skipped  int
	replaced int
}

// NormalizeMora trims surrounding whitespace and lowercases s.
func NormalizeMora(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// Build reads ds once and freezes the result. Rows whose normalized mora or
// pattern is empty are skipped. When two rows share a mora the later row wins.
func Build(ds Dataset) (*Lexicon, error) {
	rows, err := ds.Rows()
	if err != nil {
		return nil, asDatasetError(ds.Source(), err)
	}

	lx := FromRows(rows)
	lx.source = ds.Source()

	log.Debug("Lexicon built",
		"source", lx.source,
		"rows", len(rows),
		"entries", lx.Len(),
		"skipped", lx.skipped,
		"replaced", lx.replaced)

	return lx, nil
}

// FromRows builds a lexicon directly from rows, applying the same
// normalization as Build.
func FromRows(rows []Row) *Lexicon {
	lx := &Lexicon{patterns: make(map[string]string, len(rows))}

	for _, r := range rows {
		mora := NormalizeMora(r.Mora)
		pattern := strings.TrimSpace(r.Pattern)
		if mora == "" || pattern == "" {
			lx.skipped++
			continue
		}
		if prev, ok := lx.patterns[mora]; ok && prev != pattern {
			lx.replaced++
			log.Warn("Duplicate mora in dataset, keeping last row",
				"mora", mora, "previous", prev, "pattern", pattern)
		}
		lx.patterns[mora] = pattern
	}

	lx.moras = make([]string, 0, len(lx.patterns))
	for m := range lx.patterns {
		lx.moras = append(lx.moras, m)
	}
	sort.Strings(lx.moras)

	return lx
}

// Lookup returns the pattern for mora. A miss is reported through the bool,
// never as an error.
func (lx *Lexicon) Lookup(mora string) (string, bool) {
	p, ok := lx.patterns[mora]
	return p, ok
}

// Len returns the number of distinct moras.
func (lx *Lexicon) Len() int {
	return len(lx.patterns)
}

// Moras returns every mora in sorted order. The caller must not modify the
// returned slice.
func (lx *Lexicon) Moras() []string {
	return lx.moras
}

// Source describes where the lexicon was loaded from.
func (lx *Lexicon) Source() string {
	return lx.source
}

// Stats reports how many dataset rows were skipped or overwritten.
func (lx *Lexicon) Stats() (skipped, replaced int) {
	return lx.skipped, lx.replaced
}

// Suggest returns up to n known moras that fuzzily resemble mora, best
// match first. Moras sharing the first letter are used when nothing matches.
func (lx *Lexicon) Suggest(mora string, n int) []string {
	if mora == "" || n <= 0 {
		return nil
	}

	var out []string
	for _, m := range fuzzy.Find(mora, lx.moras) {
		if m.Str == mora {
			continue
		}
		out = append(out, m.Str)
		if len(out) == n {
			return out
		}
	}
	if len(out) > 0 {
		return out
	}

	first := string([]rune(mora)[0])
	for _, m := range lx.moras {
		if m != mora && strings.HasPrefix(m, first) {
			out = append(out, m)
			if len(out) == n {
				break
			}
		}
	}
	return out
}
