package mora

// Lookuper resolves a mora to its rhythm pattern.
type Lookuper interface {
	Lookup(mora string) (string, bool)
}

// Entry is the translation of one mora. Unresolved entries carry no pattern
// and are never expanded or played.
type Entry struct {
	Mora     string
	Pattern  string
	Resolved bool
}

// Resolved returns an entry for a mora found in the lexicon.
func Resolved(mora, pattern string) Entry {
	return Entry{Mora: mora, Pattern: pattern, Resolved: true}
}

// Unresolved returns an entry for a lexicon miss.
func Unresolved(mora string) Entry {
	return Entry{Mora: mora}
}

// Translate segments text and looks every mora up in lx. The result has
// exactly one entry per segment, in input order.
func Translate(text string, lx Lookuper) []Entry {
	moras := Segment(text)
	if len(moras) == 0 {
		return nil
	}

	entries := make([]Entry, len(moras))
	for i, m := range moras {
		if p, ok := lx.Lookup(m); ok {
			entries[i] = Resolved(m, p)
		} else {
			entries[i] = Unresolved(m)
		}
	}
	return entries
}

// Misses returns the moras of unresolved entries, in order.
func Misses(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		if !e.Resolved {
			out = append(out, e.Mora)
		}
	}
	return out
}
