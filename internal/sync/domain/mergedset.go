package domain

import "sort"

// MergedBlockSet is the union of all fetched SourceLists, one entry per
// unique domain. Invariant: every domain present in any input list appears
// exactly once, carrying the strictest severity seen for it.
type MergedBlockSet struct {
	Entries map[string]BlockEntry
}

// NewMergedBlockSet returns an empty MergedBlockSet.
func NewMergedBlockSet() MergedBlockSet {
	return MergedBlockSet{Entries: make(map[string]BlockEntry)}
}

// Len returns the number of unique domains in the set.
func (m MergedBlockSet) Len() int {
	return len(m.Entries)
}

// Domains returns the set's domains in sorted order.
func (m MergedBlockSet) Domains() []string {
	out := make([]string, 0, len(m.Entries))
	for d := range m.Entries {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// AsSourceList re-wraps the merged set as a SourceList so it can be fed
// back through the merger (used by idempotence checks and cached replays).
func (m MergedBlockSet) AsSourceList(origin string) SourceList {
	l := NewSourceList(origin)
	for _, e := range m.Entries {
		l.Add(e)
	}
	return l
}
