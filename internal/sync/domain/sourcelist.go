package domain

import "sort"

// LocalOrigin identifies the target server's own block list.
const LocalOrigin = "local"

// SourceList is one fetched block list, keyed by canonical domain.
// Domains are unique per list; adding a domain twice is last-wins,
// matching how servers themselves key blocks by domain.
type SourceList struct {
	Origin  string // server the list was fetched from, or LocalOrigin
	Entries map[string]BlockEntry
}

// NewSourceList returns an empty SourceList for the given origin.
func NewSourceList(origin string) SourceList {
	return SourceList{
		Origin:  origin,
		Entries: make(map[string]BlockEntry),
	}
}

// Add inserts an entry keyed by its domain, replacing any previous
// entry for the same domain.
func (l SourceList) Add(e BlockEntry) {
	l.Entries[e.Domain] = e
}

// Contains reports whether the list already has an entry for the domain.
func (l SourceList) Contains(domain string) bool {
	_, ok := l.Entries[domain]
	return ok
}

// Len returns the number of unique domains in the list.
func (l SourceList) Len() int {
	return len(l.Entries)
}

// Domains returns the list's domains in sorted order.
func (l SourceList) Domains() []string {
	out := make([]string, 0, len(l.Entries))
	for d := range l.Entries {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
