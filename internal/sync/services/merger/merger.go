package merger

import (
	"sort"

	"github.com/fedisync/blocksync/internal/sync/domain"
)

// Merge combines any number of SourceLists into a single MergedBlockSet.
//
// Every unique domain from every input appears exactly once in the output;
// nothing is dropped. When sources disagree about a domain:
//   - the stricter severity wins, and the winning entry's text fields come
//     along with it;
//   - on an exact severity tie the earlier-seen entry's text fields are kept;
//   - the boolean flags (reject_media, reject_reports, obfuscate) are OR'd
//     across all conflicting entries regardless of which severity won.
//
// The severity assigned to a domain is independent of the order the lists
// are supplied in. Text fields on an equal-severity conflict follow input
// order; that is a documented policy choice, not an accident.
func Merge(sources ...domain.SourceList) domain.MergedBlockSet {
	out := domain.NewMergedBlockSet()
	for _, src := range sources {
		for d, e := range src.Entries {
			cur, ok := out.Entries[d]
			if !ok {
				out.Entries[d] = e
				continue
			}
			out.Entries[d] = resolve(cur, e)
		}
	}
	return out
}

// resolve merges two conflicting entries for the same domain. first is the
// earlier-seen entry and wins ties.
func resolve(first, next domain.BlockEntry) domain.BlockEntry {
	winner := first
	if next.Severity.Compare(first.Severity) > 0 {
		winner = next
	}
	winner.RejectMedia = first.RejectMedia || next.RejectMedia
	winner.RejectReports = first.RejectReports || next.RejectReports
	winner.Obfuscate = first.Obfuscate || next.Obfuscate
	return winner
}

// Diff returns the entries of set whose domains are absent from existing,
// sorted by domain. This is the "new entries only" view the direct importer
// pushes, so domains the target server already blocks are never re-written.
func Diff(set domain.MergedBlockSet, existing domain.SourceList) []domain.BlockEntry {
	out := make([]domain.BlockEntry, 0, set.Len())
	for d, e := range set.Entries {
		if existing.Contains(d) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}
