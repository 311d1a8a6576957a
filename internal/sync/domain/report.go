package domain

// FetchResult is the per-source outcome of the fetch loop. Exactly one of
// List or Err is meaningful; a stale result carries a cached List alongside
// the Err that forced the fallback.
type FetchResult struct {
	Origin string
	List   SourceList
	Err    error
	Stale  bool // List was served from the local cache, not the network
}

// OK reports whether the result carries a usable list (fresh or stale).
func (r FetchResult) OK() bool {
	return r.Err == nil || r.Stale
}

// ImportFailure records one domain whose write to the target server failed.
type ImportFailure struct {
	Domain string
	Err    error
}

// ImportReport summarizes a direct-import run.
//
// Attempted counts every domain a write was issued for. Created, Skipped
// (already blocked on the target), and Failed partition the attempts.
// Aborted is set when the batch was cut short by a credential failure on
// the first write; AbortErr carries its cause.
type ImportReport struct {
	Attempted int
	Created   int
	Skipped   int
	Failed    int
	Failures  []ImportFailure
	Aborted   bool
	AbortErr  error
}

// SkippedSource records a source that contributed nothing fresh to the run.
type SkippedSource struct {
	Origin string
	Reason string
	Stale  bool // a cached copy was used instead
}

// RunSummary is the user-facing result of a whole run.
type RunSummary struct {
	SourcesFetched int
	SourcesStale   int
	Skipped        []SkippedSource
	UniqueDomains  int
	CSVPath        string // empty when no file was written
	Import         *ImportReport
}
