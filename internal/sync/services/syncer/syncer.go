package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fedisync/blocksync/internal/sync/common/log"
	"github.com/fedisync/blocksync/internal/sync/domain"
	"github.com/fedisync/blocksync/internal/sync/services/exporter"
	"github.com/fedisync/blocksync/internal/sync/services/importer"
	"github.com/fedisync/blocksync/internal/sync/services/merger"
)

// ErrNoSources is returned when not a single source (network or cache)
// produced a usable list; a run that fetched nothing did no useful work.
var ErrNoSources = errors.New("no reachable block list sources")

// Options configures a Syncer.
type Options struct {
	Remotes []string
	Home    string // administrator's own server; "" skips the local list
	Token   string
	Output  string // CSV export path; "" disables the CSV sink
	Apply   bool   // push new entries to Home's admin API
	Offline bool   // serve every source from cache

	// ExtraSources are pre-loaded lists (e.g. a previously exported CSV)
	// that join the merge after the remotes.
	ExtraSources []domain.SourceList

	Remote RemoteLister
	Admin  AdminGateway
	Cache  ListCache // optional; nil disables cache fallback and offline mode
	Logger log.Logger

	// Now stamps cache writes; defaults to time.Now.
	Now func() time.Time
}

// Syncer runs one aggregation pass: fetch the local list when configured,
// fetch every remote list collecting per-source results, merge, then feed
// the configured sinks.
type Syncer struct {
	opts   Options
	logger log.Logger
}

// New constructs a Syncer.
func New(opts Options) *Syncer {
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Syncer{opts: opts, logger: opts.Logger}
}

// Run executes the whole pass and returns the user-facing summary. The
// returned error is fatal (auth, output I/O, nothing reachable, or an
// aborted import); per-source fetch failures never surface here.
func (s *Syncer) Run(ctx context.Context) (domain.RunSummary, error) {
	summary := domain.RunSummary{}

	local := domain.NewSourceList(domain.LocalOrigin)
	haveLocal := false
	if s.opts.Home != "" && s.opts.Token != "" {
		l, err := s.opts.Admin.FetchAdminBlocks(ctx, s.opts.Home, s.opts.Token)
		if err != nil {
			return summary, err
		}
		local = l
		haveLocal = true
		s.logger.Info(map[string]any{"host": s.opts.Home, "domains": local.Len()},
			"fetched local block list")
	}

	lists := make([]domain.SourceList, 0, len(s.opts.Remotes)+len(s.opts.ExtraSources)+1)
	for _, res := range s.fetchAll(ctx) {
		switch {
		case res.Err == nil && !res.Stale:
			summary.SourcesFetched++
			lists = append(lists, res.List)
		case res.OK():
			summary.SourcesStale++
			summary.Skipped = append(summary.Skipped, domain.SkippedSource{
				Origin: res.Origin,
				Reason: reason(res.Err),
				Stale:  true,
			})
			lists = append(lists, res.List)
		default:
			summary.Skipped = append(summary.Skipped, domain.SkippedSource{
				Origin: res.Origin,
				Reason: reason(res.Err),
			})
		}
	}

	if len(lists) == 0 && len(s.opts.ExtraSources) == 0 {
		return summary, ErrNoSources
	}

	lists = append(lists, s.opts.ExtraSources...)
	if haveLocal {
		lists = append(lists, local)
	}

	merged := merger.Merge(lists...)
	summary.UniqueDomains = merged.Len()
	s.logger.Info(map[string]any{
		"sources": len(lists),
		"domains": merged.Len(),
	}, "merged block lists")

	if s.opts.Output != "" {
		if err := exporter.WriteCSV(s.opts.Output, merged); err != nil {
			return summary, err
		}
		summary.CSVPath = s.opts.Output
		s.logger.Info(map[string]any{"path": s.opts.Output, "domains": merged.Len()},
			"wrote block list CSV")
	}

	if s.opts.Apply {
		report := importer.Push(ctx, s.opts.Admin, s.opts.Home, s.opts.Token, merged, local, s.logger)
		summary.Import = &report
		if report.Aborted {
			return summary, report.AbortErr
		}
	}

	return summary, nil
}

// fetchAll collects one FetchResult per configured remote. Failures are
// values here, not control flow: an unreachable source falls back to its
// cached copy when one exists and is otherwise reported as skipped.
func (s *Syncer) fetchAll(ctx context.Context) []domain.FetchResult {
	results := make([]domain.FetchResult, 0, len(s.opts.Remotes))
	for _, host := range s.opts.Remotes {
		if s.opts.Offline {
			results = append(results, s.fromCache(host, nil))
			continue
		}

		s.logger.Info(map[string]any{"host": host}, "fetching block list")
		list, err := s.opts.Remote.FetchPublicBlocks(ctx, host)
		if err != nil {
			s.logger.Warn(map[string]any{"host": host, "error": err.Error()},
				"source unreachable, trying cache")
			results = append(results, s.fromCache(host, err))
			continue
		}

		if s.opts.Cache != nil {
			if err := s.opts.Cache.Put(list, s.opts.Now()); err != nil {
				s.logger.Warn(map[string]any{"host": host, "error": err.Error()},
					"failed to cache fetched list")
			}
		}
		results = append(results, domain.FetchResult{Origin: host, List: list})
	}
	return results
}

// fromCache builds a stale FetchResult from the cache, or a failed one when
// no cached copy exists. cause is the fetch error that forced the fallback
// (nil in offline mode).
func (s *Syncer) fromCache(host string, cause error) domain.FetchResult {
	if s.opts.Cache == nil {
		if cause == nil {
			cause = errors.New("offline and no cache configured")
		}
		return domain.FetchResult{Origin: host, Err: cause}
	}

	list, fetchedAt, ok, err := s.opts.Cache.Get(host)
	if err != nil || !ok {
		if cause == nil {
			cause = errors.New("no cached copy")
		}
		if err != nil {
			cause = fmt.Errorf("%w (cache: %v)", cause, err)
		}
		return domain.FetchResult{Origin: host, Err: cause}
	}

	s.logger.Info(map[string]any{
		"host":       host,
		"domains":    list.Len(),
		"fetched_at": fetchedAt.Format(time.RFC3339),
	}, "using cached block list")

	if cause == nil {
		// Offline mode: the cached copy is the requested behavior, not a
		// degradation, so it carries no error.
		return domain.FetchResult{Origin: host, List: list, Stale: true}
	}
	return domain.FetchResult{Origin: host, List: list, Err: cause, Stale: true}
}

func reason(err error) string {
	if err == nil {
		return "served from cache (offline)"
	}
	return err.Error()
}
