package importer

import (
	"context"
	"errors"

	"github.com/fedisync/blocksync/internal/sync/common/log"
	"github.com/fedisync/blocksync/internal/sync/domain"
	"github.com/fedisync/blocksync/internal/sync/services/merger"
)

// Gateway is the slice of the admin API the importer needs.
type Gateway interface {
	CreateDomainBlock(ctx context.Context, host, token string, entry domain.BlockEntry) error
}

// Push writes every merged entry the target server does not already block,
// one request per domain, best-effort.
//
// Failure policy:
//   - "already blocked" answers count as skips, not failures;
//   - an auth/scope failure on the very first write aborts the remaining
//     batch, since it would deterministically fail for every entry;
//   - every other per-entry failure is recorded and the batch continues.
func Push(ctx context.Context, gw Gateway, host, token string, set domain.MergedBlockSet, existing domain.SourceList, logger log.Logger) domain.ImportReport {
	report := domain.ImportReport{}

	for _, entry := range merger.Diff(set, existing) {
		report.Attempted++
		err := gw.CreateDomainBlock(ctx, host, token, entry)
		switch {
		case err == nil:
			report.Created++
			logger.Info(map[string]any{"domain": entry.Domain, "severity": entry.Severity.String()},
				"created domain block")
		case errors.Is(err, domain.ErrAlreadyBlocked):
			report.Skipped++
			logger.Debug(map[string]any{"domain": entry.Domain}, "domain already blocked on target")
		default:
			report.Failed++
			report.Failures = append(report.Failures, domain.ImportFailure{Domain: entry.Domain, Err: err})
			logger.Warn(map[string]any{"domain": entry.Domain, "error": err.Error()},
				"failed to create domain block")

			var authErr *domain.AuthError
			if errors.As(err, &authErr) && report.Attempted == 1 {
				report.Aborted = true
				report.AbortErr = authErr
				logger.Error(map[string]any{"host": host, "error": authErr.Error()},
					"aborting import, token lacks the required scope")
				return report
			}
		}
	}
	return report
}
