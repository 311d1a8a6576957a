package syncer

import (
	"context"
	"time"

	"github.com/fedisync/blocksync/internal/sync/domain"
)

// RemoteLister fetches a remote server's publicly exposed block list.
type RemoteLister interface {
	FetchPublicBlocks(ctx context.Context, host string) (domain.SourceList, error)
}

// AdminGateway is the authenticated surface of the administrator's own
// server: reading its current block list and creating new blocks.
type AdminGateway interface {
	FetchAdminBlocks(ctx context.Context, host, token string) (domain.SourceList, error)
	CreateDomainBlock(ctx context.Context, host, token string, entry domain.BlockEntry) error
}

// ListCache persists the last good fetch per origin across runs.
type ListCache interface {
	Put(list domain.SourceList, fetchedAt time.Time) error
	Get(origin string) (domain.SourceList, time.Time, bool, error)
}
