package listcache

import (
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/fedisync/blocksync/internal/sync/domain"
)

var (
	bucketLists = []byte("lists")
	bucketMeta  = []byte("meta")
)

// Store keeps the most recent successfully fetched block list per origin in
// a bbolt database, so a run can fall back to yesterday's copy when a
// trusted server is unreachable, and --offline can run with no network at
// all.
type Store struct {
	db *bbolt.DB
}

// storedEntry is the JSON shape persisted per block entry. Severity is
// stored by name so the database survives reordering of the enum.
type storedEntry struct {
	Domain         string `json:"domain"`
	Severity       string `json:"severity"`
	PublicComment  string `json:"public_comment,omitempty"`
	PrivateComment string `json:"private_comment,omitempty"`
	RejectMedia    bool   `json:"reject_media,omitempty"`
	RejectReports  bool   `json:"reject_reports,omitempty"`
	Obfuscate      bool   `json:"obfuscate,omitempty"`
}

// New opens (or creates) the cache database at path and ensures buckets exist.
func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketLists); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return err
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Put replaces the cached list for the list's origin and records fetchedAt.
func (s *Store) Put(list domain.SourceList, fetchedAt time.Time) error {
	entries := make([]storedEntry, 0, list.Len())
	for _, d := range list.Domains() {
		e := list.Entries[d]
		entries = append(entries, storedEntry{
			Domain:         e.Domain,
			Severity:       e.Severity.String(),
			PublicComment:  e.PublicComment,
			PrivateComment: e.PrivateComment,
			RejectMedia:    e.RejectMedia,
			RejectReports:  e.RejectReports,
			Obfuscate:      e.Obfuscate,
		})
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketLists).Put([]byte(list.Origin), payload); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put([]byte(list.Origin), []byte(fetchedAt.UTC().Format(time.RFC3339)))
	})
}

// Get returns the cached list for origin, the time it was fetched, and
// whether a cached copy exists.
func (s *Store) Get(origin string) (domain.SourceList, time.Time, bool, error) {
	var (
		payload []byte
		meta    []byte
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketLists).Get([]byte(origin)); v != nil {
			payload = make([]byte, len(v))
			copy(payload, v)
		}
		if v := tx.Bucket(bucketMeta).Get([]byte(origin)); v != nil {
			meta = make([]byte, len(v))
			copy(meta, v)
		}
		return nil
	})
	if err != nil {
		return domain.SourceList{}, time.Time{}, false, err
	}
	if payload == nil {
		return domain.SourceList{}, time.Time{}, false, nil
	}

	var entries []storedEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return domain.SourceList{}, time.Time{}, false, fmt.Errorf("corrupt cache entry for %s: %w", origin, err)
	}

	list := domain.NewSourceList(origin)
	for _, se := range entries {
		sev, err := domain.ParseSeverity(se.Severity)
		if err != nil {
			return domain.SourceList{}, time.Time{}, false, fmt.Errorf("corrupt cache entry for %s: %w", origin, err)
		}
		entry, err := domain.NewBlockEntry(se.Domain, sev)
		if err != nil {
			return domain.SourceList{}, time.Time{}, false, fmt.Errorf("corrupt cache entry for %s: %w", origin, err)
		}
		entry.PublicComment = se.PublicComment
		entry.PrivateComment = se.PrivateComment
		entry.RejectMedia = se.RejectMedia
		entry.RejectReports = se.RejectReports
		entry.Obfuscate = se.Obfuscate
		list.Add(entry)
	}

	fetchedAt := time.Time{}
	if meta != nil {
		if t, err := time.Parse(time.RFC3339, string(meta)); err == nil {
			fetchedAt = t
		}
	}
	return list, fetchedAt, true, nil
}
