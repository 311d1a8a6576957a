package domain

import (
	"fmt"
	"strings"

	"github.com/fedisync/blocksync/internal/sync/common/utils"
)

// BlockEntry is one blocked domain as reported by some source.
//
// Notes:
// - Domain is canonical (lowercase, no trailing dot, IDNA ASCII form).
// - Comments are free text and may be empty.
// - The boolean flags are source-reported and default to false when absent.
type BlockEntry struct {
	Domain         string   // canonical domain, e.g. "spam.example"
	Severity       Severity // moderation action
	PublicComment  string   // shown to the server's users
	PrivateComment string   // visible to moderators only
	RejectMedia    bool
	RejectReports  bool
	Obfuscate      bool
}

// NewBlockEntry constructs a BlockEntry with a canonicalized domain and
// validates it.
func NewBlockEntry(name string, severity Severity) (BlockEntry, error) {
	e := BlockEntry{
		Domain:   utils.CanonicalDomain(name),
		Severity: severity,
	}
	if err := e.Validate(); err != nil {
		return BlockEntry{}, err
	}
	return e, nil
}

// Validate checks the BlockEntry for required fields and supported values.
func (e BlockEntry) Validate() error {
	if e.Domain == "" {
		return fmt.Errorf("entry domain must not be empty")
	}
	if strings.Contains(e.Domain, "*") {
		return fmt.Errorf("entry domain must not contain a wildcard: %q", e.Domain)
	}
	if !strings.Contains(e.Domain, ".") {
		return fmt.Errorf("entry domain must contain at least two labels: %q", e.Domain)
	}
	switch e.Severity {
	case SeverityNoop, SeverityRejectMedia, SeveritySilence, SeveritySuspend:
		// ok
	default:
		return fmt.Errorf("unsupported severity: %d", e.Severity)
	}
	return nil
}
