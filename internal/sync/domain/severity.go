package domain

import (
	"fmt"
	"strings"
)

// Severity is the moderation action attached to a blocked domain,
// ordered by strictness: suspend > silence > reject_media > noop.
type Severity uint8

const (
	// SeverityNoop records the domain without taking action.
	SeverityNoop Severity = iota
	// SeverityRejectMedia keeps federation but drops media attachments.
	SeverityRejectMedia
	// SeveritySilence (aka "limit") hides the domain's content from shared timelines.
	SeveritySilence
	// SeveritySuspend fully defederates from the domain.
	SeveritySuspend
)

// String returns the canonical wire/CSV representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityNoop:
		return "noop"
	case SeverityRejectMedia:
		return "reject_media"
	case SeveritySilence:
		return "silence"
	case SeveritySuspend:
		return "suspend"
	default:
		return fmt.Sprintf("Severity(%d)", s)
	}
}

// ParseSeverity converts a string into a Severity.
// Accepts: "noop", "reject_media", "silence", "suspend" (case-insensitive).
// "limit" is accepted as an alias for "silence" since both names appear in
// server APIs; the canonical serialized form is always "silence".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "noop":
		return SeverityNoop, nil
	case "reject_media", "reject-media":
		return SeverityRejectMedia, nil
	case "silence", "limit":
		return SeveritySilence, nil
	case "suspend":
		return SeveritySuspend, nil
	default:
		return 0, fmt.Errorf("unsupported severity: %q", s)
	}
}

// Compare returns -1, 0, or 1 when s is less strict than, as strict as,
// or stricter than other.
func (s Severity) Compare(other Severity) int {
	switch {
	case s < other:
		return -1
	case s > other:
		return 1
	default:
		return 0
	}
}

// Max returns the stricter of the two severities.
func (s Severity) Max(other Severity) Severity {
	if other > s {
		return other
	}
	return s
}
