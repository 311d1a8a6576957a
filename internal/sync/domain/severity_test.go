package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Severity
		wantErr bool
	}{
		{name: "suspend", input: "suspend", want: SeveritySuspend},
		{name: "silence", input: "silence", want: SeveritySilence},
		{name: "limit is an alias for silence", input: "limit", want: SeveritySilence},
		{name: "reject_media", input: "reject_media", want: SeverityRejectMedia},
		{name: "reject-media hyphenated", input: "reject-media", want: SeverityRejectMedia},
		{name: "noop", input: "noop", want: SeverityNoop},
		{name: "uppercase", input: "SUSPEND", want: SeveritySuspend},
		{name: "surrounding whitespace", input: "  silence  ", want: SeveritySilence},
		{name: "unknown value", input: "banhammer", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverity_String_RoundTrip(t *testing.T) {
	for _, sev := range []Severity{SeverityNoop, SeverityRejectMedia, SeveritySilence, SeveritySuspend} {
		got, err := ParseSeverity(sev.String())
		assert.NoError(t, err)
		assert.Equal(t, sev, got)
	}
}

func TestSeverity_Ordering(t *testing.T) {
	assert.Equal(t, 1, SeveritySuspend.Compare(SeveritySilence))
	assert.Equal(t, 1, SeveritySilence.Compare(SeverityRejectMedia))
	assert.Equal(t, 1, SeverityRejectMedia.Compare(SeverityNoop))
	assert.Equal(t, 0, SeveritySilence.Compare(SeveritySilence))
	assert.Equal(t, -1, SeverityNoop.Compare(SeveritySuspend))
}

func TestSeverity_Max(t *testing.T) {
	assert.Equal(t, SeveritySuspend, SeveritySilence.Max(SeveritySuspend))
	assert.Equal(t, SeveritySuspend, SeveritySuspend.Max(SeverityNoop))
	assert.Equal(t, SeverityRejectMedia, SeverityRejectMedia.Max(SeverityRejectMedia))
}
