package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEntry(t *testing.T, name string, sev Severity) BlockEntry {
	t.Helper()
	e, err := NewBlockEntry(name, sev)
	require.NoError(t, err)
	return e
}

func TestSourceList_AddIsLastWins(t *testing.T) {
	l := NewSourceList("trusted.example")
	l.Add(mustEntry(t, "spam.example", SeveritySilence))
	l.Add(mustEntry(t, "spam.example", SeveritySuspend))

	assert.Equal(t, 1, l.Len())
	assert.Equal(t, SeveritySuspend, l.Entries["spam.example"].Severity)
}

func TestSourceList_Contains(t *testing.T) {
	l := NewSourceList("trusted.example")
	l.Add(mustEntry(t, "spam.example", SeveritySuspend))

	assert.True(t, l.Contains("spam.example"))
	assert.False(t, l.Contains("other.example"))
}

func TestSourceList_DomainsSorted(t *testing.T) {
	l := NewSourceList("trusted.example")
	l.Add(mustEntry(t, "c.example", SeveritySuspend))
	l.Add(mustEntry(t, "a.example", SeveritySuspend))
	l.Add(mustEntry(t, "b.example", SeveritySuspend))

	assert.Equal(t, []string{"a.example", "b.example", "c.example"}, l.Domains())
}

func TestMergedBlockSet_AsSourceList(t *testing.T) {
	m := NewMergedBlockSet()
	m.Entries["spam.example"] = mustEntry(t, "spam.example", SeveritySuspend)
	m.Entries["ads.example"] = mustEntry(t, "ads.example", SeveritySilence)

	l := m.AsSourceList("merged")
	assert.Equal(t, "merged", l.Origin)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, m.Domains(), l.Domains())
}
