package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fedisync/blocksync/internal/sync/common/log"
	"github.com/fedisync/blocksync/internal/sync/domain"
	"github.com/fedisync/blocksync/internal/sync/services/merger"
)

// MockGateway is a testify mock for the admin write endpoint.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateDomainBlock(ctx context.Context, host, token string, entry domain.BlockEntry) error {
	args := m.Called(ctx, host, token, entry)
	return args.Error(0)
}

func entry(t *testing.T, name string, sev domain.Severity) domain.BlockEntry {
	t.Helper()
	e, err := domain.NewBlockEntry(name, sev)
	require.NoError(t, err)
	return e
}

func mergedSet(t *testing.T, entries ...domain.BlockEntry) domain.MergedBlockSet {
	t.Helper()
	l := domain.NewSourceList("test")
	for _, e := range entries {
		l.Add(e)
	}
	return merger.Merge(l)
}

func localList(t *testing.T, entries ...domain.BlockEntry) domain.SourceList {
	t.Helper()
	l := domain.NewSourceList(domain.LocalOrigin)
	for _, e := range entries {
		l.Add(e)
	}
	return l
}

func TestPush_OnlyWritesNewEntries(t *testing.T) {
	known := entry(t, "known.example", domain.SeveritySuspend)
	fresh := entry(t, "new.example", domain.SeveritySuspend)
	gw := &MockGateway{}
	gw.On("CreateDomainBlock", mock.Anything, "home.example", "tok", fresh).Return(nil).Once()

	report := Push(context.Background(), gw, "home.example", "tok",
		mergedSet(t, known, fresh), localList(t, known), log.NewNoopLogger())

	gw.AssertExpectations(t)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Failed)
	assert.False(t, report.Aborted)
}

func TestPush_AlreadyBlockedCountsAsSkip(t *testing.T) {
	e := entry(t, "racy.example", domain.SeveritySuspend)
	gw := &MockGateway{}
	gw.On("CreateDomainBlock", mock.Anything, "home.example", "tok", e).
		Return(fmt.Errorf("racy.example: %w", domain.ErrAlreadyBlocked)).Once()

	report := Push(context.Background(), gw, "home.example", "tok",
		mergedSet(t, e), localList(t), log.NewNoopLogger())

	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.False(t, report.Aborted)
}

func TestPush_IndividualFailuresDoNotStopTheBatch(t *testing.T) {
	a := entry(t, "a.example", domain.SeveritySuspend)
	b := entry(t, "b.example", domain.SeveritySuspend)
	c := entry(t, "c.example", domain.SeveritySuspend)

	gw := &MockGateway{}
	gw.On("CreateDomainBlock", mock.Anything, "home.example", "tok", a).Return(nil).Once()
	gw.On("CreateDomainBlock", mock.Anything, "home.example", "tok", b).
		Return(errors.New("connection reset")).Once()
	gw.On("CreateDomainBlock", mock.Anything, "home.example", "tok", c).Return(nil).Once()

	report := Push(context.Background(), gw, "home.example", "tok",
		mergedSet(t, a, b, c), localList(t), log.NewNoopLogger())

	gw.AssertExpectations(t)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "b.example", report.Failures[0].Domain)
	assert.False(t, report.Aborted)
}

func TestPush_ScopeFailureOnFirstWriteAbortsBatch(t *testing.T) {
	a := entry(t, "a.example", domain.SeveritySuspend)
	b := entry(t, "b.example", domain.SeveritySuspend)
	authErr := &domain.AuthError{Host: "home.example", Status: http.StatusForbidden, Scope: "admin:write:domain_blocks"}

	gw := &MockGateway{}
	// Diff is sorted, so a.example is the first write.
	gw.On("CreateDomainBlock", mock.Anything, "home.example", "tok", a).Return(authErr).Once()

	report := Push(context.Background(), gw, "home.example", "tok",
		mergedSet(t, a, b), localList(t), log.NewNoopLogger())

	gw.AssertExpectations(t)
	gw.AssertNumberOfCalls(t, "CreateDomainBlock", 1)
	assert.True(t, report.Aborted)
	assert.ErrorIs(t, report.AbortErr, authErr)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Failed)
}

func TestPush_LateAuthFailureDoesNotAbort(t *testing.T) {
	a := entry(t, "a.example", domain.SeveritySuspend)
	b := entry(t, "b.example", domain.SeveritySuspend)
	c := entry(t, "c.example", domain.SeveritySuspend)
	authErr := &domain.AuthError{Host: "home.example", Status: http.StatusForbidden, Scope: "admin:write:domain_blocks"}

	gw := &MockGateway{}
	gw.On("CreateDomainBlock", mock.Anything, "home.example", "tok", a).Return(nil).Once()
	gw.On("CreateDomainBlock", mock.Anything, "home.example", "tok", b).Return(authErr).Once()
	gw.On("CreateDomainBlock", mock.Anything, "home.example", "tok", c).Return(nil).Once()

	report := Push(context.Background(), gw, "home.example", "tok",
		mergedSet(t, a, b, c), localList(t), log.NewNoopLogger())

	gw.AssertExpectations(t)
	assert.False(t, report.Aborted)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Failed)
}

func TestPush_NothingToDo(t *testing.T) {
	known := entry(t, "known.example", domain.SeveritySuspend)
	gw := &MockGateway{}

	report := Push(context.Background(), gw, "home.example", "tok",
		mergedSet(t, known), localList(t, known), log.NewNoopLogger())

	gw.AssertNumberOfCalls(t, "CreateDomainBlock", 0)
	assert.Equal(t, 0, report.Attempted)
}
