package records

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/deepfraud/deepfraud/internal/domain/analysis"
)

type memStore struct {
	name      string
	records   []*domain.Result
	failWrite bool
	failRead  bool
	failClear bool
}

func (m *memStore) Create(ctx context.Context, r *domain.Result) error {
	if m.failWrite {
		return errors.New("write refused")
	}
	cp := *r
	m.records = append([]*domain.Result{&cp}, m.records...)
	return nil
}

func (m *memStore) List(ctx context.Context) ([]*domain.Result, error) {
	if m.failRead {
		return nil, errors.New("read refused")
	}
	return m.records, nil
}

func (m *memStore) Clear(ctx context.Context) error {
	if m.failClear {
		return errors.New("clear refused")
	}
	m.records = nil
	return nil
}

func (m *memStore) Name() string { return m.name }

func TestCreateMirrorsToAllBackends(t *testing.T) {
	remote := &memStore{name: "remote"}
	local := &memStore{name: "local"}
	f := NewFacade(true, nil, remote, local)

	err := f.Create(context.Background(), &domain.Result{Verdict: domain.VerdictReal})
	require.NoError(t, err)
	assert.Len(t, remote.records, 1)
	assert.Len(t, local.records, 1)
}

func TestCreateFallbackOnlyPolicy(t *testing.T) {
	remote := &memStore{name: "remote"}
	local := &memStore{name: "local"}
	f := NewFacade(false, nil, remote, local)

	require.NoError(t, f.Create(context.Background(), &domain.Result{}))
	assert.Len(t, remote.records, 1)
	assert.Empty(t, local.records, "fallback-only policy must not mirror")

	remote.failWrite = true
	require.NoError(t, f.Create(context.Background(), &domain.Result{}))
	assert.Len(t, local.records, 1)
}

func TestCreateFailsOnlyWhenEveryBackendRefuses(t *testing.T) {
	remote := &memStore{name: "remote", failWrite: true}
	local := &memStore{name: "local", failWrite: true}
	f := NewFacade(true, nil, remote, local)

	err := f.Create(context.Background(), &domain.Result{})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestListPrefersRemoteAndNeverMerges(t *testing.T) {
	remote := &memStore{name: "remote", records: []*domain.Result{{ID: "r1"}}}
	local := &memStore{name: "local", records: []*domain.Result{{ID: "l1"}, {ID: "l2"}}}
	f := NewFacade(true, nil, remote, local)

	out, err := f.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.RecordID("r1"), out[0].ID)
}

func TestListFallsBackOnRemoteErrorOrEmpty(t *testing.T) {
	local := &memStore{name: "local", records: []*domain.Result{{ID: "l1"}}}

	f := NewFacade(true, nil, &memStore{name: "remote", failRead: true}, local)
	out, err := f.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.RecordID("l1"), out[0].ID)

	f = NewFacade(true, nil, &memStore{name: "remote"}, local)
	out, err = f.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestListReportsFallbackReads(t *testing.T) {
	local := &memStore{name: "local", records: []*domain.Result{{ID: "l1"}}}
	f := NewFacade(true, nil, &memStore{name: "remote", failRead: true}, local)

	var fallbacks int
	f.OnFallback = func() { fallbacks++ }

	_, err := f.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fallbacks)

	f.Backends[0] = &memStore{name: "remote", records: []*domain.Result{{ID: "r1"}}}
	_, err = f.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fallbacks, "remote-served reads are not fallbacks")
}

func TestListAllBackendsDownYieldsEmptyState(t *testing.T) {
	f := NewFacade(true, nil,
		&memStore{name: "remote", failRead: true},
		&memStore{name: "local", failRead: true})

	out, err := f.List(context.Background())
	require.NoError(t, err, "a dead chain renders as an empty list, not an error")
	assert.Empty(t, out)
}

func TestClearBestEffortRemoteGuaranteedLocal(t *testing.T) {
	remote := &memStore{name: "remote", records: []*domain.Result{{ID: "r1"}}, failClear: true}
	local := &memStore{name: "local", records: []*domain.Result{{ID: "l1"}}}
	f := NewFacade(true, nil, remote, local)

	require.NoError(t, f.Clear(context.Background()), "restricted remote delete is a silent no-op")
	assert.Empty(t, local.records)

	local.failClear = true
	assert.ErrorIs(t, f.Clear(context.Background()), domain.ErrStoreUnavailable)
}
