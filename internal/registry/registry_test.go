package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobstoreerrors "github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/azapi"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/connstr"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/testutil"
)

func TestRegistry_GetReturnsSameHandle(t *testing.T) {
	cloud := testutil.NewCloud()
	r := New(cloud.Factory(), nil)

	cs := testutil.ConnectionString("acme")
	first, err := r.Get(cs)
	require.NoError(t, err)
	second, err := r.Get(cs)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), cloud.FactoryCalls())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, Stats{Created: 1, Reused: 1}, r.Stats())
}

func TestRegistry_DistinctStringsDistinctHandles(t *testing.T) {
	cloud := testutil.NewCloud()
	r := New(cloud.Factory(), nil)

	a, err := r.Get(testutil.ConnectionString("one"))
	require.NoError(t, err)
	b, err := r.Get(testutil.ConnectionString("two"))
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_ConcurrentFirstUse(t *testing.T) {
	cloud := testutil.NewCloud()
	r := New(cloud.Factory(), nil)
	cs := testutil.ConnectionString("acme")

	const workers = 32
	handles := make([]azapi.ServiceAPI, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := r.Get(cs)
			assert.NoError(t, err)
			handles[i] = h
		}()
	}
	wg.Wait()

	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
	assert.Equal(t, int64(1), cloud.FactoryCalls())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ConcurrentReuseCounted(t *testing.T) {
	cloud := testutil.NewCloud()
	r := New(cloud.Factory(), nil)
	cs := testutil.ConnectionString("acme")

	_, err := r.Get(cs)
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Get(cs)
			assert.NoError(t, err)
			_ = r.Stats()
		}()
	}
	wg.Wait()

	assert.Equal(t, Stats{Created: 1, Reused: workers}, r.Stats())
	assert.Equal(t, int64(1), cloud.FactoryCalls())
}

func TestRegistry_InvalidConnectionString(t *testing.T) {
	cloud := testutil.NewCloud()
	r := New(cloud.Factory(), nil)

	_, err := r.Get("AccountKey=abc")
	require.Error(t, err)
	assert.True(t, blobstoreerrors.IsInvalidConfiguration(err))
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, int64(0), cloud.FactoryCalls())
}

func TestRegistry_FactoryFailureNotCached(t *testing.T) {
	calls := 0
	factory := func(*connstr.Account) (azapi.ServiceAPI, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return &testutil.MockService{}, nil
	}
	r := New(factory, nil)
	cs := testutil.ConnectionString("acme")

	_, err := r.Get(cs)
	require.Error(t, err)

	h, err := r.Get(cs)
	require.NoError(t, err)
	assert.NotNil(t, h)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(1), r.Stats().Failed)
}

func TestRegistry_OnCreate(t *testing.T) {
	cloud := testutil.NewCloud()
	r := New(cloud.Factory(), nil)

	var created []string
	r.OnCreate = func(a *connstr.Account) { created = append(created, a.Name) }

	_, _ = r.Get(testutil.ConnectionString("acme"))
	_, _ = r.Get(testutil.ConnectionString("acme"))

	assert.Equal(t, []string{"acme"}, created)
}
