package list

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/testutil"
)

func seed(acct *testutil.Account, container string, n int) []string {
	acct.CreateContainer(container)
	names := make([]string, n)
	for i := range n {
		names[i] = fmt.Sprintf("blob-%03d", i)
		acct.Put(container, names[i], []byte(names[i]), map[string]string{"index": fmt.Sprint(i)})
	}
	return names
}

func entryNames(entries []blobtypes.BlobEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func TestListAll_EmptyContainer(t *testing.T) {
	acct := testutil.NewCloud().Account("acme").CreateContainer("empty")
	lister := New(acct.Container("empty"), nil)

	entries, err := lister.ListAll(context.Background(), Config{Container: "empty", IncludeMetadata: true})

	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
	assert.Equal(t, int64(1), acct.ListPages.Load())
	assert.Equal(t, int64(0), acct.PropertyCalls.Load())
}

func TestListAll_PageCountAndOrder(t *testing.T) {
	tests := []struct {
		name      string
		items     int
		pageSize  int32
		metadata  bool
		wantPages int64
	}{
		{name: "exact multiple", items: 6, pageSize: 3, wantPages: 2},
		{name: "remainder", items: 7, pageSize: 3, wantPages: 3},
		{name: "single page", items: 4, pageSize: 10, wantPages: 1},
		{name: "page size one", items: 3, pageSize: 1, wantPages: 3},
		{name: "with metadata", items: 7, pageSize: 3, metadata: true, wantPages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct := testutil.NewCloud().Account("acme")
			want := seed(acct, "data", tt.items)
			lister := New(acct.Container("data"), nil)

			entries, err := lister.ListAll(context.Background(), Config{
				Container:       "data",
				PageSize:        tt.pageSize,
				IncludeMetadata: tt.metadata,
			})

			require.NoError(t, err)
			assert.Equal(t, want, entryNames(entries))
			assert.Equal(t, tt.wantPages, acct.ListPages.Load())

			if tt.metadata {
				assert.Equal(t, int64(tt.items), acct.PropertyCalls.Load())
				for i, e := range entries {
					assert.Equal(t, fmt.Sprint(i), e.Metadata["index"])
				}
			} else {
				assert.Equal(t, int64(0), acct.PropertyCalls.Load())
				for _, e := range entries {
					assert.Nil(t, e.Metadata)
					assert.NotNil(t, e.LastModified)
				}
			}
		})
	}
}

func TestListAll_OrderSurvivesOutOfOrderCompletion(t *testing.T) {
	acct := testutil.NewCloud().Account("acme")
	want := seed(acct, "data", 5)

	// earlier blobs finish last
	delays := map[string]time.Duration{}
	for i, name := range want {
		delays[name] = time.Duration(len(want)-i) * 15 * time.Millisecond
	}
	var order []string
	done := make(chan string, len(want))
	acct.PropertiesHook = func(_, blob string) error {
		time.Sleep(delays[blob])
		done <- blob
		return nil
	}

	lister := New(acct.Container("data"), nil)
	entries, err := lister.ListAll(context.Background(), Config{
		Container:       "data",
		PageSize:        10,
		IncludeMetadata: true,
		Concurrency:     len(want),
	})
	require.NoError(t, err)

	close(done)
	for name := range done {
		order = append(order, name)
	}
	assert.NotEqual(t, want, order, "fetches should complete out of order")
	assert.Equal(t, want, entryNames(entries))
}

func TestListAll_ConcurrencyBound(t *testing.T) {
	acct := testutil.NewCloud().Account("acme")
	seed(acct, "data", 20)

	var inFlight, peak atomic.Int64
	acct.PropertiesHook = func(_, _ string) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}

	lister := New(acct.Container("data"), nil)
	_, err := lister.ListAll(context.Background(), Config{
		Container:       "data",
		PageSize:        20,
		IncludeMetadata: true,
		Concurrency:     3,
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(3))
	assert.Positive(t, peak.Load())
}

func TestListAll_PageBarrier(t *testing.T) {
	acct := testutil.NewCloud().Account("acme")
	seed(acct, "data", 6)

	var propsBeforePage []int64
	acct.ListHook = func(_ string, _ int64) error {
		propsBeforePage = append(propsBeforePage, acct.PropertyCalls.Load())
		return nil
	}

	lister := New(acct.Container("data"), nil)
	_, err := lister.ListAll(context.Background(), Config{
		Container:       "data",
		PageSize:        3,
		IncludeMetadata: true,
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{0, 3}, propsBeforePage)
}

func TestListAll_MetadataFailureAborts(t *testing.T) {
	acct := testutil.NewCloud().Account("acme")
	seed(acct, "data", 5)
	acct.PropertiesHook = func(_, blob string) error {
		if blob == "blob-002" {
			return testutil.ResponseError(http.StatusInternalServerError, "InternalError")
		}
		return nil
	}

	lister := New(acct.Container("data"), nil)
	entries, err := lister.ListAll(context.Background(), Config{Container: "data", IncludeMetadata: true})

	require.Error(t, err)
	assert.Nil(t, entries)
	assert.Contains(t, err.Error(), "blob-002")

	var respErr *azcore.ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusInternalServerError, respErr.StatusCode)
}

func TestListAll_PageFailureDiscardsPartial(t *testing.T) {
	acct := testutil.NewCloud().Account("acme")
	seed(acct, "data", 5)
	boom := errors.New("connection reset")
	acct.ListHook = func(_ string, page int64) error {
		if page == 2 {
			return boom
		}
		return nil
	}

	lister := New(acct.Container("data"), nil)
	entries, err := lister.ListAll(context.Background(), Config{Container: "data", PageSize: 2})

	require.ErrorIs(t, err, boom)
	assert.Nil(t, entries)
}

func TestListAll_MissingContainer(t *testing.T) {
	acct := testutil.NewCloud().Account("acme")
	lister := New(acct.Container("missing"), nil)

	_, err := lister.ListAll(context.Background(), Config{Container: "missing"})

	require.Error(t, err)
	var respErr *azcore.ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusNotFound, respErr.StatusCode)
}

func TestPaginator_DocsScenario(t *testing.T) {
	acct := testutil.NewCloud().Account("acme")
	acct.Put("docs", "a.txt", []byte("a"), nil).
		Put("docs", "b.txt", []byte("b"), nil).
		Put("docs", "c.txt", []byte("c"), nil)

	logger, logs := testutil.NewTestLogger()
	paginator := New(acct.Container("docs"), logger).NewPaginator(Config{Container: "docs", PageSize: 2})

	require.True(t, paginator.HasMorePages())
	first, err := paginator.NextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, []string{"a.txt", "b.txt"}, entryNames(first.Entries))
	assert.NotEmpty(t, first.NextMarker)

	require.True(t, paginator.HasMorePages())
	second, err := paginator.NextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, []string{"c.txt"}, entryNames(second.Entries))
	assert.Empty(t, second.NextMarker)

	assert.False(t, paginator.HasMorePages())
	_, err = paginator.NextPage(context.Background())
	assert.ErrorIs(t, err, ErrNoMorePages)

	assert.Equal(t, int64(2), acct.ListPages.Load())
	assert.Contains(t, logs.String(), "flat listing")
	assert.Contains(t, logs.String(), "page=2")
	assert.Contains(t, logs.String(), "from=2 to=3")
}

func TestPaginator_ResumeFromMarker(t *testing.T) {
	acct := testutil.NewCloud().Account("acme")
	want := seed(acct, "data", 5)
	lister := New(acct.Container("data"), nil)

	first, err := lister.NewPaginator(Config{Container: "data", PageSize: 2}).NextPage(context.Background())
	require.NoError(t, err)

	rest, err := lister.ListAll(context.Background(), Config{Container: "data", PageSize: 2, Marker: first.NextMarker})
	require.NoError(t, err)

	assert.Equal(t, want[2:], entryNames(rest))
}

func TestPaginator_Prefix(t *testing.T) {
	acct := testutil.NewCloud().Account("acme")
	acct.Put("data", "logs/1", nil, nil).
		Put("data", "logs/2", nil, nil).
		Put("data", "other", nil, nil)

	names, err := New(acct.Container("data"), nil).Names(context.Background(), Config{Container: "data", Prefix: "logs/"})

	require.NoError(t, err)
	assert.Equal(t, []string{"logs/1", "logs/2"}, names)
}

func TestPaginator_OnPage(t *testing.T) {
	acct := testutil.NewCloud().Account("acme")
	seed(acct, "data", 5)
	lister := New(acct.Container("data"), nil)

	var sizes []int
	lister.OnPage = func(container string, page *Page, _ time.Duration) {
		assert.Equal(t, "data", container)
		sizes = append(sizes, len(page.Entries))
	}

	_, err := lister.ListAll(context.Background(), Config{Container: "data", PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
}

func TestStream(t *testing.T) {
	acct := testutil.NewCloud().Account("acme")
	want := seed(acct, "data", 7)
	lister := New(acct.Container("data"), nil)

	var got []string
	for result := range lister.Stream(context.Background(), Config{Container: "data", PageSize: 3, IncludeMetadata: true}) {
		require.NoError(t, result.Err)
		got = append(got, result.Entry.Name)
	}

	assert.Equal(t, want, got)
}

func TestStream_Error(t *testing.T) {
	acct := testutil.NewCloud().Account("acme")
	seed(acct, "data", 4)
	acct.ListHook = func(_ string, page int64) error {
		if page == 2 {
			return errors.New("boom")
		}
		return nil
	}

	var names []string
	var lastErr error
	for result := range New(acct.Container("data"), nil).Stream(context.Background(), Config{Container: "data", PageSize: 2}) {
		if result.Err != nil {
			lastErr = result.Err
			continue
		}
		names = append(names, result.Entry.Name)
	}

	assert.Len(t, names, 2)
	require.Error(t, lastErr)
	assert.Contains(t, lastErr.Error(), "boom")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, normalizePageSize(0))
	assert.Equal(t, int32(7), normalizePageSize(7))
	assert.Equal(t, MaxPageSize, normalizePageSize(100000))
	assert.Equal(t, DefaultConcurrency, normalizeConcurrency(0))
	assert.Equal(t, 2, normalizeConcurrency(2))
}
