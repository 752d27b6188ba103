package download

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/testutil"
)

// failingReader returns some data and then an error
type failingReader struct {
	data []byte
	err  error
	done bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.done {
		return 0, f.err
	}
	f.done = true
	return copy(p, f.data), nil
}

func TestDownloader_Download(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		withTrack bool
	}{
		{name: "plain stream", content: "Hello, World!"},
		{name: "with progress", content: strings.Repeat("x", 200_000), withTrack: true},
		{name: "empty blob", content: "", withTrack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct := testutil.NewCloud().Account("acme").Put("docs", "a.txt", []byte(tt.content), nil)
			d := New(memfs.New(), nil)

			config := &blobtypes.DownloadOptionConfig{}
			tracker := &testutil.MockProgressTracker{}
			if tt.withTrack {
				config.ProgressTracker = tracker
			}

			var buf bytes.Buffer
			result, err := d.Download(context.Background(), acct.Container("docs").Blob("a.txt"),
				"docs", "a.txt", &buf, config, time.Now())

			require.NoError(t, err)
			assert.Equal(t, tt.content, buf.String())
			assert.Equal(t, int64(len(tt.content)), result.Size)
			assert.Equal(t, "docs", result.Container)
			assert.Equal(t, "a.txt", result.Blob)
			assert.NotEmpty(t, result.ETag)

			if tt.withTrack {
				assert.True(t, tracker.CompleteCalled)
				assert.False(t, tracker.ErrorCalled)
				assert.Equal(t, int64(len(tt.content)), tracker.BytesTransferred)
			}
		})
	}
}

func TestDownloader_Download_NotFound(t *testing.T) {
	acct := testutil.NewCloud().Account("acme").CreateContainer("docs")
	logger, logs := testutil.NewTestLogger()
	d := New(memfs.New(), logger)

	_, err := d.Download(context.Background(), acct.Container("docs").Blob("missing.txt"),
		"docs", "missing.txt", io.Discard, nil, time.Now())

	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "docs/missing.txt")
	assert.Contains(t, logs.String(), "blob not found")
}

func TestDownloader_Download_ReadFailure(t *testing.T) {
	boom := stderrors.New("connection reset")
	blob := &testutil.MockBlob{
		DownloadFunc: func(context.Context) (*blobtypes.Download, error) {
			return &blobtypes.Download{
				Body:          io.NopCloser(&failingReader{data: []byte("part"), err: boom}),
				ContentLength: 100,
			}, nil
		},
	}
	tracker := &testutil.MockProgressTracker{}

	_, err := New(memfs.New(), nil).Download(context.Background(), blob, "docs", "a.txt", io.Discard,
		&blobtypes.DownloadOptionConfig{ProgressTracker: tracker}, time.Now())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, errors.IsInternal(err))
	assert.True(t, tracker.ErrorCalled)
	assert.False(t, tracker.CompleteCalled)
	require.NotEmpty(t, tracker.Updates)
	assert.Equal(t, testutil.ProgressUpdate{Transferred: 4, Total: 100}, tracker.Updates[0])
}

func TestDownloader_DownloadFile(t *testing.T) {
	fs := memfs.New()
	acct := testutil.NewCloud().Account("acme").Put("docs", "reports/2024/q1.csv", []byte("a,b\n1,2\n"), nil)
	d := New(fs, nil)

	result, err := d.DownloadFile(context.Background(), acct.Container("docs").Blob("reports/2024/q1.csv"),
		"docs", "reports/2024/q1.csv", "out", nil, time.Now())
	require.NoError(t, err)

	want := filepath.Join("out", "reports", "2024", "q1.csv")
	assert.Equal(t, want, result.Path)
	assert.Equal(t, int64(8), result.Size)

	data, err := util.ReadFile(fs, want)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestDownloader_DownloadFile_MissingBlobLeavesNoFile(t *testing.T) {
	fs := memfs.New()
	acct := testutil.NewCloud().Account("acme").CreateContainer("docs")

	_, err := New(fs, nil).DownloadFile(context.Background(), acct.Container("docs").Blob("gone.txt"),
		"docs", "gone.txt", "out", nil, time.Now())

	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	_, statErr := fs.Stat(filepath.Join("out", "gone.txt"))
	assert.Error(t, statErr)
}

func TestDownloader_DownloadFile_FailureRemovesPartialFile(t *testing.T) {
	fs := memfs.New()
	blob := &testutil.MockBlob{
		DownloadFunc: func(context.Context) (*blobtypes.Download, error) {
			return &blobtypes.Download{
				Body: io.NopCloser(&failingReader{data: []byte("part"), err: stderrors.New("reset")}),
			}, nil
		},
	}

	_, err := New(fs, nil).DownloadFile(context.Background(), blob, "docs", "a.txt", "out", nil, time.Now())

	require.Error(t, err)
	_, statErr := fs.Stat(filepath.Join("out", "a.txt"))
	assert.Error(t, statErr)
}

func TestDownloader_DownloadFile_RejectsEscapingNames(t *testing.T) {
	called := false
	blob := &testutil.MockBlob{
		DownloadFunc: func(context.Context) (*blobtypes.Download, error) {
			called = true
			return nil, nil
		},
	}

	_, err := New(memfs.New(), nil).DownloadFile(context.Background(), blob, "docs", "../../etc/passwd", "out", nil, time.Now())

	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
	assert.False(t, called)
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		blob    string
		want    string
		wantErr bool
	}{
		{name: "flat", dir: "out", blob: "a.txt", want: filepath.Join("out", "a.txt")},
		{name: "nested", dir: "out", blob: "x/y/z.txt", want: filepath.Join("out", "x", "y", "z.txt")},
		{name: "leading slash stays inside", dir: "out", blob: "/a.txt", want: filepath.Join("out", "a.txt")},
		{name: "inner dot-dot stays inside", dir: "out", blob: "x/../a.txt", want: filepath.Join("out", "a.txt")},
		{name: "empty dir", dir: "", blob: "a.txt", want: "a.txt"},
		{name: "parent escape", dir: "out", blob: "../a.txt", wantErr: true},
		{name: "deep escape", dir: "out", blob: "x/../../../a.txt", wantErr: true},
		{name: "directory itself", dir: "out", blob: ".", wantErr: true},
		{name: "empty name", dir: "out", blob: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocalPath(tt.dir, tt.blob)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
