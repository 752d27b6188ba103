package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/azapi"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/pool"
)

// Downloader handles blob downloads with progress tracking support.
type Downloader struct {
	fs     billy.Filesystem
	logger *slog.Logger
}

// New creates a new Downloader writing local files to fs.
func New(fs billy.Filesystem, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Downloader{fs: fs, logger: logger}
}

// Download streams a blob into writer.
func (d *Downloader) Download(
	ctx context.Context,
	blob azapi.BlobAPI,
	container, name string,
	writer io.Writer,
	config *blobtypes.DownloadOptionConfig,
	startTime time.Time,
) (*blobtypes.DownloadResult, error) {
	content, err := d.open(ctx, blob, container, name)
	if err != nil {
		return nil, err
	}
	defer content.Body.Close()

	size, err := d.copy(ctx, writer, content, container, name, config)
	if err != nil {
		return nil, err
	}

	return &blobtypes.DownloadResult{
		Container: container,
		Blob:      name,
		Size:      size,
		ETag:      content.ETag,
		Duration:  time.Since(startTime),
	}, nil
}

// DownloadFile downloads a blob to localDir/name, creating parent
// directories as needed. The file is only created once the blob is known to
// exist, and is removed again if the transfer fails.
func (d *Downloader) DownloadFile(
	ctx context.Context,
	blob azapi.BlobAPI,
	container, name, localDir string,
	config *blobtypes.DownloadOptionConfig,
	startTime time.Time,
) (*blobtypes.DownloadResult, error) {
	target, err := LocalPath(localDir, name)
	if err != nil {
		return nil, errors.NewBlobError("downloadFile", container, name, err)
	}

	content, err := d.open(ctx, blob, container, name)
	if err != nil {
		return nil, err
	}
	defer content.Body.Close()

	if err := d.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, errors.NewBlobError("downloadFile", container, name,
			fmt.Errorf("%w: create directory: %w", errors.ErrInternal, err))
	}

	file, err := d.fs.Create(target)
	if err != nil {
		return nil, errors.NewBlobError("downloadFile", container, name,
			fmt.Errorf("%w: create file: %w", errors.ErrInternal, err))
	}

	size, copyErr := d.copy(ctx, file, content, container, name, config)
	closeErr := file.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = errors.NewBlobError("downloadFile", container, name,
			fmt.Errorf("%w: close file: %w", errors.ErrInternal, closeErr))
	}
	if copyErr != nil {
		_ = d.fs.Remove(target)
		return nil, copyErr
	}

	d.logger.InfoContext(ctx, "downloaded blob to file",
		"container", container,
		"blob", name,
		"path", target,
		"size", size,
	)

	return &blobtypes.DownloadResult{
		Container: container,
		Blob:      name,
		Path:      target,
		Size:      size,
		ETag:      content.ETag,
		Duration:  time.Since(startTime),
	}, nil
}

// LocalPath joins a blob name onto localDir using the local separator. Names
// that resolve outside localDir are rejected with ErrInvalidInput.
func LocalPath(localDir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: blob name is required", errors.ErrInvalidInput)
	}
	if localDir == "" {
		localDir = "."
	}

	target := filepath.Join(localDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(filepath.Clean(localDir), target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: blob name %q escapes directory %s", errors.ErrInvalidInput, name, localDir)
	}
	return target, nil
}

func (d *Downloader) open(ctx context.Context, blob azapi.BlobAPI, container, name string) (*blobtypes.Download, error) {
	content, err := blob.Download(ctx)
	if err != nil {
		if errors.IsStatusNotFound(err) {
			d.logger.WarnContext(ctx, "blob not found", "container", container, "blob", name)
		} else {
			d.logger.ErrorContext(ctx, "failed to download blob",
				"container", container,
				"blob", name,
				"error", err,
			)
		}
		return nil, errors.NewBlobError("download", container, name, errors.Classify(err))
	}
	return content, nil
}

func (d *Downloader) copy(
	ctx context.Context,
	writer io.Writer,
	content *blobtypes.Download,
	container, name string,
	config *blobtypes.DownloadOptionConfig,
) (int64, error) {
	var tracker blobtypes.ProgressTracker
	if config != nil {
		tracker = config.ProgressTracker
	}

	total := content.ContentLength
	var reader io.Reader = content.Body
	if tracker != nil {
		reader = &progressReader{reader: content.Body, tracker: tracker, total: total}
	}

	buf := pool.Get(total)
	defer pool.Put(buf)

	written, err := io.CopyBuffer(writer, reader, *buf)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to read blob content",
			"container", container,
			"blob", name,
			"error", err,
		)
		if tracker != nil {
			tracker.Error(err)
		}
		return 0, errors.NewBlobError("download", container, name, errors.Classify(err))
	}

	if tracker != nil {
		tracker.Update(written, max(total, written))
		tracker.Complete()
	}
	return written, nil
}

// progressReader reports cumulative bytes read to a tracker
type progressReader struct {
	reader  io.Reader
	tracker blobtypes.ProgressTracker
	total   int64
	read    int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)
		pr.tracker.Update(pr.read, pr.total)
	}
	//nolint:wrapcheck // io.Reader contract
	return n, err
}
