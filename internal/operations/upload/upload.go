package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/azapi"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/validation"
)

const (
	// DefaultContentType is used when nothing better can be determined
	DefaultContentType = "application/octet-stream"

	// sniffLen is the number of leading bytes inspected for content detection
	sniffLen = 3072
)

// Uploader handles blob uploads.
type Uploader struct {
	fs     billy.Filesystem
	logger *slog.Logger
}

// New creates a new Uploader reading local files from fs.
func New(fs billy.Filesystem, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Uploader{fs: fs, logger: logger}
}

// Put uploads an in-memory payload as a block blob.
func (u *Uploader) Put(
	ctx context.Context,
	blob azapi.BlobAPI,
	container, name string,
	data []byte,
	config *blobtypes.UploadOptionConfig,
	startTime time.Time,
) (*blobtypes.UploadResult, error) {
	config = withDefaults(config)
	if err := validation.ValidateMetadata(config.Metadata); err != nil {
		return nil, errors.NewBlobError("put", container, name, err)
	}

	opts := apiOptions(config, DetectContentType(config.ContentType, data, name))
	etag, err := blob.UploadBuffer(ctx, data, opts)
	if err != nil {
		return nil, u.fail(ctx, "put", container, name, config, err)
	}

	size := int64(len(data))
	if config.ProgressTracker != nil {
		config.ProgressTracker.Update(size, size)
		config.ProgressTracker.Complete()
	}

	return u.result(ctx, blob, container, name, size, etag, startTime), nil
}

// Upload streams reader into a block blob. size is the expected length or -1
// when unknown; it only feeds progress reporting.
func (u *Uploader) Upload(
	ctx context.Context,
	blob azapi.BlobAPI,
	container, name string,
	reader io.Reader,
	size int64,
	config *blobtypes.UploadOptionConfig,
	startTime time.Time,
) (*blobtypes.UploadResult, error) {
	config = withDefaults(config)
	if err := validation.ValidateMetadata(config.Metadata); err != nil {
		return nil, errors.NewBlobError("upload", container, name, err)
	}

	contentType := config.ContentType
	if contentType == "" {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(reader, head)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, u.fail(ctx, "upload", container, name, config, err)
		}
		head = head[:n]
		contentType = DetectContentType("", head, name)
		reader = io.MultiReader(bytes.NewReader(head), reader)
	}

	counter := &countingReader{reader: reader, tracker: config.ProgressTracker, total: size}
	etag, err := blob.UploadStream(ctx, counter, apiOptions(config, contentType))
	if err != nil {
		return nil, u.fail(ctx, "upload", container, name, config, err)
	}

	if config.ProgressTracker != nil {
		config.ProgressTracker.Complete()
	}

	return u.result(ctx, blob, container, name, counter.read, etag, startTime), nil
}

// UploadFile uploads the file at path on the configured filesystem.
func (u *Uploader) UploadFile(
	ctx context.Context,
	blob azapi.BlobAPI,
	container, name, path string,
	config *blobtypes.UploadOptionConfig,
	startTime time.Time,
) (*blobtypes.UploadResult, error) {
	local := *withDefaults(config)
	config = &local

	info, err := u.fs.Stat(path)
	if err != nil {
		u.logger.ErrorContext(ctx, "cannot read local file", "path", path, "error", err)
		return nil, errors.NewBlobError("uploadFile", container, name,
			fmt.Errorf("%w: stat %s: %w", errors.ErrInvalidInput, path, err))
	}
	if info.IsDir() {
		return nil, errors.NewBlobError("uploadFile", container, name,
			fmt.Errorf("%w: %s is a directory", errors.ErrInvalidInput, path))
	}

	file, err := u.fs.Open(path)
	if err != nil {
		u.logger.ErrorContext(ctx, "cannot open local file", "path", path, "error", err)
		return nil, errors.NewBlobError("uploadFile", container, name,
			fmt.Errorf("%w: open %s: %w", errors.ErrInvalidInput, path, err))
	}
	defer file.Close()

	if config.ContentType == "" {
		head := make([]byte, sniffLen)
		n, _ := io.ReadFull(file, head)
		config.ContentType = DetectContentType("", head[:n], path)
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, errors.NewBlobError("uploadFile", container, name,
				fmt.Errorf("%w: rewind %s: %w", errors.ErrInternal, path, err))
		}
	}

	return u.Upload(ctx, blob, container, name, file, info.Size(), config, startTime)
}

// DetectContentType returns explicit when set. Otherwise it sniffs head and
// falls back to the extension of name when the content is not recognised.
func DetectContentType(explicit string, head []byte, name string) string {
	if explicit != "" {
		return explicit
	}
	if len(head) > 0 {
		if mt := mimetype.Detect(head); mt != nil && !mt.Is(DefaultContentType) {
			return mt.String()
		}
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}

func (u *Uploader) result(
	ctx context.Context,
	blob azapi.BlobAPI,
	container, name string,
	size int64,
	etag string,
	startTime time.Time,
) *blobtypes.UploadResult {
	u.logger.InfoContext(ctx, "uploaded blob",
		"container", container,
		"blob", name,
		"size", size,
	)
	return &blobtypes.UploadResult{
		Container: container,
		Blob:      name,
		URL:       blob.URL(),
		Size:      size,
		ETag:      etag,
		Duration:  time.Since(startTime),
	}
}

func (u *Uploader) fail(
	ctx context.Context,
	op, container, name string,
	config *blobtypes.UploadOptionConfig,
	err error,
) error {
	u.logger.ErrorContext(ctx, "failed to upload blob",
		"container", container,
		"blob", name,
		"error", err,
	)
	if config.ProgressTracker != nil {
		config.ProgressTracker.Error(err)
	}
	return errors.NewBlobError(op, container, name, errors.Classify(err))
}

func withDefaults(config *blobtypes.UploadOptionConfig) *blobtypes.UploadOptionConfig {
	if config == nil {
		return &blobtypes.UploadOptionConfig{}
	}
	return config
}

func apiOptions(config *blobtypes.UploadOptionConfig, contentType string) azapi.UploadOptions {
	return azapi.UploadOptions{
		ContentType: contentType,
		Metadata:    config.Metadata,
		BlockSize:   config.BlockSize,
		Concurrency: config.Concurrency,
	}
}

// countingReader counts bytes handed to the SDK and reports progress
type countingReader struct {
	reader  io.Reader
	tracker blobtypes.ProgressTracker
	total   int64
	read    int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	if n > 0 {
		c.read += int64(n)
		if c.tracker != nil {
			c.tracker.Update(c.read, c.total)
		}
	}
	//nolint:wrapcheck // io.Reader contract
	return n, err
}
