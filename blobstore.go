package blobstore

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/azapi"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/operations/download"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/validation"
)

// ListContainers returns the names of all containers in the account.
func (c *Client) ListContainers(ctx context.Context) (names []string, err error) {
	defer c.observe("listContainers", time.Now(), &err)

	svc, err := c.service()
	if err != nil {
		return nil, errors.NewError("listContainers", err)
	}

	names, err = svc.ListContainers(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to list containers", "error", err)
		return nil, errors.NewError("listContainers", errors.Classify(err))
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Upload streams reader into a block blob, replacing any existing blob.
//
// Example:
//
//	f, _ := os.Open("report.pdf")
//	defer f.Close()
//	result, err := client.Upload(ctx, "docs", "reports/q1.pdf", f,
//	    blobstore.WithMetadata(map[string]string{"owner": "finance"}),
//	)
func (c *Client) Upload(
	ctx context.Context,
	container, blob string,
	reader io.Reader,
	opts ...blobtypes.UploadOption,
) (result *blobtypes.UploadResult, err error) {
	defer c.observe("upload", time.Now(), &err)

	if reader == nil {
		return nil, errors.NewBlobError("upload", container, blob, errors.ErrInvalidInput).
			WithMessage("reader cannot be nil")
	}
	handle, err := c.blob("upload", container, blob)
	if err != nil {
		return nil, err
	}

	result, err = c.uploader().Upload(ctx, handle, container, blob, reader, -1, c.uploadConfig(opts), time.Now())
	if err != nil {
		return nil, err
	}
	c.metrics.AddBytes(metrics.Upload, result.Size)
	return result, nil
}

// Put uploads data as a block blob and returns the result, including the
// blob URL.
func (c *Client) Put(
	ctx context.Context,
	container, blob string,
	data []byte,
	opts ...blobtypes.UploadOption,
) (result *blobtypes.UploadResult, err error) {
	defer c.observe("put", time.Now(), &err)

	handle, err := c.blob("put", container, blob)
	if err != nil {
		return nil, err
	}

	result, err = c.uploader().Put(ctx, handle, container, blob, data, c.uploadConfig(opts), time.Now())
	if err != nil {
		return nil, err
	}
	c.metrics.AddBytes(metrics.Upload, result.Size)
	return result, nil
}

// UploadFile uploads a local file read through the configured filesystem.
func (c *Client) UploadFile(
	ctx context.Context,
	container, blob, path string,
	opts ...blobtypes.UploadOption,
) (result *blobtypes.UploadResult, err error) {
	defer c.observe("uploadFile", time.Now(), &err)

	if path == "" {
		return nil, errors.NewBlobError("uploadFile", container, blob, errors.ErrInvalidInput).
			WithMessage("file path cannot be empty")
	}
	handle, err := c.blob("uploadFile", container, blob)
	if err != nil {
		return nil, err
	}

	result, err = c.uploader().UploadFile(ctx, handle, container, blob, path, c.uploadConfig(opts), time.Now())
	if err != nil {
		return nil, err
	}
	c.metrics.AddBytes(metrics.Upload, result.Size)
	return result, nil
}

// AddMetadata merges metadata over the blob's current metadata. Existing
// keys not named in metadata are kept.
func (c *Client) AddMetadata(ctx context.Context, container, blob string, metadata map[string]string) (err error) {
	defer c.observe("addMetadata", time.Now(), &err)

	if err := validation.ValidateMetadata(metadata); err != nil {
		return errors.NewBlobError("addMetadata", container, blob, err)
	}
	handle, err := c.blob("addMetadata", container, blob)
	if err != nil {
		return err
	}

	props, err := handle.GetProperties(ctx)
	if err != nil {
		return c.fail(ctx, "addMetadata", container, blob, err)
	}

	merged := validation.MergeMetadata(props.Metadata, metadata)
	if validation.ExceedsLimit(merged, validation.MaxMetadataSize) {
		c.logger.WarnContext(ctx, "merged metadata exceeds size limit",
			"container", container,
			"blob", blob,
			"size", validation.MetadataSize(merged),
		)
		return errors.NewBlobError("addMetadata", container, blob, errors.ErrInvalidInput).
			WithMessage("merged metadata exceeds 8KB")
	}

	if err := handle.SetMetadata(ctx, merged); err != nil {
		return c.fail(ctx, "addMetadata", container, blob, err)
	}

	c.logger.InfoContext(ctx, "updated blob metadata", "container", container, "blob", blob, "keys", len(metadata))
	return nil
}

// GetProperties returns the blob's properties and metadata.
func (c *Client) GetProperties(ctx context.Context, container, blob string) (props *blobtypes.BlobProperties, err error) {
	defer c.observe("getProperties", time.Now(), &err)

	handle, err := c.blob("getProperties", container, blob)
	if err != nil {
		return nil, err
	}

	props, err = handle.GetProperties(ctx)
	if err != nil {
		return nil, c.fail(ctx, "getProperties", container, blob, err)
	}
	if props.Name == "" {
		props.Name = blob
	}
	return props, nil
}

// Download streams the blob's content into writer.
func (c *Client) Download(
	ctx context.Context,
	container, blob string,
	writer io.Writer,
	opts ...blobtypes.DownloadOption,
) (result *blobtypes.DownloadResult, err error) {
	defer c.observe("download", time.Now(), &err)

	if writer == nil {
		return nil, errors.NewBlobError("download", container, blob, errors.ErrInvalidInput).
			WithMessage("writer cannot be nil")
	}
	handle, err := c.blob("download", container, blob)
	if err != nil {
		return nil, err
	}

	result, err = c.downloader().Download(ctx, handle, container, blob, writer, downloadConfig(opts), time.Now())
	if err != nil {
		return nil, err
	}
	c.metrics.AddBytes(metrics.Download, result.Size)
	return result, nil
}

// DownloadFile downloads the blob to localDir joined with the blob name,
// creating directories as needed. A missing blob fails with ErrNotFound and
// leaves no file behind.
func (c *Client) DownloadFile(
	ctx context.Context,
	container, blob, localDir string,
	opts ...blobtypes.DownloadOption,
) (result *blobtypes.DownloadResult, err error) {
	defer c.observe("downloadFile", time.Now(), &err)

	handle, err := c.blob("downloadFile", container, blob)
	if err != nil {
		return nil, err
	}

	result, err = c.downloader().DownloadFile(ctx, handle, container, blob, localDir, downloadConfig(opts), time.Now())
	if err != nil {
		return nil, err
	}
	c.metrics.AddBytes(metrics.Download, result.Size)
	return result, nil
}

// DownloadString returns the blob's content as a string.
func (c *Client) DownloadString(ctx context.Context, container, blob string) (content string, err error) {
	defer c.observe("downloadString", time.Now(), &err)

	handle, err := c.blob("downloadString", container, blob)
	if err != nil {
		return "", err
	}
	if err := c.mustExist(ctx, "downloadString", handle, container, blob); err != nil {
		return "", err
	}

	var sb strings.Builder
	result, err := c.downloader().Download(ctx, handle, container, blob, &sb, nil, time.Now())
	if err != nil {
		return "", err
	}
	c.metrics.AddBytes(metrics.Download, result.Size)
	return sb.String(), nil
}

// URL returns the address of an existing blob, without credentials.
func (c *Client) URL(ctx context.Context, container, blob string) (u string, err error) {
	defer c.observe("url", time.Now(), &err)

	handle, err := c.blob("url", container, blob)
	if err != nil {
		return "", err
	}
	if err := c.mustExist(ctx, "url", handle, container, blob); err != nil {
		return "", err
	}
	return handle.URL(), nil
}

// Exists reports whether the blob exists.
func (c *Client) Exists(ctx context.Context, container, blob string) (exists bool, err error) {
	defer c.observe("exists", time.Now(), &err)

	handle, err := c.blob("exists", container, blob)
	if err != nil {
		return false, err
	}
	return c.exists(ctx, "exists", handle, container, blob)
}

// Delete removes the blob. Deleting a missing blob succeeds.
func (c *Client) Delete(ctx context.Context, container, blob string) (err error) {
	defer c.observe("delete", time.Now(), &err)

	handle, err := c.blob("delete", container, blob)
	if err != nil {
		return err
	}

	if err := handle.Delete(ctx); err != nil {
		if errors.IsStatusNotFound(err) {
			c.logger.DebugContext(ctx, "blob already deleted", "container", container, "blob", blob)
			return nil
		}
		return c.fail(ctx, "delete", container, blob, err)
	}

	c.logger.InfoContext(ctx, "deleted blob", "container", container, "blob", blob)
	return nil
}

// blob validates the names and resolves a blob handle on the client's connection.
func (c *Client) blob(op, container, blob string) (azapi.BlobAPI, error) {
	if err := validation.ValidateContainerName(container); err != nil {
		return nil, errors.NewBlobError(op, container, blob, err)
	}
	if err := validation.ValidateBlobName(blob); err != nil {
		return nil, errors.NewBlobError(op, container, blob, err)
	}

	svc, err := c.service()
	if err != nil {
		return nil, errors.NewBlobError(op, container, blob, err)
	}
	return svc.Container(container).Blob(blob), nil
}

func (c *Client) exists(ctx context.Context, op string, handle azapi.BlobAPI, container, blob string) (bool, error) {
	if _, err := handle.GetProperties(ctx); err != nil {
		if errors.IsStatusNotFound(err) {
			return false, nil
		}
		return false, c.fail(ctx, op, container, blob, err)
	}
	return true, nil
}

func (c *Client) mustExist(ctx context.Context, op string, handle azapi.BlobAPI, container, blob string) error {
	ok, err := c.exists(ctx, op, handle, container, blob)
	if err != nil {
		return err
	}
	if !ok {
		c.logger.WarnContext(ctx, "blob not found", "container", container, "blob", blob)
		return errors.NewBlobError(op, container, blob, errors.ErrNotFound).
			WithMessage("blob " + blob + " not found in container " + container)
	}
	return nil
}

// fail logs a transport error and returns it classified.
func (c *Client) fail(ctx context.Context, op, container, blob string, err error) error {
	if errors.IsStatusNotFound(err) {
		c.logger.WarnContext(ctx, "blob or container not found",
			"operation", op,
			"container", container,
			"blob", blob,
		)
	} else {
		c.logger.ErrorContext(ctx, "blob operation failed",
			"operation", op,
			"container", container,
			"blob", blob,
			"error", err,
		)
	}
	return errors.NewBlobError(op, container, blob, errors.Classify(err))
}

func (c *Client) observe(op string, start time.Time, err *error) {
	c.metrics.Observe(op, start, *err)
}

func (c *Client) uploader() *upload.Uploader {
	return upload.New(c.fs, c.logger)
}

func (c *Client) downloader() *download.Downloader {
	return download.New(c.fs, c.logger)
}

func (c *Client) uploadConfig(opts []blobtypes.UploadOption) *blobtypes.UploadOptionConfig {
	cfg := &blobtypes.UploadOptionConfig{
		BlockSize:   c.config.BlockSize,
		Concurrency: c.config.Concurrency,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func downloadConfig(opts []blobtypes.DownloadOption) *blobtypes.DownloadOptionConfig {
	cfg := &blobtypes.DownloadOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
