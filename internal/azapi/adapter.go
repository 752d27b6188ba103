package azapi

import (
	"context"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	azservice "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
)

// Service adapts *service.Client to ServiceAPI.
type Service struct {
	client *azservice.Client
}

// NewService wraps an SDK service client.
func NewService(client *azservice.Client) *Service {
	return &Service{client: client}
}

// ListContainers implements ServiceAPI.
func (s *Service) ListContainers(ctx context.Context) ([]string, error) {
	var names []string

	pager := s.client.NewListContainersPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.ContainerItems {
			if item == nil || item.Name == nil {
				continue
			}
			names = append(names, *item.Name)
		}
	}

	return names, nil
}

// Container implements ServiceAPI.
func (s *Service) Container(name string) ContainerAPI {
	return &Container{client: s.client.NewContainerClient(name)}
}

// URL implements ServiceAPI.
func (s *Service) URL() string {
	return s.client.URL()
}

// Container adapts *container.Client to ContainerAPI.
type Container struct {
	client *container.Client
}

// ListBlobsPage implements ContainerAPI. A fresh pager is created for every
// call and advanced exactly once, so the caller owns the marker.
func (c *Container) ListBlobsPage(ctx context.Context, opts ListOptions) (*blobtypes.ListPage, error) {
	flatOpts := &container.ListBlobsFlatOptions{}
	if opts.Prefix != "" {
		flatOpts.Prefix = to.Ptr(opts.Prefix)
	}
	if opts.Marker != "" {
		flatOpts.Marker = to.Ptr(opts.Marker)
	}
	if opts.MaxResults > 0 {
		flatOpts.MaxResults = to.Ptr(opts.MaxResults)
	}

	pager := c.client.NewListBlobsFlatPager(flatOpts)
	resp, err := pager.NextPage(ctx)
	if err != nil {
		return nil, err
	}

	page := &blobtypes.ListPage{}
	if resp.Segment != nil {
		page.Entries = make([]blobtypes.BlobEntry, 0, len(resp.Segment.BlobItems))
		for _, item := range resp.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			entry := blobtypes.BlobEntry{Name: *item.Name}
			if item.Properties != nil {
				entry.CreatedOn = item.Properties.CreationTime
				entry.LastModified = item.Properties.LastModified
			}
			page.Entries = append(page.Entries, entry)
		}
	}
	if resp.NextMarker != nil {
		page.NextMarker = *resp.NextMarker
	}

	return page, nil
}

// Blob implements ContainerAPI.
func (c *Container) Blob(name string) BlobAPI {
	return &Blob{
		name:  name,
		blob:  c.client.NewBlobClient(name),
		block: c.client.NewBlockBlobClient(name),
	}
}

// Blob adapts *blob.Client and *blockblob.Client to BlobAPI.
type Blob struct {
	name  string
	blob  *blob.Client
	block *blockblob.Client
}

// URL implements BlobAPI.
func (b *Blob) URL() string {
	return b.blob.URL()
}

// SASURL implements BlobAPI. Signing requires a shared key credential.
func (b *Blob) SASURL(expiry time.Time) (string, error) {
	return b.blob.GetSASURL(sas.BlobPermissions{Read: true}, expiry, nil)
}

// GetProperties implements BlobAPI.
func (b *Blob) GetProperties(ctx context.Context) (*blobtypes.BlobProperties, error) {
	resp, err := b.blob.GetProperties(ctx, nil)
	if err != nil {
		return nil, err
	}

	props := &blobtypes.BlobProperties{
		Name:                  b.name,
		ContentLength:         deref(resp.ContentLength),
		ContentType:           deref(resp.ContentType),
		CreatedOn:             resp.CreationTime,
		LastModified:          resp.LastModified,
		Metadata:              fromPtrMap(resp.Metadata),
		CopyStatusDescription: deref(resp.CopyStatusDescription),
	}
	if resp.ETag != nil {
		props.ETag = string(*resp.ETag)
	}
	if resp.CopyStatus != nil {
		props.CopyStatus = blobtypes.CopyStatus(*resp.CopyStatus)
	}

	return props, nil
}

// SetMetadata implements BlobAPI.
func (b *Blob) SetMetadata(ctx context.Context, metadata map[string]string) error {
	_, err := b.blob.SetMetadata(ctx, toPtrMap(metadata), nil)
	return err
}

// StartCopyFromURL implements BlobAPI.
func (b *Blob) StartCopyFromURL(
	ctx context.Context,
	source string,
	metadata map[string]string,
) (*blobtypes.CopyResult, error) {
	resp, err := b.blob.StartCopyFromURL(ctx, source, &blob.StartCopyFromURLOptions{
		Metadata: toPtrMap(metadata),
	})
	if err != nil {
		return nil, err
	}

	result := &blobtypes.CopyResult{CopyID: deref(resp.CopyID)}
	if resp.CopyStatus != nil {
		result.Status = blobtypes.CopyStatus(*resp.CopyStatus)
	}
	return result, nil
}

// Delete implements BlobAPI.
func (b *Blob) Delete(ctx context.Context) error {
	_, err := b.blob.Delete(ctx, nil)
	return err
}

// Download implements BlobAPI.
func (b *Blob) Download(ctx context.Context) (*blobtypes.Download, error) {
	resp, err := b.blob.DownloadStream(ctx, nil)
	if err != nil {
		return nil, err
	}

	dl := &blobtypes.Download{
		Body:          resp.Body,
		ContentLength: -1,
		ContentType:   deref(resp.ContentType),
	}
	if resp.ContentLength != nil {
		dl.ContentLength = *resp.ContentLength
	}
	if resp.ETag != nil {
		dl.ETag = string(*resp.ETag)
	}
	return dl, nil
}

// UploadStream implements BlobAPI.
func (b *Blob) UploadStream(ctx context.Context, body io.Reader, opts UploadOptions) (string, error) {
	resp, err := b.block.UploadStream(ctx, body, &blockblob.UploadStreamOptions{
		BlockSize:   opts.BlockSize,
		Concurrency: opts.Concurrency,
		Metadata:    toPtrMap(opts.Metadata),
		HTTPHeaders: httpHeaders(opts.ContentType),
	})
	if err != nil {
		return "", err
	}
	if resp.ETag == nil {
		return "", nil
	}
	return string(*resp.ETag), nil
}

// UploadBuffer implements BlobAPI.
func (b *Blob) UploadBuffer(ctx context.Context, data []byte, opts UploadOptions) (string, error) {
	resp, err := b.block.UploadBuffer(ctx, data, &blockblob.UploadBufferOptions{
		BlockSize:   opts.BlockSize,
		Concurrency: uint16(max(opts.Concurrency, 0)), //nolint:gosec // bounded by client options
		Metadata:    toPtrMap(opts.Metadata),
		HTTPHeaders: httpHeaders(opts.ContentType),
	})
	if err != nil {
		return "", err
	}
	if resp.ETag == nil {
		return "", nil
	}
	return string(*resp.ETag), nil
}

func httpHeaders(contentType string) *blob.HTTPHeaders {
	if contentType == "" {
		return nil
	}
	return &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
