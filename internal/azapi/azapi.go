package azapi

import (
	"context"
	"io"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
)

// ServiceAPI is a handle bound to one storage account connection.
type ServiceAPI interface {
	// ListContainers returns the names of all containers in the account
	ListContainers(ctx context.Context) ([]string, error)

	// Container returns a handle for the named container
	Container(name string) ContainerAPI

	// URL returns the account blob endpoint
	URL() string
}

// ListOptions controls a single listing page request.
type ListOptions struct {
	// Prefix filters blobs by name prefix
	Prefix string

	// Marker is the continuation token from the previous page
	Marker string

	// MaxResults bounds the page size
	MaxResults int32
}

// ContainerAPI is a handle for one container.
type ContainerAPI interface {
	// ListBlobsPage fetches exactly one page of the flat blob listing
	ListBlobsPage(ctx context.Context, opts ListOptions) (*blobtypes.ListPage, error)

	// Blob returns a handle for the named blob
	Blob(name string) BlobAPI
}

// UploadOptions controls block blob uploads.
type UploadOptions struct {
	ContentType string
	Metadata    map[string]string
	BlockSize   int64
	Concurrency int
}

// BlobAPI is a handle for one blob.
type BlobAPI interface {
	// URL returns the blob address without credentials
	URL() string

	// SASURL returns a read-only signed URL valid until expiry
	SASURL(expiry time.Time) (string, error)

	// GetProperties retrieves system properties and metadata
	GetProperties(ctx context.Context) (*blobtypes.BlobProperties, error)

	// SetMetadata replaces the blob metadata
	SetMetadata(ctx context.Context, metadata map[string]string) error

	// StartCopyFromURL starts a server-side copy from source into this blob
	StartCopyFromURL(ctx context.Context, source string, metadata map[string]string) (*blobtypes.CopyResult, error)

	// Delete deletes the blob
	Delete(ctx context.Context) error

	// Download opens the blob content stream
	Download(ctx context.Context) (*blobtypes.Download, error)

	// UploadStream uploads a block blob from a reader and returns its ETag
	UploadStream(ctx context.Context, body io.Reader, opts UploadOptions) (string, error)

	// UploadBuffer uploads a block blob from memory and returns its ETag
	UploadBuffer(ctx context.Context, data []byte, opts UploadOptions) (string, error)
}
