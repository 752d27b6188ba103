// Package testutil provides test utilities and mocks for blob storage operations.
// This package is internal and should only be used for testing within the blobstore module.
package testutil

import (
	"context"
	"io"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/azapi"
)

// MockService is a mock implementation of azapi.ServiceAPI.
// It allows customization of each operation through function fields.
type MockService struct {
	ListContainersFunc func(context.Context) ([]string, error)
	ContainerFunc      func(string) azapi.ContainerAPI
	URLFunc            func() string
}

// ListContainers mocks the container listing.
func (m *MockService) ListContainers(ctx context.Context) ([]string, error) {
	if m.ListContainersFunc != nil {
		return m.ListContainersFunc(ctx)
	}
	return nil, nil
}

// Container mocks container handle creation.
func (m *MockService) Container(name string) azapi.ContainerAPI {
	if m.ContainerFunc != nil {
		return m.ContainerFunc(name)
	}
	return &MockContainer{}
}

// URL mocks the account endpoint.
func (m *MockService) URL() string {
	if m.URLFunc != nil {
		return m.URLFunc()
	}
	return "https://mock.blob.core.windows.net/"
}

// MockContainer is a mock implementation of azapi.ContainerAPI.
type MockContainer struct {
	ListBlobsPageFunc func(context.Context, azapi.ListOptions) (*blobtypes.ListPage, error)
	BlobFunc          func(string) azapi.BlobAPI
}

// ListBlobsPage mocks a single listing page.
func (m *MockContainer) ListBlobsPage(ctx context.Context, opts azapi.ListOptions) (*blobtypes.ListPage, error) {
	if m.ListBlobsPageFunc != nil {
		return m.ListBlobsPageFunc(ctx, opts)
	}
	return &blobtypes.ListPage{}, nil
}

// Blob mocks blob handle creation.
func (m *MockContainer) Blob(name string) azapi.BlobAPI {
	if m.BlobFunc != nil {
		return m.BlobFunc(name)
	}
	return &MockBlob{}
}

// MockBlob is a mock implementation of azapi.BlobAPI.
type MockBlob struct {
	URLFunc              func() string
	SASURLFunc           func(time.Time) (string, error)
	GetPropertiesFunc    func(context.Context) (*blobtypes.BlobProperties, error)
	SetMetadataFunc      func(context.Context, map[string]string) error
	StartCopyFromURLFunc func(context.Context, string, map[string]string) (*blobtypes.CopyResult, error)
	DeleteFunc           func(context.Context) error
	DownloadFunc         func(context.Context) (*blobtypes.Download, error)
	UploadStreamFunc     func(context.Context, io.Reader, azapi.UploadOptions) (string, error)
	UploadBufferFunc     func(context.Context, []byte, azapi.UploadOptions) (string, error)
}

// URL mocks the blob address.
func (m *MockBlob) URL() string {
	if m.URLFunc != nil {
		return m.URLFunc()
	}
	return "https://mock.blob.core.windows.net/container/blob"
}

// SASURL mocks signed URL generation.
func (m *MockBlob) SASURL(expiry time.Time) (string, error) {
	if m.SASURLFunc != nil {
		return m.SASURLFunc(expiry)
	}
	return m.URL() + "?sig=mock", nil
}

// GetProperties mocks the properties call.
func (m *MockBlob) GetProperties(ctx context.Context) (*blobtypes.BlobProperties, error) {
	if m.GetPropertiesFunc != nil {
		return m.GetPropertiesFunc(ctx)
	}
	return &blobtypes.BlobProperties{Metadata: map[string]string{}}, nil
}

// SetMetadata mocks metadata replacement.
func (m *MockBlob) SetMetadata(ctx context.Context, metadata map[string]string) error {
	if m.SetMetadataFunc != nil {
		return m.SetMetadataFunc(ctx, metadata)
	}
	return nil
}

// StartCopyFromURL mocks a server-side copy.
func (m *MockBlob) StartCopyFromURL(
	ctx context.Context,
	source string,
	metadata map[string]string,
) (*blobtypes.CopyResult, error) {
	if m.StartCopyFromURLFunc != nil {
		return m.StartCopyFromURLFunc(ctx, source, metadata)
	}
	return &blobtypes.CopyResult{Status: blobtypes.CopyStatusSuccess}, nil
}

// Delete mocks blob deletion.
func (m *MockBlob) Delete(ctx context.Context) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx)
	}
	return nil
}

// Download mocks a content stream.
func (m *MockBlob) Download(ctx context.Context) (*blobtypes.Download, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx)
	}
	return &blobtypes.Download{Body: io.NopCloser(emptyReader{}), ContentLength: 0}, nil
}

// UploadStream mocks a streamed upload.
func (m *MockBlob) UploadStream(ctx context.Context, body io.Reader, opts azapi.UploadOptions) (string, error) {
	if m.UploadStreamFunc != nil {
		return m.UploadStreamFunc(ctx, body, opts)
	}
	return `"0x1"`, nil
}

// UploadBuffer mocks a buffered upload.
func (m *MockBlob) UploadBuffer(ctx context.Context, data []byte, opts azapi.UploadOptions) (string, error) {
	if m.UploadBufferFunc != nil {
		return m.UploadBufferFunc(ctx, data, opts)
	}
	return `"0x1"`, nil
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }
