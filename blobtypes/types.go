// Package blobtypes provides shared types for the blobstore client and its internal packages.
package blobtypes

import (
	"io"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/go-git/go-billy/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// BlobEntry is one listed blob. Entries are immutable once built.
type BlobEntry struct {
	// Name is the blob name within its container
	Name string `json:"name"`

	// CreatedOn is the blob creation time (if reported)
	CreatedOn *time.Time `json:"createdOn,omitempty"`

	// LastModified is the last modification time (if reported)
	LastModified *time.Time `json:"lastModified,omitempty"`

	// Metadata holds user-defined metadata; nil unless metadata was requested
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListPage is a single raw page returned by the listing endpoint.
type ListPage struct {
	// Entries are the blobs of the page in remote order
	Entries []BlobEntry

	// NextMarker is the continuation token; empty when no more pages exist
	NextMarker string
}

// CopyStatus mirrors the service-side state of an asynchronous copy.
type CopyStatus string

const (
	// CopyStatusPending indicates the copy is still in progress
	CopyStatusPending CopyStatus = "pending"

	// CopyStatusSuccess indicates the copy completed
	CopyStatusSuccess CopyStatus = "success"

	// CopyStatusAborted indicates the copy was aborted
	CopyStatusAborted CopyStatus = "aborted"

	// CopyStatusFailed indicates the copy failed
	CopyStatusFailed CopyStatus = "failed"
)

// BlobProperties contains the system and user properties of a blob.
type BlobProperties struct {
	// Name is the blob name
	Name string `json:"name"`

	// ContentLength is the blob size in bytes
	ContentLength int64 `json:"contentLength"`

	// ContentType is the MIME type of the blob content
	ContentType string `json:"contentType,omitempty"`

	// ETag is the entity tag of the blob
	ETag string `json:"etag,omitempty"`

	// CreatedOn is the blob creation time
	CreatedOn *time.Time `json:"createdOn,omitempty"`

	// LastModified is the last modification time
	LastModified *time.Time `json:"lastModified,omitempty"`

	// Metadata holds user-defined metadata
	Metadata map[string]string `json:"metadata,omitempty"`

	// CopyStatus is the state of the last copy targeting this blob (if any)
	CopyStatus CopyStatus `json:"copyStatus,omitempty"`

	// CopyStatusDescription describes a failed or aborted copy
	CopyStatusDescription string `json:"copyStatusDescription,omitempty"`
}

// CopyResult reports the outcome of starting a server-side copy.
type CopyResult struct {
	// CopyID identifies the copy operation
	CopyID string

	// Status is the copy state at the time the request returned
	Status CopyStatus
}

// Download is an open blob content stream. The caller must close Body.
type Download struct {
	// Body is the blob content
	Body io.ReadCloser

	// ContentLength is the number of bytes in Body, or -1 if unknown
	ContentLength int64

	// ContentType is the stored MIME type
	ContentType string

	// ETag is the entity tag of the downloaded blob
	ETag string
}

// MoveRequest describes a move of one blob to a new location, optionally
// across connections. All four name fields are required.
type MoveRequest struct {
	SourceContainer      string            `json:"sourceContainer"`
	SourceBlob           string            `json:"sourceBlob"`
	DestinationContainer string            `json:"destinationContainer"`
	DestinationBlob      string            `json:"destinationBlob"`
	Metadata             map[string]string `json:"metadata,omitempty"`

	// SourceConnectionString selects the source account; empty means the client default
	SourceConnectionString string `json:"-"`

	// DestinationConnectionString selects the destination account; empty means the client default
	DestinationConnectionString string `json:"-"`
}

// ProgressTracker defines the interface for tracking transfer progress.
type ProgressTracker interface {
	// Update is called with the bytes transferred so far and the expected total (-1 if unknown)
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer finishes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Container is the destination container
	Container string

	// Blob is the uploaded blob name
	Blob string

	// URL is the address of the uploaded blob (without credentials)
	URL string

	// Size is the number of bytes uploaded
	Size int64

	// ETag is the entity tag of the new blob
	ETag string

	// Duration is how long the upload took
	Duration time.Duration
}

// DownloadResult contains the result of a download operation.
type DownloadResult struct {
	// Container is the source container
	Container string

	// Blob is the downloaded blob name
	Blob string

	// Path is the local file written (file downloads only)
	Path string

	// Size is the number of bytes downloaded
	Size int64

	// ETag is the entity tag of the downloaded blob
	ETag string

	// Duration is how long the download took
	Duration time.Duration
}

// EntryResult is a single item of a streamed listing. Exactly one of
// Entry and Err is set.
type EntryResult struct {
	Entry *BlobEntry
	Err   error
}

// ClientConfig holds configuration for the client.
type ClientConfig struct {
	DefaultConnectionString string
	Accounts                map[string]string // named accounts, name -> connection string
	Logger                  *slog.Logger
	PageSize                int32
	Concurrency             int
	BlockSize               int64
	MaxRetries              int32
	RetryDelay              time.Duration
	TokenCredential         azcore.TokenCredential
	UseDefaultCredential    bool
	Filesystem              billy.Filesystem
	MetricsRegisterer       prometheus.Registerer
	CopyPollInterval        time.Duration
	SASExpiry               time.Duration
}

// UploadOptionConfig holds configuration for upload operations via functional options.
type UploadOptionConfig struct {
	ContentType     string
	Metadata        map[string]string
	ProgressTracker ProgressTracker
	BlockSize       int64
	Concurrency     int
}

// DownloadOptionConfig holds configuration for download operations via functional options.
type DownloadOptionConfig struct {
	ProgressTracker ProgressTracker
}

// ListOptionConfig holds configuration for list operations via functional options.
type ListOptionConfig struct {
	Prefix          string
	Marker          string
	PageSize        int32
	IncludeMetadata bool
	Concurrency     int
}

// MoveOptionConfig holds configuration for move operations via functional options.
type MoveOptionConfig struct {
	PollInterval time.Duration
}

// Option is a functional option for configuring the client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring upload operations.
	UploadOption func(*UploadOptionConfig)
	// DownloadOption is a functional option for configuring download operations.
	DownloadOption func(*DownloadOptionConfig)
	// ListOption is a functional option for configuring list operations.
	ListOption func(*ListOptionConfig)
	// MoveOption is a functional option for configuring move operations.
	MoveOption func(*MoveOptionConfig)
)
