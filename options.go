package blobstore

import (
	"log/slog"
	"maps"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/go-git/go-billy/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
)

// WithConnectionString sets the default connection string.
func WithConnectionString(connectionString string) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.DefaultConnectionString = connectionString
	}
}

// WithAccount registers a named account that can be selected with Client.Account.
func WithAccount(name, connectionString string) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		if c.Accounts == nil {
			c.Accounts = make(map[string]string)
		}
		c.Accounts[name] = connectionString
	}
}

// WithAccounts registers several named accounts at once.
func WithAccounts(accounts map[string]string) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		if c.Accounts == nil {
			c.Accounts = make(map[string]string, len(accounts))
		}
		maps.Copy(c.Accounts, accounts)
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithPageSize sets the default listing page size (default 100, max 5000).
func WithPageSize(size int32) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		if size > 0 {
			c.PageSize = size
		}
	}
}

// WithConcurrency sets how many metadata fetches or upload blocks may be in
// flight at once. Default is 5.
func WithConcurrency(concurrency int) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithBlockSize sets the block size for streamed uploads. Default is 4MB.
func WithBlockSize(size int64) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		if size > 0 {
			c.BlockSize = size
		}
	}
}

// WithMaxRetries sets the SDK retry budget.
func WithMaxRetries(maxRetries int32) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithRetryDelay sets the initial SDK retry delay.
func WithRetryDelay(delay time.Duration) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.RetryDelay = delay
	}
}

// WithTokenCredential authenticates accounts whose connection string carries
// neither a key nor a shared access signature.
func WithTokenCredential(cred azcore.TokenCredential) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.TokenCredential = cred
	}
}

// WithDefaultCredential uses the azidentity default credential chain for
// accounts without a key or signature.
func WithDefaultCredential() blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.UseDefaultCredential = true
	}
}

// WithFilesystem sets the filesystem used by UploadFile and DownloadFile.
// Default is the OS filesystem.
func WithFilesystem(filesystem billy.Filesystem) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithMetrics registers the client's Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		c.MetricsRegisterer = reg
	}
}

// WithCopyPollInterval sets how often a pending copy is polled during a move.
func WithCopyPollInterval(interval time.Duration) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		if interval > 0 {
			c.CopyPollInterval = interval
		}
	}
}

// WithSASExpiry sets the lifetime of the signed source URL used for copies
// between accounts.
func WithSASExpiry(expiry time.Duration) blobtypes.Option {
	return func(c *blobtypes.ClientConfig) {
		if expiry > 0 {
			c.SASExpiry = expiry
		}
	}
}

// WithContentType sets the content type of an upload. When unset the type is
// detected from the payload and the blob name.
func WithContentType(contentType string) blobtypes.UploadOption {
	return func(c *blobtypes.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata sets metadata on the uploaded blob.
func WithMetadata(metadata map[string]string) blobtypes.UploadOption {
	return func(c *blobtypes.UploadOptionConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string, len(metadata))
		}
		maps.Copy(c.Metadata, metadata)
	}
}

// WithProgress tracks upload progress.
func WithProgress(tracker blobtypes.ProgressTracker) blobtypes.UploadOption {
	return func(c *blobtypes.UploadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithUploadBlockSize overrides the client block size for one upload.
func WithUploadBlockSize(size int64) blobtypes.UploadOption {
	return func(c *blobtypes.UploadOptionConfig) {
		if size > 0 {
			c.BlockSize = size
		}
	}
}

// WithUploadConcurrency overrides the client concurrency for one upload.
func WithUploadConcurrency(concurrency int) blobtypes.UploadOption {
	return func(c *blobtypes.UploadOptionConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithDownloadProgress tracks download progress.
func WithDownloadProgress(tracker blobtypes.ProgressTracker) blobtypes.DownloadOption {
	return func(c *blobtypes.DownloadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithPrefix restricts a listing to names starting with prefix.
func WithPrefix(prefix string) blobtypes.ListOption {
	return func(c *blobtypes.ListOptionConfig) {
		c.Prefix = prefix
	}
}

// WithMarker resumes a listing from a continuation marker.
func WithMarker(marker string) blobtypes.ListOption {
	return func(c *blobtypes.ListOptionConfig) {
		c.Marker = marker
	}
}

// WithListPageSize overrides the client page size for one listing.
func WithListPageSize(size int32) blobtypes.ListOption {
	return func(c *blobtypes.ListOptionConfig) {
		if size > 0 {
			c.PageSize = size
		}
	}
}

// WithIncludeMetadata fetches the properties of every listed blob.
func WithIncludeMetadata(include bool) blobtypes.ListOption {
	return func(c *blobtypes.ListOptionConfig) {
		c.IncludeMetadata = include
	}
}

// WithListConcurrency overrides the client concurrency for metadata fetches.
func WithListConcurrency(concurrency int) blobtypes.ListOption {
	return func(c *blobtypes.ListOptionConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithPollInterval overrides the copy poll interval for one move.
func WithPollInterval(interval time.Duration) blobtypes.MoveOption {
	return func(c *blobtypes.MoveOptionConfig) {
		if interval > 0 {
			c.PollInterval = interval
		}
	}
}
