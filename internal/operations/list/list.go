package list

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/azapi"
)

const (
	// DefaultPageSize is the page size used when none is configured
	DefaultPageSize int32 = 100

	// MaxPageSize is the largest page the listing endpoint returns
	MaxPageSize int32 = 5000

	// DefaultConcurrency bounds in-flight metadata fetches per page
	DefaultConcurrency = 5
)

// ErrNoMorePages is returned by NextPage after the last page was delivered.
var ErrNoMorePages = errors.New("no more pages")

// Config holds configuration for list operations.
type Config struct {
	Container       string
	Prefix          string
	Marker          string // resume from a known continuation token
	PageSize        int32
	IncludeMetadata bool
	Concurrency     int // in-flight metadata fetches per page
}

// Page is one delivered page of the listing.
type Page struct {
	// Number counts pages from 1
	Number int

	// Entries are in remote order
	Entries []blobtypes.BlobEntry

	// NextMarker resumes the listing after this page; empty on the last page
	NextMarker string
}

// Lister lists the blobs of one container.
type Lister struct {
	container azapi.ContainerAPI
	logger    *slog.Logger

	// OnPage, if set, is called after each page is assembled
	OnPage func(container string, page *Page, elapsed time.Duration)
}

// New creates a new Lister.
func New(container azapi.ContainerAPI, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Lister{
		container: container,
		logger:    logger,
	}
}

// NewPaginator creates a paginator over the listing. Each paginator is
// single-use; start a new one to list again.
func (l *Lister) NewPaginator(config Config) *Paginator {
	return &Paginator{
		lister:      l,
		config:      config,
		pageSize:    normalizePageSize(config.PageSize),
		concurrency: normalizeConcurrency(config.Concurrency),
		marker:      config.Marker,
	}
}

// ListAll collects every entry of the listing. Any failure aborts the
// listing and the entries gathered so far are discarded.
func (l *Lister) ListAll(ctx context.Context, config Config) ([]blobtypes.BlobEntry, error) {
	var entries []blobtypes.BlobEntry

	paginator := l.NewPaginator(config)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		entries = append(entries, page.Entries...)
	}

	if entries == nil {
		entries = []blobtypes.BlobEntry{}
	}
	return entries, nil
}

// Names collects the names of every blob in the listing.
func (l *Lister) Names(ctx context.Context, config Config) ([]string, error) {
	config.IncludeMetadata = false
	entries, err := l.ListAll(ctx, config)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names, nil
}

// Stream delivers entries over a channel as pages complete. A failure is
// delivered as a final result carrying Err. The channel is closed when the
// listing ends or ctx is done.
func (l *Lister) Stream(ctx context.Context, config Config) <-chan blobtypes.EntryResult {
	resultChan := make(chan blobtypes.EntryResult, normalizePageSize(config.PageSize))

	go func() {
		defer close(resultChan)

		paginator := l.NewPaginator(config)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				select {
				case resultChan <- blobtypes.EntryResult{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			for i := range page.Entries {
				select {
				case resultChan <- blobtypes.EntryResult{Entry: &page.Entries[i]}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return resultChan
}

// Paginator walks the listing one page at a time.
type Paginator struct {
	lister      *Lister
	config      Config
	pageSize    int32
	concurrency int
	marker      string
	number      int
	fetched     int
	done        bool
}

// HasMorePages returns true if there are more pages to fetch.
func (p *Paginator) HasMorePages() bool {
	return !p.done
}

// NextPage fetches the next page. With IncludeMetadata, the properties of
// every entry are fetched concurrently and the page is returned only once all
// of them completed, in the order the listing returned them.
func (p *Paginator) NextPage(ctx context.Context) (*Page, error) {
	if p.done {
		return nil, ErrNoMorePages
	}

	start := time.Now()
	number := p.number + 1

	raw, err := p.lister.container.ListBlobsPage(ctx, azapi.ListOptions{
		Prefix:     p.config.Prefix,
		Marker:     p.marker,
		MaxResults: p.pageSize,
	})
	if err != nil {
		p.done = true
		return nil, fmt.Errorf("list page %d: %w", number, err)
	}

	entries := raw.Entries
	if p.config.IncludeMetadata {
		entries, err = p.lister.withMetadata(ctx, raw.Entries, p.concurrency)
		if err != nil {
			p.done = true
			return nil, fmt.Errorf("list page %d: %w", number, err)
		}
	}
	if entries == nil {
		entries = []blobtypes.BlobEntry{}
	}

	page := &Page{
		Number:     number,
		Entries:    entries,
		NextMarker: raw.NextMarker,
	}

	p.lister.logger.InfoContext(ctx, "flat listing",
		"container", p.config.Container,
		"page", number,
		"from", p.fetched,
		"to", p.fetched+len(entries),
	)

	p.number = number
	p.fetched += len(entries)
	p.marker = raw.NextMarker
	p.done = raw.NextMarker == ""

	if p.lister.OnPage != nil {
		p.lister.OnPage(p.config.Container, page, time.Since(start))
	}

	return page, nil
}

// withMetadata fetches properties for each entry with at most limit calls in
// flight. Results are written by index so output order equals input order.
// The first failure cancels the remaining fetches.
func (l *Lister) withMetadata(
	ctx context.Context,
	entries []blobtypes.BlobEntry,
	limit int,
) ([]blobtypes.BlobEntry, error) {
	out := make([]blobtypes.BlobEntry, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, entry := range entries {
		g.Go(func() error {
			props, err := l.container.Blob(entry.Name).GetProperties(gctx)
			if err != nil {
				return fmt.Errorf("get properties for %s: %w", entry.Name, err)
			}

			metadata := props.Metadata
			if metadata == nil {
				metadata = map[string]string{}
			}
			out[i] = blobtypes.BlobEntry{
				Name:         entry.Name,
				CreatedOn:    props.CreatedOn,
				LastModified: props.LastModified,
				Metadata:     metadata,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizePageSize(size int32) int32 {
	if size <= 0 {
		return DefaultPageSize
	}
	return min(size, MaxPageSize)
}

func normalizeConcurrency(n int) int {
	if n <= 0 {
		return DefaultConcurrency
	}
	return n
}
