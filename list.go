package blobstore

import (
	"context"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/operations/list"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/validation"
)

// ListBlobs returns every blob in container in listing order. Metadata is
// fetched only with WithIncludeMetadata(true). A failure on any page fails the
// whole call and no partial result is returned.
//
// Example:
//
//	entries, err := client.ListBlobs(ctx, "docs",
//	    blobstore.WithPrefix("reports/"),
//	    blobstore.WithIncludeMetadata(true),
//	)
//	for _, e := range entries {
//	    fmt.Println(e.Name, e.Metadata["owner"])
//	}
func (c *Client) ListBlobs(
	ctx context.Context,
	container string,
	opts ...blobtypes.ListOption,
) (entries []blobtypes.BlobEntry, err error) {
	defer c.observe("listBlobs", time.Now(), &err)

	lister, cfg, err := c.lister("listBlobs", container, opts)
	if err != nil {
		return nil, err
	}

	entries, err = lister.ListAll(ctx, cfg)
	if err != nil {
		return nil, c.listFailure(ctx, "listBlobs", container, err)
	}
	return entries, nil
}

// ListBlobsWithPagination returns every blob in container with its metadata,
// requesting pages of the configured size.
func (c *Client) ListBlobsWithPagination(
	ctx context.Context,
	container string,
	opts ...blobtypes.ListOption,
) (entries []blobtypes.BlobEntry, err error) {
	defer c.observe("listBlobsWithPagination", time.Now(), &err)

	lister, cfg, err := c.lister("listBlobsWithPagination", container, opts)
	if err != nil {
		return nil, err
	}
	cfg.IncludeMetadata = true

	entries, err = lister.ListAll(ctx, cfg)
	if err != nil {
		return nil, c.listFailure(ctx, "listBlobsWithPagination", container, err)
	}
	return entries, nil
}

// ListBlobNames returns the names of every blob in container.
func (c *Client) ListBlobNames(
	ctx context.Context,
	container string,
	opts ...blobtypes.ListOption,
) (names []string, err error) {
	defer c.observe("listBlobNames", time.Now(), &err)

	lister, cfg, err := c.lister("listBlobNames", container, opts)
	if err != nil {
		return nil, err
	}

	names, err = lister.Names(ctx, cfg)
	if err != nil {
		return nil, c.listFailure(ctx, "listBlobNames", container, err)
	}
	return names, nil
}

// ListAll streams every blob in container over a channel. A failure arrives
// as a final result with Err set. Consume the channel fully or cancel ctx.
func (c *Client) ListAll(ctx context.Context, container string, opts ...blobtypes.ListOption) <-chan blobtypes.EntryResult {
	lister, cfg, err := c.lister("listAll", container, opts)
	if err != nil {
		out := make(chan blobtypes.EntryResult, 1)
		out <- blobtypes.EntryResult{Err: err}
		close(out)
		return out
	}

	out := make(chan blobtypes.EntryResult)
	go func() {
		defer close(out)
		for result := range lister.Stream(ctx, cfg) {
			if result.Err != nil {
				result.Err = c.listFailure(ctx, "listAll", container, result.Err)
			}
			select {
			case out <- result:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Paginate returns a paginator over container for callers that want to
// control page fetching.
//
// Example:
//
//	p, err := client.Paginate("docs", blobstore.WithListPageSize(2))
//	for p.HasMorePages() {
//	    page, err := p.NextPage(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    save(page.NextMarker)
//	}
func (c *Client) Paginate(container string, opts ...blobtypes.ListOption) (*Paginator, error) {
	lister, cfg, err := c.lister("paginate", container, opts)
	if err != nil {
		return nil, err
	}
	return &Paginator{client: c, container: container, inner: lister.NewPaginator(cfg)}, nil
}

// Paginator walks a listing one page at a time. It is single-use and not
// safe for concurrent use.
type Paginator struct {
	client    *Client
	container string
	inner     *list.Paginator
}

// HasMorePages returns true if there are more pages to fetch.
func (p *Paginator) HasMorePages() bool {
	return p.inner.HasMorePages()
}

// NextPage fetches the next page. After the last page it fails with
// ErrInvalidInput.
func (p *Paginator) NextPage(ctx context.Context) (page *blobtypes.ListPage, err error) {
	defer p.client.observe("nextPage", time.Now(), &err)

	if !p.inner.HasMorePages() {
		return nil, errors.NewContainerError("nextPage", p.container, errors.ErrInvalidInput).
			WithMessage(list.ErrNoMorePages.Error())
	}

	raw, err := p.inner.NextPage(ctx)
	if err != nil {
		return nil, p.client.listFailure(ctx, "nextPage", p.container, err)
	}
	return &blobtypes.ListPage{Entries: raw.Entries, NextMarker: raw.NextMarker}, nil
}

func (c *Client) lister(op, container string, opts []blobtypes.ListOption) (*list.Lister, list.Config, error) {
	if err := validation.ValidateContainerName(container); err != nil {
		return nil, list.Config{}, errors.NewContainerError(op, container, err)
	}

	optCfg := &blobtypes.ListOptionConfig{
		PageSize:    c.config.PageSize,
		Concurrency: c.config.Concurrency,
	}
	for _, opt := range opts {
		opt(optCfg)
	}

	svc, err := c.service()
	if err != nil {
		return nil, list.Config{}, errors.NewContainerError(op, container, err)
	}

	lister := list.New(svc.Container(container), c.logger)
	lister.OnPage = func(container string, page *list.Page, _ time.Duration) {
		c.metrics.ObservePage(container, len(page.Entries))
	}

	return lister, list.Config{
		Container:       container,
		Prefix:          optCfg.Prefix,
		Marker:          optCfg.Marker,
		PageSize:        optCfg.PageSize,
		IncludeMetadata: optCfg.IncludeMetadata,
		Concurrency:     optCfg.Concurrency,
	}, nil
}

func (c *Client) listFailure(ctx context.Context, op, container string, err error) error {
	if errors.IsStatusNotFound(err) {
		c.logger.WarnContext(ctx, "container not found", "operation", op, "container", container)
	} else {
		c.logger.ErrorContext(ctx, "listing failed", "operation", op, "container", container, "error", err)
	}
	return errors.NewContainerError(op, container, errors.Classify(err))
}
