package move

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/azapi"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/validation"
)

const (
	// DefaultPollInterval is the delay between copy status polls
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultSASExpiry is the lifetime of the signed source URL used for
	// copies across accounts
	DefaultSASExpiry = 15 * time.Minute
)

// Resolver returns the service handle for a connection string.
type Resolver interface {
	Get(connectionString string) (azapi.ServiceAPI, error)
}

// Config holds configuration for move operations.
type Config struct {
	DefaultConnectionString string
	PollInterval            time.Duration
	SASExpiry               time.Duration
	MetadataLimit           int
}

// Mover copies blobs server-side and deletes the source.
type Mover struct {
	resolver Resolver
	logger   *slog.Logger
	config   Config
}

// New creates a new Mover.
func New(resolver Resolver, logger *slog.Logger, config Config) *Mover {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.SASExpiry <= 0 {
		config.SASExpiry = DefaultSASExpiry
	}
	if config.MetadataLimit <= 0 {
		config.MetadataLimit = validation.MaxMetadataSize
	}
	return &Mover{
		resolver: resolver,
		logger:   logger,
		config:   config,
	}
}

// Move moves a blob: a server-side copy to the destination followed by
// deletion of the source. A move onto itself is a no-op. The operation is
// not atomic; if deletion fails the destination copy is left in place.
func (m *Mover) Move(ctx context.Context, req blobtypes.MoveRequest) error {
	plan, err := m.plan(ctx, req)
	if err != nil || plan == nil {
		return err
	}

	if err := m.copy(ctx, plan); err != nil {
		return err
	}

	if err := plan.source.Delete(ctx); err != nil && !errors.IsStatusNotFound(err) {
		m.logger.ErrorContext(ctx, "failed to delete source after copy",
			"container", req.SourceContainer,
			"blob", req.SourceBlob,
			"error", err,
		)
		return m.failure(req, err)
	}

	m.logger.InfoContext(ctx, "moved blob",
		"sourceContainer", req.SourceContainer,
		"sourceBlob", req.SourceBlob,
		"destinationContainer", req.DestinationContainer,
		"destinationBlob", req.DestinationBlob,
	)
	return nil
}

// Copy performs the copy half of a move and leaves the source in place.
func (m *Mover) Copy(ctx context.Context, req blobtypes.MoveRequest) error {
	plan, err := m.plan(ctx, req)
	if err != nil || plan == nil {
		return err
	}
	return m.copy(ctx, plan)
}

type movePlan struct {
	req         blobtypes.MoveRequest
	source      azapi.BlobAPI
	destination azapi.BlobAPI
	crossAcct   bool
}

// plan validates the request and resolves both handles. It returns a nil
// plan without error when the move is a no-op.
func (m *Mover) plan(ctx context.Context, req blobtypes.MoveRequest) (*movePlan, error) {
	if req.SourceContainer == "" || req.SourceBlob == "" ||
		req.DestinationContainer == "" || req.DestinationBlob == "" {
		m.logger.WarnContext(ctx, "move request is missing a container or blob name",
			"sourceContainer", req.SourceContainer,
			"sourceBlob", req.SourceBlob,
			"destinationContainer", req.DestinationContainer,
			"destinationBlob", req.DestinationBlob,
		)
		return nil, errors.NewError("move", errors.ErrInvalidInput).
			WithMessage("source container, source blob, destination container and destination blob are required")
	}
	if err := validation.ValidateMetadata(req.Metadata); err != nil {
		m.logger.WarnContext(ctx, "invalid move metadata", "blob", req.SourceBlob, "error", err)
		return nil, errors.NewBlobError("move", req.SourceContainer, req.SourceBlob, err)
	}

	srcConn := m.connection(req.SourceConnectionString)
	dstConn := m.connection(req.DestinationConnectionString)

	if req.SourceContainer == req.DestinationContainer &&
		req.SourceBlob == req.DestinationBlob &&
		srcConn == dstConn {
		m.logger.DebugContext(ctx, "source and destination are identical, nothing to move",
			"container", req.SourceContainer,
			"blob", req.SourceBlob,
		)
		return nil, nil
	}

	if srcConn == "" || dstConn == "" {
		return nil, errors.NewBlobError("move", req.SourceContainer, req.SourceBlob, errors.ErrInvalidConfiguration).
			WithMessage("no connection string configured")
	}

	srcSvc, err := m.resolver.Get(srcConn)
	if err != nil {
		return nil, errors.NewBlobError("move", req.SourceContainer, req.SourceBlob, err)
	}
	dstSvc, err := m.resolver.Get(dstConn)
	if err != nil {
		return nil, errors.NewBlobError("move", req.DestinationContainer, req.DestinationBlob, err)
	}

	return &movePlan{
		req:         req,
		source:      srcSvc.Container(req.SourceContainer).Blob(req.SourceBlob),
		destination: dstSvc.Container(req.DestinationContainer).Blob(req.DestinationBlob),
		crossAcct:   srcConn != dstConn,
	}, nil
}

func (m *Mover) copy(ctx context.Context, plan *movePlan) error {
	req := plan.req

	props, err := plan.source.GetProperties(ctx)
	if err != nil {
		if errors.IsStatusNotFound(err) {
			return m.sourceNotFound(ctx, req, err)
		}
		m.logger.ErrorContext(ctx, "failed to read source properties",
			"container", req.SourceContainer,
			"blob", req.SourceBlob,
			"error", err,
		)
		return m.failure(req, err)
	}

	metadata := m.metadata(ctx, req, props.Metadata)

	sourceURL := plan.source.URL()
	if plan.crossAcct {
		signed, err := plan.source.SASURL(time.Now().Add(m.config.SASExpiry))
		if err != nil {
			m.logger.DebugContext(ctx, "cannot sign source URL, copying from plain URL", "error", err)
		} else {
			sourceURL = signed
		}
	}

	result, err := plan.destination.StartCopyFromURL(ctx, sourceURL, metadata)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to start copy",
			"sourceContainer", req.SourceContainer,
			"sourceBlob", req.SourceBlob,
			"destinationContainer", req.DestinationContainer,
			"destinationBlob", req.DestinationBlob,
			"error", err,
		)
		if errors.IsStatusNotFound(err) {
			switch errors.ServiceCode(err) {
			case "BlobNotFound", "CannotVerifyCopySource":
				return m.sourceNotFound(ctx, req, err)
			default:
				return &errors.Error{
					Op:        "move",
					Container: req.DestinationContainer,
					Blob:      req.DestinationBlob,
					Err: fmt.Errorf("%w: container %s not found: %w",
						errors.ErrNotFound, req.DestinationContainer, err),
				}
			}
		}
		return m.failure(req, err)
	}

	if result.Status == blobtypes.CopyStatusPending {
		if err := m.waitForCopy(ctx, plan); err != nil {
			return err
		}
	}

	return nil
}

// metadata applies the size cap to caller and source metadata, then merges
// caller keys over source keys. Oversized source metadata drops both maps.
// If the merge still exceeds the cap the caller metadata is dropped.
func (m *Mover) metadata(ctx context.Context, req blobtypes.MoveRequest, source map[string]string) map[string]string {
	limit := m.config.MetadataLimit

	caller, dropped := validation.CapMetadata(req.Metadata, limit)
	if dropped {
		m.logger.WarnContext(ctx, "caller metadata exceeds size limit, dropping it",
			"blob", req.SourceBlob,
			"size", validation.MetadataSize(req.Metadata),
			"limit", limit,
		)
	}

	existing, dropped := validation.CapMetadata(source, limit)
	if dropped {
		m.logger.WarnContext(ctx, "source metadata exceeds size limit, dropping source and caller metadata",
			"blob", req.SourceBlob,
			"size", validation.MetadataSize(source),
			"limit", limit,
		)
		existing = map[string]string{}
		caller = nil
	}

	merged := validation.MergeMetadata(existing, caller)
	if validation.ExceedsLimit(merged, limit) {
		m.logger.WarnContext(ctx, "merged metadata exceeds size limit, keeping source metadata only",
			"blob", req.SourceBlob,
			"size", validation.MetadataSize(merged),
			"limit", limit,
		)
		merged = maps.Clone(existing)
	}

	return merged
}

func (m *Mover) waitForCopy(ctx context.Context, plan *movePlan) error {
	req := plan.req
	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.NewBlobError("move", req.DestinationContainer, req.DestinationBlob, ctx.Err())
		case <-ticker.C:
		}

		props, err := plan.destination.GetProperties(ctx)
		if err != nil {
			return m.failure(req, err)
		}

		switch props.CopyStatus {
		case blobtypes.CopyStatusPending:
			m.logger.DebugContext(ctx, "copy pending",
				"container", req.DestinationContainer,
				"blob", req.DestinationBlob,
			)
		case blobtypes.CopyStatusFailed, blobtypes.CopyStatusAborted:
			return errors.NewBlobError("move", req.DestinationContainer, req.DestinationBlob,
				fmt.Errorf("%w: copy %s: %s", errors.ErrRequestFailed, props.CopyStatus, props.CopyStatusDescription))
		default:
			return nil
		}
	}
}

func (m *Mover) connection(cs string) string {
	if cs != "" {
		return cs
	}
	return m.config.DefaultConnectionString
}

func (m *Mover) sourceNotFound(ctx context.Context, req blobtypes.MoveRequest, err error) error {
	m.logger.WarnContext(ctx, "source blob not found",
		"container", req.SourceContainer,
		"blob", req.SourceBlob,
	)
	return &errors.Error{
		Op:        "move",
		Container: req.SourceContainer,
		Blob:      req.SourceBlob,
		Err: fmt.Errorf("%w: blob %s not found in container %s: %w",
			errors.ErrNotFound, req.SourceBlob, req.SourceContainer, err),
	}
}

// failure maps any other error to a validation failure carrying the
// upstream message. Context errors pass through.
func (m *Mover) failure(req blobtypes.MoveRequest, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewBlobError("move", req.SourceContainer, req.SourceBlob, err)
	}
	return &errors.Error{
		Op:        "move",
		Container: req.SourceContainer,
		Blob:      req.SourceBlob,
		Err:       fmt.Errorf("%w: failed to move blob: %w", errors.ErrInvalidInput, err),
	}
}
