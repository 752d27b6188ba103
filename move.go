package blobstore

import (
	"context"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
)

// Move copies a blob server-side to its destination and deletes the source.
// Empty connection strings in req use the client's connection. Moving a blob
// onto itself succeeds without any request.
//
// Caller metadata is merged over the source metadata, caller keys winning.
// Metadata that would exceed 8KB is dropped with a warning rather than
// failing the move.
//
// The move is not atomic. If deleting the source fails, the destination copy
// remains and the error is returned.
//
// Example:
//
//	err := client.Move(ctx, blobtypes.MoveRequest{
//	    SourceContainer:      "incoming",
//	    SourceBlob:           "upload.xml",
//	    DestinationContainer: "processed",
//	    DestinationBlob:      "2024/upload.xml",
//	    Metadata:             map[string]string{"status": "done"},
//	})
func (c *Client) Move(ctx context.Context, req blobtypes.MoveRequest, opts ...blobtypes.MoveOption) (err error) {
	defer c.observe("move", time.Now(), &err)
	return c.mover(opts...).Move(ctx, req)
}

// Copy performs the copy half of Move and leaves the source in place.
func (c *Client) Copy(ctx context.Context, req blobtypes.MoveRequest, opts ...blobtypes.MoveOption) (err error) {
	defer c.observe("copy", time.Now(), &err)
	return c.mover(opts...).Copy(ctx, req)
}
