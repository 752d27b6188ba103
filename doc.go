// Package blobstore provides a client for Azure Blob Storage.
//
// The client resolves every operation against a connection string, either
// the configured default or a named account, and caches one SDK handle per
// connection string for the life of the process.
//
// Listing walks the flat blob listing page by page. When metadata is
// requested, properties for the entries of a page are fetched concurrently
// and reassembled in listing order before the page is returned.
//
// Move is a server-side copy followed by deletion of the source. It is not
// atomic: a failure after the copy leaves both blobs in place.
//
// Example:
//
//	client, err := blobstore.New(
//	    blobstore.WithConnectionString(os.Getenv("AZURE_BLOB_STORAGE_CONNECTION_STRING")),
//	    blobstore.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    return err
//	}
//
//	entries, err := client.ListBlobs(ctx, "docs", blobstore.WithIncludeMetadata(true))
//	if err != nil {
//	    return err
//	}
//
// Errors carry a kind that can be checked with the helpers in the errors
// package, such as errors.IsNotFound.
package blobstore
