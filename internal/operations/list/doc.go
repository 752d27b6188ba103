// Package list handles blob listing operations.
// This includes paginated listing, optional per-blob metadata enrichment,
// and channel-based streaming of entries from a container.
//
// Pages are requested sequentially, each carrying the marker of the previous
// one. Metadata fetches within a page run concurrently and are reassembled in
// listing order before the page is delivered.
package list
