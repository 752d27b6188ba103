// Package move handles blob move and copy operations.
// A move is a server-side copy to the destination followed by deletion of
// the source, optionally across storage accounts.
//
// Metadata carried through a move is capped in size. Caller metadata is
// merged over the source metadata, with caller keys winning.
package move
