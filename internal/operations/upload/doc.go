// Package upload handles blob upload operations.
// This includes buffered uploads, streamed block uploads and uploads of
// local files read through a billy filesystem.
//
// Content types are sniffed from the leading bytes of the payload when the
// caller does not set one, with the blob or file extension as a fallback.
package upload
