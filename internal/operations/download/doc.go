// Package download handles blob download operations.
// This includes stream-based downloads and downloads into a local directory.
//
// Local files are written through a billy filesystem. Blob names that would
// resolve outside the target directory are rejected.
package download
