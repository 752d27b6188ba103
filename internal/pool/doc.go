// Package pool provides reusable copy buffers for streaming transfers.
//
// Buffers come in three tiers chosen by the expected transfer size, so small
// blobs do not pin megabyte buffers and large ones are not copied in 4KB steps.
package pool
