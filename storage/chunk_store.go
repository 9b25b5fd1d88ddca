// Package storage holds the chunk staging backends. Chunks arrive on any
// replica; assembly runs on exactly one. The local backend therefore requires
// every replica to mount the same upload directory, while the object backend
// keeps staging in a shared S3-compatible store and has no colocation
// requirement.
package storage

import (
	"context"
	"io"
	"time"
)

type StagingEntry struct {
	FileID  string
	ModTime time.Time
}

// ChunkStore stages per-file chunk blobs and concatenates them during
// finalization.
type ChunkStore interface {
	// EnsureStaging prepares the per-file staging area. Idempotent.
	EnsureStaging(ctx context.Context, fileID string) error

	// WriteChunk stores the blob for one chunk index with truncate-on-create
	// semantics, so a retried duplicate overwrites with identical content.
	// Returns the number of bytes written.
	WriteChunk(ctx context.Context, fileID string, index int, r io.Reader) (int64, error)

	// ChunkLocation is the stable address of a chunk blob, recorded in the
	// catalog.
	ChunkLocation(fileID string, index int) string

	// Assemble concatenates chunks 0..totalChunks-1 in index order into the
	// final artifact named fileName, deleting the blobs once the artifact is
	// in place. The artifact becomes visible under its final name only on
	// success. On error the staging area is left intact for inspection.
	Assemble(ctx context.Context, fileID, fileName string, totalChunks int) (location string, size int64, err error)

	// RemoveStaging deletes the per-file staging area and anything left in it.
	RemoveStaging(ctx context.Context, fileID string) error

	// ListStaging enumerates staging areas currently on the backend, for the
	// orphan reaper.
	ListStaging(ctx context.Context) ([]StagingEntry, error)
}
