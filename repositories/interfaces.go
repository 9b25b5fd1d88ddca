package repositories

import (
	"context"
	"errors"

	"github.com/bihari123/reelpick/models"
)

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionCorrupt  = errors.New("session payload corrupt")
	ErrChunkOutOfRange = errors.New("chunk index out of range")
)

// SessionRepository is the shared session store adapter. ApplyChunk must be
// atomic per file_id across all replicas: concurrent calls for distinct
// indices may not lose updates, and exactly one caller observes the
// completing transition.
type SessionRepository interface {
	Create(ctx context.Context, session *models.UploadSession) error
	Load(ctx context.Context, fileID string) (*models.UploadSession, error)
	ApplyChunk(ctx context.Context, fileID string, chunkIndex int, chunkBytes int64) (*models.UploadSession, bool, error)
	MarkFailed(ctx context.Context, fileID string) error
	Delete(ctx context.Context, fileID string) error
}

// CatalogRepository records chunk arrivals and final files. Writes are
// upserts keyed by (file_id, chunk_id) and file_id respectively.
type CatalogRepository interface {
	UpsertChunk(ctx context.Context, row *models.VideoChunkData) error
	UpsertFinal(ctx context.Context, row *models.VideoFinalData) error
	GetFinal(ctx context.Context, fileID string) (models.VideoFinalData, error)
	ListChunks(ctx context.Context, fileID string) ([]models.VideoChunkData, error)
}

type Container struct {
	Sessions SessionRepository
	Catalog  CatalogRepository
}
