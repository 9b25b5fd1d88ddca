package services

import (
	"github.com/bihari123/reelpick/repositories"
	"github.com/bihari123/reelpick/storage"
)

type Container struct {
	Upload  UploadService
	Media   MediaService
	Cleanup CleanupService
}

func NewContainer(repos repositories.Container, store storage.ChunkStore, indexer SearchIndexer, uploadDir string) *Container {
	return &Container{
		Upload:  NewUploadService(repos.Sessions, repos.Catalog, store, indexer),
		Media:   NewMediaService(uploadDir),
		Cleanup: NewCleanupService(repos.Sessions, store),
	}
}
