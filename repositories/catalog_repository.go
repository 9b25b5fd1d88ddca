package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bihari123/reelpick/models"
)

type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) UpsertChunk(ctx context.Context, row *models.VideoChunkData) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_id"}, {Name: "chunk_id"}},
		UpdateAll: true,
	}).Create(row).Error
}

func (r *GormCatalogRepository) UpsertFinal(ctx context.Context, row *models.VideoFinalData) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_id"}},
		UpdateAll: true,
	}).Create(row).Error
}

func (r *GormCatalogRepository) GetFinal(ctx context.Context, fileID string) (models.VideoFinalData, error) {
	var row models.VideoFinalData
	err := r.db.WithContext(ctx).Where("file_id = ?", fileID).First(&row).Error
	return row, err
}

func (r *GormCatalogRepository) ListChunks(ctx context.Context, fileID string) ([]models.VideoChunkData, error) {
	var rows []models.VideoChunkData
	err := r.db.WithContext(ctx).Where("file_id = ?", fileID).Order("chunk_id asc").Find(&rows).Error
	return rows, err
}
