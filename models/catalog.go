package models

import "time"

// VideoChunkData is one catalog row per accepted chunk. The catalog is a
// durable audit trail; the session store remains the source of truth for
// protocol state.
type VideoChunkData struct {
	FileID         string    `gorm:"column:file_id;primaryKey" json:"file_id"`
	ChunkID        int       `gorm:"column:chunk_id;primaryKey;default:0" json:"chunk_id"`
	TotalChunks    int       `gorm:"column:total_chunks;not null" json:"total_chunks"`
	ChunkLocations string    `gorm:"column:chunk_locations" json:"chunk_locations"`
	IsComplete     bool      `gorm:"column:is_complete;default:false" json:"is_complete"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (VideoChunkData) TableName() string {
	return "video_chunk_data"
}

// VideoFinalData is written once per successfully assembled file.
type VideoFinalData struct {
	FileID        string    `gorm:"column:file_id;primaryKey" json:"file_id"`
	FileSize      int64     `gorm:"column:file_size;not null" json:"file_size"`
	FileLocations string    `gorm:"column:file_locations" json:"file_locations"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (VideoFinalData) TableName() string {
	return "video_final_data"
}
