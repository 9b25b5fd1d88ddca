package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UploadStatus is the session lifecycle tag. It moves on the wire as a plain
// string; ValidUploadStatus guards the boundary.
type UploadStatus string

const (
	StatusInitializing UploadStatus = "initializing"
	StatusUploading    UploadStatus = "uploading"
	StatusFinalizing   UploadStatus = "finalizing"
	StatusCompleted    UploadStatus = "completed"
	StatusFailed       UploadStatus = "failed"
)

func ValidUploadStatus(s UploadStatus) bool {
	switch s {
	case StatusInitializing, StatusUploading, StatusFinalizing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal statuses admit no further mutation; the session is eligible for
// deletion.
func (s UploadStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

const (
	chunkPending  = '0'
	chunkReceived = '1'
)

// UploadSession tracks the progress of one chunked file upload. The record
// lives in the shared session store; replicas hold no copy of it between
// requests.
//
// ChunkStatus is a string of '0'/'1' bytes, one per chunk index, so the
// encoded form stays linear in chunk count.
type UploadSession struct {
	FileID         string       `json:"file_id"`
	FileName       string       `json:"file_name"`
	TotalSize      int64        `json:"total_size"`
	ChunkSize      int64        `json:"chunk_size"`
	TotalChunks    int          `json:"total_chunks"`
	UploadedChunks int          `json:"uploaded_chunks"`
	UploadedSize   int64        `json:"uploaded_size"`
	ChunkStatus    string       `json:"chunk_status"`
	Status         UploadStatus `json:"status"`
	CreatedAt      int64        `json:"created_at"`
	UpdatedAt      int64        `json:"updated_at"`
}

func NewUploadSession(fileID, fileName string, totalSize, chunkSize int64) *UploadSession {
	totalChunks := int((totalSize + chunkSize - 1) / chunkSize)
	now := time.Now().Unix()
	return &UploadSession{
		FileID:      fileID,
		FileName:    fileName,
		TotalSize:   totalSize,
		ChunkSize:   chunkSize,
		TotalChunks: totalChunks,
		ChunkStatus: strings.Repeat(string(chunkPending), totalChunks),
		Status:      StatusInitializing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *UploadSession) HasChunk(index int) bool {
	return index >= 0 && index < len(s.ChunkStatus) && s.ChunkStatus[index] == chunkReceived
}

// BitmapCount returns the number of received chunks recorded in the bitmap.
// It must always equal UploadedChunks.
func (s *UploadSession) BitmapCount() int {
	return strings.Count(s.ChunkStatus, string(chunkReceived))
}

func (s *UploadSession) Complete() bool {
	return s.UploadedChunks == s.TotalChunks
}

// Progress is the integer upload percentage, floor(100 * uploaded / total).
func (s *UploadSession) Progress() int {
	if s.TotalSize == 0 {
		return 0
	}
	return int(100 * s.UploadedSize / s.TotalSize)
}

func (s *UploadSession) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeUploadSession parses a stored session payload. A payload that does
// not decode, or decodes into an inconsistent record, is reported as corrupt.
func DecodeUploadSession(data []byte) (*UploadSession, error) {
	var s UploadSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *UploadSession) validate() error {
	if s.FileID == "" {
		return fmt.Errorf("decode session: missing file_id")
	}
	if !ValidUploadStatus(s.Status) {
		return fmt.Errorf("decode session: unknown status %q", s.Status)
	}
	if len(s.ChunkStatus) != s.TotalChunks {
		return fmt.Errorf("decode session: bitmap length %d, want %d", len(s.ChunkStatus), s.TotalChunks)
	}
	for i := 0; i < len(s.ChunkStatus); i++ {
		if c := s.ChunkStatus[i]; c != chunkPending && c != chunkReceived {
			return fmt.Errorf("decode session: bad bitmap byte %q at %d", c, i)
		}
	}
	if s.BitmapCount() != s.UploadedChunks {
		return fmt.Errorf("decode session: bitmap count %d, uploaded_chunks %d", s.BitmapCount(), s.UploadedChunks)
	}
	return nil
}
