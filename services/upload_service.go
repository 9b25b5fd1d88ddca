package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bihari123/reelpick/config"
	"github.com/bihari123/reelpick/logger"
	"github.com/bihari123/reelpick/models"
	"github.com/bihari123/reelpick/repositories"
	"github.com/bihari123/reelpick/storage"
)

type InitializeUploadInput struct {
	FileName string `json:"fileName" binding:"required"`
	FileSize int64  `json:"fileSize" binding:"required"`
	// TotalChunks is a client hint only; the server recomputes the
	// authoritative value from FileSize.
	TotalChunks int `json:"totalChunks"`
}

type InitializeUploadOutput struct {
	FileID      string `json:"fileId"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	TotalChunks int    `json:"totalChunks"`
	ChunkSize   int64  `json:"chunkSize"`
}

type UploadChunkOutput struct {
	Received     bool   `json:"received"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	UploadedSize int64  `json:"uploadedSize"`
	TotalSize    int64  `json:"totalSize"`
	Message      string `json:"message,omitempty"`
}

type UploadStatusOutput struct {
	Status         string `json:"status"`
	Progress       int    `json:"progress"`
	UploadedSize   int64  `json:"uploadedSize"`
	TotalSize      int64  `json:"totalSize"`
	TotalChunks    int    `json:"totalChunks"`
	UploadedChunks int    `json:"uploadedChunks"`
}

type FinalFileOutput struct {
	FileID       string `json:"fileId"`
	FileSize     int64  `json:"fileSize"`
	FileLocation string `json:"fileLocation"`
}

type UploadService interface {
	Initialize(ctx context.Context, in InitializeUploadInput) (InitializeUploadOutput, error)
	UploadChunk(ctx context.Context, fileID string, chunkIndex int, body io.Reader) (UploadChunkOutput, error)
	Status(ctx context.Context, fileID string) (UploadStatusOutput, error)
	GetFinalFile(ctx context.Context, fileID string) (FinalFileOutput, error)
}

// uploadService is the protocol state machine. It keeps no per-upload state
// in memory: every request round-trips through the session store, so any
// replica can serve any chunk.
type uploadService struct {
	sessions repositories.SessionRepository
	catalog  repositories.CatalogRepository
	store    storage.ChunkStore
	indexer  SearchIndexer
}

func NewUploadService(sessions repositories.SessionRepository, catalog repositories.CatalogRepository, store storage.ChunkStore, indexer SearchIndexer) UploadService {
	return &uploadService{sessions: sessions, catalog: catalog, store: store, indexer: indexer}
}

const fileIDCreateRetries = 3

func generateFileID() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}

func (s *uploadService) Initialize(ctx context.Context, in InitializeUploadInput) (InitializeUploadOutput, error) {
	storageCfg := config.AppConfig.Storage
	if in.FileName == "" || in.FileSize <= 0 {
		return InitializeUploadOutput{}, newAppError(http.StatusBadRequest, ErrMsgInvalidRequestBody, nil)
	}
	if in.FileSize > storageCfg.MaxFileSize {
		return InitializeUploadOutput{}, newAppError(http.StatusBadRequest, ErrMsgFileTooLarge, nil)
	}

	var session *models.UploadSession
	for attempt := 0; attempt <= fileIDCreateRetries; attempt++ {
		fileID, err := generateFileID()
		if err != nil {
			return InitializeUploadOutput{}, newAppError(http.StatusInternalServerError, ErrMsgInternalError, err)
		}
		candidate := models.NewUploadSession(fileID, in.FileName, in.FileSize, storageCfg.ChunkSize)
		err = s.sessions.Create(ctx, candidate)
		if err == nil {
			session = candidate
			break
		}
		if !errors.Is(err, repositories.ErrSessionExists) {
			return InitializeUploadOutput{}, newAppError(http.StatusInternalServerError, ErrMsgInternalError, err)
		}
	}
	if session == nil {
		return InitializeUploadOutput{}, newAppError(http.StatusInternalServerError, ErrMsgInternalError, errors.New("file id collision retries exhausted"))
	}

	if err := s.store.EnsureStaging(ctx, session.FileID); err != nil {
		_ = s.sessions.Delete(ctx, session.FileID)
		return InitializeUploadOutput{}, newAppError(http.StatusInternalServerError, ErrMsgInternalError, err)
	}

	s.indexer.Index(ctx, EventInitializeUpload, session.FileID, map[string]interface{}{
		"directory": session.FileID,
		"file_name": session.FileName,
		"file_size": session.TotalSize,
	})

	return InitializeUploadOutput{
		FileID:      session.FileID,
		FileName:    session.FileName,
		FileSize:    session.TotalSize,
		TotalChunks: session.TotalChunks,
		ChunkSize:   session.ChunkSize,
	}, nil
}

func (s *uploadService) UploadChunk(ctx context.Context, fileID string, chunkIndex int, body io.Reader) (UploadChunkOutput, error) {
	session, err := s.sessions.Load(ctx, fileID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return UploadChunkOutput{}, newAppError(http.StatusBadRequest, ErrMsgInvalidSession, nil)
		}
		return UploadChunkOutput{}, newAppError(http.StatusInternalServerError, ErrMsgInternalError, err)
	}
	if chunkIndex < 0 || chunkIndex >= session.TotalChunks {
		return UploadChunkOutput{}, newAppError(http.StatusBadRequest, ErrMsgInvalidRequestBody, nil)
	}
	if session.Status.Terminal() {
		return UploadChunkOutput{}, newAppError(http.StatusBadRequest, ErrMsgInvalidSession, nil)
	}

	written, err := s.store.WriteChunk(ctx, fileID, chunkIndex, body)
	if err != nil {
		return UploadChunkOutput{}, newAppError(http.StatusInternalServerError, ErrMsgInternalError, err)
	}

	chunkLocation := s.store.ChunkLocation(fileID, chunkIndex)
	if err := s.catalog.UpsertChunk(ctx, &models.VideoChunkData{
		FileID:         fileID,
		ChunkID:        chunkIndex,
		TotalChunks:    session.TotalChunks,
		ChunkLocations: chunkLocation,
		IsComplete:     true,
	}); err != nil {
		// The catalog is an audit trail; the session store stays the source
		// of truth, so a failed write never fails the upload.
		logger.L().Errorw("catalog chunk upsert failed", "file_id", fileID, "chunk", chunkIndex, "err", err)
	}

	updated, justCompleted, err := s.sessions.ApplyChunk(ctx, fileID, chunkIndex, written)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSessionNotFound):
			return UploadChunkOutput{}, newAppError(http.StatusBadRequest, ErrMsgInvalidSession, nil)
		case errors.Is(err, repositories.ErrChunkOutOfRange):
			return UploadChunkOutput{}, newAppError(http.StatusBadRequest, ErrMsgInvalidRequestBody, nil)
		default:
			return UploadChunkOutput{}, newAppError(http.StatusInternalServerError, ErrMsgInternalError, err)
		}
	}

	s.indexer.Index(ctx, EventChunkUpload, session.FileID+"_"+strconv.Itoa(chunkIndex), map[string]interface{}{
		"chunk_path":  chunkLocation,
		"file_name":   session.FileName,
		"chunk_index": chunkIndex,
	})

	if justCompleted {
		// This replica flipped the last bit, so it alone runs assembly.
		if err := s.finalize(ctx, updated); err != nil {
			return UploadChunkOutput{}, err
		}
		updated.Status = models.StatusCompleted
	}

	return UploadChunkOutput{
		Received:     true,
		Status:       string(updated.Status),
		Progress:     updated.Progress(),
		UploadedSize: updated.UploadedSize,
		TotalSize:    updated.TotalSize,
	}, nil
}

// finalize runs on the single replica elected by ApplyChunk. Chunk
// concatenation failures mark the session failed and keep the staging area
// for inspection; catalog and indexer failures are logged only, since the
// artifact is already durable.
func (s *uploadService) finalize(ctx context.Context, session *models.UploadSession) error {
	location, size, err := s.store.Assemble(ctx, session.FileID, session.FileName, session.TotalChunks)
	if err != nil {
		logger.L().Errorw("assembly failed", "file_id", session.FileID, "err", err)
		if markErr := s.sessions.MarkFailed(ctx, session.FileID); markErr != nil {
			logger.L().Errorw("mark failed session", "file_id", session.FileID, "err", markErr)
		}
		return newAppError(http.StatusInternalServerError, ErrMsgInternalError, err)
	}

	if err := s.catalog.UpsertFinal(ctx, &models.VideoFinalData{
		FileID:        session.FileID,
		FileSize:      size,
		FileLocations: location,
	}); err != nil {
		logger.L().Errorw("catalog final upsert failed", "file_id", session.FileID, "err", err)
	}

	s.indexer.Index(ctx, EventCompleteUpload, session.FileID, map[string]interface{}{
		"directory":    session.FileID,
		"file_name":    session.FileName,
		"file_size":    size,
		"total_chunks": session.TotalChunks,
	})

	if err := s.store.RemoveStaging(ctx, session.FileID); err != nil {
		logger.L().Warnw("staging cleanup failed", "file_id", session.FileID, "err", err)
	}
	if err := s.sessions.Delete(ctx, session.FileID); err != nil {
		logger.L().Warnw("session delete failed", "file_id", session.FileID, "err", err)
	}

	logger.L().Infow("upload finalized", "file_id", session.FileID, "file_name", session.FileName, "size", size)
	return nil
}

func (s *uploadService) Status(ctx context.Context, fileID string) (UploadStatusOutput, error) {
	session, err := s.sessions.Load(ctx, fileID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return UploadStatusOutput{}, newAppError(http.StatusBadRequest, ErrMsgInvalidSession, nil)
		}
		return UploadStatusOutput{}, newAppError(http.StatusInternalServerError, ErrMsgInternalError, err)
	}

	return UploadStatusOutput{
		Status:         string(session.Status),
		Progress:       session.Progress(),
		UploadedSize:   session.UploadedSize,
		TotalSize:      session.TotalSize,
		TotalChunks:    session.TotalChunks,
		UploadedChunks: session.UploadedChunks,
	}, nil
}

func (s *uploadService) GetFinalFile(ctx context.Context, fileID string) (FinalFileOutput, error) {
	row, err := s.catalog.GetFinal(ctx, fileID)
	if err != nil {
		return FinalFileOutput{}, newAppError(http.StatusNotFound, ErrMsgInvalidSession, nil)
	}
	return FinalFileOutput{
		FileID:       row.FileID,
		FileSize:     row.FileSize,
		FileLocation: row.FileLocations,
	}, nil
}
