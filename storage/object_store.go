package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bihari123/reelpick/config"
)

const (
	chunkPrefix = "chunks/"
	filePrefix  = "files/"
)

// ObjectChunkStore stages chunks in an S3-compatible object store, so a fleet
// of replicas on separate hosts all see every chunk regardless of which
// replica received it.
type ObjectChunkStore struct {
	client *minio.Client
	bucket string
}

func NewObjectChunkStore(ctx context.Context, cfg *config.ObjectStoreConfig) (*ObjectChunkStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &ObjectChunkStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *ObjectChunkStore) chunkKey(fileID string, index int) string {
	return fmt.Sprintf("%s%s/chunk_%d", chunkPrefix, fileID, index)
}

func (s *ObjectChunkStore) EnsureStaging(context.Context, string) error {
	// Object keys need no directory; the bucket was checked at construction.
	return nil
}

func (s *ObjectChunkStore) WriteChunk(ctx context.Context, fileID string, index int, r io.Reader) (int64, error) {
	info, err := s.client.PutObject(ctx, s.bucket, s.chunkKey(fileID, index), r, -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return 0, fmt.Errorf("put chunk object: %w", err)
	}
	return info.Size, nil
}

func (s *ObjectChunkStore) ChunkLocation(fileID string, index int) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.chunkKey(fileID, index))
}

// Assemble downloads chunks in index order into a local scratch file, uploads
// the concatenation as the final object, then drops the chunk objects. The
// final object only appears once the upload completed, so no reader observes
// a partial artifact.
func (s *ObjectChunkStore) Assemble(ctx context.Context, fileID, fileName string, totalChunks int) (string, int64, error) {
	scratch, err := os.CreateTemp("", "reelpick-assemble-*")
	if err != nil {
		return "", 0, fmt.Errorf("create scratch file: %w", err)
	}
	scratchPath := scratch.Name()
	defer os.Remove(scratchPath)

	var written int64
	for i := 0; i < totalChunks; i++ {
		obj, err := s.client.GetObject(ctx, s.bucket, s.chunkKey(fileID, i), minio.GetObjectOptions{})
		if err != nil {
			scratch.Close()
			return "", 0, fmt.Errorf("fetch chunk %d: %w", i, err)
		}
		n, err := io.Copy(scratch, obj)
		obj.Close()
		if err != nil {
			scratch.Close()
			return "", 0, fmt.Errorf("append chunk %d: %w", i, err)
		}
		written += n
	}

	if _, err := scratch.Seek(0, io.SeekStart); err != nil {
		scratch.Close()
		return "", 0, fmt.Errorf("rewind scratch file: %w", err)
	}

	finalKey := filePrefix + fileName
	if _, err := s.client.PutObject(ctx, s.bucket, finalKey, scratch, written, minio.PutObjectOptions{}); err != nil {
		scratch.Close()
		return "", 0, fmt.Errorf("publish artifact: %w", err)
	}
	scratch.Close()

	for i := 0; i < totalChunks; i++ {
		_ = s.client.RemoveObject(ctx, s.bucket, s.chunkKey(fileID, i), minio.RemoveObjectOptions{})
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, finalKey), written, nil
}

func (s *ObjectChunkStore) RemoveStaging(ctx context.Context, fileID string) error {
	prefix := chunkPrefix + fileID + "/"
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return obj.Err
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func (s *ObjectChunkStore) ListStaging(ctx context.Context) ([]StagingEntry, error) {
	seen := make(map[string]StagingEntry)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: chunkPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		rest := strings.TrimPrefix(obj.Key, chunkPrefix)
		fileID, _, ok := strings.Cut(rest, "/")
		if !ok {
			continue
		}
		entry, exists := seen[fileID]
		if !exists || obj.LastModified.After(entry.ModTime) {
			seen[fileID] = StagingEntry{FileID: fileID, ModTime: obj.LastModified}
		}
	}
	out := make([]StagingEntry, 0, len(seen))
	for _, entry := range seen {
		out = append(out, entry)
	}
	return out, nil
}
