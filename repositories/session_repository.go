package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bihari123/reelpick/models"
)

// applyChunkScript is the atomicity primitive of the whole protocol: a
// server-side Lua script that reads, mutates and writes the session document
// in one step. Redis executes scripts single-threaded, so concurrent chunk
// uploads for the same file serialize here, and the caller that flips the
// last pending bit is the only one to see completed=1.
//
// KEYS[1] = session key
// ARGV[1] = chunk index (0-based), ARGV[2] = chunk byte length, ARGV[3] = ttl seconds
// Returns {encoded session, completed flag}.
var applyChunkScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return redis.error_reply('SESSION_NOT_FOUND')
end
local ok, s = pcall(cjson.decode, raw)
if not ok or type(s) ~= 'table' then
  return redis.error_reply('SESSION_CORRUPT')
end
local idx = tonumber(ARGV[1])
local size = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])
if idx < 0 or idx >= s.total_chunks then
  return redis.error_reply('CHUNK_OUT_OF_RANGE')
end
local pos = idx + 1
if string.sub(s.chunk_status, pos, pos) ~= '0' then
  return {raw, 0}
end
s.chunk_status = string.sub(s.chunk_status, 1, pos - 1) .. '1' .. string.sub(s.chunk_status, pos + 1)
s.uploaded_chunks = s.uploaded_chunks + 1
s.uploaded_size = s.uploaded_size + size
s.updated_at = tonumber(redis.call('TIME')[1])
local completed = 0
if s.uploaded_chunks >= s.total_chunks then
  s.status = 'finalizing'
  completed = 1
elseif s.status == 'initializing' then
  s.status = 'uploading'
end
local out = cjson.encode(s)
if ttl > 0 then
  redis.call('SET', KEYS[1], out, 'EX', ttl)
else
  redis.call('SET', KEYS[1], out)
end
return {out, completed}
`)

// setStatusScript rewrites only the status tag, keeping the rest of the
// document and its TTL intact.
var setStatusScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return redis.error_reply('SESSION_NOT_FOUND')
end
local ok, s = pcall(cjson.decode, raw)
if not ok or type(s) ~= 'table' then
  return redis.error_reply('SESSION_CORRUPT')
end
s.status = ARGV[1]
s.updated_at = tonumber(redis.call('TIME')[1])
redis.call('SET', KEYS[1], cjson.encode(s), 'KEEPTTL')
return 1
`)

type RedisSessionRepository struct {
	redis  *redis.Client
	expire time.Duration
}

func NewRedisSessionRepository(redisClient *redis.Client, expireSeconds int) *RedisSessionRepository {
	return &RedisSessionRepository{
		redis:  redisClient,
		expire: time.Duration(expireSeconds) * time.Second,
	}
}

func sessionKey(fileID string) string {
	return fmt.Sprintf("upload:%s", fileID)
}

func (r *RedisSessionRepository) Create(ctx context.Context, session *models.UploadSession) error {
	payload, err := session.Encode()
	if err != nil {
		return err
	}
	ok, err := r.redis.SetNX(ctx, sessionKey(session.FileID), payload, r.expire).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

func (r *RedisSessionRepository) Load(ctx context.Context, fileID string) (*models.UploadSession, error) {
	raw, err := r.redis.Get(ctx, sessionKey(fileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	session, err := models.DecodeUploadSession(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}
	return session, nil
}

func (r *RedisSessionRepository) ApplyChunk(ctx context.Context, fileID string, chunkIndex int, chunkBytes int64) (*models.UploadSession, bool, error) {
	res, err := applyChunkScript.Run(ctx, r.redis,
		[]string{sessionKey(fileID)},
		chunkIndex, chunkBytes, int(r.expire/time.Second),
	).Result()
	if err != nil {
		return nil, false, translateScriptError(err)
	}

	reply, ok := res.([]interface{})
	if !ok || len(reply) != 2 {
		return nil, false, fmt.Errorf("apply_chunk: unexpected reply %T", res)
	}
	raw, _ := reply[0].(string)
	completed, _ := reply[1].(int64)

	session, err := models.DecodeUploadSession([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}
	return session, completed == 1, nil
}

func (r *RedisSessionRepository) MarkFailed(ctx context.Context, fileID string) error {
	err := setStatusScript.Run(ctx, r.redis,
		[]string{sessionKey(fileID)},
		string(models.StatusFailed),
	).Err()
	if err != nil {
		return translateScriptError(err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, fileID string) error {
	return r.redis.Del(ctx, sessionKey(fileID)).Err()
}

func translateScriptError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "SESSION_NOT_FOUND"):
		return ErrSessionNotFound
	case strings.Contains(msg, "SESSION_CORRUPT"):
		return ErrSessionCorrupt
	case strings.Contains(msg, "CHUNK_OUT_OF_RANGE"):
		return ErrChunkOutOfRange
	}
	return err
}
