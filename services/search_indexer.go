package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bihari123/reelpick/config"
	"github.com/bihari123/reelpick/logger"
)

// Lifecycle events emitted to the search engine.
const (
	EventInitializeUpload = "initialize_upload"
	EventChunkUpload      = "chunk_upload"
	EventCompleteUpload   = "complete_upload"
)

// SearchIndexer publishes upload lifecycle documents. Indexing is best
// effort: implementations log failures and never surface them, so the
// indexer cannot affect upload correctness.
type SearchIndexer interface {
	Index(ctx context.Context, event string, docID string, body map[string]interface{})
}

// ElasticIndexer is the process-wide HTTP indexer. One instance per process;
// the underlying client and its connection pool are built lazily on first use.
type ElasticIndexer struct {
	baseURL string
	index   string
	timeout time.Duration

	once   sync.Once
	client *http.Client
}

var (
	indexerOnce   sync.Once
	sharedIndexer SearchIndexer
)

// DefaultIndexer returns the process singleton, built from config on first
// call. With search disabled it degrades to a no-op.
func DefaultIndexer() SearchIndexer {
	indexerOnce.Do(func() {
		cfg := config.AppConfig.Search
		if !cfg.Enabled {
			sharedIndexer = NoopIndexer{}
			return
		}
		sharedIndexer = &ElasticIndexer{
			baseURL: cfg.BaseURL,
			index:   cfg.Index,
			timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		}
	})
	return sharedIndexer
}

func (e *ElasticIndexer) httpClient() *http.Client {
	e.once.Do(func() {
		e.client = &http.Client{Timeout: e.timeout}
	})
	return e.client
}

func (e *ElasticIndexer) Index(ctx context.Context, event string, docID string, body map[string]interface{}) {
	doc := make(map[string]interface{}, len(body)+2)
	for k, v := range body {
		doc[k] = v
	}
	doc["event"] = event
	doc["indexed_at"] = time.Now().Unix()

	payload, err := json.Marshal(doc)
	if err != nil {
		logger.L().Warnw("search index marshal failed", "event", event, "doc_id", docID, "err", err)
		return
	}

	url := fmt.Sprintf("%s/%s/_doc/%s", e.baseURL, e.index, docID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		logger.L().Warnw("search index request failed", "event", event, "doc_id", docID, "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient().Do(req)
	if err != nil {
		logger.L().Warnw("search index unreachable", "event", event, "doc_id", docID, "err", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.L().Warnw("search index rejected document", "event", event, "doc_id", docID, "status", resp.StatusCode)
	}
}

type NoopIndexer struct{}

func (NoopIndexer) Index(context.Context, string, string, map[string]interface{}) {}
