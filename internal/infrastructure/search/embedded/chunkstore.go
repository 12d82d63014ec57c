// Package embedded implements the embedded-analytic ChunkStore backend: an
// in-process chromem-go vector index, for single-node or analytic
// deployments that do not want to stand up a Milvus cluster. Since we
// supply embeddings ourselves (via the Embedder port, never chromem's own
// auto-embedding hook), collections are created with a nil embedding
// function throughout.
package embedded

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/turtacn/graphctx/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

const (
	metaLinkedNode = "linked_node_id"
	metaLabel      = "label"
	metaExtra      = "metadata_json"
)

// Config configures the embedded chunk store.
type Config struct {
	// PersistPath, when non-empty, makes the store durable across restarts
	// via chromem-go's gob-backed persistence. Empty means in-memory only.
	PersistPath string `mapstructure:"persist_path"`
	// Collection names the single chromem-go collection this store owns.
	Collection string `mapstructure:"collection"`
	// Dim is the embedding dimension, used to build the zero-vector probe
	// that FindByLinkedNodeId issues (chromem-go has no metadata-only
	// query path; every lookup goes through QueryEmbedding).
	Dim int `mapstructure:"dim"`
}

func applyDefaults(cfg *Config) {
	if cfg.Collection == "" {
		cfg.Collection = "chunks"
	}
}

// ChunkStore implements store.ChunkStore against a local chromem-go
// collection. Safe for concurrent use: chromem-go's own collection
// operations are internally synchronized, and the mutex here only guards
// the collection pointer, which DeleteAll replaces.
type ChunkStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	dim        int
	mu         sync.RWMutex
	log        logging.Logger
}

// NewChunkStore opens (or creates) the chromem-go database and collection
// described by cfg.
func NewChunkStore(cfg Config, log logging.Logger) (*ChunkStore, error) {
	applyDefaults(&cfg)
	if log == nil {
		log = logging.NewNop()
	}

	var db *chromem.DB
	var err error
	if cfg.PersistPath != "" {
		db, err = chromem.NewPersistentDB(cfg.PersistPath, false)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeSearchError, "failed to open persistent chromem-go database")
		}
	} else {
		db = chromem.NewDB()
	}

	collection, err := db.CreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSearchError, "failed to create chromem-go collection")
	}

	log.Info("embedded chunk store ready", logging.String("collection", cfg.Collection), logging.Bool("persistent", cfg.PersistPath != ""))
	return &ChunkStore{db: db, collection: collection, name: cfg.Collection, dim: cfg.Dim, log: log}, nil
}

// Insert upserts chunks into the collection. Not part of store.ChunkStore
// (ingestion is out of scope for the retrieval core) but needed by any
// population/maintenance tooling that targets this backend.
func (c *ChunkStore) Insert(ctx context.Context, chunks []graphmodel.Chunk) error {
	col := c.currentCollection()
	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		doc, err := toDocument(ch)
		if err != nil {
			return err
		}
		docs[i] = doc
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "chromem-go add documents failed")
	}
	return nil
}

// TopKSimilar implements store.ChunkStore.
func (c *ChunkStore) TopKSimilar(ctx context.Context, vector []float32, k int) ([]graphmodel.Chunk, error) {
	return c.query(ctx, vector, k, nil)
}

// TopKSimilarWithLabel implements store.ChunkStore.
func (c *ChunkStore) TopKSimilarWithLabel(ctx context.Context, vector []float32, label string, k int) ([]graphmodel.Chunk, error) {
	return c.query(ctx, vector, k, map[string]string{metaLabel: label})
}

// FindByLinkedNodeId implements store.ChunkStore. chromem-go only exposes
// metadata filtering alongside a vector query, so a zero vector is used as
// a neutral probe; every document passing the where-filter is returned,
// ranked by an otherwise-meaningless similarity score.
func (c *ChunkStore) FindByLinkedNodeId(ctx context.Context, id graphmodel.ID) ([]graphmodel.Chunk, error) {
	col := c.currentCollection()
	n := col.Count()
	if n == 0 {
		return nil, nil
	}
	probe := make([]float32, c.dim)
	return c.query(ctx, probe, n, map[string]string{metaLinkedNode: id.String()})
}

// CountByLinkedNodeId implements store.ChunkStore.
func (c *ChunkStore) CountByLinkedNodeId(ctx context.Context, id graphmodel.ID) (int64, error) {
	chunks, err := c.FindByLinkedNodeId(ctx, id)
	if err != nil {
		return 0, err
	}
	return int64(len(chunks)), nil
}

// DeleteAll implements store.ChunkStore. chromem-go has no truncate
// primitive, so the collection is dropped and recreated.
func (c *ChunkStore) DeleteAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.db.DeleteCollection(c.name); err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "chromem-go delete collection failed")
	}
	col, err := c.db.CreateCollection(c.name, nil, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "chromem-go recreate collection failed")
	}
	c.collection = col
	return nil
}

func (c *ChunkStore) currentCollection() *chromem.Collection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collection
}

func (c *ChunkStore) query(ctx context.Context, vector []float32, k int, where map[string]string) ([]graphmodel.Chunk, error) {
	col := c.currentCollection()
	if n := col.Count(); k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, k, where, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSearchError, "chromem-go query failed")
	}

	chunks := make([]graphmodel.Chunk, 0, len(results))
	for _, r := range results {
		ch, err := fromResult(r)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

func toDocument(ch graphmodel.Chunk) (chromem.Document, error) {
	meta := map[string]string{}
	if ch.LinkedNodeID != nil {
		meta[metaLinkedNode] = ch.LinkedNodeID.String()
	}
	if label, ok := ch.Metadata["label"].(string); ok {
		meta[metaLabel] = label
	}
	if len(ch.Metadata) > 0 {
		raw, err := json.Marshal(ch.Metadata)
		if err != nil {
			return chromem.Document{}, errors.Wrap(err, errors.CodeSearchError, "failed to marshal chunk metadata")
		}
		meta[metaExtra] = string(raw)
	}

	return chromem.Document{
		ID:        ch.ID.String(),
		Content:   ch.Content,
		Embedding: ch.Embedding,
		Metadata:  meta,
	}, nil
}

func fromResult(r chromem.Result) (graphmodel.Chunk, error) {
	id, err := graphmodel.ParseID(r.ID)
	if err != nil {
		return graphmodel.Chunk{}, errors.Wrap(err, errors.CodeSearchError, "invalid chunk id in chromem-go result")
	}

	ch := graphmodel.Chunk{ID: id, Content: r.Content, Embedding: r.Embedding}
	if linked, ok := r.Metadata[metaLinkedNode]; ok && linked != "" {
		linkedID, err := graphmodel.ParseID(linked)
		if err == nil {
			ch.LinkedNodeID = &linkedID
		}
	}
	if raw, ok := r.Metadata[metaExtra]; ok && raw != "" {
		var meta graphmodel.Properties
		if err := json.Unmarshal([]byte(raw), &meta); err == nil {
			ch.Metadata = meta
		}
	}
	return ch, nil
}
