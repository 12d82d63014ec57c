package milvus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

const (
	fieldID         = "id"
	fieldContent    = "content"
	fieldEmbedding  = "embedding"
	fieldLinkedNode = "linked_node_id"
	fieldLabel      = "label"
	fieldMetadata   = "metadata_json"
)

// ChunkStore implements store.ChunkStore against a Milvus collection. The
// schema is fixed: a VarChar primary key carrying the chunk's uuid, a
// fixed-dimension float vector, and scalar side fields used for label
// filtering and node-linkage lookups (which Milvus itself can query without
// a vector search).
type ChunkStore struct {
	client         *Client
	collectionName string
	dim            int
	metricType     entity.MetricType
}

// NewChunkStore wires a ChunkStore against an existing, already-loaded
// Milvus collection.
func NewChunkStore(client *Client, collectionName string, dim int) *ChunkStore {
	return &ChunkStore{client: client, collectionName: collectionName, dim: dim, metricType: entity.COSINE}
}

// Schema returns the collection schema this store expects, for use by an
// operator-run setup step (CreateCollection + CreateIndex + LoadCollection).
func (c *ChunkStore) Schema() *entity.Schema {
	return &entity.Schema{
		CollectionName: c.collectionName,
		Description:    "retrieval chunk store",
		Fields: []*entity.Field{
			{Name: fieldID, DataType: entity.FieldTypeVarChar, PrimaryKey: true, AutoID: false, TypeParams: map[string]string{"max_length": "64"}},
			{Name: fieldContent, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "65535"}},
			{Name: fieldEmbedding, DataType: entity.FieldTypeFloatVector, TypeParams: map[string]string{"dim": fmt.Sprint(c.dim)}},
			{Name: fieldLinkedNode, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "64"}},
			{Name: fieldLabel, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "128"}},
			{Name: fieldMetadata, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "65535"}},
		},
	}
}

// Insert upserts chunks into the collection. Not part of store.ChunkStore
// (ingestion is out of scope for the retrieval core) but needed by any
// population/maintenance tooling that targets this backend.
func (c *ChunkStore) Insert(ctx context.Context, chunks []graphmodel.Chunk) error {
	ids := make([]string, len(chunks))
	contents := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	linked := make([]string, len(chunks))
	labels := make([]string, len(chunks))
	metas := make([]string, len(chunks))

	for i, ch := range chunks {
		ids[i] = ch.ID.String()
		contents[i] = ch.Content
		vectors[i] = ch.Embedding
		if ch.LinkedNodeID != nil {
			linked[i] = ch.LinkedNodeID.String()
		}
		if label, ok := ch.Metadata["label"].(string); ok {
			labels[i] = label
		}
		metaRaw, err := json.Marshal(ch.Metadata)
		if err != nil {
			return errors.Wrap(err, errors.CodeSearchError, "failed to marshal chunk metadata")
		}
		metas[i] = string(metaRaw)
	}

	columns := []entity.Column{
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldContent, contents),
		entity.NewColumnFloatVector(fieldEmbedding, c.dim, vectors),
		entity.NewColumnVarChar(fieldLinkedNode, linked),
		entity.NewColumnVarChar(fieldLabel, labels),
		entity.NewColumnVarChar(fieldMetadata, metas),
	}

	if _, err := c.client.Raw().Upsert(ctx, c.collectionName, "", columns...); err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "milvus upsert failed")
	}
	return nil
}

func (c *ChunkStore) search(ctx context.Context, vector []float32, expr string, k int) ([]graphmodel.Chunk, error) {
	sp, err := entity.NewIndexIvfFlatSearchParam(16)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSearchError, "failed to build search param")
	}

	results, err := c.client.Raw().Search(ctx, c.collectionName, nil, expr,
		[]string{fieldContent, fieldLinkedNode, fieldMetadata}, []entity.Vector{entity.FloatVector(vector)},
		fieldEmbedding, c.metricType, k, sp)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSearchError, "milvus search failed")
	}
	if len(results) == 0 {
		return nil, nil
	}
	return toChunks(results[0])
}

// TopKSimilar implements store.ChunkStore.
func (c *ChunkStore) TopKSimilar(ctx context.Context, vector []float32, k int) ([]graphmodel.Chunk, error) {
	return c.search(ctx, vector, "", k)
}

// TopKSimilarWithLabel implements store.ChunkStore.
func (c *ChunkStore) TopKSimilarWithLabel(ctx context.Context, vector []float32, label string, k int) ([]graphmodel.Chunk, error) {
	expr := fmt.Sprintf("%s == \"%s\"", fieldLabel, escapeExpr(label))
	return c.search(ctx, vector, expr, k)
}

// FindByLinkedNodeId implements store.ChunkStore.
func (c *ChunkStore) FindByLinkedNodeId(ctx context.Context, id graphmodel.ID) ([]graphmodel.Chunk, error) {
	expr := fmt.Sprintf("%s == \"%s\"", fieldLinkedNode, id.String())
	res, err := c.client.Raw().Query(ctx, c.collectionName, nil, expr,
		[]string{fieldID, fieldContent, fieldLinkedNode, fieldMetadata})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSearchError, "milvus query failed")
	}
	return toChunksFromQuery(res)
}

// CountByLinkedNodeId implements store.ChunkStore.
func (c *ChunkStore) CountByLinkedNodeId(ctx context.Context, id graphmodel.ID) (int64, error) {
	chunks, err := c.FindByLinkedNodeId(ctx, id)
	if err != nil {
		return 0, err
	}
	return int64(len(chunks)), nil
}

// DeleteAll implements store.ChunkStore.
func (c *ChunkStore) DeleteAll(ctx context.Context) error {
	if err := c.client.Raw().Delete(ctx, c.collectionName, "", fmt.Sprintf("%s != \"\"", fieldID)); err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "milvus delete-all failed")
	}
	return nil
}

func toChunks(result client.SearchResult) ([]graphmodel.Chunk, error) {
	chunks := make([]graphmodel.Chunk, 0, result.ResultCount)
	for j := 0; j < result.ResultCount; j++ {
		idStr, err := result.IDs.GetAsString(j)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeSearchError, "failed to read chunk id from search result")
		}
		row := make(map[string]any, len(result.Fields))
		for _, col := range result.Fields {
			if j < col.Len() {
				val, _ := col.Get(j)
				row[col.Name()] = val
			}
		}
		ch, err := rowToChunk(idStr, row)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

func toChunksFromQuery(res client.ResultSet) ([]graphmodel.Chunk, error) {
	count := res.Len()
	rows := make([]map[string]any, count)
	for i := range rows {
		rows[i] = make(map[string]any)
	}
	for _, col := range res {
		for i := 0; i < count; i++ {
			val, _ := col.Get(i)
			rows[i][col.Name()] = val
		}
	}

	chunks := make([]graphmodel.Chunk, 0, count)
	for _, row := range rows {
		idVal, _ := row[fieldID].(string)
		ch, err := rowToChunk(idVal, row)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

func rowToChunk(idStr string, row map[string]any) (graphmodel.Chunk, error) {
	id, err := graphmodel.ParseID(idStr)
	if err != nil {
		return graphmodel.Chunk{}, errors.Wrap(err, errors.CodeSearchError, "invalid chunk id in milvus row")
	}

	ch := graphmodel.Chunk{ID: id}
	if content, ok := row[fieldContent].(string); ok {
		ch.Content = content
	}
	if linked, ok := row[fieldLinkedNode].(string); ok && linked != "" {
		linkedID, err := graphmodel.ParseID(linked)
		if err == nil {
			ch.LinkedNodeID = &linkedID
		}
	}
	if metaRaw, ok := row[fieldMetadata].(string); ok && metaRaw != "" {
		var meta graphmodel.Properties
		if err := json.Unmarshal([]byte(metaRaw), &meta); err == nil {
			ch.Metadata = meta
		}
	}
	return ch, nil
}

func escapeExpr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
