package vector_store

import (
	"context"
	"testing"

	"github.com/knowbase-ai/knowbase/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreInsertAndSearch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.EnsureCollection(ctx, "legal")
	require.NoError(t, err)

	exists, err := store.CollectionExists(ctx, "legal")
	require.NoError(t, err)
	assert.True(t, exists)

	docs := []*schema.Document{
		{ID: "d1", Content: "合同审批流程", Embedding: []float32{1, 0, 0}},
		{ID: "d2", Content: "请假制度", Embedding: []float32{0, 1, 0}},
		{ID: "d3", Content: "合同模板", Embedding: []float32{0.9, 0.1, 0}},
	}
	ids, err := store.InsertVectors(ctx, "legal", docs)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	candidates, err := store.SearchByVector(ctx, "legal", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "d1", candidates[0].ID)
	assert.Equal(t, "d3", candidates[1].ID)
	assert.Equal(t, schema.OriginVector, candidates[0].Origin)
	assert.Equal(t, "legal", candidates[0].KnowledgeID)
	assert.Greater(t, candidates[0].Score, candidates[1].Score)
}

func TestMemoryStoreSearchUnknownCollection(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.SearchByVector(ctx, "missing", []float32{1, 0}, 5)
	assert.Error(t, err)
}

func TestMemoryStoreDeleteCollection(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.EnsureCollection(ctx, "business"))
	require.NoError(t, store.DeleteCollection(ctx, "business"))

	exists, err := store.CollectionExists(ctx, "business")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStoreInsertRequiresEmbedding(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.EnsureCollection(ctx, "legal"))

	_, err := store.InsertVectors(ctx, "legal", []*schema.Document{{ID: "d1", Content: "no vector"}})
	assert.Error(t, err)
}
