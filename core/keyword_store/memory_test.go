package keyword_store

import (
	"context"
	"testing"

	"github.com/knowbase-ai/knowbase/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSearch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.EnsureIndex(ctx, "legal"))

	docs := []*schema.Document{
		{ID: "d1", Content: "合同审批流程说明"},
		{ID: "d2", Content: "员工请假制度"},
		{ID: "d3", Content: "合同模板下载"},
	}
	ids, err := store.InsertDocuments(ctx, "legal", docs)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	candidates, err := store.SearchByText(ctx, "legal", "合同审批", 5)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "d1", candidates[0].ID)
	assert.Equal(t, schema.OriginKeyword, candidates[0].Origin)
	assert.Equal(t, "legal", candidates[0].KnowledgeID)

	// 不含查询词的文档不应出现
	for _, c := range candidates {
		assert.NotEqual(t, "d2", c.ID)
	}
}

func TestMemoryStoreSearchUnknownIndex(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.SearchByText(ctx, "missing", "query", 5)
	assert.Error(t, err)
}

func TestMemoryStoreEmptyQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.EnsureIndex(ctx, "legal"))

	_, err := store.SearchByText(ctx, "legal", "", 5)
	assert.Error(t, err)
}

func TestMemoryStoreTopKTruncation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.EnsureIndex(ctx, "legal"))

	docs := []*schema.Document{
		{ID: "a", Content: "合同 一"},
		{ID: "b", Content: "合同 二"},
		{ID: "c", Content: "合同 三"},
	}
	_, err := store.InsertDocuments(ctx, "legal", docs)
	require.NoError(t, err)

	candidates, err := store.SearchByText(ctx, "legal", "合同", 2)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestIndexName(t *testing.T) {
	assert.Equal(t, "knowledge_legal", IndexName("legal"))
}
