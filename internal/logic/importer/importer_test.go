package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/knowbase-ai/knowbase/core/keyword_store"
	"github.com/knowbase-ai/knowbase/core/vector_store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	calls int
	dim   int
}

func (s *stubEmbedder) EmbedStrings(ctx context.Context, texts []string, dimensions int) ([][]float32, error) {
	s.calls++
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, s.dim)
		// 按文本长度区分向量，保证非零
		vec[0] = float32(len(texts[i]))
		vec[1] = 1
		vectors[i] = vec
	}
	return vectors, nil
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportCSV(t *testing.T) {
	vs := vector_store.NewMemoryStore()
	ks := keyword_store.NewMemoryStore()
	embedder := &stubEmbedder{dim: 4}

	im, err := NewImporter(embedder, vs, ks, 4)
	require.NoError(t, err)

	path := writeCSV(t, "content,metadata\n"+
		"合同审批流程分为三步,\"{\"\"role\"\": \"\"legal\"\"}\"\n"+
		"报销需要提供发票,\n"+
		",\n")

	count, err := im.ImportCSV(context.Background(), "legal", path)
	require.NoError(t, err)
	assert.Equal(t, 2, count) // 空行被跳过

	// 向量库和关键词索引都能检索到
	vecResults, err := vs.SearchByVector(context.Background(), "legal", []float32{10, 1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, vecResults, 2)

	kwResults, err := ks.SearchByText(context.Background(), "legal", "合同审批", 5)
	require.NoError(t, err)
	require.NotEmpty(t, kwResults)
	assert.Equal(t, "合同审批流程分为三步", kwResults[0].Content)
	assert.Equal(t, "legal", kwResults[0].KnowledgeID)
}

func TestImportCSVMetadataParsed(t *testing.T) {
	vs := vector_store.NewMemoryStore()
	embedder := &stubEmbedder{dim: 4}

	im, err := NewImporter(embedder, vs, nil, 4)
	require.NoError(t, err)

	path := writeCSV(t, "content,metadata\n"+
		"客户投诉处理,\"{\"\"role\"\": \"\"customer_service\"\", \"\"category\"\": \"\"faq\"\"}\"\n")

	count, err := im.ImportCSV(context.Background(), "customer", path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := vs.SearchByVector(context.Background(), "customer", []float32{6, 1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "customer_service", results[0].MetaData["role"])
}

func TestImportCSVMissingContentColumn(t *testing.T) {
	vs := vector_store.NewMemoryStore()
	im, err := NewImporter(&stubEmbedder{dim: 4}, vs, nil, 4)
	require.NoError(t, err)

	path := writeCSV(t, "text,metadata\nfoo,\n")

	_, err = im.ImportCSV(context.Background(), "kb", path)
	require.Error(t, err)
}

func TestImportBatches(t *testing.T) {
	vs := vector_store.NewMemoryStore()
	embedder := &stubEmbedder{dim: 4}
	im, err := NewImporter(embedder, vs, nil, 4)
	require.NoError(t, err)
	im.batchSize = 2

	csv := "content\n"
	for i := 0; i < 5; i++ {
		csv += "第" + string(rune('一'+i)) + "条知识\n"
	}
	path := writeCSV(t, csv)

	count, err := im.ImportCSV(context.Background(), "kb", path)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 3, embedder.calls)
}
