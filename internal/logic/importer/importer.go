package importer

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
	"github.com/knowbase-ai/knowbase/core/common"
	"github.com/knowbase-ai/knowbase/core/errors"
	"github.com/knowbase-ai/knowbase/core/keyword_store"
	"github.com/knowbase-ai/knowbase/core/vector_store"
	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// Embedder 批量向量化依赖
type Embedder interface {
	EmbedStrings(ctx context.Context, texts []string, dimensions int) ([][]float32, error)
}

const defaultBatchSize = 32

// Importer 知识库CSV导入器：按批向量化后同时写入向量库和关键词索引
type Importer struct {
	embedder  Embedder
	vector    vector_store.VectorStore
	keyword   keyword_store.KeywordStore
	dim       int
	batchSize int
}

// NewImporter 创建导入器，keyword 为 nil 时只写向量库
func NewImporter(embedder Embedder, vector vector_store.VectorStore, keyword keyword_store.KeywordStore, dim int) (*Importer, error) {
	if embedder == nil {
		return nil, errors.New(errors.ErrInvalidParameter, "embedder is required")
	}
	if vector == nil {
		return nil, errors.New(errors.ErrInvalidParameter, "vector store is required")
	}
	if dim <= 0 {
		return nil, errors.New(errors.ErrInvalidParameter, "embedding dim must be positive")
	}
	return &Importer{
		embedder:  embedder,
		vector:    vector,
		keyword:   keyword,
		dim:       dim,
		batchSize: defaultBatchSize,
	}, nil
}

// ImportCSV 从CSV文件导入知识库，列要求: content 必填，metadata 为可选JSON。
// 返回成功导入的文档数。
func (im *Importer) ImportCSV(ctx context.Context, knowledgeId, filePath string) (int, error) {
	if knowledgeId == "" {
		return 0, errors.New(errors.ErrInvalidParameter, "knowledgeId is required")
	}

	f, err := os.Open(filePath)
	if err != nil {
		return 0, errors.Newf(errors.ErrInvalidParameter, "open csv file %s: %v", filePath, err)
	}
	defer f.Close()

	docs, err := parseCSV(ctx, f)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}
	g.Log().Infof(ctx, "parsed %d documents from %s", len(docs), filePath)

	return im.Import(ctx, knowledgeId, docs)
}

// Import 导入已解析的文档
func (im *Importer) Import(ctx context.Context, knowledgeId string, docs []*schema.Document) (int, error) {
	if err := im.vector.EnsureCollection(ctx, knowledgeId); err != nil {
		return 0, err
	}
	if im.keyword != nil {
		if err := im.keyword.EnsureIndex(ctx, knowledgeId); err != nil {
			return 0, err
		}
	}

	imported := 0
	for start := 0; start < len(docs); start += im.batchSize {
		end := start + im.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Content
		}
		vectors, err := im.embedder.EmbedStrings(ctx, texts, im.dim)
		if err != nil {
			return imported, errors.Newf(errors.ErrEmbeddingFailed, "embed batch [%d:%d]: %v", start, end, err)
		}
		if len(vectors) != len(batch) {
			return imported, errors.Newf(errors.ErrEmbeddingFailed, "expected %d embeddings, got %d", len(batch), len(vectors))
		}
		for i, doc := range batch {
			doc.Embedding = vectors[i]
			doc.KnowledgeID = knowledgeId
		}

		if _, err := im.vector.InsertVectors(ctx, knowledgeId, batch); err != nil {
			return imported, err
		}
		if im.keyword != nil {
			if _, err := im.keyword.InsertDocuments(ctx, knowledgeId, batch); err != nil {
				return imported, err
			}
		}
		imported += len(batch)
	}

	g.Log().Infof(ctx, "imported %d documents into knowledge base %s", imported, knowledgeId)
	return imported, nil
}

// parseCSV 解析CSV为文档，metadata 列解析失败时保留空元数据
func parseCSV(ctx context.Context, r io.Reader) ([]*schema.Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Newf(errors.ErrInvalidParameter, "read csv header: %v", err)
	}

	contentIdx, metadataIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "content":
			contentIdx = i
		case "metadata":
			metadataIdx = i
		}
	}
	if contentIdx < 0 {
		return nil, errors.New(errors.ErrInvalidParameter, "csv header must contain a content column")
	}

	var docs []*schema.Document
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Newf(errors.ErrInvalidParameter, "read csv record: %v", err)
		}
		if contentIdx >= len(record) {
			continue
		}
		content := strings.TrimSpace(record[contentIdx])
		if content == "" {
			continue
		}
		// 清洗零宽字符和非标准空白，向量化更稳定
		if cleaned, cleanErr := common.CleanForEmbedding(content); cleanErr != nil {
			g.Log().Warningf(ctx, "text clean failed, keeping raw content: %v", cleanErr)
		} else {
			content = cleaned
		}

		doc := &schema.Document{
			ID:      uuid.New().String(),
			Content: content,
		}
		if metadataIdx >= 0 && metadataIdx < len(record) && record[metadataIdx] != "" {
			meta := make(map[string]interface{})
			if err := sonic.Unmarshal([]byte(record[metadataIdx]), &meta); err != nil {
				g.Log().Warningf(ctx, "invalid metadata json, keeping empty: %v", err)
			} else {
				doc.MetaData = meta
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
