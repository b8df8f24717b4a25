package keyword_store

import (
	"context"

	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// KeywordStoreType 关键词索引类型
type KeywordStoreType string

const (
	KeywordStoreTypeElasticsearch KeywordStoreType = "elasticsearch"
	KeywordStoreTypeMemory        KeywordStoreType = "memory"
)

// IndexPrefix 知识库索引名前缀，索引名为 knowledge_<knowledgeId>
const IndexPrefix = "knowledge_"

// IndexName 返回知识库对应的索引名
func IndexName(knowledgeId string) string {
	return IndexPrefix + knowledgeId
}

// KeywordStoreConfig 关键词索引配置
type KeywordStoreConfig struct {
	Type      KeywordStoreType
	Addresses []string // Elasticsearch 节点地址
	Username  string
	Password  string
}

// KeywordStore 关键词检索接口，得分为 BM25 原始分
type KeywordStore interface {
	// EnsureIndex 创建索引（如果不存在）
	EnsureIndex(ctx context.Context, knowledgeId string) error

	// IndexExists 检查索引是否存在
	IndexExists(ctx context.Context, knowledgeId string) (bool, error)

	// DeleteIndex 删除索引
	DeleteIndex(ctx context.Context, knowledgeId string) error

	// InsertDocuments 写入文档
	InsertDocuments(ctx context.Context, knowledgeId string, docs []*schema.Document) ([]string, error)

	// SearchByText 关键词检索，返回按 BM25 得分降序的候选
	SearchByText(ctx context.Context, knowledgeId string, query string, topK int) ([]*schema.Candidate, error)
}
