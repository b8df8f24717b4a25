package vector_store

import (
	"context"

	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// VectorStoreType 向量数据库类型
type VectorStoreType string

const (
	VectorStoreTypeMilvus VectorStoreType = "milvus"
	VectorStoreTypeMemory VectorStoreType = "memory"
)

// VectorStoreConfig 向量数据库配置
type VectorStoreConfig struct {
	Type     VectorStoreType // 向量数据库类型
	Client   interface{}     // 客户端实例
	Database string          // 数据库名称
	Dim      int             // 向量维度
	// MetricType 距离度量类型（如 L2, COSINE, IP）
	MetricType string
}

// VectorStore 向量数据库接口。
// 检索只接收已经算好的查询向量，embedding 由调用方完成。
type VectorStore interface {
	// EnsureCollection 创建集合（如果不存在）并加载
	EnsureCollection(ctx context.Context, knowledgeId string) error

	// CollectionExists 检查集合是否存在
	CollectionExists(ctx context.Context, knowledgeId string) (bool, error)

	// DeleteCollection 删除集合
	DeleteCollection(ctx context.Context, knowledgeId string) error

	// InsertVectors 插入文档，chunks[i].Embedding 为对应向量
	InsertVectors(ctx context.Context, knowledgeId string, chunks []*schema.Document) ([]string, error)

	// SearchByVector 按查询向量检索，返回按相似度降序的候选
	SearchByVector(ctx context.Context, knowledgeId string, vector []float32, topK int) ([]*schema.Candidate, error)
}
