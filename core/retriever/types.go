package retriever

import (
	"context"

	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// VectorSearcher 向量检索依赖，由 vector_store 实现
type VectorSearcher interface {
	SearchByVector(ctx context.Context, knowledgeId string, vector []float32, topK int) ([]*schema.Candidate, error)
}

// KeywordSearcher 关键词检索依赖，由 keyword_store 实现
type KeywordSearcher interface {
	SearchByText(ctx context.Context, knowledgeId string, query string, topK int) ([]*schema.Candidate, error)
}

// RetrieveReq 单个知识库的混合检索请求
type RetrieveReq struct {
	Query       string    // 检索关键词（必需）
	KnowledgeId string    // 知识库ID（必需）
	Vector      []float32 // 查询向量，由调用方提前算好

	// 以下参数可选，如果为 nil 则使用 RetrieverConfig 中的默认值
	TopK         *int     // 检索结果数量（可选）
	FusionWeight *float64 // 向量得分权重（可选，0-1范围）
	MinScore     *float64 // 融合得分阈值（可选）
}

// Copy 创建请求的副本
func (r *RetrieveReq) Copy() *RetrieveReq {
	return &RetrieveReq{
		Query:        r.Query,
		KnowledgeId:  r.KnowledgeId,
		Vector:       r.Vector,
		TopK:         r.TopK,
		FusionWeight: r.FusionWeight,
		MinScore:     r.MinScore,
	}
}
