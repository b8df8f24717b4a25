package v1

import (
	"github.com/gogf/gf/v2/frame/g"
	"github.com/knowbase-ai/knowbase/pkg/schema"
)

type RetrieverReq struct {
	g.Meta       `path:"/v1/retriever" method:"post" tags:"retriever"`
	Question     string   `json:"question" v:"required"`
	KnowledgeId  string   `json:"knowledge_id"`  // 单知识库检索
	KnowledgeIds []string `json:"knowledge_ids"` // 多知识库合并检索，与 knowledge_id 二选一
	TopK         int      `json:"top_k"`         // 默认为5
	FusionWeight *float64 `json:"fusion_weight"` // 向量/关键词融合权重，默认0.5
	MinScore     float64  `json:"min_score"`     // 融合分数下限过滤
}

type RetrieverRes struct {
	g.Meta    `mime:"application/json"`
	Documents []*schema.Candidate `json:"documents"`
	Degraded  bool                `json:"degraded"`
	Omitted   []schema.KBOmission `json:"omitted,omitempty"`
}
