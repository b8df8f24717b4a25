package schema

import "time"

// Document 表示知识库中的一个文档片段
type Document struct {
	// ID 文档唯一标识
	ID string `json:"id,omitempty"`
	// Content 文档内容
	Content string `json:"content"`
	// Embedding 文档向量，仅入库时填充
	Embedding []float32 `json:"embedding,omitempty"`
	// MetaData 文档元数据
	MetaData map[string]interface{} `json:"metadata,omitempty"`
	// KnowledgeID 所属知识库标识
	KnowledgeID string `json:"knowledge_id,omitempty"`
}

// ScoreOrigin 候选得分的来源
type ScoreOrigin string

const (
	OriginVector   ScoreOrigin = "vector"
	OriginKeyword  ScoreOrigin = "keyword"
	OriginFused    ScoreOrigin = "fused"
	OriginReranked ScoreOrigin = "reranked"
)

// Candidate 一条带得分的检索候选
type Candidate struct {
	Document
	// Score 当前阶段得分，语义由 Origin 决定
	Score float64 `json:"score"`
	// Origin 得分产生的阶段
	Origin ScoreOrigin `json:"origin"`
}

// RetrievalResult 单个知识库内一次混合检索的产出
type RetrievalResult struct {
	KnowledgeID string       `json:"knowledge_id"`
	Candidates  []*Candidate `json:"candidates"`
	// Degraded 检索过程中某一路失败但仍有结果时为 true
	Degraded bool `json:"degraded,omitempty"`
	// Elapsed 本次检索的耗时
	Elapsed time.Duration `json:"-"`
}

// KBOmission 记录被跳过的知识库及原因
type KBOmission struct {
	KnowledgeID string `json:"knowledge_id"`
	Reason      string `json:"reason"`
}

// MergedAnswerContext 跨知识库合并、重排后的最终上下文
type MergedAnswerContext struct {
	Candidates []*Candidate `json:"candidates"`
	// Omitted 因失败被整体跳过的知识库
	Omitted []KBOmission `json:"omitted,omitempty"`
	// Degraded 任一环节降级（单路失败、重排回退等）时为 true
	Degraded bool          `json:"degraded,omitempty"`
	Elapsed  time.Duration `json:"-"`
}

// ConversationTurn 会话中的一轮问答
type ConversationTurn struct {
	Role      RoleType  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
