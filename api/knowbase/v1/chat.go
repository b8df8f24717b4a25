package v1

import (
	"github.com/gogf/gf/v2/frame/g"
	"github.com/knowbase-ai/knowbase/pkg/schema"
)

type ChatReq struct {
	g.Meta       `path:"/v1/chat" method:"post" tags:"chat"`
	SessionID    string   `json:"session_id"` // 会话id，为空时自动生成
	Question     string   `json:"question" v:"required"`
	KnowledgeIds []string `json:"knowledge_ids" v:"required"` // 参与检索的知识库
	TopK         int      `json:"top_k"`                      // 默认为5
}

type ChatRes struct {
	g.Meta     `mime:"application/json"`
	SessionID  string              `json:"session_id"`
	Answer     string              `json:"answer"`
	References []*schema.Candidate `json:"references"`
	Degraded   bool                `json:"degraded"`          // 部分来源失败时为 true
	Omitted    []schema.KBOmission `json:"omitted,omitempty"` // 被跳过的知识库及原因
}
