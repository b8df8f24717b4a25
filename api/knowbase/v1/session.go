package v1

import (
	"github.com/gogf/gf/v2/frame/g"
	"github.com/knowbase-ai/knowbase/pkg/schema"
)

type ClearContextReq struct {
	g.Meta    `path:"/v1/clear_context" method:"post" tags:"chat"`
	SessionID string `json:"session_id" v:"required"`
}

type ClearContextRes struct {
	g.Meta `mime:"application/json"`
}

type HistoryReq struct {
	g.Meta    `path:"/v1/history" method:"get" tags:"chat"`
	SessionID string `json:"session_id" v:"required"`
}

type HistoryRes struct {
	g.Meta `mime:"application/json"`
	Turns  []schema.ConversationTurn `json:"turns"`
}
