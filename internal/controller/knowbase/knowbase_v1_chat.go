package knowbase

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	v1 "github.com/knowbase-ai/knowbase/api/knowbase/v1"
	"github.com/knowbase-ai/knowbase/internal/logic/chat"
)

func (c *ControllerV1) Chat(ctx context.Context, req *v1.ChatReq) (res *v1.ChatRes, err error) {
	g.Log().Infof(ctx, "Chat request received - SessionID: %s, Question: %s, KnowledgeIds: %v, TopK: %d",
		req.SessionID, req.Question, req.KnowledgeIds, req.TopK)

	return chat.GetChat().ProcessChat(ctx, req)
}
