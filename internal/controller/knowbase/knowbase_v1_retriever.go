package knowbase

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	v1 "github.com/knowbase-ai/knowbase/api/knowbase/v1"
	"github.com/knowbase-ai/knowbase/internal/logic/retriever"
)

func (c *ControllerV1) Retriever(ctx context.Context, req *v1.RetrieverReq) (res *v1.RetrieverRes, err error) {
	g.Log().Infof(ctx, "Retriever request received - Question: %s, KnowledgeId: %s, KnowledgeIds: %v, TopK: %d, MinScore: %f",
		req.Question, req.KnowledgeId, req.KnowledgeIds, req.TopK, req.MinScore)

	// 直接调用 logic 层的 ProcessRetrieval 函数
	return retriever.ProcessRetrieval(ctx, req)
}
