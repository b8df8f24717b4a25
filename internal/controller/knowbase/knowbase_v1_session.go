package knowbase

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	v1 "github.com/knowbase-ai/knowbase/api/knowbase/v1"
	"github.com/knowbase-ai/knowbase/internal/service"
)

func (c *ControllerV1) ClearContext(ctx context.Context, req *v1.ClearContextReq) (res *v1.ClearContextRes, err error) {
	g.Log().Infof(ctx, "ClearContext request received - SessionID: %s", req.SessionID)

	// 清空会话历史，保留会话ID，重复清空不报错
	service.GetOrchestrator().ClearSession(ctx, req.SessionID)
	return &v1.ClearContextRes{}, nil
}

func (c *ControllerV1) History(ctx context.Context, req *v1.HistoryReq) (res *v1.HistoryRes, err error) {
	turns := service.GetSessionStore().History(ctx, req.SessionID)
	return &v1.HistoryRes{Turns: turns}, nil
}
