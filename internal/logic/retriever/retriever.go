package retriever

import (
	"context"

	v1 "github.com/knowbase-ai/knowbase/api/knowbase/v1"
	"github.com/knowbase-ai/knowbase/core/common"
	"github.com/knowbase-ai/knowbase/core/errors"
	"github.com/knowbase-ai/knowbase/core/orchestrator"
	"github.com/knowbase-ai/knowbase/internal/service"
)

// ProcessRetrieval 处理知识库检索请求，支持单库和多库合并两种形式
func ProcessRetrieval(ctx context.Context, req *v1.RetrieverReq) (*v1.RetrieverRes, error) {
	kbIds := req.KnowledgeIds
	if len(kbIds) == 0 && req.KnowledgeId != "" {
		kbIds = []string{req.KnowledgeId}
	}
	if len(kbIds) == 0 {
		return nil, errors.New(errors.ErrInvalidParameter, "knowledge_id or knowledge_ids is required")
	}

	opts := &orchestrator.RetrieveOptions{
		TopK:         req.TopK,
		FusionWeight: req.FusionWeight,
	}
	if req.MinScore > 0 {
		opts.MinScore = common.Of(req.MinScore)
	}

	merged, err := service.GetOrchestrator().RetrieveContext(ctx, req.Question, kbIds, opts)
	if err != nil {
		return nil, err
	}

	return &v1.RetrieverRes{
		Documents: merged.Candidates,
		Degraded:  merged.Degraded,
		Omitted:   merged.Omitted,
	}, nil
}
