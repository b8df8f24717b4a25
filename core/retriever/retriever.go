package retriever

import (
	"context"
	"time"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/knowbase-ai/knowbase/core/config"
	"github.com/knowbase-ai/knowbase/core/errors"
	"github.com/knowbase-ai/knowbase/pkg/schema"
	"golang.org/x/sync/errgroup"
)

// HybridRetriever 单知识库内的混合检索：向量与关键词两路并行召回后加权融合。
// 依赖通过构造函数注入。
type HybridRetriever struct {
	vector  VectorSearcher
	keyword KeywordSearcher
	conf    *config.RetrieverConfig
}

// NewHybridRetriever 创建混合检索器
func NewHybridRetriever(vector VectorSearcher, keyword KeywordSearcher, conf *config.RetrieverConfig) (*HybridRetriever, error) {
	if vector == nil && keyword == nil {
		return nil, errors.New(errors.ErrInvalidParameter, "at least one of vector/keyword searcher is required")
	}
	if conf == nil {
		conf = config.DefaultRetrieverConfig()
	} else {
		conf.Normalize()
	}
	return &HybridRetriever{
		vector:  vector,
		keyword: keyword,
		conf:    conf,
	}, nil
}

// RetrieveVector 仅向量检索
func (h *HybridRetriever) RetrieveVector(ctx context.Context, knowledgeId string, vector []float32, topK int) ([]*schema.Candidate, error) {
	if h.vector == nil {
		return nil, errors.New(errors.ErrRetrievalFailed, "vector searcher not configured")
	}
	if len(vector) == 0 {
		return nil, errors.New(errors.ErrInvalidParameter, "query vector cannot be empty")
	}
	if topK <= 0 {
		topK = h.conf.CandidateK
	}
	return h.vector.SearchByVector(ctx, knowledgeId, vector, topK)
}

// RetrieveKeyword 仅关键词检索
func (h *HybridRetriever) RetrieveKeyword(ctx context.Context, knowledgeId string, query string, topK int) ([]*schema.Candidate, error) {
	if h.keyword == nil {
		return nil, errors.New(errors.ErrRetrievalFailed, "keyword searcher not configured")
	}
	if query == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "query cannot be empty")
	}
	if topK <= 0 {
		topK = h.conf.CandidateK
	}
	return h.keyword.SearchByText(ctx, knowledgeId, query, topK)
}

// Retrieve 执行混合检索。
// 两路并行召回；一路失败另一路成功时结果降级但不报错，两路都失败才返回错误。
func (h *HybridRetriever) Retrieve(ctx context.Context, req *RetrieveReq) (*schema.RetrievalResult, error) {
	if req == nil || req.KnowledgeId == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "knowledgeId is required")
	}
	if req.Query == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "query is required")
	}
	start := time.Now()

	topK := h.conf.TopK
	if req.TopK != nil && *req.TopK > 0 {
		topK = *req.TopK
	}
	weight := h.conf.FusionWeight
	if req.FusionWeight != nil {
		weight = *req.FusionWeight
	}
	minScore := h.conf.MinScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}
	candidateK := h.conf.CandidateK
	if candidateK < topK {
		candidateK = topK
	}

	var (
		vecCands []*schema.Candidate
		kwCands  []*schema.Candidate
		vecErr   error
		kwErr    error
	)

	// 两路并行召回，各自持有错误，互不取消
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if h.vector == nil || len(req.Vector) == 0 {
			vecErr = errors.New(errors.ErrRetrievalFailed, "vector leg unavailable")
			return nil
		}
		vecCands, vecErr = h.vector.SearchByVector(egCtx, req.KnowledgeId, req.Vector, candidateK)
		return nil
	})
	eg.Go(func() error {
		if h.keyword == nil {
			kwErr = errors.New(errors.ErrRetrievalFailed, "keyword leg unavailable")
			return nil
		}
		kwCands, kwErr = h.keyword.SearchByText(egCtx, req.KnowledgeId, req.Query, candidateK)
		return nil
	})
	_ = eg.Wait()

	if vecErr != nil {
		legFailureTotal.WithLabelValues(req.KnowledgeId, "vector").Inc()
	}
	if kwErr != nil {
		legFailureTotal.WithLabelValues(req.KnowledgeId, "keyword").Inc()
	}

	if vecErr != nil && kwErr != nil {
		// 两路同为知识库不存在时保留错误码，便于上层按不可重试处理
		if errors.IsCode(vecErr, errors.ErrKBNotFound) || errors.IsCode(kwErr, errors.ErrKBNotFound) {
			return nil, errors.Newf(errors.ErrKBNotFound, "knowledge base %s not found", req.KnowledgeId)
		}
		return nil, errors.Newf(errors.ErrRetrievalFailed, "both retrieval legs failed for %s: vector=%v, keyword=%v", req.KnowledgeId, vecErr, kwErr)
	}

	degraded := false
	if vecErr != nil {
		g.Log().Warningf(ctx, "vector leg failed for %s, falling back to keyword only: %v", req.KnowledgeId, vecErr)
		vecCands = nil
		degraded = true
	}
	if kwErr != nil {
		g.Log().Warningf(ctx, "keyword leg failed for %s, falling back to vector only: %v", req.KnowledgeId, kwErr)
		kwCands = nil
		degraded = true
	}

	fused := Fuse(vecCands, kwCands, weight)

	// 过滤低分文档
	if minScore > 0 {
		filtered := make([]*schema.Candidate, 0, len(fused))
		for _, c := range fused {
			if c.Score < minScore {
				g.Log().Debugf(ctx, "score less: %v, related: %v", c.Score, c.Content)
				continue
			}
			filtered = append(filtered, c)
		}
		fused = filtered
	}

	if len(fused) > topK {
		fused = fused[:topK]
	}

	return &schema.RetrievalResult{
		KnowledgeID: req.KnowledgeId,
		Candidates:  fused,
		Degraded:    degraded,
		Elapsed:     time.Since(start),
	}, nil
}
