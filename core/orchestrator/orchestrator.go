package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/knowbase-ai/knowbase/core/config"
	"github.com/knowbase-ai/knowbase/core/errors"
	"github.com/knowbase-ai/knowbase/core/retriever"
	"github.com/knowbase-ai/knowbase/core/session"
	"github.com/knowbase-ai/knowbase/pkg/schema"
	"golang.org/x/sync/errgroup"
)

// Embedder 查询向量化依赖
type Embedder interface {
	EmbedQuery(ctx context.Context, query string, dimensions int) ([]float32, error)
}

// Retriever 单知识库混合检索依赖，由 retriever.HybridRetriever 实现
type Retriever interface {
	Retrieve(ctx context.Context, req *retriever.RetrieveReq) (*schema.RetrievalResult, error)
}

// Reranker 重排序依赖，可为 nil（不配置时直接使用融合顺序）
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []*schema.Candidate, topK int) ([]*schema.Candidate, error)
}

// Orchestrator 跨知识库问答上下文编排。
// 流程：取会话历史 -> 查询向量化（一次）-> 各知识库并行混合检索 ->
// 各知识库并行重排序（单库失败回退该库融合顺序）-> 跨库归一化合并。
type Orchestrator struct {
	embedder  Embedder
	retriever Retriever
	reranker  Reranker
	sessions  *session.Store
	conf      *config.RetrieverConfig
	dim       int
}

// NewOrchestrator 创建编排器，依赖通过构造函数注入
func NewOrchestrator(embedder Embedder, r Retriever, reranker Reranker, sessions *session.Store, conf *config.RetrieverConfig, dim int) (*Orchestrator, error) {
	if r == nil {
		return nil, errors.New(errors.ErrInvalidParameter, "retriever is required")
	}
	if sessions == nil {
		return nil, errors.New(errors.ErrInvalidParameter, "session store is required")
	}
	if conf == nil {
		conf = config.DefaultRetrieverConfig()
	} else {
		conf.Normalize()
	}
	if dim <= 0 {
		dim = 1024
	}
	return &Orchestrator{
		embedder:  embedder,
		retriever: r,
		reranker:  reranker,
		sessions:  sessions,
		conf:      conf,
		dim:       dim,
	}, nil
}

// kbOutcome 单个知识库的检索结果或失败原因
type kbOutcome struct {
	knowledgeId string
	result      *schema.RetrievalResult
	err         error
}

// AnswerContext 为一次提问构建跨知识库的答案上下文。
// 返回合并后的上下文、本轮之前的会话历史和（可能新生成的）会话ID。
// 用户轮在检索完成后写入会话，即使检索无结果或后续生成失败也不丢失。
// 所有知识库都失败或均无结果时返回 ErrNoResults。
func (o *Orchestrator) AnswerContext(ctx context.Context, query string, knowledgeIds []string, sessionId string, topK int) (*schema.MergedAnswerContext, []schema.ConversationTurn, string, error) {
	if query == "" {
		return nil, nil, "", errors.New(errors.ErrInvalidParameter, "query is required")
	}
	if len(knowledgeIds) == 0 {
		return nil, nil, "", errors.New(errors.ErrInvalidParameter, "at least one knowledgeId is required")
	}
	// 历史快照不含本轮
	sessionId = o.sessions.GetOrCreate(ctx, sessionId)
	history := o.sessions.History(ctx, sessionId)

	merged, err := o.RetrieveContext(ctx, query, knowledgeIds, &RetrieveOptions{TopK: topK})

	if appendErr := o.sessions.Append(ctx, sessionId, schema.ConversationTurn{Role: schema.User, Content: query}); appendErr != nil {
		g.Log().Errorf(ctx, "append user turn failed for session %s: %v", sessionId, appendErr)
	}

	if err != nil {
		return nil, history, sessionId, err
	}
	return merged, history, sessionId, nil
}

// RetrieveOptions 单次检索可覆盖的参数，零值使用配置默认
type RetrieveOptions struct {
	TopK         int
	FusionWeight *float64
	MinScore     *float64
}

// RetrieveContext 执行跨知识库检索与合并，不涉及会话。
// 所有知识库都失败或均无结果时返回 ErrNoResults。
func (o *Orchestrator) RetrieveContext(ctx context.Context, query string, knowledgeIds []string, opts *RetrieveOptions) (*schema.MergedAnswerContext, error) {
	if query == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "query is required")
	}
	if len(knowledgeIds) == 0 {
		return nil, errors.New(errors.ErrInvalidParameter, "at least one knowledgeId is required")
	}
	if opts == nil {
		opts = &RetrieveOptions{}
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = o.conf.TopK
	}

	start := time.Now()
	defer func() {
		answerContextSeconds.Observe(time.Since(start).Seconds())
	}()

	// 整体截止时间
	ctx, cancel := context.WithTimeout(ctx, o.conf.Timeouts.Overall)
	defer cancel()

	degraded := false

	// 查询只向量化一次，失败时所有向量路降级为纯关键词检索
	var vector []float32
	if o.embedder != nil {
		err := withRetry(ctx, o.conf.Retry, "embed query", func(ctx context.Context) error {
			embedCtx, cancel := context.WithTimeout(ctx, o.conf.Timeouts.Embed)
			defer cancel()
			var embedErr error
			vector, embedErr = o.embedder.EmbedQuery(embedCtx, query, o.dim)
			return embedErr
		})
		if err != nil {
			g.Log().Warningf(ctx, "query embedding failed, falling back to keyword-only retrieval: %v", err)
			embedFallbackTotal.Inc()
			vector = nil
			degraded = true
		}
	} else {
		degraded = true
	}

	// 各知识库并行检索，单库失败不取消其他库
	outcomes := make([]kbOutcome, len(knowledgeIds))
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	for i, kbId := range knowledgeIds {
		i, kbId := i, kbId
		eg.Go(func() error {
			var result *schema.RetrievalResult
			err := withRetry(egCtx, o.conf.Retry, "retrieve "+kbId, func(ctx context.Context) error {
				searchCtx, cancel := context.WithTimeout(ctx, o.conf.Timeouts.Search)
				defer cancel()
				var retErr error
				result, retErr = o.retriever.Retrieve(searchCtx, &retriever.RetrieveReq{
					Query:        query,
					KnowledgeId:  kbId,
					Vector:       vector,
					TopK:         &o.conf.CandidateK,
					FusionWeight: opts.FusionWeight,
					MinScore:     opts.MinScore,
				})
				return retErr
			})
			mu.Lock()
			outcomes[i] = kbOutcome{knowledgeId: kbId, result: result, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	// 收集结果，失败的库整体跳过并记录原因
	var results []*schema.RetrievalResult
	var omitted []schema.KBOmission
	for _, outcome := range outcomes {
		if outcome.err != nil {
			reason := "retrieval_failed"
			if errors.IsCode(outcome.err, errors.ErrKBNotFound) {
				reason = "not_found"
			} else if errors.IsCode(outcome.err, errors.ErrTimeout) {
				reason = "timeout"
			}
			g.Log().Warningf(ctx, "knowledge base %s omitted (%s): %v", outcome.knowledgeId, reason, outcome.err)
			kbOmittedTotal.WithLabelValues(outcome.knowledgeId, reason).Inc()
			omitted = append(omitted, schema.KBOmission{KnowledgeID: outcome.knowledgeId, Reason: reason})
			degraded = true
			continue
		}
		if outcome.result != nil {
			if outcome.result.Degraded {
				degraded = true
			}
			results = append(results, outcome.result)
		}
	}

	total := 0
	for _, result := range results {
		total += len(result.Candidates)
	}
	if total == 0 {
		return nil, errors.Newf(errors.ErrNoResults, "no results from any of %d knowledge base(s)", len(knowledgeIds))
	}

	// 各知识库并行重排序，单库失败回退该库的融合顺序并标记降级
	if o.reranker != nil {
		rerankErrs := make([]error, len(results))
		reg, regCtx := errgroup.WithContext(ctx)
		for i, result := range results {
			if len(result.Candidates) == 0 {
				continue
			}
			i, result := i, result
			reg.Go(func() error {
				callCtx, cancel := context.WithTimeout(regCtx, o.conf.Timeouts.Rerank)
				defer cancel()
				reranked, err := o.reranker.Rerank(callCtx, query, result.Candidates, topK)
				if err != nil {
					rerankErrs[i] = err
					return nil
				}
				result.Candidates = reranked
				return nil
			})
		}
		_ = reg.Wait()
		for i, rerankErr := range rerankErrs {
			if rerankErr != nil {
				g.Log().Warningf(ctx, "rerank failed for %s, keeping fused order: %v", results[i].KnowledgeID, rerankErr)
				rerankFallbackTotal.WithLabelValues(results[i].KnowledgeID).Inc()
				degraded = true
			}
		}
	}

	// 每库归一化后跨库合并
	final := mergeResults(results)
	if len(final) > topK {
		final = final[:topK]
	}

	return &schema.MergedAnswerContext{
		Candidates: final,
		Omitted:    omitted,
		Degraded:   degraded,
		Elapsed:    time.Since(start),
	}, nil
}

// RecordAnswer 在答案生成后把助手轮写入会话，用户轮已由 AnswerContext 写入
func (o *Orchestrator) RecordAnswer(ctx context.Context, sessionId, assistantAnswer string) error {
	return o.sessions.Append(ctx, sessionId, schema.ConversationTurn{Role: schema.Assistant, Content: assistantAnswer})
}

// ClearSession 清空会话历史，保留会话ID，幂等
func (o *Orchestrator) ClearSession(ctx context.Context, sessionId string) {
	o.sessions.Clear(ctx, sessionId)
}
