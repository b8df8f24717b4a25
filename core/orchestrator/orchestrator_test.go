package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/knowbase-ai/knowbase/core/config"
	"github.com/knowbase-ai/knowbase/core/errors"
	"github.com/knowbase-ai/knowbase/core/retriever"
	"github.com/knowbase-ai/knowbase/core/session"
	"github.com/knowbase-ai/knowbase/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, query string, dimensions int) ([]float32, error) {
	s.calls++
	return s.vector, s.err
}

type stubRetriever struct {
	results map[string]*schema.RetrievalResult
	errs    map[string]error
	gotVecs map[string][]float32
}

func (s *stubRetriever) Retrieve(ctx context.Context, req *retriever.RetrieveReq) (*schema.RetrievalResult, error) {
	if s.gotVecs == nil {
		s.gotVecs = make(map[string][]float32)
	}
	s.gotVecs[req.KnowledgeId] = req.Vector
	if err, ok := s.errs[req.KnowledgeId]; ok {
		return nil, err
	}
	return s.results[req.KnowledgeId], nil
}

type stubReranker struct {
	mu       sync.Mutex
	err      error
	calls    int
	payloads [][]string
}

func (s *stubReranker) Rerank(ctx context.Context, query string, candidates []*schema.Candidate, topK int) ([]*schema.Candidate, error) {
	s.mu.Lock()
	s.calls++
	var kbs []string
	for _, c := range candidates {
		kbs = append(kbs, c.KnowledgeID)
	}
	s.payloads = append(s.payloads, kbs)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	// 反转顺序并赋新的降序得分模拟重排
	out := make([]*schema.Candidate, 0, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		c := *candidates[i]
		c.Origin = schema.OriginReranked
		c.Score = float64(i + 1)
		out = append(out, &c)
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func fusedResult(kbId string, pairs ...any) *schema.RetrievalResult {
	var cands []*schema.Candidate
	for i := 0; i < len(pairs); i += 2 {
		cands = append(cands, &schema.Candidate{
			Document: schema.Document{ID: pairs[i].(string), Content: pairs[i].(string), KnowledgeID: kbId},
			Score:    pairs[i+1].(float64),
			Origin:   schema.OriginFused,
		})
	}
	return &schema.RetrievalResult{KnowledgeID: kbId, Candidates: cands}
}

func newTestOrchestrator(t *testing.T, embedder Embedder, r Retriever, reranker Reranker) *Orchestrator {
	t.Helper()
	conf := config.DefaultRetrieverConfig()
	conf.Retry.Attempts = 0
	conf.Retry.Interval = time.Millisecond
	o, err := NewOrchestrator(embedder, r, reranker, session.NewStore(10, time.Hour), conf, 4)
	require.NoError(t, err)
	return o
}

func TestAnswerContextMergesAcrossKBs(t *testing.T) {
	ctx := context.Background()

	embedder := &stubEmbedder{vector: []float32{1, 0, 0, 0}}
	r := &stubRetriever{results: map[string]*schema.RetrievalResult{
		"legal":    fusedResult("legal", "d1", 0.9, "d2", 0.5),
		"business": fusedResult("business", "d3", 0.8),
	}}

	o := newTestOrchestrator(t, embedder, r, nil)

	merged, history, sessionId, err := o.AnswerContext(ctx, "合同审批流程", []string{"legal", "business"}, "", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, sessionId)
	assert.Empty(t, history)
	assert.Equal(t, 1, embedder.calls)

	require.Len(t, merged.Candidates, 3)
	// 每库再归一化：legal d1=1.0 d2=0.556，business d3=1.0；同分1.0按库ID升序
	assert.Equal(t, "d3", merged.Candidates[0].ID)
	assert.Equal(t, "business", merged.Candidates[0].KnowledgeID)
	assert.Equal(t, "d1", merged.Candidates[1].ID)
	assert.Equal(t, "legal", merged.Candidates[1].KnowledgeID)
	assert.Equal(t, "d2", merged.Candidates[2].ID)
	assert.False(t, merged.Degraded)
	assert.Empty(t, merged.Omitted)
}

func TestAnswerContextRerankApplied(t *testing.T) {
	ctx := context.Background()

	embedder := &stubEmbedder{vector: []float32{1, 0, 0, 0}}
	r := &stubRetriever{results: map[string]*schema.RetrievalResult{
		"legal": fusedResult("legal", "d1", 0.9, "d2", 0.5),
	}}
	reranker := &stubReranker{}

	o := newTestOrchestrator(t, embedder, r, reranker)

	merged, _, _, err := o.AnswerContext(ctx, "合同", []string{"legal"}, "", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, reranker.calls)
	require.Len(t, merged.Candidates, 2)
	// stub 反转了顺序
	assert.Equal(t, "d2", merged.Candidates[0].ID)
	assert.Equal(t, schema.OriginReranked, merged.Candidates[0].Origin)
	assert.False(t, merged.Degraded)
}

func TestAnswerContextRerankPerKB(t *testing.T) {
	ctx := context.Background()

	embedder := &stubEmbedder{vector: []float32{1, 0, 0, 0}}
	r := &stubRetriever{results: map[string]*schema.RetrievalResult{
		"legal":    fusedResult("legal", "d1", 0.9, "d2", 0.5),
		"business": fusedResult("business", "d3", 0.8),
	}}
	reranker := &stubReranker{}

	o := newTestOrchestrator(t, embedder, r, reranker)

	merged, _, _, err := o.AnswerContext(ctx, "合同", []string{"legal", "business"}, "", 5)
	require.NoError(t, err)

	// 每个知识库单独重排一次，单次调用内不混入其他库的候选
	assert.Equal(t, 2, reranker.calls)
	require.Len(t, reranker.payloads, 2)
	for _, kbs := range reranker.payloads {
		require.NotEmpty(t, kbs)
		for _, kb := range kbs {
			assert.Equal(t, kbs[0], kb)
		}
	}

	// 重排得分每库各自归一化后再跨库合并
	require.Len(t, merged.Candidates, 3)
	for _, c := range merged.Candidates {
		assert.Equal(t, schema.OriginReranked, c.Origin)
		assert.LessOrEqual(t, c.Score, 1.0)
	}
}

func TestAnswerContextRerankFallback(t *testing.T) {
	ctx := context.Background()

	embedder := &stubEmbedder{vector: []float32{1, 0, 0, 0}}
	r := &stubRetriever{results: map[string]*schema.RetrievalResult{
		"legal": fusedResult("legal", "d1", 0.9, "d2", 0.5),
	}}
	reranker := &stubReranker{err: errors.New(errors.ErrRerankFailed, "rerank service down")}

	o := newTestOrchestrator(t, embedder, r, reranker)

	before := testutil.ToFloat64(rerankFallbackTotal.WithLabelValues("legal"))
	merged, _, _, err := o.AnswerContext(ctx, "合同", []string{"legal"}, "", 5)
	require.NoError(t, err)
	// 回退到该库的融合顺序，标记降级并按库计数
	assert.True(t, merged.Degraded)
	require.Len(t, merged.Candidates, 2)
	assert.Equal(t, "d1", merged.Candidates[0].ID)
	assert.Equal(t, schema.OriginFused, merged.Candidates[0].Origin)
	assert.Equal(t, before+1, testutil.ToFloat64(rerankFallbackTotal.WithLabelValues("legal")))
}

func TestAnswerContextOmitsFailedKB(t *testing.T) {
	ctx := context.Background()

	embedder := &stubEmbedder{vector: []float32{1, 0, 0, 0}}
	r := &stubRetriever{
		results: map[string]*schema.RetrievalResult{
			"legal": fusedResult("legal", "d1", 0.9),
		},
		errs: map[string]error{
			"customer": errors.New(errors.ErrRetrievalFailed, "both legs failed"),
		},
	}

	o := newTestOrchestrator(t, embedder, r, nil)

	merged, _, _, err := o.AnswerContext(ctx, "合同", []string{"legal", "customer"}, "", 5)
	require.NoError(t, err)
	assert.True(t, merged.Degraded)
	require.Len(t, merged.Omitted, 1)
	assert.Equal(t, "customer", merged.Omitted[0].KnowledgeID)
	assert.Equal(t, "retrieval_failed", merged.Omitted[0].Reason)
	require.Len(t, merged.Candidates, 1)
	assert.Equal(t, "d1", merged.Candidates[0].ID)
}

func TestAnswerContextAllKBsFail(t *testing.T) {
	ctx := context.Background()

	embedder := &stubEmbedder{vector: []float32{1, 0, 0, 0}}
	r := &stubRetriever{errs: map[string]error{
		"legal":    errors.New(errors.ErrRetrievalFailed, "down"),
		"business": errors.Newf(errors.ErrKBNotFound, "not found"),
	}}

	o := newTestOrchestrator(t, embedder, r, nil)

	_, _, sessionId, err := o.AnswerContext(ctx, "合同", []string{"legal", "business"}, "", 5)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNoResults))

	// 无结果时用户轮仍写入会话
	turns := o.sessions.History(ctx, sessionId)
	require.Len(t, turns, 1)
	assert.Equal(t, schema.User, turns[0].Role)
	assert.Equal(t, "合同", turns[0].Content)
}

func TestAnswerContextAllEmpty(t *testing.T) {
	ctx := context.Background()

	embedder := &stubEmbedder{vector: []float32{1, 0, 0, 0}}
	r := &stubRetriever{results: map[string]*schema.RetrievalResult{
		"legal": {KnowledgeID: "legal", Candidates: nil},
	}}

	o := newTestOrchestrator(t, embedder, r, nil)

	_, _, _, err := o.AnswerContext(ctx, "合同", []string{"legal"}, "", 5)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNoResults))
}

func TestAnswerContextEmbedFailureFallsBackToKeyword(t *testing.T) {
	ctx := context.Background()

	embedder := &stubEmbedder{err: errors.New(errors.ErrEmbeddingFailed, "embedding down")}
	r := &stubRetriever{results: map[string]*schema.RetrievalResult{
		"legal": fusedResult("legal", "d2", 1.0),
	}}

	o := newTestOrchestrator(t, embedder, r, nil)

	merged, _, _, err := o.AnswerContext(ctx, "合同", []string{"legal"}, "", 5)
	require.NoError(t, err)
	assert.True(t, merged.Degraded)
	// 检索请求不带向量
	assert.Nil(t, r.gotVecs["legal"])
}

func TestAnswerContextSessionRoundTrip(t *testing.T) {
	ctx := context.Background()

	embedder := &stubEmbedder{vector: []float32{1, 0, 0, 0}}
	r := &stubRetriever{results: map[string]*schema.RetrievalResult{
		"legal": fusedResult("legal", "d1", 0.9),
	}}

	o := newTestOrchestrator(t, embedder, r, nil)

	_, history, sessionId, err := o.AnswerContext(ctx, "第一个问题", []string{"legal"}, "", 5)
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, o.RecordAnswer(ctx, sessionId, "第一个回答"))

	_, history, sameId, err := o.AnswerContext(ctx, "第二个问题", []string{"legal"}, sessionId, 5)
	require.NoError(t, err)
	assert.Equal(t, sessionId, sameId)
	require.Len(t, history, 2)
	assert.Equal(t, schema.User, history[0].Role)
	assert.Equal(t, "第一个问题", history[0].Content)
	assert.Equal(t, schema.Assistant, history[1].Role)

	o.ClearSession(ctx, sessionId)
	_, history, _, err = o.AnswerContext(ctx, "第三个问题", []string{"legal"}, sessionId, 5)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAnswerContextKeepsUserTurnWithoutAnswer(t *testing.T) {
	ctx := context.Background()

	embedder := &stubEmbedder{vector: []float32{1, 0, 0, 0}}
	r := &stubRetriever{results: map[string]*schema.RetrievalResult{
		"legal": fusedResult("legal", "d1", 0.9),
	}}

	o := newTestOrchestrator(t, embedder, r, nil)

	// 答案生成失败（RecordAnswer 未被调用）时用户轮不丢失
	_, _, sessionId, err := o.AnswerContext(ctx, "第一个问题", []string{"legal"}, "", 5)
	require.NoError(t, err)

	turns := o.sessions.History(ctx, sessionId)
	require.Len(t, turns, 1)
	assert.Equal(t, schema.User, turns[0].Role)
	assert.Equal(t, "第一个问题", turns[0].Content)

	// 下一轮的历史快照包含之前未获回答的提问
	_, history, _, err := o.AnswerContext(ctx, "第二个问题", []string{"legal"}, sessionId, 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "第一个问题", history[0].Content)
}

func TestAnswerContextValidation(t *testing.T) {
	ctx := context.Background()
	r := &stubRetriever{}
	o := newTestOrchestrator(t, nil, r, nil)

	_, _, _, err := o.AnswerContext(ctx, "", []string{"legal"}, "", 5)
	assert.Error(t, err)

	_, _, _, err = o.AnswerContext(ctx, "q", nil, "", 5)
	assert.Error(t, err)
}

func TestAnswerContextRetriesTransientFailure(t *testing.T) {
	ctx := context.Background()

	attempts := 0
	r := &flakyRetriever{failures: 1, onCall: func() { attempts++ }}
	embedder := &stubEmbedder{vector: []float32{1, 0, 0, 0}}

	conf := config.DefaultRetrieverConfig()
	conf.Retry.Attempts = 2
	conf.Retry.Interval = time.Millisecond
	o, err := NewOrchestrator(embedder, r, nil, session.NewStore(10, time.Hour), conf, 4)
	require.NoError(t, err)

	merged, _, _, err := o.AnswerContext(ctx, "合同", []string{"legal"}, "", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	require.Len(t, merged.Candidates, 1)
}

type flakyRetriever struct {
	failures int
	onCall   func()
}

func (f *flakyRetriever) Retrieve(ctx context.Context, req *retriever.RetrieveReq) (*schema.RetrievalResult, error) {
	f.onCall()
	if f.failures > 0 {
		f.failures--
		return nil, errors.New(errors.ErrRetrievalFailed, "transient failure")
	}
	return fusedResult(req.KnowledgeId, "d1", 0.9), nil
}
