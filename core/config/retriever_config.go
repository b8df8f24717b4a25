package config

import (
	"context"
	"time"

	"github.com/gogf/gf/v2/frame/g"
)

// Timeouts 各阶段超时配置
type Timeouts struct {
	Embed   time.Duration // 单次embedding调用超时
	Search  time.Duration // 单个知识库单路检索超时
	Rerank  time.Duration // rerank调用超时
	Overall time.Duration // 一次问答的整体截止时间
}

// RetryPolicy 可重试失败的重试策略
type RetryPolicy struct {
	Attempts int           // 首次失败后的额外尝试次数
	Interval time.Duration // 两次尝试之间的间隔
}

// RetrieverConfig 混合检索与会话配置
type RetrieverConfig struct {
	// FusionWeight 向量得分权重 w，关键词权重为 1-w，取值 [0,1]
	FusionWeight float64
	// TopK 最终返回的候选数量
	TopK int
	// CandidateK 每路检索的取数，默认 TopK*3 且不小于 15
	CandidateK int
	// MinScore 融合得分过滤阈值，0 表示不过滤
	MinScore float64
	// SessionWindow 会话保留的最近轮次条数，user/assistant 各算一条
	SessionWindow int
	// SessionIdleTimeout 会话空闲淘汰时间
	SessionIdleTimeout time.Duration

	Timeouts Timeouts
	Retry    RetryPolicy
}

// Normalize 填充零值字段为默认值并约束非法值
func (c *RetrieverConfig) Normalize() {
	if c.FusionWeight < 0 {
		c.FusionWeight = 0
	}
	if c.FusionWeight > 1 {
		c.FusionWeight = 1
	}
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.CandidateK <= 0 {
		c.CandidateK = c.TopK * 3
		if c.CandidateK < 15 {
			c.CandidateK = 15
		}
	}
	if c.SessionWindow <= 0 {
		c.SessionWindow = 10
	}
	if c.SessionIdleTimeout <= 0 {
		c.SessionIdleTimeout = 30 * time.Minute
	}
	if c.Timeouts.Embed <= 0 {
		c.Timeouts.Embed = 10 * time.Second
	}
	if c.Timeouts.Search <= 0 {
		c.Timeouts.Search = 10 * time.Second
	}
	if c.Timeouts.Rerank <= 0 {
		c.Timeouts.Rerank = 15 * time.Second
	}
	if c.Timeouts.Overall <= 0 {
		c.Timeouts.Overall = 30 * time.Second
	}
	if c.Retry.Attempts < 0 {
		c.Retry.Attempts = 0
	}
	if c.Retry.Interval <= 0 {
		c.Retry.Interval = 500 * time.Millisecond
	}
}

// DefaultRetrieverConfig 返回全部取默认值的配置
func DefaultRetrieverConfig() *RetrieverConfig {
	c := &RetrieverConfig{FusionWeight: 0.5}
	c.Normalize()
	return c
}

// LoadRetrieverConfig 从 g.Cfg() 读取检索配置，缺省项取默认值
func LoadRetrieverConfig(ctx context.Context) *RetrieverConfig {
	c := &RetrieverConfig{
		FusionWeight:       g.Cfg().MustGet(ctx, "retriever.fusionWeight", 0.5).Float64(),
		TopK:               g.Cfg().MustGet(ctx, "retriever.topK", 5).Int(),
		CandidateK:         g.Cfg().MustGet(ctx, "retriever.candidateK", 0).Int(),
		MinScore:           g.Cfg().MustGet(ctx, "retriever.minScore", 0.0).Float64(),
		SessionWindow:      g.Cfg().MustGet(ctx, "session.window", 10).Int(),
		SessionIdleTimeout: g.Cfg().MustGet(ctx, "session.idleTimeout", "30m").Duration(),
		Timeouts: Timeouts{
			Embed:   g.Cfg().MustGet(ctx, "retriever.timeouts.embed", "10s").Duration(),
			Search:  g.Cfg().MustGet(ctx, "retriever.timeouts.search", "10s").Duration(),
			Rerank:  g.Cfg().MustGet(ctx, "retriever.timeouts.rerank", "15s").Duration(),
			Overall: g.Cfg().MustGet(ctx, "retriever.timeouts.overall", "30s").Duration(),
		},
		Retry: RetryPolicy{
			Attempts: g.Cfg().MustGet(ctx, "retriever.retry.attempts", 2).Int(),
			Interval: g.Cfg().MustGet(ctx, "retriever.retry.interval", "500ms").Duration(),
		},
	}
	c.Normalize()
	return c
}
