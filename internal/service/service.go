package service

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/knowbase-ai/knowbase/core/common"
	"github.com/knowbase-ai/knowbase/core/config"
	"github.com/knowbase-ai/knowbase/core/keyword_store"
	"github.com/knowbase-ai/knowbase/core/orchestrator"
	"github.com/knowbase-ai/knowbase/core/rerank"
	"github.com/knowbase-ai/knowbase/core/retriever"
	"github.com/knowbase-ai/knowbase/core/session"
	"github.com/knowbase-ai/knowbase/core/vector_store"
)

var (
	sharedConfig  *config.Config
	retrieverConf *config.RetrieverConfig
	sessionStore  *session.Store
	orch          *orchestrator.Orchestrator
	embedder      *common.CustomEmbedder
	embeddingDim  int
)

// InitSharedServices 初始化共享服务：配置、embedding、混合检索器、会话存储和编排器
func InitSharedServices(ctx context.Context) error {
	sharedConfig = config.LoadConfig(ctx)
	retrieverConf = config.LoadRetrieverConfig(ctx)
	embeddingDim = g.Cfg().MustGet(ctx, "milvus.dim", 1024).Int()

	var err error
	embedder, err = common.NewEmbedding(ctx, sharedConfig)
	if err != nil {
		return err
	}

	vs, err := vector_store.GetVectorStore()
	if err != nil {
		return err
	}
	ks, err := keyword_store.GetKeywordStore()
	if err != nil {
		g.Log().Warningf(ctx, "keyword store unavailable, retrieval runs vector-only: %v", err)
		ks = nil
	}

	hybrid, err := retriever.NewHybridRetriever(vs, ks, retrieverConf)
	if err != nil {
		return err
	}

	// rerank 未配置时直接使用融合顺序
	var reranker orchestrator.Reranker
	if sharedConfig.Rerank.BaseURL != "" {
		client, err := rerank.NewClient(ctx, sharedConfig)
		if err != nil {
			g.Log().Warningf(ctx, "rerank client init failed, keeping fused order: %v", err)
		} else {
			reranker = client
		}
	}

	sessionStore = session.NewStore(retrieverConf.SessionWindow, retrieverConf.SessionIdleTimeout)

	orch, err = orchestrator.NewOrchestrator(embedder, hybrid, reranker, sessionStore, retrieverConf, embeddingDim)
	if err != nil {
		return err
	}

	g.Log().Infof(ctx, "Shared services initialized, embedding dim: %d, rerank enabled: %v",
		embeddingDim, reranker != nil)
	return nil
}

// GetSharedConfig 获取共享配置
func GetSharedConfig() *config.Config {
	return sharedConfig
}

// GetRetrieverConfig 获取检索配置
func GetRetrieverConfig() *config.RetrieverConfig {
	return retrieverConf
}

// GetOrchestrator 获取编排器单例
func GetOrchestrator() *orchestrator.Orchestrator {
	return orch
}

// GetSessionStore 获取会话存储单例
func GetSessionStore() *session.Store {
	return sessionStore
}

// GetEmbedder 获取embedding客户端单例
func GetEmbedder() *common.CustomEmbedder {
	return embedder
}

// GetEmbeddingDim 获取向量维度
func GetEmbeddingDim() int {
	return embeddingDim
}
