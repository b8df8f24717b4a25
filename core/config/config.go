package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogf/gf/v2/frame/g"
)

// ValidateConfiguration validates all required configuration items
func ValidateConfiguration(ctx context.Context) error {
	var missingConfigs []string
	var warnings []string

	// 验证 Milvus 配置
	milvusAddress := g.Cfg().MustGet(ctx, "milvus.address", "").String()
	if milvusAddress == "" {
		missingConfigs = append(missingConfigs, "milvus.address")
	}

	// 验证 Elasticsearch 配置
	esAddresses := g.Cfg().MustGet(ctx, "elasticsearch.addresses", "").Strings()
	if len(esAddresses) == 0 {
		warnings = append(warnings, "elasticsearch.addresses is not set, keyword retrieval will use the in-memory index")
	}

	// 验证 Embedding 配置
	embeddingAPIKey := g.Cfg().MustGet(ctx, "embedding.apiKey", "").String()
	embeddingBaseURL := g.Cfg().MustGet(ctx, "embedding.baseURL", "").String()
	embeddingModel := g.Cfg().MustGet(ctx, "embedding.model", "").String()

	if embeddingAPIKey == "" {
		missingConfigs = append(missingConfigs, "embedding.apiKey")
	}
	if embeddingBaseURL == "" {
		missingConfigs = append(missingConfigs, "embedding.baseURL")
	}
	if embeddingModel == "" {
		missingConfigs = append(missingConfigs, "embedding.model")
	}

	// 验证 Rerank 配置
	rerankBaseURL := g.Cfg().MustGet(ctx, "rerank.baseURL", "").String()
	if rerankBaseURL == "" {
		warnings = append(warnings, "rerank.baseURL is not set, results will keep the fused order")
	}

	// 验证 Chat 配置
	chatAPIKey := g.Cfg().MustGet(ctx, "chat.apiKey", "").String()
	chatBaseURL := g.Cfg().MustGet(ctx, "chat.baseURL", "").String()
	chatModel := g.Cfg().MustGet(ctx, "chat.model", "").String()

	if chatAPIKey == "" {
		warnings = append(warnings, "chat.apiKey is not set")
	}
	if chatBaseURL == "" {
		warnings = append(warnings, "chat.baseURL is not set")
	}
	if chatModel == "" {
		warnings = append(warnings, "chat.model is not set")
	}

	// 验证数据库配置
	dbLink := g.Cfg().MustGet(ctx, "database.default.link", "").String()
	if dbLink == "" {
		missingConfigs = append(missingConfigs, "database.default.link")
	}

	// 输出警告信息
	if len(warnings) > 0 {
		g.Log().Warningf(ctx, "Configuration warnings:\n- %s", strings.Join(warnings, "\n- "))
	}

	// 检查是否有缺失的必需配置
	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configuration items:\n- %s\n\nPlease check your config.yaml file and ensure all required settings are properly configured", strings.Join(missingConfigs, "\n- "))
	}

	// 输出成功信息
	g.Log().Info(ctx, "✓ All required configuration items are present")

	return nil
}

// ModelConfig 外部模型服务配置（embedding/rerank/chat 共用形态）
type ModelConfig struct {
	APIKey  string // API密钥
	BaseURL string // API基础URL
	Model   string // 模型名称
}

// Config 全局运行配置
type Config struct {
	Embedding ModelConfig
	Rerank    ModelConfig
	Chat      ModelConfig
	// Milvus retriever 配置
	MetricType string // 向量相似度度量类型，如 "COSINE", "L2", "IP" 等，默认 "COSINE"
}

// Config 实现 embedding config 接口
func (c *Config) GetAPIKey() string         { return c.Embedding.APIKey }
func (c *Config) GetBaseURL() string        { return c.Embedding.BaseURL }
func (c *Config) GetEmbeddingModel() string { return c.Embedding.Model }

// Config 实现 rerank config 接口
func (c *Config) GetRerankAPIKey() string  { return c.Rerank.APIKey }
func (c *Config) GetRerankBaseURL() string { return c.Rerank.BaseURL }
func (c *Config) GetRerankModel() string   { return c.Rerank.Model }

// LoadConfig 从 g.Cfg() 读取全局配置
func LoadConfig(ctx context.Context) *Config {
	return &Config{
		Embedding: ModelConfig{
			APIKey:  g.Cfg().MustGet(ctx, "embedding.apiKey", "").String(),
			BaseURL: g.Cfg().MustGet(ctx, "embedding.baseURL", "").String(),
			Model:   g.Cfg().MustGet(ctx, "embedding.model", "").String(),
		},
		Rerank: ModelConfig{
			APIKey:  g.Cfg().MustGet(ctx, "rerank.apiKey", "").String(),
			BaseURL: g.Cfg().MustGet(ctx, "rerank.baseURL", "").String(),
			Model:   g.Cfg().MustGet(ctx, "rerank.model", "rerank-v1").String(),
		},
		Chat: ModelConfig{
			APIKey:  g.Cfg().MustGet(ctx, "chat.apiKey", "").String(),
			BaseURL: g.Cfg().MustGet(ctx, "chat.baseURL", "").String(),
			Model:   g.Cfg().MustGet(ctx, "chat.model", "").String(),
		},
		MetricType: g.Cfg().MustGet(ctx, "milvus.metricType", "COSINE").String(),
	}
}
