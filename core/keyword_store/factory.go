package keyword_store

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gctx"
	"github.com/knowbase-ai/knowbase/core/errors"
)

// NewKeywordStore 根据配置创建关键词索引实例
func NewKeywordStore(config *KeywordStoreConfig) (KeywordStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch config.Type {
	case KeywordStoreTypeElasticsearch:
		return NewESStore(config)
	case KeywordStoreTypeMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported keyword store type: %s", config.Type)
	}
}

var (
	once          sync.Once
	keywordClient KeywordStore
	initError     error
)

// GetKeywordStore returns the singleton keyword index client
func GetKeywordStore() (KeywordStore, error) {
	once.Do(func() {
		ctx := gctx.New()
		keywordClient, initError = initializeKeywordStore(ctx)
	})
	return keywordClient, initError
}

// initializeKeywordStore determines which client to use based on configuration
func initializeKeywordStore(ctx context.Context) (KeywordStore, error) {
	storeType := g.Cfg().MustGet(ctx, "keywordStore.type", "elasticsearch").String()

	g.Log().Infof(ctx, "Initializing keyword store with type: %s", storeType)

	switch storeType {
	case "elasticsearch":
		store, err := InitializeESStore(ctx)
		if err != nil {
			return nil, errors.Newf(errors.ErrKeywordIndexInit, "failed to initialize Elasticsearch keyword store: %v", err)
		}
		g.Log().Info(ctx, "Elasticsearch keyword store initialized successfully")
		return store, nil
	case "memory":
		g.Log().Info(ctx, "In-memory keyword store initialized")
		return NewMemoryStore(), nil
	default:
		return nil, errors.Newf(errors.ErrInvalidParameter, "unsupported keyword store type: %s. Supported types: elasticsearch, memory", storeType)
	}
}
