package vector_store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
	"github.com/knowbase-ai/knowbase/core/common"
	"github.com/knowbase-ai/knowbase/core/errors"
	"github.com/knowbase-ai/knowbase/pkg/schema"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

// MilvusStore Milvus向量数据库实现
type MilvusStore struct {
	client   *milvusclient.Client
	database string
	dim      int
}

func InitializeMilvusStore(ctx context.Context) (VectorStore, error) {
	address := g.Cfg().MustGet(ctx, "milvus.address", "").String()
	database := g.Cfg().MustGet(ctx, "milvus.database", "default").String()
	dim := g.Cfg().MustGet(ctx, "milvus.dim", 1024).Int()

	if address == "" {
		return nil, fmt.Errorf("milvus.address is required but not found in config file. Please check your config.yaml file and ensure milvus.address is properly set")
	}

	g.Log().Infof(ctx, "Connecting to Milvus at: %s, database: %s", address, database)

	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: address,
		DBName:  database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client (address: %s, database: %s): %w", address, database, err)
	}

	config := &VectorStoreConfig{
		Type:     VectorStoreTypeMilvus,
		Client:   client,
		Database: database,
		Dim:      dim,
	}

	milvusStore, err := NewMilvusStore(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus store: %w", err)
	}

	return milvusStore, nil
}

// NewMilvusStore 创建Milvus向量存储实例
func NewMilvusStore(config *VectorStoreConfig) (VectorStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	client, ok := config.Client.(*milvusclient.Client)
	if !ok {
		return nil, fmt.Errorf("client must be *milvusclient.Client")
	}

	if config.Database == "" {
		return nil, fmt.Errorf("database name cannot be empty")
	}
	if config.Dim <= 0 {
		config.Dim = 1024
	}

	return &MilvusStore{
		client:   client,
		database: config.Database,
		dim:      config.Dim,
	}, nil
}

// CreateDatabaseIfNotExists 创建数据库（如果不存在）
func (m *MilvusStore) CreateDatabaseIfNotExists(ctx context.Context) error {
	dbNames, err := m.client.ListDatabase(ctx, milvusclient.NewListDatabaseOption())
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}

	for _, name := range dbNames {
		if strings.EqualFold(name, m.database) {
			g.Log().Infof(ctx, "Database '%s' already exists, skipping creation", m.database)
			return nil
		}
	}

	err = m.client.CreateDatabase(ctx, milvusclient.NewCreateDatabaseOption(m.database))
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	g.Log().Infof(ctx, "Database '%s' created successfully", m.database)
	return nil
}

// collectionFields 文档片段集合的字段定义
func collectionFields(dim int) []*entity.Field {
	dimStr := fmt.Sprintf("%d", dim)
	return []*entity.Field{
		{
			Name:        common.FieldID,
			DataType:    entity.FieldTypeVarChar,
			TypeParams:  map[string]string{"max_length": "256"},
			PrimaryKey:  true,
			AutoID:      false,
			Description: "Chunk unique ID (primary key)",
		},
		{
			Name:        common.FieldContent,
			DataType:    entity.FieldTypeVarChar,
			TypeParams:  map[string]string{"max_length": "65535"},
			Description: "Document chunk content",
		},
		{
			Name:        common.FieldContentVector,
			DataType:    entity.FieldTypeFloatVector,
			TypeParams:  map[string]string{"dim": dimStr},
			Description: "Document chunk embedding vector",
		},
		{
			Name:        common.FieldMetadata,
			DataType:    entity.FieldTypeJSON,
			Description: "Additional metadata (JSON)",
		},
	}
}

// EnsureCollection 创建集合（如果不存在），并加载到内存
func (m *MilvusStore) EnsureCollection(ctx context.Context, knowledgeId string) error {
	exists, err := m.CollectionExists(ctx, knowledgeId)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	collSchema := &entity.Schema{
		CollectionName: knowledgeId,
		Description:    "存储文档分片及其向量",
		AutoID:         false,
		Fields:         collectionFields(m.dim),
	}

	// 创建文档片段集合，并设置vector为索引
	err = m.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(knowledgeId, collSchema).WithIndexOptions(
		milvusclient.NewCreateIndexOption(knowledgeId, common.FieldContentVector, index.NewHNSWIndex(entity.COSINE, 64, 128))))
	if err != nil {
		return errors.Wrap(errors.ErrVectorStoreInit, "failed to create Milvus collection", err)
	}

	_, err = m.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(knowledgeId))
	if err != nil {
		return errors.Wrap(errors.ErrVectorStoreInit, "failed to load Milvus collection", err)
	}

	g.Log().Infof(ctx, "Collection '%s' created with dimension %d, index built and loaded", knowledgeId, m.dim)
	return nil
}

// CollectionExists 检查集合是否存在
func (m *MilvusStore) CollectionExists(ctx context.Context, knowledgeId string) (bool, error) {
	has, err := m.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(knowledgeId))
	if err != nil {
		return false, fmt.Errorf("failed to check if collection exists: %w", err)
	}
	return has, nil
}

// DeleteCollection 删除集合
func (m *MilvusStore) DeleteCollection(ctx context.Context, knowledgeId string) error {
	err := m.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(knowledgeId))
	if err != nil {
		return errors.Wrap(errors.ErrVectorDelete, "failed to delete collection", err)
	}
	g.Log().Infof(ctx, "Collection '%s' deleted", knowledgeId)
	return nil
}

// InsertVectors 插入文档片段，向量取自 chunk.Embedding
func (m *MilvusStore) InsertVectors(ctx context.Context, knowledgeId string, chunks []*schema.Document) ([]string, error) {
	if len(chunks) == 0 {
		return []string{}, nil
	}

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	metadataList := make([][]byte, len(chunks))

	for idx, chunk := range chunks {
		if len(chunk.Embedding) != m.dim {
			return nil, errors.Newf(errors.ErrVectorInsert, "chunk %d embedding dimension mismatch: got %d, want %d", idx, len(chunk.Embedding), m.dim)
		}
		// 生成chunk ID（如果不存在）
		if len(chunk.ID) == 0 {
			chunk.ID = uuid.New().String()
		}
		ids[idx] = chunk.ID
		texts[idx] = truncateString(chunk.Content, 65535)
		vectors[idx] = chunk.Embedding

		metaBytes, err := marshalMetadata(chunk.MetaData)
		if err != nil {
			return nil, errors.Wrap(errors.ErrVectorInsert, "failed to marshal metadata", err)
		}
		metadataList[idx] = metaBytes
	}

	columns := []column.Column{
		column.NewColumnVarChar(common.FieldID, ids),
		column.NewColumnVarChar(common.FieldContent, texts),
		column.NewColumnFloatVector(common.FieldContentVector, m.dim, vectors),
		column.NewColumnJSONBytes(common.FieldMetadata, metadataList),
	}

	insertOpt := milvusclient.NewColumnBasedInsertOption(knowledgeId, columns...)
	result, err := m.client.Insert(ctx, insertOpt)
	if err != nil {
		return nil, errors.Wrap(errors.ErrVectorInsert, "failed to insert vectors", err)
	}

	g.Log().Infof(ctx, "Successfully inserted %d vectors into collection '%s'", result.InsertCount, knowledgeId)
	return ids, nil
}

// SearchByVector 按查询向量检索候选，按相似度降序返回
func (m *MilvusStore) SearchByVector(ctx context.Context, knowledgeId string, vector []float32, topK int) ([]*schema.Candidate, error) {
	if len(vector) == 0 {
		return nil, errors.New(errors.ErrInvalidParameter, "query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 5
	}

	exists, err := m.CollectionExists(ctx, knowledgeId)
	if err != nil {
		return nil, errors.Wrap(errors.ErrVectorSearch, "failed to check collection", err)
	}
	if !exists {
		return nil, errors.Newf(errors.ErrKBNotFound, "collection '%s' not found", knowledgeId)
	}

	searchOpt := milvusclient.NewSearchOption(knowledgeId, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(common.FieldContentVector).
		WithOutputFields(common.FieldID, common.FieldContent, common.FieldMetadata).
		WithConsistencyLevel(entity.ClBounded)

	results, err := m.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, errors.Wrap(errors.ErrVectorSearch, "search has error", err)
	}

	if len(results) == 0 {
		return []*schema.Candidate{}, nil
	}

	candidates, err := m.convertResults(knowledgeId, results[0].Fields, results[0].Scores)
	if err != nil {
		return nil, err
	}

	// 去重后按相似度降序，同分按ID升序保证确定性
	candidates = common.RemoveDuplicates(candidates, func(c *schema.Candidate) string {
		return c.ID
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})

	return candidates, nil
}

// convertResults 将搜索结果列数据转换为候选
func (m *MilvusStore) convertResults(knowledgeId string, columns []column.Column, scores []float32) ([]*schema.Candidate, error) {
	if len(columns) == 0 {
		return nil, nil
	}

	numDocs := columns[0].Len()
	result := make([]*schema.Candidate, numDocs)
	for i := range result {
		result[i] = &schema.Candidate{
			Document: schema.Document{
				MetaData:    make(map[string]any),
				KnowledgeID: knowledgeId,
			},
			Origin: schema.OriginVector,
		}
	}

	for i := 0; i < numDocs && i < len(scores); i++ {
		result[i].Score = float64(scores[i])
	}

	for _, col := range columns {
		switch col.Name() {
		case common.FieldID:
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil {
					return nil, fmt.Errorf("failed to get id: %w", err)
				}
				if str, ok := val.(string); ok {
					result[i].ID = str
				}
			}
		case common.FieldContent:
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil {
					return nil, fmt.Errorf("failed to get text: %w", err)
				}
				if str, ok := val.(string); ok {
					result[i].Content = str
				}
			}
		case common.FieldMetadata:
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil {
					continue
				}
				if val == nil {
					continue
				}
				switch v := val.(type) {
				case string:
					var metadata map[string]any
					if err := json.Unmarshal([]byte(v), &metadata); err == nil {
						for k, mv := range metadata {
							result[i].MetaData[k] = mv
						}
					}
				case []byte:
					var metadata map[string]any
					if err := json.Unmarshal(v, &metadata); err == nil {
						for k, mv := range metadata {
							result[i].MetaData[k] = mv
						}
					}
				}
			}
		default:
			// 其他字段添加到metadata
			for i := 0; i < col.Len(); i++ {
				val, err := col.Get(i)
				if err != nil {
					continue
				}
				result[i].MetaData[col.Name()] = val
			}
		}
	}

	return result, nil
}

// Helper functions

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if len(metadata) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(metadata)
}

// GetMilvusClient returns the underlying Milvus client with specific type
func (m *MilvusStore) GetMilvusClient() *milvusclient.Client {
	return m.client
}
