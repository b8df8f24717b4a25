package keyword_store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
	"github.com/knowbase-ai/knowbase/core/errors"
	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// ESStore Elasticsearch 关键词索引实现
type ESStore struct {
	client *elasticsearch.Client
}

// indexMapping 知识库索引的 mapping，content 走全文检索
const indexMapping = `{
  "mappings": {
    "properties": {
      "content":      {"type": "text"},
      "knowledge_id": {"type": "keyword"},
      "metadata":     {"type": "object", "enabled": false}
    }
  }
}`

// esDocument 索引中的文档结构
type esDocument struct {
	Content     string         `json:"content"`
	KnowledgeID string         `json:"knowledge_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// esSearchResponse 检索响应中需要的字段
type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string     `json:"_id"`
			Score  float64    `json:"_score"`
			Source esDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func InitializeESStore(ctx context.Context) (KeywordStore, error) {
	addresses := g.Cfg().MustGet(ctx, "elasticsearch.addresses", nil).Strings()
	username := g.Cfg().MustGet(ctx, "elasticsearch.username", "").String()
	password := g.Cfg().MustGet(ctx, "elasticsearch.password", "").String()

	if len(addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch.addresses is required but not found in config file")
	}

	g.Log().Infof(ctx, "Connecting to Elasticsearch at: %s", strings.Join(addresses, ","))

	return NewESStore(&KeywordStoreConfig{
		Type:      KeywordStoreTypeElasticsearch,
		Addresses: addresses,
		Username:  username,
		Password:  password,
	})
}

// NewESStore 创建 Elasticsearch 关键词索引实例
func NewESStore(config *KeywordStoreConfig) (KeywordStore, error) {
	if config == nil || len(config.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch addresses cannot be empty")
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrKeywordIndexInit, "failed to create elasticsearch client", err)
	}

	return &ESStore{client: client}, nil
}

// EnsureIndex 创建索引（如果不存在）
func (s *ESStore) EnsureIndex(ctx context.Context, knowledgeId string) error {
	exists, err := s.IndexExists(ctx, knowledgeId)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	index := IndexName(knowledgeId)
	res, err := s.client.Indices.Create(
		index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return errors.Wrap(errors.ErrKeywordIndexInit, "failed to create index", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.Newf(errors.ErrKeywordIndexInit, "create index %s failed: %s", index, res.String())
	}

	g.Log().Infof(ctx, "Index '%s' created", index)
	return nil
}

// IndexExists 检查索引是否存在
func (s *ESStore) IndexExists(ctx context.Context, knowledgeId string) (bool, error) {
	res, err := s.client.Indices.Exists(
		[]string{IndexName(knowledgeId)},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, errors.Wrap(errors.ErrKeywordSearch, "failed to check index", err)
	}
	defer res.Body.Close()
	return res.StatusCode == 200, nil
}

// DeleteIndex 删除索引
func (s *ESStore) DeleteIndex(ctx context.Context, knowledgeId string) error {
	index := IndexName(knowledgeId)
	res, err := s.client.Indices.Delete(
		[]string{index},
		s.client.Indices.Delete.WithContext(ctx),
		s.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrKeywordIndexInit, "failed to delete index", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.Newf(errors.ErrKeywordIndexInit, "delete index %s failed: %s", index, res.String())
	}
	g.Log().Infof(ctx, "Index '%s' deleted", index)
	return nil
}

// InsertDocuments 批量写入文档
func (s *ESStore) InsertDocuments(ctx context.Context, knowledgeId string, docs []*schema.Document) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}

	index := IndexName(knowledgeId)
	ids := make([]string, len(docs))

	var buf bytes.Buffer
	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		ids[i] = doc.ID

		action, err := sonic.Marshal(map[string]any{
			"index": map[string]any{"_index": index, "_id": doc.ID},
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrKeywordInsert, "failed to marshal bulk action", err)
		}
		source, err := sonic.Marshal(esDocument{
			Content:     doc.Content,
			KnowledgeID: knowledgeId,
			Metadata:    doc.MetaData,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrKeywordInsert, "failed to marshal document", err)
		}
		buf.Write(action)
		buf.WriteByte('\n')
		buf.Write(source)
		buf.WriteByte('\n')
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrKeywordInsert, "bulk insert failed", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Newf(errors.ErrKeywordInsert, "bulk insert into %s failed: %s", index, res.String())
	}

	g.Log().Infof(ctx, "Successfully indexed %d documents into '%s'", len(docs), index)
	return ids, nil
}

// SearchByText 关键词检索，返回按 BM25 得分降序的候选
func (s *ESStore) SearchByText(ctx context.Context, knowledgeId string, query string, topK int) ([]*schema.Candidate, error) {
	if query == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "query cannot be empty")
	}
	if topK <= 0 {
		topK = 5
	}

	exists, err := s.IndexExists(ctx, knowledgeId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Newf(errors.ErrKBNotFound, "index '%s' not found", IndexName(knowledgeId))
	}

	body, err := sonic.Marshal(map[string]any{
		"size": topK,
		"query": map[string]any{
			"match": map[string]any{
				"content": query,
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrKeywordSearch, "failed to marshal query", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(IndexName(knowledgeId)),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrKeywordSearch, "search failed", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Newf(errors.ErrKeywordSearch, "search in %s failed: %s", IndexName(knowledgeId), res.String())
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrKeywordSearch, "failed to read response", err)
	}

	var parsed esSearchResponse
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(errors.ErrKeywordSearch, "failed to decode response", err)
	}

	candidates := make([]*schema.Candidate, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		candidates = append(candidates, &schema.Candidate{
			Document: schema.Document{
				ID:          hit.ID,
				Content:     hit.Source.Content,
				MetaData:    hit.Source.Metadata,
				KnowledgeID: knowledgeId,
			},
			Score:  hit.Score,
			Origin: schema.OriginKeyword,
		})
	}

	// ES 已按得分降序返回，同分按ID升序保证确定性
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})

	return candidates, nil
}
