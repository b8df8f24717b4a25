package keyword_store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/knowbase-ai/knowbase/core/errors"
	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// MemoryStore 纯内存 BM25 关键词索引，用于测试和无 Elasticsearch 的本地环境
type MemoryStore struct {
	mu      sync.RWMutex
	indices map[string][]*schema.Document
	params  BM25Parameters
}

// NewMemoryStore 创建内存关键词索引
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		indices: make(map[string][]*schema.Document),
		params:  DefaultBM25Parameters(),
	}
}

func (m *MemoryStore) EnsureIndex(ctx context.Context, knowledgeId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indices[knowledgeId]; !ok {
		m.indices[knowledgeId] = []*schema.Document{}
	}
	return nil
}

func (m *MemoryStore) IndexExists(ctx context.Context, knowledgeId string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.indices[knowledgeId]
	return ok, nil
}

func (m *MemoryStore) DeleteIndex(ctx context.Context, knowledgeId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.indices, knowledgeId)
	return nil
}

func (m *MemoryStore) InsertDocuments(ctx context.Context, knowledgeId string, docs []*schema.Document) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.indices[knowledgeId]
	if !ok {
		stored = []*schema.Document{}
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		ids[i] = doc.ID
		cp := *doc
		cp.KnowledgeID = knowledgeId
		stored = append(stored, &cp)
	}
	m.indices[knowledgeId] = stored
	return ids, nil
}

func (m *MemoryStore) SearchByText(ctx context.Context, knowledgeId string, query string, topK int) ([]*schema.Candidate, error) {
	if query == "" {
		return nil, errors.New(errors.ErrInvalidParameter, "query cannot be empty")
	}
	if topK <= 0 {
		topK = 5
	}

	m.mu.RLock()
	docs, ok := m.indices[knowledgeId]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.ErrKBNotFound, "index '%s' not found", IndexName(knowledgeId))
	}

	bm25Docs := make([]BM25Document, len(docs))
	for i, doc := range docs {
		bm25Docs[i] = BM25Document{ID: doc.ID, Content: doc.Content}
	}

	scorer := NewBM25Scorer(bm25Docs, m.params)
	scored := scorer.Score(query)

	candidates := make([]*schema.Candidate, 0, len(scored))
	for i, sd := range scored {
		if sd.Score <= 0 {
			continue
		}
		candidates = append(candidates, &schema.Candidate{
			Document: schema.Document{
				ID:          docs[i].ID,
				Content:     docs[i].Content,
				MetaData:    docs[i].MetaData,
				KnowledgeID: knowledgeId,
			},
			Score:  sd.Score,
			Origin: schema.OriginKeyword,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}
