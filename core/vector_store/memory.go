package vector_store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/knowbase-ai/knowbase/core/errors"
	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// MemoryStore 纯内存向量存储，用于测试和无 Milvus 的本地环境
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]*schema.Document
}

// NewMemoryStore 创建内存向量存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]*schema.Document),
	}
}

func (m *MemoryStore) EnsureCollection(ctx context.Context, knowledgeId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[knowledgeId]; !ok {
		m.collections[knowledgeId] = []*schema.Document{}
	}
	return nil
}

func (m *MemoryStore) CollectionExists(ctx context.Context, knowledgeId string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[knowledgeId]
	return ok, nil
}

func (m *MemoryStore) DeleteCollection(ctx context.Context, knowledgeId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, knowledgeId)
	return nil
}

func (m *MemoryStore) InsertVectors(ctx context.Context, knowledgeId string, chunks []*schema.Document) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.collections[knowledgeId]
	if !ok {
		docs = []*schema.Document{}
	}

	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return nil, errors.Newf(errors.ErrVectorInsert, "chunk %d has no embedding", i)
		}
		if chunk.ID == "" {
			chunk.ID = uuid.New().String()
		}
		ids[i] = chunk.ID
		cp := *chunk
		cp.KnowledgeID = knowledgeId
		docs = append(docs, &cp)
	}
	m.collections[knowledgeId] = docs
	return ids, nil
}

func (m *MemoryStore) SearchByVector(ctx context.Context, knowledgeId string, vector []float32, topK int) ([]*schema.Candidate, error) {
	if len(vector) == 0 {
		return nil, errors.New(errors.ErrInvalidParameter, "query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 5
	}

	m.mu.RLock()
	docs, ok := m.collections[knowledgeId]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.ErrKBNotFound, "collection '%s' not found", knowledgeId)
	}

	candidates := make([]*schema.Candidate, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Embedding) != len(vector) {
			continue
		}
		candidates = append(candidates, &schema.Candidate{
			Document: schema.Document{
				ID:          doc.ID,
				Content:     doc.Content,
				MetaData:    doc.MetaData,
				KnowledgeID: knowledgeId,
			},
			Score:  cosineSimilarity(vector, doc.Embedding),
			Origin: schema.OriginVector,
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

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
