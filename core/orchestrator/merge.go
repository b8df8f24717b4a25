package orchestrator

import (
	"sort"

	"github.com/knowbase-ai/knowbase/core/retriever"
	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// mergeResults 合并多个知识库的检索结果。
// 不同重排器的得分不可直接比较，每库先各自归一化到 [0,1] 再跨库合并；
// 排序按得分降序，同分按知识库ID升序、再按文档ID升序。
// 同一文档ID出现在不同知识库时视为不同候选，来源保留在 KnowledgeID。
// 候选的得分阶段标记（fused/reranked）原样保留。
func mergeResults(results []*schema.RetrievalResult) []*schema.Candidate {
	var merged []*schema.Candidate

	for _, result := range results {
		if result == nil || len(result.Candidates) == 0 {
			continue
		}
		scores := make([]float64, len(result.Candidates))
		for i, c := range result.Candidates {
			scores[i] = c.Score
		}
		normalized := retriever.NormalizeScores(scores)
		for i, c := range result.Candidates {
			merged = append(merged, &schema.Candidate{
				Document: schema.Document{
					ID:          c.ID,
					Content:     c.Content,
					MetaData:    c.MetaData,
					KnowledgeID: result.KnowledgeID,
				},
				Score:  normalized[i],
				Origin: c.Origin,
			})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		if merged[i].KnowledgeID != merged[j].KnowledgeID {
			return merged[i].KnowledgeID < merged[j].KnowledgeID
		}
		return merged[i].ID < merged[j].ID
	})

	return merged
}
