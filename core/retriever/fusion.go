package retriever

import (
	"sort"

	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// NormalizeScores 将一组得分归一化到 [0,1]。
// 下界取 min(0, 最小得分)，使全正分的列表保持相对比例；
// 单元素或所有得分相同时全部归一化为 1.0。
func NormalizeScores(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	if lo > 0 {
		lo = 0
	}

	normalized := make([]float64, len(scores))
	if len(scores) == 1 || hi == lo {
		for i := range normalized {
			normalized[i] = 1.0
		}
		return normalized
	}

	for i, s := range scores {
		normalized[i] = (s - lo) / (hi - lo)
	}
	return normalized
}

// Fuse 融合向量与关键词两路候选。
// 每路先各自归一化，再按 fused = w*vec + (1-w)*kw 计算融合得分，
// 只出现在一路的文档另一路按 0 计。结果按得分降序，同分按ID升序。
func Fuse(vecCands, kwCands []*schema.Candidate, weight float64) []*schema.Candidate {
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}

	vecScores := make([]float64, len(vecCands))
	for i, c := range vecCands {
		vecScores[i] = c.Score
	}
	kwScores := make([]float64, len(kwCands))
	for i, c := range kwCands {
		kwScores[i] = c.Score
	}
	vecNorm := NormalizeScores(vecScores)
	kwNorm := NormalizeScores(kwScores)

	type fusedEntry struct {
		doc      schema.Document
		vecScore float64
		kwScore  float64
	}
	entries := make(map[string]*fusedEntry)
	order := make([]string, 0, len(vecCands)+len(kwCands))

	for i, c := range vecCands {
		e, ok := entries[c.ID]
		if !ok {
			e = &fusedEntry{doc: c.Document}
			entries[c.ID] = e
			order = append(order, c.ID)
		}
		if vecNorm[i] > e.vecScore {
			e.vecScore = vecNorm[i]
		}
	}
	for i, c := range kwCands {
		e, ok := entries[c.ID]
		if !ok {
			e = &fusedEntry{doc: c.Document}
			entries[c.ID] = e
			order = append(order, c.ID)
		}
		if kwNorm[i] > e.kwScore {
			e.kwScore = kwNorm[i]
		}
	}

	fused := make([]*schema.Candidate, 0, len(order))
	for _, id := range order {
		e := entries[id]
		fused = append(fused, &schema.Candidate{
			Document: e.doc,
			Score:    weight*e.vecScore + (1-weight)*e.kwScore,
			Origin:   schema.OriginFused,
		})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ID < fused[j].ID
	})

	return fused
}
