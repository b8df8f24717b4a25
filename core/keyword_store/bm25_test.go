package keyword_store

import (
	"sort"
	"testing"
)

func TestBM25BasicScoring(t *testing.T) {
	docs := []BM25Document{
		{ID: "doc1", Content: "The quick brown fox jumps over the lazy dog"},
		{ID: "doc2", Content: "The lazy dog sleeps all day"},
		{ID: "doc3", Content: "A quick brown fox is very fast"},
		{ID: "doc4", Content: "The fox and the dog are friends"},
	}

	scorer := NewBM25Scorer(docs, DefaultBM25Parameters())

	query := "quick fox"
	results := scorer.Score(query)

	if len(results) != 4 {
		t.Errorf("Expected 4 results, got %d", len(results))
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	// doc1 和 doc3 同时包含 quick 与 fox
	if results[0].ID != "doc1" && results[0].ID != "doc3" {
		t.Errorf("Expected doc1 or doc3 to be ranked highest, got %s", results[0].ID)
	}

	if results[0].Score <= 0 {
		t.Errorf("Expected positive score for matching document")
	}
}

func TestBM25NoMatch(t *testing.T) {
	docs := []BM25Document{
		{ID: "doc1", Content: "The quick brown fox"},
		{ID: "doc2", Content: "The lazy dog sleeps"},
	}

	scorer := NewBM25Scorer(docs, DefaultBM25Parameters())

	query := "elephant zebra"
	results := scorer.Score(query)

	for _, result := range results {
		if result.Score != 0 {
			t.Errorf("Expected score 0 for non-matching query, got %f", result.Score)
		}
	}
}

func TestBM25ChineseTokenization(t *testing.T) {
	tokens := tokenize("合同审批流程 v2")
	// 中文逐字切分，数字字母保持连续段
	expected := []string{"合", "同", "审", "批", "流", "程", "v2"}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, tok := range expected {
		if tokens[i] != tok {
			t.Errorf("token %d: expected %q, got %q", i, tok, tokens[i])
		}
	}
}

func TestBM25ChineseScoring(t *testing.T) {
	docs := []BM25Document{
		{ID: "d1", Content: "合同审批流程说明"},
		{ID: "d2", Content: "员工请假制度"},
	}

	scorer := NewBM25Scorer(docs, DefaultBM25Parameters())
	results := scorer.Score("合同审批")

	var d1, d2 float64
	for _, r := range results {
		if r.ID == "d1" {
			d1 = r.Score
		}
		if r.ID == "d2" {
			d2 = r.Score
		}
	}
	if d1 <= d2 {
		t.Errorf("Expected d1 (%f) to outscore d2 (%f) for 合同审批", d1, d2)
	}
}
