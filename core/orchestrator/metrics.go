package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rerankFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowbase_rerank_fallback_total",
		Help: "Number of times rerank failed for a knowledge base and its fused order was used instead.",
	}, []string{"kb"})

	kbOmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knowbase_kb_omitted_total",
		Help: "Number of knowledge bases omitted from an answer context.",
	}, []string{"kb", "reason"})

	embedFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knowbase_embed_fallback_total",
		Help: "Number of times query embedding failed and retrieval fell back to keyword only.",
	})

	answerContextSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "knowbase_answer_context_seconds",
		Help:    "Wall time of building a merged answer context.",
		Buckets: prometheus.DefBuckets,
	})
)
