package retriever

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var legFailureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "knowbase_leg_failure_total",
	Help: "Number of single-leg failures inside hybrid retrieval, by knowledge base and leg kind.",
}, []string{"kb", "kind"})
