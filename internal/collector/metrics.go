package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// enrichTotal 详情页补充结果：ok / empty / failed / cache_hit
var enrichTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "weibo_enrich_total",
	Help: "Topic detail enrichment results by outcome.",
}, []string{"result"})
