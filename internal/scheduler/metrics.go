package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weibo_pipeline_attempts_total",
		Help: "Pipeline attempts by outcome (success, failed).",
	}, []string{"outcome"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weibo_pipeline_runs_total",
		Help: "Orchestrated runs by final status (success, exhausted).",
	}, []string{"status"})
)
