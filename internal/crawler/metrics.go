package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_fetches_total",
		Help: "The total number of HTTP requests dispatched.",
	})
	fetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_fetch_errors_total",
		Help: "The total number of fetch attempts that resulted in an error.",
	})
	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_recipe_outcomes_total",
		Help: "Recipe upsert outcomes by kind.",
	}, []string{"outcome"})
	extractionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_extraction_failures_total",
		Help: "The total number of detail pages that failed extraction.",
	})
)
