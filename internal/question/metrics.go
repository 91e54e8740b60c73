package question

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bankHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "certprep",
		Subsystem: "bank",
		Name:      "hits_total",
		Help:      "Questions served from the bank.",
	})
	bankMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "certprep",
		Subsystem: "bank",
		Name:      "misses_total",
		Help:      "Batch slots the bank could not fill.",
	})
	generatedQuestions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "certprep",
		Subsystem: "generator",
		Name:      "questions_total",
		Help:      "Questions produced by the generator.",
	})
	generationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "certprep",
		Subsystem: "generator",
		Name:      "failures_total",
		Help:      "Failed generator calls.",
	})
	storeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certprep",
		Subsystem: "bank",
		Name:      "store_errors_total",
		Help:      "Swallowed question store errors by operation.",
	}, []string{"op"})
	feedbackEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certprep",
		Subsystem: "feedback",
		Name:      "events_total",
		Help:      "Feedback events by answer correctness.",
	}, []string{"correct"})
	droppedTasks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "certprep",
		Subsystem: "bookkeeping",
		Name:      "dropped_tasks_total",
		Help:      "Bookkeeping tasks dropped because the queue was full.",
	})
)
