package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Registry = prometheus.NewRegistry()

	QuestionsMapped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certmap_questions_mapped_total",
			Help: "Questions mapped, by aggregate confidence",
		},
		[]string{"confidence"},
	)

	ProvisionsMatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certmap_provisions_matched_total",
			Help: "Provision mappings kept, by the matcher that proposed them",
		},
		[]string{"matcher"},
	)

	QuestionsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "certmap_questions_skipped_total",
			Help: "Questions skipped for carrying neither id nor text",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certmap_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certmap_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "certmap_batch_duration_seconds",
			Help:    "Batch mapping duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	MappingsPersisted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "certmap_mappings_persisted_total",
			Help: "Question to provision associations written to the store",
		},
	)

	AssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certmap_assessments_total",
			Help: "Compliance assessments, by certification recommendation",
		},
		[]string{"recommendation"},
	)

	OverallScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "certmap_overall_score",
			Help:    "Overall compliance scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	LLMEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certmap_llm_evaluations_total",
			Help: "LLM compliance evaluations, by outcome",
		},
		[]string{"provider", "outcome"},
	)

	GapAnalyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certmap_gap_analyses_total",
			Help: "LLM gap analyses, by kind (full, quick) and outcome",
		},
		[]string{"kind", "outcome"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certmap_llm_tokens_used_total",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)
)

var initOnce sync.Once

// Init registers all collectors on Registry; safe to call more than once
func Init() {
	initOnce.Do(func() {
		Registry.MustRegister(QuestionsMapped)
		Registry.MustRegister(ProvisionsMatched)
		Registry.MustRegister(QuestionsSkipped)
		Registry.MustRegister(CacheHits)
		Registry.MustRegister(CacheMisses)
		Registry.MustRegister(BatchDuration)
		Registry.MustRegister(MappingsPersisted)
		Registry.MustRegister(AssessmentsTotal)
		Registry.MustRegister(OverallScore)
		Registry.MustRegister(LLMEvaluations)
		Registry.MustRegister(GapAnalyses)
		Registry.MustRegister(LLMTokensUsed)
	})
}

// WriteTextfile writes the registry to path in the text exposition format
func WriteTextfile(path string) error {
	Init()
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
