package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/certmap/internal/cache"
	"github.com/ppiankov/certmap/internal/logger"
	"github.com/ppiankov/certmap/internal/mapper"
	"github.com/ppiankov/certmap/internal/metrics"
	"github.com/ppiankov/certmap/internal/model"
)

// MapJob maps one question at a fixed position of the input batch
type MapJob struct {
	Position int
	Question model.Question
	Mapper   *mapper.Mapper
	Cache    *cache.ResultCache
}

// Execute maps the question, consulting the cache first when one is set
func (j *MapJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &MapResult{Position: j.Position, QuestionID: j.Question.ID, Error: err}
	}

	fingerprint := j.Mapper.Index().Fingerprint()
	if j.Cache != nil {
		if cached, ok := j.Cache.Get(fingerprint, j.Question); ok {
			metrics.CacheHits.WithLabelValues("mapping").Inc()
			return &MapResult{Position: j.Position, QuestionID: j.Question.ID, Result: cached, Cached: true}
		}
		metrics.CacheMisses.WithLabelValues("mapping").Inc()
	}

	result := j.Mapper.MapQuestion(j.Question)

	if j.Cache != nil {
		if err := j.Cache.Put(fingerprint, j.Question, result); err != nil {
			logger.Warn("cache write failed", zap.String("question", j.Question.ID), zap.Error(err))
		}
	}
	return &MapResult{Position: j.Position, QuestionID: j.Question.ID, Result: result}
}

// MapResult is the outcome of a MapJob
type MapResult struct {
	Position   int
	QuestionID string
	Result     model.QuestionMappingResult
	Cached     bool
	Error      error
}

// GetError returns the error from the map result
func (r *MapResult) GetError() error {
	return r.Error
}

// BatchSummary describes how a batch was processed
type BatchSummary struct {
	Submitted int
	Skipped   int
	Cached    int
	Duration  time.Duration
}

// BatchMapper maps many questions concurrently against one shared mapper
type BatchMapper struct {
	mapper      *mapper.Mapper
	cache       *cache.ResultCache
	concurrency int
}

// NewBatchMapper creates a batch mapper; rc may be nil to disable caching
func NewBatchMapper(m *mapper.Mapper, rc *cache.ResultCache, concurrency int) *BatchMapper {
	return &BatchMapper{
		mapper:      m,
		cache:       rc,
		concurrency: concurrency,
	}
}

// MapQuestions maps questions in parallel and returns results in input order.
// Questions with neither id nor text are skipped, as in mapper.MapQuestions.
func (b *BatchMapper) MapQuestions(ctx context.Context, questions []model.Question) ([]model.QuestionMappingResult, BatchSummary, error) {
	start := time.Now()
	summary := BatchSummary{}

	if len(questions) == 0 {
		return []model.QuestionMappingResult{}, summary, nil
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, q := range questions {
		if !mapper.Mappable(q) {
			summary.Skipped++
			metrics.QuestionsSkipped.Inc()
			continue
		}
		job := &MapJob{
			Position: summary.Submitted,
			Question: q,
			Mapper:   b.mapper,
			Cache:    b.cache,
		}
		if !pool.Submit(job) {
			break
		}
		summary.Submitted++
	}

	raw := pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, summary, fmt.Errorf("batch mapping cancelled: %w", err)
	}

	ordered := make([]model.QuestionMappingResult, summary.Submitted)
	filled := 0
	for _, r := range raw {
		mr := r.(*MapResult)
		if mr.Error != nil {
			return nil, summary, fmt.Errorf("map question %q: %w", mr.QuestionID, mr.Error)
		}
		if mr.Cached {
			summary.Cached++
		}
		ordered[mr.Position] = mr.Result
		filled++
	}
	if filled != summary.Submitted {
		return nil, summary, fmt.Errorf("batch incomplete: %d of %d questions mapped", filled, summary.Submitted)
	}

	summary.Duration = time.Since(start)
	metrics.BatchDuration.Observe(summary.Duration.Seconds())
	logger.Debug("batch mapped",
		zap.Int("submitted", summary.Submitted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("cached", summary.Cached),
		zap.Duration("duration", summary.Duration))

	return ordered, summary, nil
}
