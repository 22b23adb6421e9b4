package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/certmap/internal/cache"
	"github.com/ppiankov/certmap/internal/corpus"
	"github.com/ppiankov/certmap/internal/index"
	"github.com/ppiankov/certmap/internal/llm"
	"github.com/ppiankov/certmap/internal/logger"
	"github.com/ppiankov/certmap/internal/mapper"
	"github.com/ppiankov/certmap/internal/metrics"
	"github.com/ppiankov/certmap/internal/model"
	"github.com/ppiankov/certmap/internal/rules"
	"github.com/ppiankov/certmap/internal/score"
	"github.com/ppiankov/certmap/internal/storage/sqlite"
	"github.com/ppiankov/certmap/internal/worker"
)

// ErrEvaluatorDisabled is returned by Evaluate when no LLM provider is configured
var ErrEvaluatorDisabled = errors.New("compliance evaluator disabled: configure llm.provider")

// Pipeline orchestrates mapping runs and assessments over one provision corpus
type Pipeline struct {
	config     *model.Config
	index      *index.Index
	mapper     *mapper.Mapper
	results    *cache.ResultCache // nil when caching is disabled
	batch      *worker.BatchMapper
	aggregator *score.Aggregator
	store      *sqlite.Store  // nil when storage.path is empty
	evaluator  *llm.Evaluator // nil when no provider is configured
	gaps       *llm.GapAnalyzer
	renderer   *Renderer
	corpus     model.CorpusMeta
	log        *zap.Logger
}

// Load reads the provision corpus at path and builds a pipeline over it
func Load(cfg *model.Config, provisionsPath string) (*Pipeline, error) {
	provisions, err := corpus.LoadProvisions(provisionsPath)
	if err != nil {
		return nil, err
	}
	return NewPipeline(cfg, provisions, provisionsPath)
}

// NewPipeline indexes provisions once and wires the configured collaborators.
// source names the corpus in reports and may be empty.
func NewPipeline(cfg *model.Config, provisions []model.Provision, source string) (*Pipeline, error) {
	metrics.Init()
	log := logger.Named("pipeline")

	table, err := ruleTable(cfg.Rules)
	if err != nil {
		return nil, err
	}

	idx := index.Build(provisions, table)
	m := mapper.New(idx)

	var results *cache.ResultCache
	if backend := cache.FromConfig(cfg.Cache); backend != nil {
		results = cache.NewResultCache(backend, cfg.Cache.DiskTTL)
	}

	p := &Pipeline{
		config:     cfg,
		index:      idx,
		mapper:     m,
		results:    results,
		batch:      worker.NewBatchMapper(m, results, cfg.Concurrency.Workers),
		aggregator: score.NewAggregator().WithKinds(idx.Kinds()),
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		corpus: model.CorpusMeta{
			Source:      source,
			Provisions:  idx.Len(),
			Fingerprint: idx.Fingerprint(),
		},
		log: log,
	}

	if cfg.Storage.Path != "" {
		store, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		if err := store.InitSchema(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init store: %w", err)
		}
		p.store = store
	}

	evaluator, gaps, err := newEvaluator(cfg)
	switch {
	case errors.Is(err, llm.ErrProviderDisabled):
	case err != nil:
		// Mapping and assessment still work without an evaluator
		log.Warn("LLM evaluator unavailable", zap.Error(err))
	default:
		p.evaluator = evaluator
		p.gaps = gaps
	}

	log.Info("provision corpus indexed",
		zap.String("source", source),
		zap.Int("provisions", idx.Len()),
		zap.String("fingerprint", idx.Fingerprint()))

	return p, nil
}

func ruleTable(cfg model.RulesConfig) (*rules.Table, error) {
	if cfg.Path == "" {
		return rules.DefaultTable(), nil
	}
	override, err := rules.LoadFile(cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Replace {
		return override, nil
	}
	return rules.DefaultTable().Merge(override), nil
}

// newEvaluator builds the evaluator and gap analyzer over one provider and
// limiter so both share the endpoint's rate budget
func newEvaluator(cfg *model.Config) (*llm.Evaluator, *llm.GapAnalyzer, error) {
	llmConfig := llm.ConfigFromModel(cfg.LLM)
	provider, err := llm.NewProvider(llmConfig)
	if err != nil {
		return nil, nil, err
	}
	key, err := worker.EndpointKey(provider.Name(), llmConfig.BaseURL)
	if err != nil {
		return nil, nil, err
	}
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	return llm.NewEvaluator(provider, limiter, key), llm.NewGapAnalyzer(provider, limiter, key), nil
}

// Close releases the store, if any
func (p *Pipeline) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

// Corpus describes the indexed provision corpus
func (p *Pipeline) Corpus() model.CorpusMeta {
	return p.corpus
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Store returns the association store, or nil when persistence is disabled
func (p *Pipeline) Store() *sqlite.Store {
	return p.store
}

// MapQuestion maps a single question without touching the cache or the store
func (p *Pipeline) MapQuestion(q model.Question) model.QuestionMappingResult {
	result := p.mapper.MapQuestion(q)
	recordMapping(result)
	return result
}

// MapBatch maps questions concurrently and persists the associations when a
// store is configured. Unmappable questions are dropped from the report.
func (p *Pipeline) MapBatch(ctx context.Context, questions []model.Question) (*model.MappingReport, error) {
	runID := uuid.NewString()

	results, summary, err := p.batch.MapQuestions(ctx, questions)
	if err != nil {
		return nil, fmt.Errorf("map questions: %w", err)
	}
	for _, r := range results {
		recordMapping(r)
	}

	report := &model.MappingReport{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Corpus:      p.corpus,
		Results:     results,
		Stats:       mapper.Statistics(results),
	}

	if p.store != nil {
		if _, err := p.store.SaveMappings(ctx, runID, p.corpus, results); err != nil {
			return nil, fmt.Errorf("persist mappings: %w", err)
		}
	}

	p.log.Info("batch mapped",
		zap.String("run_id", runID),
		zap.Int("questions", summary.Submitted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("cached", summary.Cached),
		zap.Duration("duration", summary.Duration),
		zap.Float64("success_rate", report.Stats.SuccessRate))

	return report, nil
}

// Assess aggregates judgments into an overall assessment. Judgments without a
// requirement kind take it from the corpus.
func (p *Pipeline) Assess(judgments []model.ComplianceJudgment) *model.AssessmentReport {
	assessment := p.aggregator.Aggregate(judgments)

	metrics.AssessmentsTotal.WithLabelValues(string(assessment.Recommendation)).Inc()
	if assessment.Total > 0 {
		metrics.OverallScore.Observe(float64(assessment.OverallScore))
	}

	p.log.Info("assessment aggregated",
		zap.Int("judgments", assessment.Total),
		zap.Int("overall_score", assessment.OverallScore),
		zap.String("recommendation", string(assessment.Recommendation)))

	if judgments == nil {
		judgments = []model.ComplianceJudgment{}
	}
	return &model.AssessmentReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Judgments:   judgments,
		Assessment:  assessment,
	}
}

// EvaluationRequests maps each answer and pairs it with every provision it was
// mapped to. Answers that cannot be mapped are dropped.
func (p *Pipeline) EvaluationRequests(ctx context.Context, answers []model.Answer, org llm.Organization) ([]llm.EvaluationRequest, error) {
	var mappable []model.Answer
	questions := make([]model.Question, 0, len(answers))
	for _, a := range answers {
		if mapper.Mappable(a.Question) {
			mappable = append(mappable, a)
			questions = append(questions, a.Question)
		}
	}

	results, _, err := p.batch.MapQuestions(ctx, questions)
	if err != nil {
		return nil, fmt.Errorf("map answers: %w", err)
	}

	var reqs []llm.EvaluationRequest
	for i, result := range results {
		a := mappable[i]
		for _, m := range result.Mappings {
			provision, ok := p.index.Provision(m.ProvisionID)
			if !ok {
				continue
			}
			reqs = append(reqs, llm.EvaluationRequest{
				QuestionID:       a.ID,
				Question:         a.Text,
				Answer:           a.Answer,
				EvidenceFiles:    a.EvidenceFiles,
				AnsweredBy:       a.AnsweredBy,
				AnswerConfidence: a.AnswerConfidence,
				Provision:        provision,
				Organization:     org,
			})
		}
	}
	return reqs, nil
}

// Evaluate maps answers to provisions, has the LLM judge each pair and
// aggregates the judgments
func (p *Pipeline) Evaluate(ctx context.Context, answers []model.Answer, org llm.Organization) (*model.AssessmentReport, error) {
	if p.evaluator == nil {
		return nil, ErrEvaluatorDisabled
	}

	reqs, err := p.EvaluationRequests(ctx, answers, org)
	if err != nil {
		return nil, err
	}

	p.log.Info("evaluating answers",
		zap.Int("answers", len(answers)),
		zap.Int("requests", len(reqs)))

	judgments, err := p.evaluator.EvaluateAll(ctx, reqs)
	if err != nil {
		return nil, fmt.Errorf("evaluate answers: %w", err)
	}
	return p.Assess(judgments), nil
}

// Analyze runs a gap analysis over a questionnaire. Questions with an empty
// answer are unanswered; answered questions carry the worst status among their
// judgments, if any.
func (p *Pipeline) Analyze(ctx context.Context, answers []model.Answer, judgments []model.ComplianceJudgment, org llm.Organization) (*model.GapReport, error) {
	if p.gaps == nil {
		return nil, ErrEvaluatorDisabled
	}

	worst := worstStatus(judgments)
	var answered []llm.AnsweredQuestion
	var open []model.Question
	for _, a := range answers {
		if strings.TrimSpace(a.Answer) == "" {
			open = append(open, a.Question)
			continue
		}
		answered = append(answered, llm.AnsweredQuestion{
			ID:       a.ID,
			Question: a.Text,
			Answer:   a.Answer,
			Status:   string(worst[a.ID]),
		})
	}

	unanswered, err := p.openQuestions(ctx, open)
	if err != nil {
		return nil, err
	}

	status := model.NewCompletionStatus(len(answers), len(answered))
	p.log.Info("analyzing gaps",
		zap.Int("answered", len(answered)),
		zap.Int("unanswered", len(unanswered)),
		zap.Int("judgments", len(judgments)))

	analysis := p.gaps.Analyze(ctx, llm.GapRequest{
		Organization: org,
		Provisions:   p.provisions(),
		Answered:     answered,
		Unanswered:   unanswered,
		Status:       status,
	})
	return p.gapReport(status, &analysis, nil), nil
}

// QuickAnalyze produces the short planning view of the gaps
func (p *Pipeline) QuickAnalyze(ctx context.Context, answers []model.Answer, org llm.Organization) (*model.GapReport, error) {
	if p.gaps == nil {
		return nil, ErrEvaluatorDisabled
	}

	answered := 0
	for _, a := range answers {
		if strings.TrimSpace(a.Answer) != "" {
			answered++
		}
	}
	status := model.NewCompletionStatus(len(answers), answered)

	quick := p.gaps.QuickAssess(ctx, org.Company, status, p.provisions())
	return p.gapReport(status, nil, &quick), nil
}

// openQuestions maps unanswered questions so the analysis knows which
// provisions they leave open. Unmappable questions keep an empty list.
func (p *Pipeline) openQuestions(ctx context.Context, questions []model.Question) ([]llm.OpenQuestion, error) {
	results, _, err := p.batch.MapQuestions(ctx, questions)
	if err != nil {
		return nil, fmt.Errorf("map unanswered questions: %w", err)
	}

	related := make(map[string][]string, len(results))
	for _, r := range results {
		ids := make([]string, 0, len(r.Mappings))
		for _, m := range r.Mappings {
			ids = append(ids, m.ProvisionID)
		}
		related[r.QuestionID] = ids
	}

	open := make([]llm.OpenQuestion, 0, len(questions))
	for _, q := range questions {
		open = append(open, llm.OpenQuestion{ID: q.ID, Question: q.Text, Provisions: related[q.ID]})
	}
	return open, nil
}

func (p *Pipeline) provisions() []model.Provision {
	entries := p.index.Entries()
	provisions := make([]model.Provision, 0, len(entries))
	for _, e := range entries {
		provisions = append(provisions, e.Provision)
	}
	return provisions
}

func (p *Pipeline) gapReport(status model.CompletionStatus, analysis *model.GapAnalysis, quick *model.QuickGapAssessment) *model.GapReport {
	return &model.GapReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Corpus:      p.corpus,
		Status:      status,
		Analysis:    analysis,
		Quick:       quick,
	}
}

var statusRank = map[model.ComplianceStatus]int{
	model.StatusCompliant:        1,
	model.StatusPartial:          2,
	model.StatusInsufficientInfo: 3,
	model.StatusNonCompliant:     4,
}

// worstStatus reduces judgments to the worst status per question id
func worstStatus(judgments []model.ComplianceJudgment) map[string]model.ComplianceStatus {
	worst := make(map[string]model.ComplianceStatus)
	for _, j := range judgments {
		if j.QuestionID == "" {
			continue
		}
		if statusRank[j.Status] > statusRank[worst[j.QuestionID]] {
			worst[j.QuestionID] = j.Status
		}
	}
	return worst
}

func recordMapping(result model.QuestionMappingResult) {
	metrics.QuestionsMapped.WithLabelValues(string(result.Confidence)).Inc()
	for _, m := range result.Mappings {
		metrics.ProvisionsMatched.WithLabelValues(m.Matcher).Inc()
	}
}
