package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mqcontracts "clientdesk/contracts/mq"
	"clientdesk/internal/model"
	"clientdesk/internal/repository"
	"clientdesk/pkg/logger"
	"clientdesk/pkg/metrics"
	"clientdesk/pkg/otel"
	"clientdesk/pkg/trace"

	"go.uber.org/zap"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("no sentiment data found for this project")
	ErrProjectNotFound = errors.New("project not found")
)

const (
	defaultMaxTextLength = 500
	DefaultModelTimeout  = 10 * time.Second
)

// Cache 情感记录读缓存
type Cache interface {
	Get(ctx context.Context, projectID model.ID) (*model.ProjectSentiment, bool)
	Set(ctx context.Context, s *model.ProjectSentiment)
	Invalidate(ctx context.Context, projectID model.ID)
}

// Options 流水线参数
type Options struct {
	MaxTextLength   int
	TrendCap        int
	FallbackEnabled bool
	ModelTimeout    time.Duration
}

// AnalyzeInput 一次分析请求
type AnalyzeInput struct {
	ProjectID  model.ID                 `json:"projectId"`
	ClientName string                   `json:"clientName"`
	Messages   []model.SentimentMessage `json:"messages"`
}

// 批量生成结果
const (
	OutcomeGenerated = "generated"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

type ProjectOutcome struct {
	ProjectID               model.ID `json:"projectId"`
	ClientName              string   `json:"clientName"`
	Status                  string   `json:"status"`
	RelationshipHealthScore int      `json:"relationshipHealthScore,omitempty"`
	Error                   string   `json:"error,omitempty"`
}

type BatchResult struct {
	Generated int              `json:"generated"`
	Results   []ProjectOutcome `json:"results"`
}

type Service struct {
	tx       repository.Transactor
	repo     repository.SentimentRepository
	projects repository.ProjectRepository
	events   repository.EventRecorder
	cache    Cache
	model    Classifier
	fallback *KeywordClassifier
	opts     Options
	now      func() time.Time
	logger   *zap.Logger
}

// NewService model 为 nil 时只使用关键词兜底
func NewService(
	tx repository.Transactor,
	repo repository.SentimentRepository,
	projects repository.ProjectRepository,
	events repository.EventRecorder,
	cache Cache,
	classifier Classifier,
	fallback *KeywordClassifier,
	opts Options,
	logger *zap.Logger,
) *Service {
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = defaultMaxTextLength
	}
	if opts.TrendCap <= 0 {
		opts.TrendCap = DefaultTrendCap
	}
	if opts.ModelTimeout <= 0 {
		opts.ModelTimeout = DefaultModelTimeout
	}
	return &Service{
		tx:       tx,
		repo:     repo,
		projects: projects,
		events:   events,
		cache:    cache,
		model:    classifier,
		fallback: fallback,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

// joinMessages 空格拼接后按字符截断
func joinMessages(messages []model.SentimentMessage, limit int) string {
	texts := make([]string, 0, len(messages))
	for _, m := range messages {
		texts = append(texts, m.Text)
	}
	text := strings.Join(texts, " ")
	if r := []rune(text); len(r) > limit {
		text = string(r[:limit])
	}
	return strings.TrimSpace(text)
}

// Analyze 对客户消息打分并覆盖写入该项目的情感记录
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (*model.ProjectSentiment, error) {
	if in.ProjectID <= 0 || strings.TrimSpace(in.ClientName) == "" || len(in.Messages) == 0 {
		return nil, fmt.Errorf("%w: projectId, clientName and messages are required", ErrInvalidInput)
	}
	text := joinMessages(in.Messages, s.opts.MaxTextLength)
	if text == "" {
		return nil, fmt.Errorf("%w: no text to analyze", ErrInvalidInput)
	}

	result, method, err := s.classify(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, in.ProjectID, strings.TrimSpace(in.ClientName), text, result, method)
}

// classify 优先外部模型，失败时按配置兜底或返回错误
func (s *Service) classify(ctx context.Context, text string) (Classification, model.AnalysisMethod, error) {
	log := logger.WithTrace(ctx, s.logger)

	if s.model != nil {
		provider := string(s.model.Method())
		spanCtx, span := otel.StartSpan(ctx, "sentiment.model "+provider)
		callCtx, cancel := context.WithTimeout(spanCtx, s.opts.ModelTimeout)
		start := time.Now()
		result, err := s.model.Classify(callCtx, text)
		cancel()
		if err != nil {
			span.RecordError(err)
		}
		span.End()

		if err == nil {
			metrics.RecordSentimentModelLatency(provider, "ok", time.Since(start))
			return result, s.model.Method(), nil
		}
		metrics.RecordSentimentModelLatency(provider, "error", time.Since(start))

		if !s.opts.FallbackEnabled {
			log.Error("Sentiment model failed and fallback is disabled", zap.String("provider", provider), zap.Error(err))
			if errors.Is(err, ErrModelUnavailable) {
				return Classification{}, "", ErrModelUnavailable
			}
			return Classification{}, "", fmt.Errorf("sentiment model: %w", err)
		}
		log.Warn("Sentiment model failed, using keyword fallback", zap.String("provider", provider), zap.Error(err))
	}

	result, err := s.fallback.Classify(ctx, text)
	return result, model.MethodFallback, err
}

func (s *Service) newRecord(projectID model.ID, clientName, text string, c Classification, method model.AnalysisMethod) *model.ProjectSentiment {
	confidence := ClampConfidence(c.Confidence)
	return &model.ProjectSentiment{
		ProjectID:               projectID,
		ClientName:              clientName,
		SentimentLabel:          c.Label,
		ConfidenceScore:         confidence,
		RelationshipHealthScore: HealthScore(c.Label, confidence),
		Summary:                 Summary(c.Label),
		AnalysisMethod:          method,
		LastAnalyzedMessage:     text,
	}
}

func (s *Service) trendPoint(rec *model.ProjectSentiment) model.TrendPoint {
	return model.TrendPoint{Score: rec.RelationshipHealthScore, Date: s.now().UTC()}
}

// store 追加趋势点并 upsert，同一事务写入 sentiment.analyzed 事件
func (s *Service) store(ctx context.Context, projectID model.ID, clientName, text string, c Classification, method model.AnalysisMethod) (*model.ProjectSentiment, error) {
	rec := s.newRecord(projectID, clientName, text, c, method)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var history []model.TrendPoint
		prior, err := s.repo.Get(ctx, projectID)
		switch {
		case err == nil:
			history = prior.TrendHistory
		case !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("load sentiment: %w", err)
		}
		rec.TrendHistory = AppendTrend(history, s.trendPoint(rec), s.opts.TrendCap)

		if err := s.repo.Upsert(ctx, rec); err != nil {
			if errors.Is(err, repository.ErrReferenceMissing) {
				return ErrProjectNotFound
			}
			return fmt.Errorf("upsert sentiment: %w", err)
		}
		return s.recordAnalyzed(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	s.stored(ctx, rec)
	return rec, nil
}

// storeBaseline 只在项目还没有记录时插入；并发写入的分析结果不会被基线覆盖
func (s *Service) storeBaseline(ctx context.Context, p *model.Project, text string, c Classification) (*model.ProjectSentiment, bool, error) {
	rec := s.newRecord(p.ID, p.ClientName, text, c, model.MethodFallback)
	rec.TrendHistory = AppendTrend(nil, s.trendPoint(rec), s.opts.TrendCap)

	var inserted bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inserted, err = s.repo.InsertIfAbsent(ctx, rec)
		if err != nil {
			if errors.Is(err, repository.ErrReferenceMissing) {
				return ErrProjectNotFound
			}
			return fmt.Errorf("insert sentiment: %w", err)
		}
		if !inserted {
			return nil
		}
		return s.recordAnalyzed(ctx, rec)
	})
	if err != nil || !inserted {
		return nil, false, err
	}
	s.stored(ctx, rec)
	return rec, true, nil
}

func (s *Service) recordAnalyzed(ctx context.Context, rec *model.ProjectSentiment) error {
	return s.events.Record(ctx, mqcontracts.AggregateSentiment, rec.ProjectID, mqcontracts.RoutingSentimentAnalyzed,
		mqcontracts.SentimentAnalyzedPayload{
			ProjectID:               int64(rec.ProjectID),
			SentimentLabel:          string(rec.SentimentLabel),
			ConfidenceScore:         rec.ConfidenceScore,
			RelationshipHealthScore: rec.RelationshipHealthScore,
			AnalysisMethod:          string(rec.AnalysisMethod),
			TraceID:                 trace.FromContext(ctx),
		})
}

func (s *Service) stored(ctx context.Context, rec *model.ProjectSentiment) {
	rec.TrendDirection = Direction(rec.TrendHistory)
	s.cache.Invalidate(ctx, rec.ProjectID)
	metrics.IncrementSentimentAnalysis(string(rec.AnalysisMethod), string(rec.SentimentLabel))

	logger.WithTrace(ctx, s.logger).Info("Sentiment analyzed",
		zap.Int64("project_id", int64(rec.ProjectID)),
		zap.String("label", string(rec.SentimentLabel)),
		zap.String("method", string(rec.AnalysisMethod)),
		zap.Int("health_score", rec.RelationshipHealthScore),
	)
}

// Get 读取项目情感记录，优先走缓存
func (s *Service) Get(ctx context.Context, projectID model.ID) (*model.ProjectSentiment, error) {
	if cached, ok := s.cache.Get(ctx, projectID); ok {
		return cached, nil
	}

	rec, err := s.repo.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.TrendDirection = Direction(rec.TrendHistory)
	s.cache.Set(ctx, rec)
	return rec, nil
}

// baselineMessages 为没有沟通记录的项目合成一组描述性消息
func baselineMessages(p *model.Project) []model.SentimentMessage {
	date := p.CreatedAt.Format(time.RFC3339)
	msgs := []model.SentimentMessage{
		{Text: fmt.Sprintf("Client submitted a %s project inquiry.", p.ProjectType), Date: date},
	}
	if p.Requirements != "" {
		msgs = append(msgs, model.SentimentMessage{Text: "Requirements: " + p.Requirements, Date: date})
	}

	var status string
	switch p.Status {
	case model.StatusCompleted:
		status = "The project was delivered and the client is happy and satisfied with the result."
	case model.StatusInProgress:
		status = "Work is in progress and the client is pleased with the updates so far."
	case model.StatusCancelled:
		status = "The project was cancelled and the client was disappointed."
	default:
		status = "The client is waiting for the project to start."
	}
	return append(msgs, model.SentimentMessage{Text: status, Date: date})
}

// generate 只用关键词兜底为一个项目生成记录；项目已有记录时返回 false
func (s *Service) generate(ctx context.Context, p *model.Project) (*model.ProjectSentiment, bool, error) {
	text := joinMessages(baselineMessages(p), s.opts.MaxTextLength)
	c, err := s.fallback.Classify(ctx, text)
	if err != nil {
		return nil, false, err
	}
	return s.storeBaseline(ctx, p, text, c)
}

// GenerateForProject 项目还没有情感记录时生成基线记录；已存在时返回 false
func (s *Service) GenerateForProject(ctx context.Context, projectID model.ID) (*model.ProjectSentiment, bool, error) {
	if _, err := s.repo.Get(ctx, projectID); err == nil {
		return nil, false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, ErrProjectNotFound
		}
		return nil, false, err
	}

	return s.generate(ctx, p)
}

// GenerateAll 为所有缺少情感记录的项目生成基线记录
func (s *Service) GenerateAll(ctx context.Context) (*BatchResult, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	have, err := s.repo.ProjectIDsWithSentiment(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sentiment rows: %w", err)
	}

	result := &BatchResult{Results: make([]ProjectOutcome, 0, len(projects))}
	for i := range projects {
		p := &projects[i]
		outcome := ProjectOutcome{ProjectID: p.ID, ClientName: p.ClientName}

		if have[p.ID] {
			outcome.Status = OutcomeSkipped
			result.Results = append(result.Results, outcome)
			continue
		}

		rec, created, err := s.generate(ctx, p)
		switch {
		case err != nil:
			logger.WithTrace(ctx, s.logger).Error("Failed to generate sentiment",
				zap.Int64("project_id", int64(p.ID)),
				zap.Error(err),
			)
			outcome.Status = OutcomeFailed
			outcome.Error = err.Error()
		case !created:
			outcome.Status = OutcomeSkipped
		default:
			outcome.Status = OutcomeGenerated
			outcome.RelationshipHealthScore = rec.RelationshipHealthScore
			result.Generated++
		}
		result.Results = append(result.Results, outcome)
	}
	return result, nil
}
