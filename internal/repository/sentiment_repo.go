package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clientdesk/internal/model"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PgSentimentRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewSentimentRepository(db DBTX, logger *zap.Logger) *PgSentimentRepository {
	return &PgSentimentRepository{db: db, logger: logger}
}

// trend_history 中每个点的存储格式
type storedTrendPoint struct {
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

func encodeTrend(points []model.TrendPoint) ([]byte, error) {
	stored := make([]storedTrendPoint, len(points))
	for i, p := range points {
		stored[i] = storedTrendPoint{Score: p.Score, Timestamp: p.Date}
	}
	return json.Marshal(stored)
}

func decodeTrend(raw []byte) ([]model.TrendPoint, error) {
	points := []model.TrendPoint{}
	if len(raw) == 0 {
		return points, nil
	}
	var stored []storedTrendPoint
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode trend_history: %w", err)
	}
	for _, s := range stored {
		points = append(points, model.TrendPoint{Score: s.Score, Date: s.Timestamp})
	}
	return points, nil
}

func (r *PgSentimentRepository) Get(ctx context.Context, projectID model.ID) (*model.ProjectSentiment, error) {
	query := `
        SELECT project_id, client_name, sentiment_label, confidence_score::float8,
               relationship_health_score, summary, analysis_method, trend_history,
               COALESCE(last_analyzed_message, ''), created_at, updated_at
        FROM project_sentiment
        WHERE project_id = $1
    `
	var (
		s             model.ProjectSentiment
		pid           int64
		label, method string
		health        int32
		trend         []byte
	)
	err := conn(ctx, r.db).QueryRow(ctx, query, int64(projectID)).Scan(
		&pid, &s.ClientName, &label, &s.ConfidenceScore,
		&health, &s.Summary, &method, &trend,
		&s.LastAnalyzedMessage, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}

	s.ProjectID = model.ID(pid)
	s.SentimentLabel = model.SentimentLabel(label)
	s.AnalysisMethod = model.AnalysisMethod(method)
	s.RelationshipHealthScore = int(health)
	if s.TrendHistory, err = decodeTrend(trend); err != nil {
		return nil, err
	}
	return &s, nil
}

const sentimentInsert = `
        INSERT INTO project_sentiment (
            project_id, client_name, sentiment_label, confidence_score,
            relationship_health_score, summary, analysis_method, trend_history,
            last_analyzed_message, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`

func sentimentArgs(s *model.ProjectSentiment) ([]any, error) {
	trend, err := encodeTrend(s.TrendHistory)
	if err != nil {
		return nil, err
	}
	return []any{
		int64(s.ProjectID), s.ClientName, string(s.SentimentLabel), s.ConfidenceScore,
		s.RelationshipHealthScore, s.Summary, string(s.AnalysisMethod), trend,
		s.LastAnalyzedMessage,
	}, nil
}

// Upsert writes the row for s.ProjectID, overwriting every field.
func (r *PgSentimentRepository) Upsert(ctx context.Context, s *model.ProjectSentiment) error {
	args, err := sentimentArgs(s)
	if err != nil {
		return err
	}

	query := sentimentInsert + `
        ON CONFLICT (project_id) DO UPDATE SET
            client_name = EXCLUDED.client_name,
            sentiment_label = EXCLUDED.sentiment_label,
            confidence_score = EXCLUDED.confidence_score,
            relationship_health_score = EXCLUDED.relationship_health_score,
            summary = EXCLUDED.summary,
            analysis_method = EXCLUDED.analysis_method,
            trend_history = EXCLUDED.trend_history,
            last_analyzed_message = EXCLUDED.last_analyzed_message,
            updated_at = NOW()
        RETURNING created_at, updated_at
    `
	err = conn(ctx, r.db).QueryRow(ctx, query, args...).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert project sentiment",
			zap.Int64("project_id", int64(s.ProjectID)),
			zap.Error(err),
		)
		return translate(err)
	}
	return nil
}

// InsertIfAbsent 只在项目还没有记录时插入；已有记录时不改动并返回 false
func (r *PgSentimentRepository) InsertIfAbsent(ctx context.Context, s *model.ProjectSentiment) (bool, error) {
	args, err := sentimentArgs(s)
	if err != nil {
		return false, err
	}

	query := sentimentInsert + `
        ON CONFLICT (project_id) DO NOTHING
        RETURNING created_at, updated_at
    `
	err = conn(ctx, r.db).QueryRow(ctx, query, args...).Scan(&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.logger.Error("Failed to insert project sentiment",
			zap.Int64("project_id", int64(s.ProjectID)),
			zap.Error(err),
		)
		return false, translate(err)
	}
	return true, nil
}

func (r *PgSentimentRepository) ProjectIDsWithSentiment(ctx context.Context) (map[model.ID]bool, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT project_id FROM project_sentiment`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	ids := map[model.ID]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[model.ID(id)] = true
	}
	return ids, translate(rows.Err())
}
