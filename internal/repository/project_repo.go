package repository

import (
	"context"
	"time"

	"clientdesk/internal/model"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// 进度总是由时间线计数推导，不读 inquiries.progress
const projectSelect = `
        SELECT i.id, i.name, i.email, COALESCE(i.phone, ''), i.project_type,
               COALESCE(i.requirements, ''), COALESCE(i.status, 'Pending'), COALESCE(i.date, NOW()),
               COALESCE(i.company, ''), COALESCE(i.budget, ''), COALESCE(i.timeline, ''),
               COALESCE(i.source, ''), COALESCE(i.target_audience, ''), COALESCE(i.key_features, ''),
               COALESCE(tl.completed, 0), COALESCE(tl.total, 0)
        FROM inquiries i
        LEFT JOIN (
            SELECT project_id,
                   COUNT(*) FILTER (WHERE status = 'completed') AS completed,
                   COUNT(*) AS total
            FROM project_timeline
            GROUP BY project_id
        ) tl ON tl.project_id = i.id
`

type PgProjectRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewProjectRepository(db DBTX, logger *zap.Logger) *PgProjectRepository {
	return &PgProjectRepository{db: db, logger: logger}
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var (
		p                model.Project
		id               int64
		status           string
		createdAt        time.Time
		completed, total int64
	)
	err := row.Scan(
		&id, &p.ClientName, &p.Email, &p.Phone, &p.ProjectType,
		&p.Requirements, &status, &createdAt,
		&p.Company, &p.Budget, &p.TimelineRange,
		&p.Source, &p.TargetAudience, &p.KeyFeatures,
		&completed, &total,
	)
	if err != nil {
		return nil, err
	}
	p.ID = model.ID(id)
	p.Status = model.ProjectStatus(status)
	p.CreatedAt = createdAt
	p.Progress = model.ProgressPercent(int(completed), int(total))
	p.TimelineItems = []model.TimelineItem{}
	p.Notes = []model.Note{}
	return &p, nil
}

func (r *PgProjectRepository) queryProjects(ctx context.Context, query string, args ...any) ([]model.Project, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, translate(rows.Err())
}

// Create inserts a new inquiry with status Pending and progress 0.
func (r *PgProjectRepository) Create(ctx context.Context, p *model.Project) error {
	query := `
        INSERT INTO inquiries (name, email, phone, project_type, requirements,
                               company, budget, timeline, source, target_audience, key_features,
                               status, progress)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5,
                NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''),
                'Pending', 0)
        RETURNING id, date
    `
	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, query,
		p.ClientName, p.Email, p.Phone, p.ProjectType, p.Requirements,
		p.Company, p.Budget, p.TimelineRange, p.Source, p.TargetAudience, p.KeyFeatures,
	).Scan(&id, &p.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert inquiry",
			zap.String("email", p.Email),
			zap.Error(err),
		)
		return translate(err)
	}

	p.ID = model.ID(id)
	p.Status = model.StatusPending
	p.Progress = 0
	if p.TimelineItems == nil {
		p.TimelineItems = []model.TimelineItem{}
	}
	if p.Notes == nil {
		p.Notes = []model.Note{}
	}
	r.logger.Info("Inquiry inserted successfully", zap.Int64("project_id", id))
	return nil
}

// List returns all projects, newest first.
func (r *PgProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	return r.queryProjects(ctx, projectSelect+` ORDER BY i.date DESC, i.id DESC`)
}

func (r *PgProjectRepository) Get(ctx context.Context, id model.ID) (*model.Project, error) {
	p, err := scanProject(conn(ctx, r.db).QueryRow(ctx, projectSelect+` WHERE i.id = $1`, int64(id)))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// Delete removes the project and returns it as it was; children cascade.
func (r *PgProjectRepository) Delete(ctx context.Context, id model.ID) (*model.Project, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM inquiries WHERE id = $1`, int64(id))
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Int64("project_id", int64(id)), zap.Error(err))
		return nil, translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	r.logger.Info("Project deleted", zap.Int64("project_id", int64(id)))
	return p, nil
}

func (r *PgProjectRepository) UpdateStatus(ctx context.Context, id model.ID, status model.ProjectStatus) (*model.Project, error) {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE inquiries SET status = $1 WHERE id = $2`,
		string(status), int64(id),
	)
	if err != nil {
		return nil, translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

// UpdateProgress persists the cached progress column.
func (r *PgProjectRepository) UpdateProgress(ctx context.Context, id model.ID, progress int) error {
	_, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE inquiries SET progress = $1 WHERE id = $2`,
		progress, int64(id),
	)
	return translate(err)
}

// PromoteIfPending moves a Pending project to In Progress; other statuses are untouched.
func (r *PgProjectRepository) PromoteIfPending(ctx context.Context, id model.ID) (bool, error) {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE inquiries SET status = 'In Progress' WHERE id = $1 AND status = 'Pending'`,
		int64(id),
	)
	if err != nil {
		return false, translate(err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByDeveloper returns projects assigned to developerID.
func (r *PgProjectRepository) ListByDeveloper(ctx context.Context, developerID model.ID) ([]model.Project, error) {
	query := projectSelect + `
        JOIN project_assignments pa ON pa.project_id = i.id
        WHERE pa.developer_id = $1
        ORDER BY pa.assigned_at DESC, i.id DESC`
	return r.queryProjects(ctx, query, int64(developerID))
}
