package repository

import (
	"context"
	"time"

	"clientdesk/internal/model"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PgTimelineRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewTimelineRepository(db DBTX, logger *zap.Logger) *PgTimelineRepository {
	return &PgTimelineRepository{db: db, logger: logger}
}

const timelineColumns = `id, project_id, title, description, status, due_date, COALESCE(created_at, NOW())`

func scanTimelineItem(row pgx.Row) (*model.TimelineItem, error) {
	var (
		it            model.TimelineItem
		id, projectID int64
		status        string
		dueDate       *time.Time
	)
	if err := row.Scan(&id, &projectID, &it.Title, &it.Description, &status, &dueDate, &it.CreatedAt); err != nil {
		return nil, err
	}
	it.ID = model.ID(id)
	it.ProjectID = model.ID(projectID)
	it.Status = model.TimelineStatus(status)
	it.Date = dueDate
	return &it, nil
}

// ListByProject returns items by date ascending; undated items come last.
func (r *PgTimelineRepository) ListByProject(ctx context.Context, projectID model.ID) ([]model.TimelineItem, error) {
	query := `
        SELECT ` + timelineColumns + `
        FROM project_timeline
        WHERE project_id = $1
        ORDER BY due_date ASC NULLS LAST, id ASC
    `
	rows, err := conn(ctx, r.db).Query(ctx, query, int64(projectID))
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	items := []model.TimelineItem{}
	for rows.Next() {
		it, err := scanTimelineItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, translate(rows.Err())
}

// Counts returns completed and total item counts for a project.
func (r *PgTimelineRepository) Counts(ctx context.Context, projectID model.ID) (int, int, error) {
	var completed, total int64
	err := conn(ctx, r.db).QueryRow(ctx, `
        SELECT COUNT(*) FILTER (WHERE status = 'completed'), COUNT(*)
        FROM project_timeline
        WHERE project_id = $1
    `, int64(projectID)).Scan(&completed, &total)
	if err != nil {
		return 0, 0, translate(err)
	}
	return int(completed), int(total), nil
}

// Create inserts a pending item.
func (r *PgTimelineRepository) Create(ctx context.Context, item *model.TimelineItem) error {
	if item.Status == "" {
		item.Status = model.TimelinePending
	}
	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, `
        INSERT INTO project_timeline (project_id, title, description, status, due_date)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `, int64(item.ProjectID), item.Title, item.Description, string(item.Status), item.Date,
	).Scan(&id, &item.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert timeline item",
			zap.Int64("project_id", int64(item.ProjectID)),
			zap.Error(err),
		)
		return translate(err)
	}
	item.ID = model.ID(id)
	return nil
}

// UpdateStatus changes one item's status; ErrNotFound when the item is not in the project.
func (r *PgTimelineRepository) UpdateStatus(ctx context.Context, projectID, itemID model.ID, status model.TimelineStatus) (*model.TimelineItem, error) {
	query := `
        UPDATE project_timeline SET status = $1
        WHERE id = $2 AND project_id = $3
        RETURNING ` + timelineColumns
	it, err := scanTimelineItem(conn(ctx, r.db).QueryRow(ctx, query, string(status), int64(itemID), int64(projectID)))
	if err != nil {
		return nil, translate(err)
	}
	return it, nil
}
