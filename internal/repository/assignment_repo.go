package repository

import (
	"context"

	"clientdesk/internal/model"

	"go.uber.org/zap"
)

type PgAssignmentRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewAssignmentRepository(db DBTX, logger *zap.Logger) *PgAssignmentRepository {
	return &PgAssignmentRepository{db: db, logger: logger}
}

func (r *PgAssignmentRepository) Exists(ctx context.Context, developerID, projectID model.ID) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM project_assignments WHERE developer_id = $1 AND project_id = $2
        )
    `, int64(developerID), int64(projectID)).Scan(&exists)
	if err != nil {
		return false, translate(err)
	}
	return exists, nil
}

// Create inserts the pair; a concurrent duplicate surfaces as ErrConflict,
// an unknown developer or project as ErrReferenceMissing.
func (r *PgAssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, `
        INSERT INTO project_assignments (developer_id, project_id)
        VALUES ($1, $2)
        RETURNING id, assigned_at
    `, int64(a.DeveloperID), int64(a.ProjectID)).Scan(&id, &a.AssignedAt)
	if err != nil {
		r.logger.Warn("Failed to insert assignment",
			zap.Int64("developer_id", int64(a.DeveloperID)),
			zap.Int64("project_id", int64(a.ProjectID)),
			zap.Error(err),
		)
		return translate(err)
	}
	a.ID = model.ID(id)
	return nil
}

func (r *PgAssignmentRepository) Delete(ctx context.Context, id model.ID) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM project_assignments WHERE id = $1`, int64(id))
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
