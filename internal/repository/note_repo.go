package repository

import (
	"context"

	"clientdesk/internal/model"

	"go.uber.org/zap"
)

type PgNoteRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewNoteRepository(db DBTX, logger *zap.Logger) *PgNoteRepository {
	return &PgNoteRepository{db: db, logger: logger}
}

// ListByProject returns notes newest first.
func (r *PgNoteRepository) ListByProject(ctx context.Context, projectID model.ID) ([]model.Note, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
        SELECT id, project_id, content, timestamp
        FROM project_notes
        WHERE project_id = $1
        ORDER BY timestamp DESC, id DESC
    `, int64(projectID))
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		var (
			n             model.Note
			id, projectID int64
		)
		if err := rows.Scan(&id, &projectID, &n.Content, &n.Timestamp); err != nil {
			return nil, err
		}
		n.ID = model.ID(id)
		n.ProjectID = model.ID(projectID)
		notes = append(notes, n)
	}
	return notes, translate(rows.Err())
}

func (r *PgNoteRepository) Create(ctx context.Context, n *model.Note) error {
	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, `
        INSERT INTO project_notes (project_id, content)
        VALUES ($1, $2)
        RETURNING id, timestamp
    `, int64(n.ProjectID), n.Content).Scan(&id, &n.Timestamp)
	if err != nil {
		r.logger.Error("Failed to insert note",
			zap.Int64("project_id", int64(n.ProjectID)),
			zap.Error(err),
		)
		return translate(err)
	}
	n.ID = model.ID(id)
	return nil
}
