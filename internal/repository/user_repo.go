package repository

import (
	"context"

	"clientdesk/internal/model"

	"go.uber.org/zap"
)

type PgUserRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewUserRepository(db DBTX, logger *zap.Logger) *PgUserRepository {
	return &PgUserRepository{db: db, logger: logger}
}

// Create inserts a new user; ErrConflict when the email is taken.
func (r *PgUserRepository) Create(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (name, email, password_hash, role)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, query, u.Name, u.Email, u.PasswordHash, string(u.Role)).
		Scan(&id, &u.CreatedAt)
	if err != nil {
		return translate(err)
	}
	u.ID = model.ID(id)
	r.logger.Info("User created", zap.Int64("user_id", id), zap.String("role", string(u.Role)))
	return nil
}

// FindByEmail returns user by email.
func (r *PgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
        SELECT id, name, email, password_hash, role, created_at
        FROM users
        WHERE email = $1
    `
	var (
		u    model.User
		id   int64
		role string
	)
	err := conn(ctx, r.db).QueryRow(ctx, query, email).Scan(
		&id, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	u.ID = model.ID(id)
	u.Role = model.Role(role)
	return &u, nil
}

// ListDevelopers returns developers with their assigned project counts.
func (r *PgUserRepository) ListDevelopers(ctx context.Context) ([]model.Developer, error) {
	query := `
        SELECT u.id, u.name, u.email, u.role, u.created_at,
               (SELECT COUNT(*) FROM project_assignments pa WHERE pa.developer_id = u.id)
        FROM users u
        WHERE u.role = 'developer'
        ORDER BY u.name
    `
	rows, err := conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	devs := []model.Developer{}
	for rows.Next() {
		var (
			d        model.Developer
			id       int64
			role     string
			assigned int64
		)
		if err := rows.Scan(&id, &d.Name, &d.Email, &role, &d.CreatedAt, &assigned); err != nil {
			return nil, err
		}
		d.ID = model.ID(id)
		d.Role = model.Role(role)
		d.AssignedProjects = int(assigned)
		devs = append(devs, d)
	}
	return devs, translate(rows.Err())
}
