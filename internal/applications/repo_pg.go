package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, app Application) error {
	const query = `
INSERT INTO applications (id, owner_id, program, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	var program sql.NullString
	if app.Program != "" {
		program = sql.NullString{String: app.Program, Valid: true}
	}
	if _, err := r.DB.ExecContext(ctx, query, app.ID, app.OwnerID, program, app.Status, app.CreatedAt, app.UpdatedAt); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Application, error) {
	const query = `
SELECT id, owner_id, program, status, created_at, updated_at
FROM applications
WHERE id = $1`
	app, err := scanApplication(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}
	return app, nil
}

func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Application, error) {
	const query = `
SELECT id, owner_id, program, status, created_at, updated_at
FROM applications
WHERE owner_id = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var app Application
	var program sql.NullString
	if err := row.Scan(&app.ID, &app.OwnerID, &program, &app.Status, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return Application{}, err
	}
	app.Program = program.String
	return app, nil
}
