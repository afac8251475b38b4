// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"

	"codeberg.org/bcmtb/volunteer-tracker/internal/models"
	"github.com/vinovest/sqlx"
)

// CreateCategory inserts a task category. Names are unique.
func (r *Repository) CreateCategory(ctx context.Context, name string) (*models.VolunteerTask, error) {
	task := &models.VolunteerTask{Name: strings.TrimSpace(name)}

	res, err := r.q.ExecContext(ctx, `INSERT INTO volunteer_tasks (name) VALUES (?)`, task.Name)
	if err != nil {
		return nil, wrapError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	task.ID = id
	return task, nil
}

// GetCategory retrieves a task category by ID.
func (r *Repository) GetCategory(ctx context.Context, id int64) (*models.VolunteerTask, error) {
	var task models.VolunteerTask
	if err := sqlx.GetContext(ctx, r.q, &task, `SELECT id, name FROM volunteer_tasks WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &task, nil
}

// ListCategories returns all task categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.VolunteerTask, error) {
	tasks := []models.VolunteerTask{}
	err := sqlx.SelectContext(ctx, r.q, &tasks, `SELECT id, name FROM volunteer_tasks ORDER BY name`)
	return tasks, err
}
