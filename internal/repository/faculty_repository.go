package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// FacultyRepository reads the department faculty roster.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs a FacultyRepository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// ListByDepartment returns the roster in a stable order, which the allocator uses for
// tie-breaking.
func (r *FacultyRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.Faculty, error) {
	const query = `SELECT id, department_id, name, lab_preference, created_at FROM faculty WHERE department_id = $1 ORDER BY created_at ASC, id ASC`
	var roster []models.Faculty
	if err := r.db.SelectContext(ctx, &roster, query, departmentID); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return roster, nil
}
