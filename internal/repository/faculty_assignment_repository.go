package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// FacultyAssignmentRepository reads who may teach which subject to which class.
type FacultyAssignmentRepository struct {
	db *sqlx.DB
}

// NewFacultyAssignmentRepository constructs the repository.
func NewFacultyAssignmentRepository(db *sqlx.DB) *FacultyAssignmentRepository {
	return &FacultyAssignmentRepository{db: db}
}

// ListForClass returns the section's rows plus the year-wide rows (NULL section). Section rows
// come first.
func (r *FacultyAssignmentRepository) ListForClass(ctx context.Context, departmentID, year, section string) ([]models.FacultySubjectAssignment, error) {
	const query = `SELECT id, department_id, faculty_id, subject_id, year, section
FROM faculty_subject_assignments
WHERE department_id = $1 AND year = $2 AND (section = $3 OR section IS NULL)
ORDER BY section NULLS LAST, id ASC`
	var rows []models.FacultySubjectAssignment
	if err := r.db.SelectContext(ctx, &rows, query, departmentID, year, section); err != nil {
		return nil, fmt.Errorf("list faculty assignments: %w", err)
	}
	return rows, nil
}
