package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// ClassCounselorRepository reads class counselor appointments.
type ClassCounselorRepository struct {
	db *sqlx.DB
}

// NewClassCounselorRepository constructs the repository.
func NewClassCounselorRepository(db *sqlx.DB) *ClassCounselorRepository {
	return &ClassCounselorRepository{db: db}
}

// FindActive returns the active counselor of a class or sql.ErrNoRows.
func (r *ClassCounselorRepository) FindActive(ctx context.Context, departmentID, year, section string) (*models.ClassCounselor, error) {
	const query = `SELECT id, department_id, year, section, faculty_id, active, created_at
FROM class_counselors
WHERE department_id = $1 AND year = $2 AND section = $3 AND active = TRUE
ORDER BY created_at DESC LIMIT 1`
	var counselor models.ClassCounselor
	if err := r.db.GetContext(ctx, &counselor, query, departmentID, year, section); err != nil {
		return nil, err
	}
	return &counselor, nil
}
