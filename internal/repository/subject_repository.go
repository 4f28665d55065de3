package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const subjectColumns = "id, department_id, year, name, code, abbreviation, staff_label, hours_per_week, type, tags, max_faculty_count, credits, created_at, updated_at"

// SubjectRepository reads the subjects offered to a department year.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListByDepartmentYear returns subjects ordered by name.
func (r *SubjectRepository) ListByDepartmentYear(ctx context.Context, departmentID, year string) ([]models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE department_id = $1 AND year = $2 ORDER BY name ASC", subjectColumns)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, departmentID, year); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID fetches a subject by ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE id = $1", subjectColumns)
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}
