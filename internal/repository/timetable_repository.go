package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const timetableColumns = "id, department_id, year, section, grid, special_flags, created_at, updated_at"

// TimetableRepository persists one grid per (department, year, section).
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ListByDepartment returns every stored timetable of the department.
func (r *TimetableRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE department_id = $1 ORDER BY year ASC, section ASC", timetableColumns)
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, departmentID); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return timetables, nil
}

// Find returns the timetable of one class or sql.ErrNoRows.
func (r *TimetableRepository) Find(ctx context.Context, departmentID, year, section string) (*models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE department_id = $1 AND year = $2 AND section = $3", timetableColumns)
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, departmentID, year, section); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// Upsert stores the grid and flags, replacing any previous timetable of the class. The
// stored id and creation time are written back.
func (r *TimetableRepository) Upsert(ctx context.Context, timetable *models.Timetable) error {
	const query = `INSERT INTO timetables (id, department_id, year, section, grid, special_flags, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (department_id, year, section) DO UPDATE SET grid = EXCLUDED.grid, special_flags = EXCLUDED.special_flags, updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query,
		timetable.ID, timetable.DepartmentID, timetable.Year, timetable.Section,
		timetable.Grid, timetable.SpecialFlags, timetable.CreatedAt, timetable.UpdatedAt,
	)
	if err := row.Scan(&timetable.ID, &timetable.CreatedAt); err != nil {
		return fmt.Errorf("upsert timetable: %w", err)
	}
	return nil
}
