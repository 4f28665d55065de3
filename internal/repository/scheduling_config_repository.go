package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// SchedulingConfigRepository reads special hours, lab preferences and open elective quotas.
type SchedulingConfigRepository struct {
	db *sqlx.DB
}

// NewSchedulingConfigRepository constructs the repository.
func NewSchedulingConfigRepository(db *sqlx.DB) *SchedulingConfigRepository {
	return &SchedulingConfigRepository{db: db}
}

// ListActive returns active special hours configs of the year that apply to the section.
// Year-wide configs have a NULL section.
func (r *SchedulingConfigRepository) ListActive(ctx context.Context, departmentID, year, section string) ([]models.SpecialHoursConfig, error) {
	const query = `SELECT id, department_id, year, section, type, total_hours, saturday_hours, saturday_periods, weekdays_hours, weekdays_periods, is_active
FROM special_hours_configs
WHERE department_id = $1 AND year = $2 AND (section = $3 OR section IS NULL) AND is_active = TRUE
ORDER BY type ASC`
	var configs []models.SpecialHoursConfig
	if err := r.db.SelectContext(ctx, &configs, query, departmentID, year, section); err != nil {
		return nil, fmt.Errorf("list special hours configs: %w", err)
	}
	return configs, nil
}

// ListLabPreferences returns lab placement preferences of a department year.
func (r *SchedulingConfigRepository) ListLabPreferences(ctx context.Context, departmentID, year string) ([]models.LabPreference, error) {
	const query = `SELECT id, department_id, year, subject_id, morning_enabled, morning_start, evening_two_hour_start_at5, priority
FROM lab_preferences
WHERE department_id = $1 AND year = $2`
	var prefs []models.LabPreference
	if err := r.db.SelectContext(ctx, &prefs, query, departmentID, year); err != nil {
		return nil, fmt.Errorf("list lab preferences: %w", err)
	}
	return prefs, nil
}

// GetQuota returns the open elective hours of a department year, zero when unset.
func (r *SchedulingConfigRepository) GetQuota(ctx context.Context, departmentID, year string) (int, error) {
	const query = `SELECT hours FROM open_elective_quotas WHERE department_id = $1 AND year = $2`
	var hours int
	if err := r.db.GetContext(ctx, &hours, query, departmentID, year); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get open elective quota: %w", err)
	}
	return hours, nil
}
