package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Timetable is the stored weekly grid of one (department, year, section).
type Timetable struct {
	ID           string         `db:"id" json:"id"`
	DepartmentID string         `db:"department_id" json:"department_id"`
	Year         string         `db:"year" json:"year"`
	Section      string         `db:"section" json:"section"`
	Grid         Grid           `db:"grid" json:"grid"`
	SpecialFlags types.JSONText `db:"special_flags" json:"special_flags"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// SameClass reports whether the timetable belongs to the given year and section.
func (t Timetable) SameClass(year, section string) bool {
	return t.Year == year && t.Section == section
}

// Pagination is kept for the shared response envelope.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
