package models

import "github.com/lib/pq"

// SpecialHoursConfig reserves an administrative block such as a counselling period.
// Periods are 1-based.
type SpecialHoursConfig struct {
	ID              string        `db:"id" json:"id" yaml:"id"`
	DepartmentID    string        `db:"department_id" json:"departmentId" yaml:"departmentId"`
	Year            string        `db:"year" json:"year" yaml:"year"`
	Section         *string       `db:"section" json:"section,omitempty" yaml:"section"`
	Type            string        `db:"type" json:"type" validate:"required" yaml:"type"`
	TotalHours      int           `db:"total_hours" json:"totalHours" validate:"min=0" yaml:"totalHours"`
	SaturdayHours   int           `db:"saturday_hours" json:"saturdayHours" validate:"min=0,max=7" yaml:"saturdayHours"`
	SaturdayPeriods pq.Int64Array `db:"saturday_periods" json:"saturdayPeriods" yaml:"saturdayPeriods"`
	WeekdaysHours   int           `db:"weekdays_hours" json:"weekdaysHours" validate:"min=0,max=35" yaml:"weekdaysHours"`
	WeekdaysPeriods pq.Int64Array `db:"weekdays_periods" json:"weekdaysPeriods" yaml:"weekdaysPeriods"`
	IsActive        bool          `db:"is_active" json:"isActive" yaml:"isActive"`
}

// ValidPeriods converts the 1-based configured periods into zero-based indexes, dropping
// anything outside 1..7 and duplicates.
func ValidPeriods(raw []int64) []int {
	seen := make(map[int]bool, len(raw))
	out := make([]int, 0, len(raw))
	for _, p := range raw {
		if p < 1 || p > PeriodsPerDay {
			continue
		}
		idx := int(p) - 1
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}

// LabPreference tunes where a lab block lands.
type LabPreference struct {
	ID                     string `db:"id" json:"id,omitempty" yaml:"id"`
	DepartmentID           string `db:"department_id" json:"departmentId,omitempty" yaml:"departmentId"`
	Year                   string `db:"year" json:"year,omitempty" yaml:"year"`
	SubjectID              string `db:"subject_id" json:"subjectId" validate:"required" yaml:"subjectId"`
	MorningEnabled         bool   `db:"morning_enabled" json:"morningEnabled" yaml:"morningEnabled"`
	MorningStart           int    `db:"morning_start" json:"morningStart" yaml:"morningStart"`
	EveningTwoHourStartAt5 bool   `db:"evening_two_hour_start_at5" json:"eveningTwoHourStartAt5" yaml:"eveningTwoHourStartAt5"`
	Priority               *int   `db:"priority" json:"priority,omitempty" yaml:"priority"`
}

// OpenElectiveQuota is the number of placeholder open elective hours for a department year.
type OpenElectiveQuota struct {
	DepartmentID string `db:"department_id" json:"department_id" yaml:"departmentId"`
	Year         string `db:"year" json:"year" yaml:"year"`
	Hours        int    `db:"hours" json:"hours" yaml:"hours"`
}
