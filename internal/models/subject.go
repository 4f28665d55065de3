package models

import (
	"time"

	"github.com/lib/pq"
)

// SubjectType classifies how a subject is placed on the grid.
type SubjectType string

const (
	SubjectTypeTheory       SubjectType = "theory"
	SubjectTypeLab          SubjectType = "lab"
	SubjectTypeElective     SubjectType = "elective"
	SubjectTypeOpenElective SubjectType = "open-elective"
)

// TagWeekdayOnly keeps a subject off Saturday.
const TagWeekdayOnly = "weekday-only"

// OpenElectiveLabel is the placeholder written for open elective hours.
const OpenElectiveLabel = "Open Elective"

// Subject is a course offered to a department year. Grid cells store the Name, not the ID.
type Subject struct {
	ID              string         `db:"id" json:"id" yaml:"id"`
	DepartmentID    string         `db:"department_id" json:"department_id" yaml:"departmentId"`
	Year            string         `db:"year" json:"year" yaml:"year"`
	Name            string         `db:"name" json:"name" yaml:"name"`
	Code            string         `db:"code" json:"code,omitempty" yaml:"code"`
	Abbreviation    string         `db:"abbreviation" json:"abbreviation,omitempty" yaml:"abbreviation"`
	StaffLabel      string         `db:"staff_label" json:"staff_label,omitempty" yaml:"staffLabel"`
	HoursPerWeek    int            `db:"hours_per_week" json:"hours_per_week" yaml:"hoursPerWeek"`
	Type            SubjectType    `db:"type" json:"type" yaml:"type"`
	Tags            pq.StringArray `db:"tags" json:"tags,omitempty" yaml:"tags"`
	MaxFacultyCount int            `db:"max_faculty_count" json:"max_faculty_count,omitempty" yaml:"maxFacultyCount"`
	Credits         int            `db:"credits" json:"credits,omitempty" yaml:"credits"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at" yaml:"-"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at" yaml:"-"`
}

// IsLab reports whether the subject is placed as a contiguous lab block.
func (s Subject) IsLab() bool {
	return s.Type == SubjectTypeLab
}

// HasTag reports whether the subject carries the tag.
func (s Subject) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// WeekdayOnly reports whether the subject must not be scheduled on Saturday.
func (s Subject) WeekdayOnly() bool {
	return s.HasTag(TagWeekdayOnly)
}
