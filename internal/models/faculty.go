package models

import "time"

// Faculty is a teaching staff member of a department.
type Faculty struct {
	ID            string    `db:"id" json:"id" yaml:"id"`
	DepartmentID  string    `db:"department_id" json:"department_id" yaml:"departmentId"`
	Name          string    `db:"name" json:"name" yaml:"name"`
	LabPreference bool      `db:"lab_preference" json:"lab_preference" yaml:"labPreference"`
	CreatedAt     time.Time `db:"created_at" json:"created_at" yaml:"-"`
}

// FacultySubjectAssignment records that a faculty member may teach a subject to a class.
// A nil Section applies to every section of the year.
type FacultySubjectAssignment struct {
	ID           string  `db:"id" json:"id" yaml:"id"`
	DepartmentID string  `db:"department_id" json:"department_id" yaml:"departmentId"`
	FacultyID    string  `db:"faculty_id" json:"faculty_id" yaml:"facultyId"`
	SubjectID    string  `db:"subject_id" json:"subject_id" yaml:"subjectId"`
	Year         string  `db:"year" json:"year" yaml:"year"`
	Section      *string `db:"section" json:"section" yaml:"section"`
}

// YearWide reports whether the assignment covers every section of the year.
func (a FacultySubjectAssignment) YearWide() bool {
	return a.Section == nil || *a.Section == ""
}

// ClassCounselor ties a faculty member to one class.
type ClassCounselor struct {
	ID           string    `db:"id" json:"id" yaml:"id"`
	DepartmentID string    `db:"department_id" json:"department_id" yaml:"departmentId"`
	Year         string    `db:"year" json:"year" yaml:"year"`
	Section      string    `db:"section" json:"section" yaml:"section"`
	FacultyID    string    `db:"faculty_id" json:"faculty_id" yaml:"facultyId"`
	Active       bool      `db:"active" json:"active" yaml:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at" yaml:"-"`
}
