// Package fixture provides a YAML backed, in-memory directory and timetable store. It backs
// the ttgen CLI and service tests.
package fixture

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/timetable-api/internal/models"
)

// Operation names accepted by FailOn.
const (
	OpListFaculty      = "ListFaculty"
	OpListAssignments  = "ListForClass"
	OpFindCounselor    = "FindActive"
	OpListSubjects     = "ListByDepartmentYear"
	OpListTimetables   = "ListTimetables"
	OpFindTimetable    = "Find"
	OpUpsertTimetable  = "Upsert"
	OpListSpecialHours = "ListActive"
	OpListLabPrefs     = "ListLabPreferences"
	OpGetElectiveQuota = "GetQuota"
)

// TimetableRecord is the YAML form of a stored timetable. Empty strings are free cells.
type TimetableRecord struct {
	DepartmentID string          `yaml:"departmentId"`
	Year         string          `yaml:"year"`
	Section      string          `yaml:"section"`
	Grid         [][]string      `yaml:"grid"`
	SpecialFlags map[string]bool `yaml:"specialFlags,omitempty"`
}

// Dataset is the document layout of a fixture file.
type Dataset struct {
	Subjects           []models.Subject                  `yaml:"subjects"`
	Faculty            []models.Faculty                  `yaml:"faculty"`
	Assignments        []models.FacultySubjectAssignment `yaml:"assignments"`
	Counselors         []models.ClassCounselor           `yaml:"counselors"`
	SpecialHours       []models.SpecialHoursConfig       `yaml:"specialHours"`
	LabPreferences     []models.LabPreference            `yaml:"labPreferences"`
	OpenElectiveQuotas []models.OpenElectiveQuota        `yaml:"openElectiveQuotas"`
	Timetables         []TimetableRecord                 `yaml:"timetables"`
}

// Store serves a Dataset through the directory and persistence contracts. It is safe for
// concurrent use.
type Store struct {
	mu         sync.RWMutex
	data       Dataset
	timetables map[string]*models.Timetable
	failures   map[string]error
}

// Load reads a fixture file.
func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document.
func Parse(raw []byte) (*Store, error) {
	var data Dataset
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return New(data)
}

// New builds a store around an in-memory dataset.
func New(data Dataset) (*Store, error) {
	store := &Store{
		data:       data,
		timetables: make(map[string]*models.Timetable),
		failures:   make(map[string]error),
	}
	for _, record := range data.Timetables {
		timetable, err := record.toModel()
		if err != nil {
			return nil, err
		}
		store.timetables[classKey(timetable.DepartmentID, timetable.Year, timetable.Section)] = timetable
	}
	return store, nil
}

// FailOn makes the named operation return err until cleared with a nil error.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Dump renders the current state, including saved timetables, as YAML.
func (s *Store) Dump() ([]byte, error) {
	s.mu.RLock()
	data := s.data
	data.Timetables = make([]TimetableRecord, 0, len(s.timetables))
	for _, timetable := range s.sortedTimetables("") {
		data.Timetables = append(data.Timetables, fromModel(timetable))
	}
	s.mu.RUnlock()

	out, err := yaml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode fixture: %w", err)
	}
	return out, nil
}

// Faculty returns the faculty roster view.
func (s *Store) Faculty() FacultyView {
	return FacultyView{store: s}
}

// Timetables returns the persistence view.
func (s *Store) Timetables() TimetableView {
	return TimetableView{store: s}
}

// ListForClass returns section rows followed by year-wide rows.
func (s *Store) ListForClass(_ context.Context, departmentID, year, section string) ([]models.FacultySubjectAssignment, error) {
	if err := s.failure(OpListAssignments); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sectionRows, yearRows []models.FacultySubjectAssignment
	for _, row := range s.data.Assignments {
		if row.DepartmentID != departmentID || row.Year != year {
			continue
		}
		switch {
		case row.YearWide():
			yearRows = append(yearRows, row)
		case *row.Section == section:
			sectionRows = append(sectionRows, row)
		}
	}
	return append(sectionRows, yearRows...), nil
}

// FindActive returns the active counselor of a class or sql.ErrNoRows.
func (s *Store) FindActive(_ context.Context, departmentID, year, section string) (*models.ClassCounselor, error) {
	if err := s.failure(OpFindCounselor); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, counselor := range s.data.Counselors {
		if counselor.Active && counselor.DepartmentID == departmentID && counselor.Year == year && counselor.Section == section {
			found := counselor
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

// ListByDepartmentYear returns subjects in fixture order.
func (s *Store) ListByDepartmentYear(_ context.Context, departmentID, year string) ([]models.Subject, error) {
	if err := s.failure(OpListSubjects); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var subjects []models.Subject
	for _, subject := range s.data.Subjects {
		if subject.DepartmentID == departmentID && subject.Year == year {
			subjects = append(subjects, subject)
		}
	}
	return subjects, nil
}

// ListActive returns active special hours configs of the class, including year-wide ones.
func (s *Store) ListActive(_ context.Context, departmentID, year, section string) ([]models.SpecialHoursConfig, error) {
	if err := s.failure(OpListSpecialHours); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var configs []models.SpecialHoursConfig
	for _, cfg := range s.data.SpecialHours {
		if !cfg.IsActive || cfg.DepartmentID != departmentID || cfg.Year != year {
			continue
		}
		if cfg.Section != nil && *cfg.Section != "" && *cfg.Section != section {
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// ListLabPreferences returns lab preferences of a department year.
func (s *Store) ListLabPreferences(_ context.Context, departmentID, year string) ([]models.LabPreference, error) {
	if err := s.failure(OpListLabPrefs); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var prefs []models.LabPreference
	for _, pref := range s.data.LabPreferences {
		if pref.DepartmentID == departmentID && pref.Year == year {
			prefs = append(prefs, pref)
		}
	}
	return prefs, nil
}

// GetQuota returns the open elective hours of a department year, zero when unset.
func (s *Store) GetQuota(_ context.Context, departmentID, year string) (int, error) {
	if err := s.failure(OpGetElectiveQuota); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, quota := range s.data.OpenElectiveQuotas {
		if quota.DepartmentID == departmentID && quota.Year == year {
			return quota.Hours, nil
		}
	}
	return 0, nil
}

// FacultyView serves the roster.
type FacultyView struct {
	store *Store
}

// ListByDepartment returns the roster in fixture order.
func (v FacultyView) ListByDepartment(_ context.Context, departmentID string) ([]models.Faculty, error) {
	if err := v.store.failure(OpListFaculty); err != nil {
		return nil, err
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	var roster []models.Faculty
	for _, member := range v.store.data.Faculty {
		if member.DepartmentID == departmentID {
			roster = append(roster, member)
		}
	}
	return roster, nil
}

// TimetableView serves stored timetables.
type TimetableView struct {
	store *Store
}

// ListByDepartment returns copies of every timetable in the department.
func (v TimetableView) ListByDepartment(_ context.Context, departmentID string) ([]models.Timetable, error) {
	if err := v.store.failure(OpListTimetables); err != nil {
		return nil, err
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	sorted := v.store.sortedTimetables(departmentID)
	out := make([]models.Timetable, 0, len(sorted))
	for _, timetable := range sorted {
		out = append(out, *timetable)
	}
	return out, nil
}

// Find returns one timetable or sql.ErrNoRows.
func (v TimetableView) Find(_ context.Context, departmentID, year, section string) (*models.Timetable, error) {
	if err := v.store.failure(OpFindTimetable); err != nil {
		return nil, err
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	timetable, ok := v.store.timetables[classKey(departmentID, year, section)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	found := *timetable
	return &found, nil
}

// Upsert replaces the timetable of the class, keeping the original id and creation time.
func (v TimetableView) Upsert(_ context.Context, timetable *models.Timetable) error {
	if err := v.store.failure(OpUpsertTimetable); err != nil {
		return err
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	key := classKey(timetable.DepartmentID, timetable.Year, timetable.Section)
	if existing, ok := v.store.timetables[key]; ok {
		timetable.ID = existing.ID
		timetable.CreatedAt = existing.CreatedAt
	}
	stored := *timetable
	v.store.timetables[key] = &stored
	return nil
}

func (s *Store) failure(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures[op]
}

// sortedTimetables must be called with the lock held. An empty department returns all.
func (s *Store) sortedTimetables(departmentID string) []*models.Timetable {
	var out []*models.Timetable
	for _, timetable := range s.timetables {
		if departmentID == "" || timetable.DepartmentID == departmentID {
			out = append(out, timetable)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return classKey(out[i].DepartmentID, out[i].Year, out[i].Section) < classKey(out[j].DepartmentID, out[j].Year, out[j].Section)
	})
	return out
}

func classKey(departmentID, year, section string) string {
	return departmentID + "/" + year + "/" + section
}

func (r TimetableRecord) toModel() (*models.Timetable, error) {
	if len(r.Grid) > models.DaysPerWeek {
		return nil, fmt.Errorf("timetable %s: grid has %d days", classKey(r.DepartmentID, r.Year, r.Section), len(r.Grid))
	}
	var grid models.Grid
	for day, row := range r.Grid {
		if len(row) > models.PeriodsPerDay {
			return nil, fmt.Errorf("timetable %s: day %d has %d periods", classKey(r.DepartmentID, r.Year, r.Section), day, len(row))
		}
		for period, label := range row {
			grid.Set(models.Slot{Day: day, Period: period}, label)
		}
	}
	flags := r.SpecialFlags
	if flags == nil {
		flags = map[string]bool{}
	}
	raw, err := json.Marshal(flags)
	if err != nil {
		return nil, fmt.Errorf("encode special flags: %w", err)
	}
	now := time.Now().UTC()
	return &models.Timetable{
		ID:           uuid.NewString(),
		DepartmentID: r.DepartmentID,
		Year:         r.Year,
		Section:      r.Section,
		Grid:         grid,
		SpecialFlags: types.JSONText(raw),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func fromModel(timetable *models.Timetable) TimetableRecord {
	rows := make([][]string, models.DaysPerWeek)
	for day := range rows {
		rows[day] = make([]string, models.PeriodsPerDay)
		for period := range rows[day] {
			rows[day][period], _ = timetable.Grid.Label(models.Slot{Day: day, Period: period})
		}
	}
	var flags map[string]bool
	if len(timetable.SpecialFlags) > 0 {
		_ = timetable.SpecialFlags.Unmarshal(&flags)
	}
	return TimetableRecord{
		DepartmentID: timetable.DepartmentID,
		Year:         timetable.Year,
		Section:      timetable.Section,
		Grid:         rows,
		SpecialFlags: flags,
	}
}
