package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/timetable-api/internal/models"
)

type facultyDirectory interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Faculty, error)
}

type facultyAssignmentDirectory interface {
	ListForClass(ctx context.Context, departmentID, year, section string) ([]models.FacultySubjectAssignment, error)
}

type classCounselorDirectory interface {
	FindActive(ctx context.Context, departmentID, year, section string) (*models.ClassCounselor, error)
}

type subjectDirectory interface {
	ListByDepartmentYear(ctx context.Context, departmentID, year string) ([]models.Subject, error)
}

type timetableLister interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Timetable, error)
}

type allocationBuilder interface {
	Build(ctx context.Context, departmentID, year, section string) *AllocationMap
}

// counselorReservedSlots is the Saturday civic block (periods 3-7) held for class counselors.
func counselorReservedSlots() []models.Slot {
	slots := make([]models.Slot, 0, models.PeriodsPerDay-2)
	for period := 2; period < models.PeriodsPerDay; period++ {
		slots = append(slots, models.Slot{Day: models.Saturday, Period: period})
	}
	return slots
}

// FacultyAllocation is one faculty member's availability snapshot for a generation run.
type FacultyAllocation struct {
	FacultyID        string
	FacultyName      string
	AssignedSlots    models.SlotSet
	AvailableSlots   models.SlotSet
	ReservedSlots    models.SlotSet
	LabPreference    bool
	SubjectIDs       map[string]struct{}
	IsClassCounselor bool
}

func newFacultyAllocation(faculty models.Faculty) *FacultyAllocation {
	return &FacultyAllocation{
		FacultyID:      faculty.ID,
		FacultyName:    faculty.Name,
		AssignedSlots:  models.NewSlotSet(),
		AvailableSlots: models.UniverseSlotSet(),
		ReservedSlots:  models.NewSlotSet(),
		LabPreference:  faculty.LabPreference,
		SubjectIDs:     make(map[string]struct{}),
	}
}

// Teaches reports whether the faculty member is eligible for the subject.
func (f *FacultyAllocation) Teaches(subjectID string) bool {
	_, ok := f.SubjectIDs[subjectID]
	return ok
}

// assign marks a slot as committed, removing it from availability.
func (f *FacultyAllocation) assign(slot models.Slot) {
	f.AssignedSlots.Add(slot)
	f.AvailableSlots.Remove(slot)
}

func (f *FacultyAllocation) reserve(slot models.Slot) {
	f.ReservedSlots.Add(slot)
	f.AvailableSlots.Remove(slot)
}

// AllocationMap holds every faculty allocation of a department in roster order.
type AllocationMap struct {
	entries     []*FacultyAllocation
	byID        map[string]*FacultyAllocation
	counselorID string
}

// NewAllocationMap returns an empty map.
func NewAllocationMap() *AllocationMap {
	return &AllocationMap{byID: make(map[string]*FacultyAllocation)}
}

// Add registers an allocation, keeping the first entry for duplicate ids.
func (m *AllocationMap) Add(allocation *FacultyAllocation) {
	if allocation == nil || allocation.FacultyID == "" {
		return
	}
	if _, exists := m.byID[allocation.FacultyID]; exists {
		return
	}
	m.entries = append(m.entries, allocation)
	m.byID[allocation.FacultyID] = allocation
	if allocation.IsClassCounselor {
		m.counselorID = allocation.FacultyID
	}
}

// Get looks up a faculty allocation by id.
func (m *AllocationMap) Get(facultyID string) (*FacultyAllocation, bool) {
	allocation, ok := m.byID[facultyID]
	return allocation, ok
}

// List returns allocations in roster order.
func (m *AllocationMap) List() []*FacultyAllocation {
	return m.entries
}

// Len returns the number of faculty members.
func (m *AllocationMap) Len() int {
	return len(m.entries)
}

// Counselor returns the class counselor of the class being generated, if any.
func (m *AllocationMap) Counselor() *FacultyAllocation {
	if m.counselorID == "" {
		return nil
	}
	return m.byID[m.counselorID]
}

// FindByName matches a faculty member by display name, ignoring case and spacing.
func (m *AllocationMap) FindByName(name string) *FacultyAllocation {
	target := normalizeName(name)
	if target == "" {
		return nil
	}
	for _, entry := range m.entries {
		if normalizeName(entry.FacultyName) == target {
			return entry
		}
	}
	return nil
}

// EligibleFor lists faculty members allowed to teach the subject, in roster order.
func (m *AllocationMap) EligibleFor(subjectID string) []*FacultyAllocation {
	var eligible []*FacultyAllocation
	for _, entry := range m.entries {
		if entry.Teaches(subjectID) {
			eligible = append(eligible, entry)
		}
	}
	return eligible
}

// FacultyAllocationBuilder assembles the allocation map from the directory and every stored
// timetable of the department.
type FacultyAllocationBuilder struct {
	faculty     facultyDirectory
	assignments facultyAssignmentDirectory
	counselors  classCounselorDirectory
	subjects    subjectDirectory
	timetables  timetableLister
	logger      *zap.Logger
}

// NewFacultyAllocationBuilder wires builder dependencies. Any nil collaborator yields empty data.
func NewFacultyAllocationBuilder(
	faculty facultyDirectory,
	assignments facultyAssignmentDirectory,
	counselors classCounselorDirectory,
	subjects subjectDirectory,
	timetables timetableLister,
	logger *zap.Logger,
) *FacultyAllocationBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyAllocationBuilder{
		faculty:     faculty,
		assignments: assignments,
		counselors:  counselors,
		subjects:    subjects,
		timetables:  timetables,
		logger:      logger,
	}
}

// Build never fails: collaborator errors are logged and degrade to empty data.
func (b *FacultyAllocationBuilder) Build(ctx context.Context, departmentID, year, section string) *AllocationMap {
	var (
		roster      []models.Faculty
		assignments []models.FacultySubjectAssignment
		counselor   *models.ClassCounselor
		timetables  []models.Timetable
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		roster = b.loadRoster(gctx, departmentID)
		return nil
	})
	g.Go(func() error {
		assignments = b.loadAssignments(gctx, departmentID, year, section)
		return nil
	})
	g.Go(func() error {
		counselor = b.loadCounselor(gctx, departmentID, year, section)
		return nil
	})
	g.Go(func() error {
		timetables = b.loadTimetables(gctx, departmentID)
		return nil
	})
	_ = g.Wait()

	committed := b.committedSlots(ctx, departmentID, year, section, roster, timetables)
	eligibility := eligibilityByFaculty(assignments)

	result := NewAllocationMap()
	for _, member := range roster {
		allocation := newFacultyAllocation(member)
		for subjectID := range eligibility[member.ID] {
			allocation.SubjectIDs[subjectID] = struct{}{}
		}
		for slot := range committed[member.ID] {
			allocation.assign(slot)
		}
		if counselor != nil && counselor.FacultyID == member.ID {
			allocation.IsClassCounselor = true
			for _, slot := range counselorReservedSlots() {
				allocation.reserve(slot)
			}
		}
		result.Add(allocation)
	}

	b.logger.Debug("faculty allocation map built",
		zap.String("department_id", departmentID),
		zap.String("year", year),
		zap.String("section", section),
		zap.Int("faculty", result.Len()),
		zap.Int("timetables_scanned", len(timetables)),
	)
	return result
}

// committedSlots resolves the owner of every occupied cell in the department's other
// timetables. Cells that cannot be attributed are skipped.
func (b *FacultyAllocationBuilder) committedSlots(
	ctx context.Context,
	departmentID, year, section string,
	roster []models.Faculty,
	timetables []models.Timetable,
) map[string]models.SlotSet {
	committed := make(map[string]models.SlotSet)
	if len(timetables) == 0 {
		return committed
	}

	byName := make(map[string]string, len(roster))
	for _, member := range roster {
		key := normalizeName(member.Name)
		if _, exists := byName[key]; !exists {
			byName[key] = member.ID
		}
	}

	subjectsByYear := make(map[string]map[string]string)
	ownersByClass := make(map[string]map[string]string)

	for _, timetable := range timetables {
		if timetable.SameClass(year, section) {
			continue
		}
		subjectIDs, ok := subjectsByYear[timetable.Year]
		if !ok {
			subjectIDs = b.subjectIDsByName(ctx, departmentID, timetable.Year)
			subjectsByYear[timetable.Year] = subjectIDs
		}
		classKey := timetable.Year + "/" + timetable.Section
		owners, ok := ownersByClass[classKey]
		if !ok {
			owners = subjectOwners(b.loadAssignments(ctx, departmentID, timetable.Year, timetable.Section))
			ownersByClass[classKey] = owners
		}

		grid := timetable.Grid
		for _, slot := range models.AllSlots() {
			label, occupied := grid.Label(slot)
			if !occupied {
				continue
			}
			facultyID := resolveCellOwner(label, byName, subjectIDs, owners)
			if facultyID == "" {
				continue
			}
			if committed[facultyID] == nil {
				committed[facultyID] = models.NewSlotSet()
			}
			committed[facultyID].Add(slot)
		}
	}
	return committed
}

func resolveCellOwner(label string, facultyByName, subjectIDs, owners map[string]string) string {
	cell := ParseCell(label)
	if cell.Kind == CellSpecialWithAttribution {
		if id, ok := facultyByName[normalizeName(cell.FacultyName)]; ok {
			return id
		}
	}
	subjectID, ok := subjectIDs[normalizeName(cell.Label)]
	if !ok {
		return ""
	}
	return owners[subjectID]
}

func (b *FacultyAllocationBuilder) subjectIDsByName(ctx context.Context, departmentID, year string) map[string]string {
	result := make(map[string]string)
	if b.subjects == nil {
		return result
	}
	subjects, err := b.subjects.ListByDepartmentYear(ctx, departmentID, year)
	if err != nil {
		b.logger.Warn("subject lookup degraded", zap.String("department_id", departmentID), zap.String("year", year), zap.Error(err))
		return result
	}
	for _, subject := range subjects {
		key := normalizeName(subject.Name)
		if _, exists := result[key]; !exists {
			result[key] = subject.ID
		}
	}
	return result
}

func (b *FacultyAllocationBuilder) loadRoster(ctx context.Context, departmentID string) []models.Faculty {
	if b.faculty == nil {
		return nil
	}
	roster, err := b.faculty.ListByDepartment(ctx, departmentID)
	if err != nil {
		b.logger.Warn("faculty roster degraded", zap.String("department_id", departmentID), zap.Error(err))
		return nil
	}
	return roster
}

func (b *FacultyAllocationBuilder) loadAssignments(ctx context.Context, departmentID, year, section string) []models.FacultySubjectAssignment {
	if b.assignments == nil {
		return nil
	}
	rows, err := b.assignments.ListForClass(ctx, departmentID, year, section)
	if err != nil {
		b.logger.Warn("faculty assignments degraded",
			zap.String("department_id", departmentID), zap.String("year", year), zap.String("section", section), zap.Error(err))
		return nil
	}
	return rows
}

func (b *FacultyAllocationBuilder) loadCounselor(ctx context.Context, departmentID, year, section string) *models.ClassCounselor {
	if b.counselors == nil {
		return nil
	}
	counselor, err := b.counselors.FindActive(ctx, departmentID, year, section)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			b.logger.Warn("class counselor lookup degraded",
				zap.String("department_id", departmentID), zap.String("year", year), zap.String("section", section), zap.Error(err))
		}
		return nil
	}
	return counselor
}

func (b *FacultyAllocationBuilder) loadTimetables(ctx context.Context, departmentID string) []models.Timetable {
	if b.timetables == nil {
		return nil
	}
	timetables, err := b.timetables.ListByDepartment(ctx, departmentID)
	if err != nil {
		b.logger.Warn("timetable scan degraded", zap.String("department_id", departmentID), zap.Error(err))
		return nil
	}
	return timetables
}

// eligibilityByFaculty uses a faculty member's section rows when present and falls back to
// their year-wide rows otherwise.
func eligibilityByFaculty(rows []models.FacultySubjectAssignment) map[string]map[string]struct{} {
	sectionRows := make(map[string]map[string]struct{})
	yearRows := make(map[string]map[string]struct{})
	for _, row := range rows {
		target := sectionRows
		if row.YearWide() {
			target = yearRows
		}
		if target[row.FacultyID] == nil {
			target[row.FacultyID] = make(map[string]struct{})
		}
		target[row.FacultyID][row.SubjectID] = struct{}{}
	}
	for facultyID, subjects := range yearRows {
		if _, ok := sectionRows[facultyID]; !ok {
			sectionRows[facultyID] = subjects
		}
	}
	return sectionRows
}

// subjectOwners maps each subject to the first faculty member assigned to it, preferring
// section rows over year-wide ones.
func subjectOwners(rows []models.FacultySubjectAssignment) map[string]string {
	owners := make(map[string]string)
	for _, row := range rows {
		if row.YearWide() {
			continue
		}
		if _, ok := owners[row.SubjectID]; !ok {
			owners[row.SubjectID] = row.FacultyID
		}
	}
	for _, row := range rows {
		if _, ok := owners[row.SubjectID]; !ok {
			owners[row.SubjectID] = row.FacultyID
		}
	}
	return owners
}
