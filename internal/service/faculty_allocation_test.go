package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/fixture"
	"github.com/noah-isme/timetable-api/internal/models"
)

func sharedFacultyDataset() fixture.Dataset {
	return fixture.Dataset{
		Subjects: []models.Subject{
			{ID: "maths", DepartmentID: "d1", Year: "II", Name: "Maths", HoursPerWeek: 4, Type: models.SubjectTypeTheory},
			{ID: "physics", DepartmentID: "d1", Year: "II", Name: "Physics", HoursPerWeek: 3, Type: models.SubjectTypeTheory},
		},
		Faculty: []models.Faculty{
			{ID: "x", DepartmentID: "d1", Name: "Dr. X"},
			{ID: "y", DepartmentID: "d1", Name: "Dr. Y"},
		},
		Assignments: []models.FacultySubjectAssignment{
			{ID: "a1", DepartmentID: "d1", FacultyID: "x", SubjectID: "maths", Year: "II"},
			{ID: "a2", DepartmentID: "d1", FacultyID: "y", SubjectID: "physics", Year: "II", Section: stringPtr("A")},
		},
	}
}

func TestBuildCounselorLosesSaturdayBlock(t *testing.T) {
	store := sampleStore(t)
	alloc := storeBuilder(store).Build(context.Background(), "cse", "III", "A")

	counselor := alloc.Counselor()
	require.NotNil(t, counselor)
	assert.Equal(t, "f4", counselor.FacultyID)
	assert.True(t, counselor.IsClassCounselor)
	for period := 2; period < models.PeriodsPerDay; period++ {
		slot := models.Slot{Day: models.Saturday, Period: period}
		assert.False(t, counselor.AvailableSlots.Has(slot), slot.Key())
		assert.True(t, counselor.ReservedSlots.Has(slot), slot.Key())
	}
	assert.True(t, counselor.AvailableSlots.Has(models.Slot{Day: models.Saturday, Period: 1}))
	assert.Len(t, counselor.AvailableSlots, models.SlotsPerWeek-5)

	other, ok := alloc.Get("f1")
	require.True(t, ok)
	assert.False(t, other.IsClassCounselor)
	assert.Len(t, other.AvailableSlots, models.SlotsPerWeek)
}

func TestBuildSeedsCommitmentsFromOtherSections(t *testing.T) {
	store, err := fixture.New(sharedFacultyDataset())
	require.NoError(t, err)
	ctx := context.Background()

	var gridA models.Grid
	gridA.Set(models.Slot{Day: 0, Period: 0}, "Maths")
	gridA.Set(models.Slot{Day: 0, Period: 1}, "Physics")
	gridA.Set(models.Slot{Day: 1, Period: 0}, "Unknown Subject")
	require.NoError(t, store.Timetables().Upsert(ctx, &models.Timetable{DepartmentID: "d1", Year: "II", Section: "A", Grid: gridA}))

	alloc := storeBuilder(store).Build(ctx, "d1", "II", "B")

	x, ok := alloc.Get("x")
	require.True(t, ok)
	assert.Equal(t, []string{"Mon-p1"}, x.AssignedSlots.Keys())
	assert.False(t, x.AvailableSlots.Has(models.Slot{Day: 0, Period: 0}))

	y, ok := alloc.Get("y")
	require.True(t, ok)
	assert.Equal(t, []string{"Mon-p2"}, y.AssignedSlots.Keys())
	assert.False(t, y.Teaches("physics"), "section A row must not make Dr. Y eligible for section B")

	for _, entry := range alloc.List() {
		assert.Len(t, entry.AvailableSlots, models.SlotsPerWeek-len(entry.AssignedSlots)-len(entry.ReservedSlots))
	}

	res := alloc.Resolve("maths", models.Slot{Day: 0, Period: 0}, false)
	assert.False(t, res.Success)
	assert.Contains(t, res.ConflictReason, "Dr. X: slot conflict at Mon-p1")
}

func TestBuildIgnoresTargetClassTimetable(t *testing.T) {
	store, err := fixture.New(sharedFacultyDataset())
	require.NoError(t, err)
	ctx := context.Background()

	var grid models.Grid
	grid.Set(models.Slot{Day: 2, Period: 3}, "Maths")
	require.NoError(t, store.Timetables().Upsert(ctx, &models.Timetable{DepartmentID: "d1", Year: "II", Section: "B", Grid: grid}))

	alloc := storeBuilder(store).Build(ctx, "d1", "II", "B")
	x, _ := alloc.Get("x")
	assert.Empty(t, x.AssignedSlots)
}

func TestBuildResolvesAttributedSpecialCells(t *testing.T) {
	store, err := fixture.New(sharedFacultyDataset())
	require.NoError(t, err)
	ctx := context.Background()

	var grid models.Grid
	grid.Set(models.Slot{Day: 4, Period: 6}, "Counselling ( dr.  y )")
	require.NoError(t, store.Timetables().Upsert(ctx, &models.Timetable{DepartmentID: "d1", Year: "II", Section: "A", Grid: grid}))

	alloc := storeBuilder(store).Build(ctx, "d1", "II", "B")
	y, _ := alloc.Get("y")
	assert.Equal(t, []string{"Fri-p7"}, y.AssignedSlots.Keys())
}

func TestBuildFallsBackToYearWideRowsPerFaculty(t *testing.T) {
	data := sharedFacultyDataset()
	data.Assignments = append(data.Assignments,
		models.FacultySubjectAssignment{ID: "a3", DepartmentID: "d1", FacultyID: "y", SubjectID: "maths", Year: "II"},
	)
	store, err := fixture.New(data)
	require.NoError(t, err)

	alloc := storeBuilder(store).Build(context.Background(), "d1", "II", "A")
	x, _ := alloc.Get("x")
	y, _ := alloc.Get("y")
	assert.True(t, x.Teaches("maths"), "year-wide rows apply when a faculty has no section rows")
	assert.True(t, y.Teaches("physics"))
	assert.False(t, y.Teaches("maths"), "section rows take precedence over year-wide rows")

	alloc = storeBuilder(store).Build(context.Background(), "d1", "II", "C")
	y, _ = alloc.Get("y")
	assert.True(t, y.Teaches("maths"))
	assert.False(t, y.Teaches("physics"))
}

func TestBuildDegradesOnFetchFailures(t *testing.T) {
	store := sampleStore(t)
	ctx := context.Background()

	store.FailOn(fixture.OpListAssignments, errors.New("directory down"))
	alloc := storeBuilder(store).Build(ctx, "cse", "III", "A")
	assert.Equal(t, 5, alloc.Len())
	assert.Empty(t, alloc.EligibleFor("maths"))
	res := alloc.Resolve("maths", models.Slot{}, false)
	assert.Equal(t, ReasonNoFacultyAssigned, res.ConflictReason)

	store.FailOn(fixture.OpListAssignments, nil)
	store.FailOn(fixture.OpListFaculty, errors.New("roster down"))
	store.FailOn(fixture.OpFindCounselor, errors.New("timeout"))
	store.FailOn(fixture.OpListTimetables, errors.New("timeout"))
	alloc = storeBuilder(store).Build(ctx, "cse", "III", "A")
	assert.Zero(t, alloc.Len())
	assert.Nil(t, alloc.Counselor())
}

func TestBuildWithNilCollaborators(t *testing.T) {
	alloc := NewFacultyAllocationBuilder(nil, nil, nil, nil, nil, zap.NewNop()).Build(context.Background(), "d", "y", "s")
	require.NotNil(t, alloc)
	assert.Zero(t, alloc.Len())
}

func TestAllocationMapFindByName(t *testing.T) {
	alloc := allocationMap(member("x", "Dr. X", false), member("y", "Dr.  Y", false))
	assert.Equal(t, "y", alloc.FindByName("dr. y").FacultyID)
	assert.Nil(t, alloc.FindByName("Dr. Z"))
	assert.Nil(t, alloc.FindByName(" "))
}
