package fixture

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func loadSample(t *testing.T) *Store {
	t.Helper()
	store, err := Load("testdata/department.yaml")
	require.NoError(t, err)
	return store
}

func TestLoadSampleDirectory(t *testing.T) {
	store := loadSample(t)
	ctx := context.Background()

	subjects, err := store.ListByDepartmentYear(ctx, "cse", "III")
	require.NoError(t, err)
	assert.Len(t, subjects, 8)
	assert.True(t, subjects[0].WeekdayOnly())

	roster, err := store.Faculty().ListByDepartment(ctx, "cse")
	require.NoError(t, err)
	assert.Len(t, roster, 5)

	counselor, err := store.FindActive(ctx, "cse", "III", "A")
	require.NoError(t, err)
	assert.Equal(t, "f4", counselor.FacultyID)
	_, err = store.FindActive(ctx, "cse", "III", "B")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	quota, err := store.GetQuota(ctx, "cse", "III")
	require.NoError(t, err)
	assert.Equal(t, 3, quota)

	configs, err := store.ListActive(ctx, "cse", "III", "A")
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, []int{2, 3}, models.ValidPeriods(configs[0].SaturdayPeriods))
}

func TestListForClassOrdersSectionRowsFirst(t *testing.T) {
	store := loadSample(t)
	rows, err := store.ListForClass(context.Background(), "cse", "III", "A")
	require.NoError(t, err)

	var seenYearWide bool
	for _, row := range rows {
		if row.YearWide() {
			seenYearWide = true
			continue
		}
		assert.False(t, seenYearWide, "section row after year-wide row")
		assert.Equal(t, "A", *row.Section)
	}
	assert.Len(t, rows, 7)
}

func TestTimetableUpsertKeepsIdentity(t *testing.T) {
	store := loadSample(t)
	ctx := context.Background()
	view := store.Timetables()

	var grid models.Grid
	grid.Set(models.Slot{Day: 0, Period: 0}, "Maths")
	first := &models.Timetable{ID: "one", DepartmentID: "cse", Year: "III", Section: "A", Grid: grid}
	require.NoError(t, view.Upsert(ctx, first))

	second := &models.Timetable{ID: "two", DepartmentID: "cse", Year: "III", Section: "A"}
	require.NoError(t, view.Upsert(ctx, second))
	assert.Equal(t, "one", second.ID)

	found, err := view.Find(ctx, "cse", "III", "A")
	require.NoError(t, err)
	assert.True(t, found.Grid.IsFree(models.Slot{Day: 0, Period: 0}))

	_, err = view.Find(ctx, "cse", "III", "Z")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDumpRoundTripsTimetables(t *testing.T) {
	store := loadSample(t)
	ctx := context.Background()

	var grid models.Grid
	grid.Set(models.Slot{Day: 5, Period: 2}, "Counselling (Dr. Dinesh)")
	require.NoError(t, store.Timetables().Upsert(ctx, &models.Timetable{DepartmentID: "cse", Year: "III", Section: "A", Grid: grid}))

	raw, err := store.Dump()
	require.NoError(t, err)

	reloaded, err := Parse(raw)
	require.NoError(t, err)
	timetables, err := reloaded.Timetables().ListByDepartment(ctx, "cse")
	require.NoError(t, err)
	require.Len(t, timetables, 1)
	label, ok := timetables[0].Grid.Label(models.Slot{Day: 5, Period: 2})
	require.True(t, ok)
	assert.Equal(t, "Counselling (Dr. Dinesh)", label)
}

func TestFailOnInjectsErrors(t *testing.T) {
	store := loadSample(t)
	boom := errors.New("boom")
	store.FailOn(OpListFaculty, boom)

	_, err := store.Faculty().ListByDepartment(context.Background(), "cse")
	assert.ErrorIs(t, err, boom)

	store.FailOn(OpListFaculty, nil)
	_, err = store.Faculty().ListByDepartment(context.Background(), "cse")
	assert.NoError(t, err)
}

func TestParseRejectsOversizedGrid(t *testing.T) {
	_, err := Parse([]byte(`
timetables:
  - departmentId: cse
    year: III
    section: A
    grid: [[a], [b], [c], [d], [e], [f], [g]]
`))
	require.Error(t, err)
}
