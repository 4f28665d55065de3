package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/fixture"
	"github.com/noah-isme/timetable-api/internal/models"
)

func stringPtr(value string) *string {
	return &value
}

func intPtr(value int) *int {
	return &value
}

func member(id, name string, lab bool, subjectIDs ...string) *FacultyAllocation {
	allocation := newFacultyAllocation(models.Faculty{ID: id, Name: name, LabPreference: lab})
	for _, subjectID := range subjectIDs {
		allocation.SubjectIDs[subjectID] = struct{}{}
	}
	return allocation
}

func allocationMap(members ...*FacultyAllocation) *AllocationMap {
	m := NewAllocationMap()
	for _, entry := range members {
		m.Add(entry)
	}
	return m
}

func sampleStore(t *testing.T) *fixture.Store {
	t.Helper()
	store, err := fixture.Load("../fixture/testdata/department.yaml")
	require.NoError(t, err)
	return store
}

func storeBuilder(store *fixture.Store) *FacultyAllocationBuilder {
	return NewFacultyAllocationBuilder(store.Faculty(), store, store, store, store.Timetables(), zap.NewNop())
}

// cellsOf returns the labels of one day, with "" for free cells.
func cellsOf(grid models.Grid, day int) []string {
	labels := make([]string, models.PeriodsPerDay)
	for period := range labels {
		labels[period], _ = grid.Label(models.Slot{Day: day, Period: period})
	}
	return labels
}

func periodsOf(grid models.Grid, day int, label string) []int {
	var periods []int
	for period, current := range cellsOf(grid, day) {
		if current == label {
			periods = append(periods, period)
		}
	}
	return periods
}
