package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestTimetableRepositoryListByDepartment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "department_id", "year", "section", "grid", "special_flags", "created_at", "updated_at"}).
		AddRow("t1", "cse", "III", "A", []byte(`[["Maths",null,null,null,null,null,null]]`), []byte(`{"Counselling":true}`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetables WHERE department_id = $1 ORDER BY year ASC, section ASC")).
		WithArgs("cse").
		WillReturnRows(rows)

	timetables, err := repo.ListByDepartment(context.Background(), "cse")
	require.NoError(t, err)
	require.Len(t, timetables, 1)
	label, ok := timetables[0].Grid.Label(models.Slot{Day: 0, Period: 0})
	require.True(t, ok)
	assert.Equal(t, "Maths", label)
	assert.True(t, timetables[0].Grid.IsFree(models.Slot{Day: 0, Period: 1}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var grid models.Grid
	grid.Set(models.Slot{Day: 0, Period: 0}, "Maths")
	timetable := &models.Timetable{
		ID:           "new-id",
		DepartmentID: "cse",
		Year:         "III",
		Section:      "A",
		Grid:         grid,
		SpecialFlags: types.JSONText(`{}`),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (department_id, year, section) DO UPDATE")).
		WithArgs("new-id", "cse", "III", "A", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("existing-id", created))

	require.NoError(t, repo.Upsert(context.Background(), timetable))
	assert.Equal(t, "existing-id", timetable.ID)
	assert.Equal(t, created, timetable.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
