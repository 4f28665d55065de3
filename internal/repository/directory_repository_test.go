package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubjectRepositoryListByDepartmentYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "department_id", "year", "name", "code", "abbreviation", "staff_label", "hours_per_week", "type", "tags", "max_faculty_count", "credits", "created_at", "updated_at"}).
		AddRow("s1", "cse", "III", "Maths", "MA301", "M", "", 5, "theory", "{weekday-only}", 1, 4, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE department_id = $1 AND year = $2 ORDER BY name ASC")).
		WithArgs("cse", "III").
		WillReturnRows(rows)

	subjects, err := repo.ListByDepartmentYear(context.Background(), "cse", "III")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Maths", subjects[0].Name)
	assert.True(t, subjects[0].WeekdayOnly())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyRepositoryListByDepartment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	rows := sqlmock.NewRows([]string{"id", "department_id", "name", "lab_preference", "created_at"}).
		AddRow("f1", "cse", "Dr. X", true, time.Now()).
		AddRow("f2", "cse", "Dr. Y", false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM faculty WHERE department_id = $1 ORDER BY created_at ASC, id ASC")).
		WithArgs("cse").
		WillReturnRows(rows)

	roster, err := repo.ListByDepartment(context.Background(), "cse")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.True(t, roster[0].LabPreference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyAssignmentRepositoryListForClassIncludesYearWide(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "department_id", "faculty_id", "subject_id", "year", "section"}).
		AddRow("a1", "cse", "f1", "s1", "III", "A").
		AddRow("a2", "cse", "f2", "s2", "III", nil)
	mock.ExpectQuery(regexp.QuoteMeta("(section = $3 OR section IS NULL)")).
		WithArgs("cse", "III", "A").
		WillReturnRows(rows)

	assignments, err := repo.ListForClass(context.Background(), "cse", "III", "A")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.False(t, assignments[0].YearWide())
	assert.True(t, assignments[1].YearWide())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyAssignmentRepositoryWrapsErrors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyAssignmentRepository(db)

	mock.ExpectQuery("FROM faculty_subject_assignments").WillReturnError(errors.New("connection reset"))

	_, err := repo.ListForClass(context.Background(), "cse", "III", "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list faculty assignments")
}

func TestClassCounselorRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassCounselorRepository(db)

	mock.ExpectQuery("FROM class_counselors").
		WithArgs("cse", "III", "A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "department_id", "year", "section", "faculty_id", "active", "created_at"}).
			AddRow("c1", "cse", "III", "A", "f1", true, time.Now()))

	counselor, err := repo.FindActive(context.Background(), "cse", "III", "A")
	require.NoError(t, err)
	assert.Equal(t, "f1", counselor.FacultyID)

	mock.ExpectQuery("FROM class_counselors").
		WithArgs("cse", "III", "B").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindActive(context.Background(), "cse", "III", "B")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulingConfigRepository(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSchedulingConfigRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("FROM special_hours_configs")).
		WithArgs("cse", "III", "A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "department_id", "year", "section", "type", "total_hours", "saturday_hours", "saturday_periods", "weekdays_hours", "weekdays_periods", "is_active"}).
			AddRow("h1", "cse", "III", nil, "Counselling", 3, 2, "{3,4}", 1, "{7}", true))
	configs, err := repo.ListActive(ctx, "cse", "III", "A")
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, []int64{3, 4}, []int64(configs[0].SaturdayPeriods))

	mock.ExpectQuery(regexp.QuoteMeta("FROM lab_preferences")).
		WithArgs("cse", "III").
		WillReturnRows(sqlmock.NewRows([]string{"id", "department_id", "year", "subject_id", "morning_enabled", "morning_start", "evening_two_hour_start_at5", "priority"}).
			AddRow("p1", "cse", "III", "lab1", true, 2, false, 1).
			AddRow("p2", "cse", "III", "lab2", false, 0, true, nil))
	prefs, err := repo.ListLabPreferences(ctx, "cse", "III")
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	require.NotNil(t, prefs[0].Priority)
	assert.Equal(t, 1, *prefs[0].Priority)
	assert.Nil(t, prefs[1].Priority)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT hours FROM open_elective_quotas")).
		WithArgs("cse", "III").
		WillReturnRows(sqlmock.NewRows([]string{"hours"}).AddRow(3))
	quota, err := repo.GetQuota(ctx, "cse", "III")
	require.NoError(t, err)
	assert.Equal(t, 3, quota)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT hours FROM open_elective_quotas")).
		WithArgs("cse", "IV").
		WillReturnError(sql.ErrNoRows)
	quota, err = repo.GetQuota(ctx, "cse", "IV")
	require.NoError(t, err)
	assert.Zero(t, quota)

	assert.NoError(t, mock.ExpectationsWereMet())
}
