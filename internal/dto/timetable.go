package dto

import (
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

// GenerateTimetableRequest asks the engine to build a grid for one class. Subjects, special
// configs, lab preferences and the open elective quota are loaded from the directory when
// omitted.
type GenerateTimetableRequest struct {
	DepartmentID      string                      `json:"departmentId" validate:"required"`
	Year              string                      `json:"year" validate:"required"`
	Section           string                      `json:"section" validate:"required"`
	Subjects          []models.Subject            `json:"subjects" validate:"omitempty,max=64"`
	SpecialConfigs    []models.SpecialHoursConfig `json:"specialConfigs" validate:"omitempty,dive"`
	LabPreferences    []models.LabPreference      `json:"labPreferences" validate:"omitempty,dive"`
	OpenElectiveQuota *int                        `json:"openElectiveQuota" validate:"omitempty,min=0,max=12"`
	LegacyFlags       map[string]bool             `json:"legacyFlags"`
}

// TimetableProposal is a generated, not yet persisted grid.
type TimetableProposal struct {
	ProposalID     string             `json:"proposalId"`
	DepartmentID   string             `json:"departmentId"`
	Year           string             `json:"year"`
	Section        string             `json:"section"`
	Grid           models.Grid        `json:"grid"`
	Stages         []string           `json:"stages"`
	RemainingHours map[string]int     `json:"remainingHours,omitempty"`
	Warnings       []string           `json:"warnings"`
	Conflicts      ConflictReport     `json:"conflicts"`
	LabPlacement   LabPlacementReport `json:"labPlacement"`
	SpecialFlags   map[string]bool    `json:"specialFlags,omitempty"`
	GeneratedAt    time.Time          `json:"generatedAt"`
}

// SaveTimetableRequest persists a stored proposal. Force saves even when re-validation
// reports faculty conflicts.
type SaveTimetableRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Force      bool   `json:"force"`
}

// ConflictReport is the advisory outcome of faculty conflict validation.
type ConflictReport struct {
	Valid     bool     `json:"valid"`
	Conflicts []string `json:"conflicts"`
	Warnings  []string `json:"warnings"`
}

// LabPlacementReport is the outcome of lab placement inspection.
type LabPlacementReport struct {
	Valid         bool             `json:"valid"`
	Errors        []string         `json:"errors"`
	LabDaysByName map[string][]int `json:"labDaysByName"`
}

// ValidateConflictsRequest checks a grid against the department's other timetables.
type ValidateConflictsRequest struct {
	DepartmentID string           `json:"departmentId" validate:"required"`
	Year         string           `json:"year" validate:"required"`
	Section      string           `json:"section" validate:"required"`
	Grid         models.Grid      `json:"grid"`
	Subjects     []models.Subject `json:"subjects"`
}

// ValidateLabsRequest inspects lab placement of a grid without any lookups.
type ValidateLabsRequest struct {
	Grid           models.Grid            `json:"grid"`
	Subjects       []models.Subject       `json:"subjects" validate:"required,min=1"`
	LabPreferences []models.LabPreference `json:"labPreferences" validate:"omitempty,dive"`
}

// TimetableQuery filters stored timetables.
type TimetableQuery struct {
	DepartmentID string `form:"departmentId" json:"departmentId"`
	Year         string `form:"year" json:"year"`
}

// BatchGenerateRequest regenerates several sections of a department year in order.
type BatchGenerateRequest struct {
	DepartmentID string   `json:"departmentId" validate:"required"`
	Year         string   `json:"year" validate:"required"`
	Sections     []string `json:"sections" validate:"required,min=1,max=26,dive,required"`
}

// BatchJobState tracks the lifecycle of a batch job.
type BatchJobState string

const (
	BatchJobQueued    BatchJobState = "QUEUED"
	BatchJobRunning   BatchJobState = "RUNNING"
	BatchJobCompleted BatchJobState = "COMPLETED"
	BatchJobFailed    BatchJobState = "FAILED"
)

// BatchJobStatus reports progress of a batch regeneration.
type BatchJobStatus struct {
	ID           string            `json:"id"`
	DepartmentID string            `json:"departmentId"`
	Year         string            `json:"year"`
	Sections     []string          `json:"sections"`
	State        BatchJobState     `json:"state"`
	Completed    []string          `json:"completed"`
	Failed       map[string]string `json:"failed,omitempty"`
	Conflicts    map[string]int    `json:"conflicts,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	FinishedAt   *time.Time        `json:"finishedAt,omitempty"`
}
