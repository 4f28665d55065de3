package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
)

// ConflictValidator re-walks a finished grid against a fresh allocation map.
type ConflictValidator struct {
	builder allocationBuilder
	logger  *zap.Logger
}

// NewConflictValidator constructs the validator.
func NewConflictValidator(builder allocationBuilder, logger *zap.Logger) *ConflictValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictValidator{builder: builder, logger: logger}
}

// Validate is advisory: it never mutates the grid and never returns an error.
func (v *ConflictValidator) Validate(ctx context.Context, grid models.Grid, subjects []models.Subject, departmentID, year, section string) dto.ConflictReport {
	alloc := NewAllocationMap()
	if v.builder != nil {
		alloc = v.builder.Build(ctx, departmentID, year, section)
	}
	report := CheckGridConflicts(grid, subjects, alloc)
	if !report.Valid {
		v.logger.Info("timetable conflicts detected",
			zap.String("department_id", departmentID),
			zap.String("year", year),
			zap.String("section", section),
			zap.Int("conflicts", len(report.Conflicts)),
		)
	}
	return report
}

// CheckGridConflicts walks the grid against alloc. The map is consumed: slots are allocated
// as cells are attributed, so pass a freshly built one.
func CheckGridConflicts(grid models.Grid, subjects []models.Subject, alloc *AllocationMap) dto.ConflictReport {
	subjectIDs := make(map[string]string, len(subjects))
	for _, subject := range subjects {
		key := normalizeName(subject.Name)
		if _, exists := subjectIDs[key]; !exists {
			subjectIDs[key] = subject.ID
		}
	}

	var (
		conflicts []string
		warnings  []string
		claimed   = make(map[string]map[models.Slot]string)
	)
	claim := func(member *FacultyAllocation, slot models.Slot, label string) {
		if claimed[member.FacultyID] == nil {
			claimed[member.FacultyID] = make(map[models.Slot]string)
		}
		if previous, ok := claimed[member.FacultyID][slot]; ok {
			conflicts = append(conflicts, fmt.Sprintf("%s is assigned multiple subjects at %s (%s, %s)",
				member.FacultyName, slot.Key(), previous, label))
			return
		}
		claimed[member.FacultyID][slot] = label
	}

	for _, slot := range models.AllSlots() {
		label, occupied := grid.Label(slot)
		if !occupied {
			continue
		}
		cell := ParseCell(label)

		if cell.Kind == CellSpecialWithAttribution {
			if member := alloc.FindByName(cell.FacultyName); member != nil {
				if !member.AvailableSlots.Has(slot) && !member.ReservedSlots.Has(slot) {
					conflicts = append(conflicts, fmt.Sprintf("%s at %s: %s is already committed in another timetable",
						cell.SpecialType, slot.Key(), member.FacultyName))
				}
				alloc.Allocate(member.FacultyID, slot)
				claim(member, slot, label)
				continue
			}
		}

		subjectID, known := subjectIDs[normalizeName(cell.Label)]
		if !known {
			continue
		}
		eligible := alloc.EligibleFor(subjectID)
		if len(eligible) == 0 {
			warnings = append(warnings, fmt.Sprintf("%s at %s: %s", cell.Label, slot.Key(), ReasonNoFacultyAssigned))
			continue
		}
		res := alloc.Resolve(subjectID, slot, false)
		if !res.Success {
			conflicts = append(conflicts, fmt.Sprintf("%s at %s: %s", cell.Label, slot.Key(), res.ConflictReason))
			continue
		}
		alloc.Allocate(res.FacultyID, slot)
		member, _ := alloc.Get(res.FacultyID)
		claim(member, slot, label)
	}

	sort.Strings(warnings)
	return dto.ConflictReport{
		Valid:     len(conflicts) == 0,
		Conflicts: nonNilStrings(conflicts),
		Warnings:  nonNilStrings(warnings),
	}
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
