package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/timetable-api/internal/models"
)

// ReasonNoFacultyAssigned is reported when nobody is eligible to teach the subject.
const ReasonNoFacultyAssigned = "no faculty assigned to subject"

// AllocationResult is the outcome of resolving a faculty member for one slot.
type AllocationResult struct {
	Success        bool   `json:"success"`
	FacultyID      string `json:"facultyId,omitempty"`
	FacultyName    string `json:"facultyName,omitempty"`
	Day            int    `json:"day"`
	Period         int    `json:"period"`
	ConflictReason string `json:"conflictReason,omitempty"`
}

// Resolve picks the least loaded eligible faculty member that is free at the slot. Lab
// subjects additionally require a lab preference. It does not mutate the map.
func (m *AllocationMap) Resolve(subjectID string, slot models.Slot, isLab bool) AllocationResult {
	result := AllocationResult{Day: slot.Day, Period: slot.Period}

	eligible := m.EligibleFor(subjectID)
	if len(eligible) == 0 {
		result.ConflictReason = ReasonNoFacultyAssigned
		return result
	}

	var (
		best     *FacultyAllocation
		rejected []string
	)
	for _, candidate := range eligible {
		if !candidate.AvailableSlots.Has(slot) {
			rejected = append(rejected, fmt.Sprintf("%s: slot conflict at %s", candidate.FacultyName, slot.Key()))
			continue
		}
		if isLab && !candidate.LabPreference {
			rejected = append(rejected, fmt.Sprintf("%s: lab preference mismatch", candidate.FacultyName))
			continue
		}
		if best == nil || len(candidate.AssignedSlots) < len(best.AssignedSlots) {
			best = candidate
		}
	}

	if best == nil {
		result.ConflictReason = strings.Join(rejected, "; ")
		return result
	}
	result.Success = true
	result.FacultyID = best.FacultyID
	result.FacultyName = best.FacultyName
	return result
}

// Allocate moves the slot from the faculty member's available set to the assigned set. It
// returns false without mutating anything when the faculty is unknown or not available.
func (m *AllocationMap) Allocate(facultyID string, slot models.Slot) bool {
	allocation, ok := m.byID[facultyID]
	if !ok || !allocation.AvailableSlots.Has(slot) {
		return false
	}
	allocation.assign(slot)
	return true
}
