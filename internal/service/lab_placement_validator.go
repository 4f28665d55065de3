package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
)

// ValidateLabPlacement inspects lab cells of a grid. It performs no I/O and returns the same
// report for the same inputs.
func ValidateLabPlacement(grid models.Grid, subjects []models.Subject, prefs []models.LabPreference) dto.LabPlacementReport {
	prefBySubject := make(map[string]models.LabPreference, len(prefs))
	for _, pref := range prefs {
		prefBySubject[pref.SubjectID] = pref
	}

	labs := make(map[string]models.Subject)
	var labOrder []string
	for _, subject := range subjects {
		if !subject.IsLab() || subject.Name == "" {
			continue
		}
		if _, seen := labs[subject.Name]; seen {
			continue
		}
		labs[subject.Name] = subject
		labOrder = append(labOrder, subject.Name)
	}
	sort.Strings(labOrder)

	report := dto.LabPlacementReport{Errors: []string{}, LabDaysByName: make(map[string][]int, len(labOrder))}

	for day := 0; day < models.DaysPerWeek; day++ {
		present := make(map[string][]int)
		for period := 0; period < models.PeriodsPerDay; period++ {
			label, ok := grid.Label(models.Slot{Day: day, Period: period})
			if !ok {
				continue
			}
			if _, isLab := labs[label]; isLab {
				present[label] = append(present[label], period)
			}
		}

		var names []string
		for name := range present {
			names = append(names, name)
			report.LabDaysByName[name] = append(report.LabDaysByName[name], day)
		}
		sort.Strings(names)
		if len(names) > 1 {
			report.Errors = append(report.Errors, fmt.Sprintf("%s holds more than one lab: %s",
				models.DayAbbreviation(day), strings.Join(names, ", ")))
		}

		for _, name := range names {
			periods := present[name]
			if !contiguous(periods) {
				report.Errors = append(report.Errors, fmt.Sprintf("%s on %s is not a contiguous block",
					name, models.DayAbbreviation(day)))
				continue
			}
			pref, ok := prefBySubject[labs[name].ID]
			if !ok || !pref.MorningEnabled {
				continue
			}
			expected := morningBlock(len(periods), pref.MorningStart)
			if expected != nil && periods[0] != expected[0] {
				report.Errors = append(report.Errors, fmt.Sprintf("%s on %s starts at period %d, morning placement expects period %d",
					name, models.DayAbbreviation(day), periods[0]+1, expected[0]+1))
			}
		}
	}

	for _, name := range labOrder {
		if _, ok := report.LabDaysByName[name]; !ok {
			report.LabDaysByName[name] = []int{}
		}
	}
	report.Valid = len(report.Errors) == 0
	return report
}

func contiguous(periods []int) bool {
	for i := 1; i < len(periods); i++ {
		if periods[i] != periods[i-1]+1 {
			return false
		}
	}
	return true
}
