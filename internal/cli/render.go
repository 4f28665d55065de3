package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/noah-isme/timetable-api/internal/models"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeGrid(w io.Writer, grid models.Grid) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"Day"}
	for period := 1; period <= models.PeriodsPerDay; period++ {
		header = append(header, fmt.Sprintf("P%d", period))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for day := 0; day < models.DaysPerWeek; day++ {
		row := []string{models.DayAbbreviation(day)}
		for period := 0; period < models.PeriodsPerDay; period++ {
			label, ok := grid.Label(models.Slot{Day: day, Period: period})
			if !ok {
				label = "-"
			}
			row = append(row, label)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func writeProposalText(w io.Writer, result generateResult) error {
	p := result.Proposal
	fmt.Fprintf(w, "%s / %s / %s  proposal %s\n\n", p.DepartmentID, p.Year, p.Section, p.ProposalID)
	if err := writeGrid(w, p.Grid); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nstages: %s\n", strings.Join(p.Stages, " > "))

	if len(p.RemainingHours) > 0 {
		names := make([]string, 0, len(p.RemainingHours))
		for name := range p.RemainingHours {
			names = append(names, name)
		}
		sort.Strings(names)
		remaining := make([]string, 0, len(names))
		for _, name := range names {
			remaining = append(remaining, fmt.Sprintf("%s: %d", name, p.RemainingHours[name]))
		}
		writeList(w, "remaining hours", remaining)
	}
	writeList(w, "warnings", p.Warnings)
	writeList(w, "conflicts", p.Conflicts.Conflicts)
	writeList(w, "lab placement", p.LabPlacement.Errors)

	if result.Saved != nil {
		fmt.Fprintf(w, "\nsaved as %s\n", result.Saved.ID)
	}
	return nil
}

func writeValidationText(w io.Writer, result validateResult) error {
	verdict := func(valid bool) string {
		if valid {
			return "ok"
		}
		return "FAILED"
	}
	fmt.Fprintf(w, "faculty conflicts: %s\n", verdict(result.Conflicts.Valid))
	writeList(w, "conflicts", result.Conflicts.Conflicts)
	writeList(w, "warnings", result.Conflicts.Warnings)
	fmt.Fprintf(w, "lab placement: %s\n", verdict(result.LabPlacement.Valid))
	writeList(w, "errors", result.LabPlacement.Errors)
	return nil
}
