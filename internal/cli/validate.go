package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/noah-isme/timetable-api/internal/dto"
)

// ErrInvalidTimetable is returned by validate when a report is not clean.
var ErrInvalidTimetable = errors.New("timetable failed validation")

type validateResult struct {
	Conflicts    *dto.ConflictReport     `json:"conflicts"`
	LabPlacement *dto.LabPlacementReport `json:"labPlacement"`
}

func newValidateCmd(opts *options) *cobra.Command {
	var class classFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a stored timetable for faculty conflicts and lab placement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			timetable, err := s.svc.Get(ctx, class.departmentID, class.year, class.section)
			if err != nil {
				return err
			}
			subjects, err := s.store.ListByDepartmentYear(ctx, class.departmentID, class.year)
			if err != nil {
				return err
			}
			prefs, err := s.store.ListLabPreferences(ctx, class.departmentID, class.year)
			if err != nil {
				return err
			}

			conflicts, err := s.svc.ValidateConflicts(ctx, dto.ValidateConflictsRequest{
				DepartmentID: class.departmentID,
				Year:         class.year,
				Section:      class.section,
				Grid:         timetable.Grid,
				Subjects:     subjects,
			})
			if err != nil {
				return err
			}
			labs, err := s.svc.ValidateLabPlacement(ctx, dto.ValidateLabsRequest{
				Grid:           timetable.Grid,
				Subjects:       subjects,
				LabPreferences: prefs,
			})
			if err != nil {
				return err
			}

			result := validateResult{Conflicts: conflicts, LabPlacement: labs}
			if opts.format == FormatJSON {
				err = writeJSON(cmd.OutOrStdout(), result)
			} else {
				err = writeValidationText(cmd.OutOrStdout(), result)
			}
			if err != nil {
				return err
			}
			if !conflicts.Valid || !labs.Valid {
				return ErrInvalidTimetable
			}
			return nil
		},
	}
	class.register(cmd)
	return cmd
}
