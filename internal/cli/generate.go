package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type generateResult struct {
	Proposal *dto.TimetableProposal `json:"proposal"`
	Saved    *models.Timetable      `json:"saved,omitempty"`
}

func newGenerateCmd(opts *options) *cobra.Command {
	var (
		class classFlags
		save  bool
		force bool
		quota int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a timetable for one class",
		Long:  "Generate builds a proposal for one class. With --save it is persisted and the fixture file is rewritten.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.close()

			req := dto.GenerateTimetableRequest{DepartmentID: class.departmentID, Year: class.year, Section: class.section}
			if cmd.Flags().Changed("open-elective-quota") {
				req.OpenElectiveQuota = &quota
			}
			proposal, err := s.svc.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}

			result := generateResult{Proposal: proposal}
			if save {
				saved, err := s.svc.Save(cmd.Context(), dto.SaveTimetableRequest{ProposalID: proposal.ProposalID, Force: force})
				if appErrors.Is(err, appErrors.ErrConflict) {
					return fmt.Errorf("%w (rerun with --force to save anyway)", err)
				}
				if err != nil {
					return err
				}
				result.Saved = saved
				if err := s.writeBack(opts.fixturePath); err != nil {
					return err
				}
			}

			if opts.format == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return writeProposalText(cmd.OutOrStdout(), result)
		},
	}
	class.register(cmd)
	cmd.Flags().BoolVar(&save, "save", false, "Persist the proposal into the fixture")
	cmd.Flags().BoolVar(&force, "force", false, "Save even when faculty conflicts are reported")
	cmd.Flags().IntVar(&quota, "open-elective-quota", 0, "Override the open elective quota (0-12)")
	return cmd
}

func (s *session) writeBack(path string) error {
	raw, err := s.store.Dump()
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat fixture: %w", err)
	}
	if err := os.WriteFile(path, raw, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}
