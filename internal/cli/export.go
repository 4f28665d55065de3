package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		class  classFlags
		as     string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a stored timetable as CSV or PDF",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.close()

			file, err := s.svc.Export(cmd.Context(), class.departmentID, class.year, class.section, as)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(file.Content)
				return err
			}
			if err := os.WriteFile(output, file.Content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	class.register(cmd)
	cmd.Flags().StringVar(&as, "as", "csv", "Document type: csv or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default stdout)")
	return cmd
}
