// Package cli implements the ttgen commands, which run the timetable engine against a YAML
// department fixture instead of Postgres.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/fixture"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/config"
)

// Output formats for generate and validate.
const (
	FormatJSON = "json"
	FormatText = "text"
)

type options struct {
	fixturePath string
	format      string
	verbose     bool
}

type session struct {
	store  *fixture.Store
	svc    *service.TimetableService
	logger *zap.Logger
}

// NewRootCmd builds the ttgen command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "ttgen",
		Short:         "Generate and check weekly class timetables",
		Long:          "ttgen runs the timetable engine against a YAML department fixture. Saved timetables are written back to the fixture.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.fixturePath, "fixture", "", "Department fixture file (YAML)")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", FormatText, "Output format: json or text")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log engine decisions to stderr")

	root.AddCommand(newGenerateCmd(opts), newValidateCmd(opts), newExportCmd(opts))
	return root
}

func (o *options) open() (*session, error) {
	if o.fixturePath == "" {
		return nil, errors.New("--fixture is required")
	}
	if o.format != FormatJSON && o.format != FormatText {
		return nil, fmt.Errorf("unsupported format %q", o.format)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := zap.NewNop()
	if o.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	store, err := fixture.Load(o.fixturePath)
	if err != nil {
		return nil, err
	}
	builder := service.NewFacultyAllocationBuilder(store.Faculty(), store, store, store, store.Timetables(), logger)
	svc := service.NewTimetableService(store, store, store.Timetables(), builder, nil, nil, nil, logger, service.TimetableServiceConfig{
		ProposalTTL:       cfg.Scheduler.ProposalTTL,
		GenerationTimeout: cfg.Scheduler.GenerationTimeout,
		TheoryGuard:       cfg.Scheduler.TheoryGuard,
		LabAttempts:       cfg.Scheduler.LabAttempts,
	})
	return &session{store: store, svc: svc, logger: logger}, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

type classFlags struct {
	departmentID string
	year         string
	section      string
}

func (c *classFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.departmentID, "department", "d", "", "Department ID (required)")
	cmd.Flags().StringVarP(&c.year, "year", "y", "", "Year (required)")
	cmd.Flags().StringVarP(&c.section, "section", "s", "", "Section (required)")
	_ = cmd.MarkFlagRequired("department")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("section")
}
