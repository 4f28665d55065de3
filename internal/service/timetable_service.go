package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type schedulingConfigDirectory interface {
	ListActive(ctx context.Context, departmentID, year, section string) ([]models.SpecialHoursConfig, error)
	ListLabPreferences(ctx context.Context, departmentID, year string) ([]models.LabPreference, error)
	GetQuota(ctx context.Context, departmentID, year string) (int, error)
}

type timetableStore interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Timetable, error)
	Find(ctx context.Context, departmentID, year, section string) (*models.Timetable, error)
	Upsert(ctx context.Context, timetable *models.Timetable) error
}

// TimetableServiceConfig governs generation behaviour.
type TimetableServiceConfig struct {
	ProposalTTL       time.Duration
	GenerationTimeout time.Duration
	TheoryGuard       int
	LabAttempts       int
}

// TimetableService orchestrates loading, generation, validation and persistence of timetables.
type TimetableService struct {
	subjects   subjectDirectory
	configs    schedulingConfigDirectory
	timetables timetableStore
	builder    allocationBuilder
	generator  *TimetableGenerator
	conflicts  *ConflictValidator
	exporter   *TimetableExporter
	proposals  proposalStore
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	locks      *keyedMutex
	timeout    time.Duration
	now        func() time.Time
}

// NewTimetableService wires the service. When cache is enabled proposals are shared through
// it, otherwise they live in process memory.
func NewTimetableService(
	subjects subjectDirectory,
	configs schedulingConfigDirectory,
	timetables timetableStore,
	builder allocationBuilder,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}
	if builder == nil {
		builder = NewFacultyAllocationBuilder(nil, nil, nil, subjects, timetables, logger)
	}

	var store proposalStore = newMemoryProposalStore(cfg.ProposalTTL)
	if cache.Enabled() {
		store = newCacheProposalStore(cache, cfg.ProposalTTL)
	}

	return &TimetableService{
		subjects:   subjects,
		configs:    configs,
		timetables: timetables,
		builder:    builder,
		generator:  NewTimetableGenerator(GeneratorConfig{TheoryGuard: cfg.TheoryGuard, LabAttempts: cfg.LabAttempts}, logger),
		conflicts:  NewConflictValidator(builder, logger),
		exporter:   NewTimetableExporter(nil, nil),
		proposals:  store,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		locks:      newKeyedMutex(),
		timeout:    cfg.GenerationTimeout,
		now:        time.Now,
	}
}

// Generate builds a preview proposal for one class. The proposal must be saved explicitly.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableProposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid timetable generation payload")
	}

	unlock := s.locks.Lock(req.DepartmentID)
	proposal, err := s.generate(ctx, req)
	unlock()
	if err != nil {
		return nil, err
	}

	if err := s.proposals.Save(ctx, *proposal); err != nil {
		return nil, appErrors.Internal(err, "failed to store timetable proposal")
	}
	s.metrics.RecordProposalEvent("generated")
	return proposal, nil
}

// Save persists a stored proposal after re-validating it against the current timetables.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid save timetable payload")
	}
	proposal, ok := s.proposals.Get(ctx, req.ProposalID)
	if !ok {
		s.metrics.RecordProposalEvent("expired")
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}

	unlock := s.locks.Lock(proposal.DepartmentID)
	defer unlock()

	subjects := s.loadSubjects(ctx, proposal.DepartmentID, proposal.Year)
	report := s.conflicts.Validate(ctx, proposal.Grid, subjects, proposal.DepartmentID, proposal.Year, proposal.Section)
	if !report.Valid && !req.Force {
		return nil, appErrors.Clone(appErrors.ErrConflict, "proposal conflicts with timetables saved since it was generated").
			WithDetails(map[string]interface{}{"conflicts": report.Conflicts})
	}

	timetable, err := s.persist(ctx, &proposal)
	if err != nil {
		return nil, err
	}
	s.proposals.Delete(ctx, proposal.ProposalID)
	s.metrics.RecordProposalEvent("saved")
	return timetable, nil
}

// GenerateAndSave generates and persists in one step under the department lock. Conflicts are
// reported in the returned proposal rather than blocking the save.
func (s *TimetableService) GenerateAndSave(ctx context.Context, req dto.GenerateTimetableRequest) (*models.Timetable, *dto.TimetableProposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Validation(err, "invalid timetable generation payload")
	}

	unlock := s.locks.Lock(req.DepartmentID)
	defer unlock()

	proposal, err := s.generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	timetable, err := s.persist(ctx, proposal)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.RecordProposalEvent("saved")
	return timetable, proposal, nil
}

// Get loads a stored timetable.
func (s *TimetableService) Get(ctx context.Context, departmentID, year, section string) (*models.Timetable, error) {
	if departmentID == "" || year == "" || section == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "departmentId, year and section are required")
	}
	key := storedTimetableKey(departmentID, year, section)
	var cached models.Timetable
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}
	timetable, err := s.timetables.Find(ctx, departmentID, year, section)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Internal(err, "failed to load timetable")
	}
	_ = s.cache.Set(ctx, key, timetable, 0)
	return timetable, nil
}

// List returns the department's stored timetables, optionally narrowed to one year.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error) {
	if query.DepartmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "departmentId is required")
	}
	timetables, err := s.timetables.ListByDepartment(ctx, query.DepartmentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list timetables")
	}
	if query.Year == "" {
		return timetables, nil
	}
	filtered := make([]models.Timetable, 0, len(timetables))
	for _, timetable := range timetables {
		if timetable.Year == query.Year {
			filtered = append(filtered, timetable)
		}
	}
	return filtered, nil
}

// ValidateConflicts checks a grid against the department's other stored timetables.
func (s *TimetableService) ValidateConflicts(ctx context.Context, req dto.ValidateConflictsRequest) (*dto.ConflictReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid conflict validation payload")
	}
	subjects := req.Subjects
	if len(subjects) == 0 {
		subjects = s.loadSubjects(ctx, req.DepartmentID, req.Year)
	}
	report := s.conflicts.Validate(ctx, req.Grid, subjects, req.DepartmentID, req.Year, req.Section)
	return &report, nil
}

// ValidateLabPlacement inspects lab placement of a grid.
func (s *TimetableService) ValidateLabPlacement(_ context.Context, req dto.ValidateLabsRequest) (*dto.LabPlacementReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid lab validation payload")
	}
	report := ValidateLabPlacement(req.Grid, req.Subjects, req.LabPreferences)
	return &report, nil
}

// Export renders a stored timetable as CSV or PDF.
func (s *TimetableService) Export(ctx context.Context, departmentID, year, section, format string) (*ExportedFile, error) {
	switch strings.ToLower(format) {
	case "", ExportFormatCSV, ExportFormatPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	timetable, err := s.Get(ctx, departmentID, year, section)
	if err != nil {
		return nil, err
	}
	file, err := s.exporter.Render(timetable, format)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render timetable export")
	}
	return file, nil
}

// storedTimetableKey addresses the read-through copy served by Get. Conflict checks always read
// the store directly.
func storedTimetableKey(departmentID, year, section string) string {
	return fmt.Sprintf("timetable:stored:%s:%s:%s", departmentID, year, section)
}

// generate must run under the department lock.
func (s *TimetableService) generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableProposal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	started := s.now()

	input, activeConfigs := s.loadInput(ctx, req)
	s.metrics.ObserveDBQuery("timetable_input", s.now().Sub(started))
	if err := deadlineExceeded(ctx); err != nil {
		return nil, err
	}

	buildStarted := s.now()
	alloc := s.builder.Build(ctx, req.DepartmentID, req.Year, req.Section)
	s.metrics.ObserveDBQuery("faculty_allocation", s.now().Sub(buildStarted))
	if err := deadlineExceeded(ctx); err != nil {
		return nil, err
	}

	result := s.generator.Generate(input, alloc)
	conflicts := s.conflicts.Validate(ctx, result.Grid, input.Subjects, req.DepartmentID, req.Year, req.Section)
	labs := ValidateLabPlacement(result.Grid, input.Subjects, input.LabPreferences)
	if err := deadlineExceeded(ctx); err != nil {
		return nil, err
	}

	stages := make([]string, 0, len(result.Stages))
	for _, stage := range result.Stages {
		stages = append(stages, string(stage))
	}
	warnings := append([]string{}, result.Warnings...)
	warnings = append(warnings, conflicts.Warnings...)

	proposal := &dto.TimetableProposal{
		ProposalID:     uuid.NewString(),
		DepartmentID:   req.DepartmentID,
		Year:           req.Year,
		Section:        req.Section,
		Grid:           result.Grid,
		Stages:         stages,
		RemainingHours: result.RemainingHours,
		Warnings:       warnings,
		Conflicts:      conflicts,
		LabPlacement:   labs,
		SpecialFlags:   specialFlags(activeConfigs, req.LegacyFlags),
		GeneratedAt:    s.now().UTC(),
	}

	elapsed := s.now().Sub(started)
	s.metrics.ObserveGeneration(elapsed, result.UnplacedHours(), len(conflicts.Conflicts))
	s.logger.Info("timetable generated",
		zap.String("department_id", req.DepartmentID),
		zap.String("year", req.Year),
		zap.String("section", req.Section),
		zap.Int("faculty", alloc.Len()),
		zap.Int("unplaced_hours", result.UnplacedHours()),
		zap.Int("conflicts", len(conflicts.Conflicts)),
		zap.Duration("elapsed", elapsed),
	)
	return proposal, nil
}

func (s *TimetableService) persist(ctx context.Context, proposal *dto.TimetableProposal) (*models.Timetable, error) {
	flags, err := json.Marshal(proposal.SpecialFlags)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to encode special flags")
	}
	now := s.now().UTC()
	timetable := &models.Timetable{
		ID:           uuid.NewString(),
		DepartmentID: proposal.DepartmentID,
		Year:         proposal.Year,
		Section:      proposal.Section,
		Grid:         proposal.Grid,
		SpecialFlags: types.JSONText(flags),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.timetables.Upsert(ctx, timetable); err != nil {
		return nil, appErrors.Internal(err, "failed to save timetable")
	}
	_ = s.cache.Delete(ctx, storedTimetableKey(timetable.DepartmentID, timetable.Year, timetable.Section))
	return timetable, nil
}

// loadInput fills whatever the request omitted from the directory. Lookup failures are logged
// and degrade to empty data. The second return value holds the active special hours configs.
func (s *TimetableService) loadInput(ctx context.Context, req dto.GenerateTimetableRequest) (GenerationInput, []models.SpecialHoursConfig) {
	input := GenerationInput{
		DepartmentID:   req.DepartmentID,
		Year:           req.Year,
		Section:        req.Section,
		Subjects:       req.Subjects,
		SpecialConfigs: req.SpecialConfigs,
		LabPreferences: req.LabPreferences,
	}
	if req.OpenElectiveQuota != nil {
		input.OpenElectiveQuota = *req.OpenElectiveQuota
	}

	g, gctx := errgroup.WithContext(ctx)
	if len(input.Subjects) == 0 {
		g.Go(func() error {
			input.Subjects = s.loadSubjects(gctx, req.DepartmentID, req.Year)
			return nil
		})
	}
	if s.configs != nil && req.SpecialConfigs == nil {
		g.Go(func() error {
			configs, err := s.configs.ListActive(gctx, req.DepartmentID, req.Year, req.Section)
			if err != nil {
				s.degraded("special hours configs", req, err)
				return nil
			}
			input.SpecialConfigs = configs
			return nil
		})
	}
	if s.configs != nil && req.LabPreferences == nil {
		g.Go(func() error {
			prefs, err := s.configs.ListLabPreferences(gctx, req.DepartmentID, req.Year)
			if err != nil {
				s.degraded("lab preferences", req, err)
				return nil
			}
			input.LabPreferences = prefs
			return nil
		})
	}
	if s.configs != nil && req.OpenElectiveQuota == nil {
		g.Go(func() error {
			quota, err := s.configs.GetQuota(gctx, req.DepartmentID, req.Year)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				s.degraded("open elective quota", req, err)
				return nil
			}
			input.OpenElectiveQuota = quota
			return nil
		})
	}
	_ = g.Wait()

	active := make([]models.SpecialHoursConfig, 0, len(input.SpecialConfigs))
	for _, cfg := range input.SpecialConfigs {
		if cfg.IsActive {
			active = append(active, cfg)
		}
	}
	input.SpecialConfigs = active
	return input, active
}

func (s *TimetableService) loadSubjects(ctx context.Context, departmentID, year string) []models.Subject {
	if s.subjects == nil {
		return nil
	}
	subjects, err := s.subjects.ListByDepartmentYear(ctx, departmentID, year)
	if err != nil {
		s.logger.Warn("subject lookup degraded", zap.String("department_id", departmentID), zap.String("year", year), zap.Error(err))
		return nil
	}
	return subjects
}

func (s *TimetableService) degraded(what string, req dto.GenerateTimetableRequest, err error) {
	s.logger.Warn(what+" lookup degraded",
		zap.String("department_id", req.DepartmentID),
		zap.String("year", req.Year),
		zap.String("section", req.Section),
		zap.Error(err),
	)
}

// specialFlags derives the stored flags from active configs. Legacy flags survive only when
// no config is active.
func specialFlags(active []models.SpecialHoursConfig, legacy map[string]bool) map[string]bool {
	flags := make(map[string]bool)
	if len(active) == 0 {
		for key, value := range legacy {
			flags[key] = value
		}
		return flags
	}
	names := make([]string, 0, len(active))
	for _, cfg := range active {
		names = append(names, strings.TrimSpace(cfg.Type))
	}
	sort.Strings(names)
	for _, specialType := range names {
		if specialType != "" {
			flags[specialType] = true
		}
	}
	return flags
}

func deadlineExceeded(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, "timetable generation timed out")
	default:
		return appErrors.Internal(err, "timetable generation cancelled")
	}
}

// keyedMutex serialises work per key. Entries are dropped once no holder or waiter remains.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until the key is free and returns the matching unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
