package service

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
)

// GenerationStage names the placement phases in execution order.
type GenerationStage string

const (
	StageEmpty             GenerationStage = "EMPTY"
	StageSpecialsLocked    GenerationStage = "SPECIALS_LOCKED"
	StageLabsPlaced        GenerationStage = "LABS_PLACED"
	StageElectivesReserved GenerationStage = "ELECTIVES_RESERVED"
	StageTheoryFilled      GenerationStage = "THEORY_FILLED"
	StageReallocated       GenerationStage = "REALLOCATED"
	StageRelaxed           GenerationStage = "RELAXED"
)

// GenerationInput carries everything the engine needs for one class.
type GenerationInput struct {
	DepartmentID      string
	Year              string
	Section           string
	Subjects          []models.Subject
	SpecialConfigs    []models.SpecialHoursConfig
	LabPreferences    []models.LabPreference
	OpenElectiveQuota int
}

// GenerationResult is the filled grid plus the bookkeeping of what could not be honoured.
type GenerationResult struct {
	Grid           models.Grid
	Stages         []GenerationStage
	RemainingHours map[string]int
	UnplacedLabs   []string
	Warnings       []string
}

// UnplacedHours sums hours that never reached the grid.
func (r *GenerationResult) UnplacedHours() int {
	total := 0
	for _, hours := range r.RemainingHours {
		total += hours
	}
	return total
}

// GeneratorConfig bounds the heuristic's effort.
type GeneratorConfig struct {
	TheoryGuard            int
	LabAttempts            int
	OpenElectivesPerDayCap int
}

// TimetableGenerator fills a weekly grid: special hours, labs, open elective placeholders,
// theory, reallocation of gaps and finally a relaxed pass.
type TimetableGenerator struct {
	cfg    GeneratorConfig
	logger *zap.Logger
}

// NewTimetableGenerator applies defaults to the config.
func NewTimetableGenerator(cfg GeneratorConfig, logger *zap.Logger) *TimetableGenerator {
	if cfg.TheoryGuard <= 0 {
		cfg.TheoryGuard = 100
	}
	if cfg.LabAttempts <= 0 {
		cfg.LabAttempts = 2 * models.WeekdayCount
	}
	if cfg.OpenElectivesPerDayCap <= 0 {
		cfg.OpenElectivesPerDayCap = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableGenerator{cfg: cfg, logger: logger}
}

// Generate runs every stage in order and always returns a grid. Infeasibility surfaces as
// remaining hours and warnings.
func (g *TimetableGenerator) Generate(input GenerationInput, alloc *AllocationMap) *GenerationResult {
	if alloc == nil {
		alloc = NewAllocationMap()
	}
	state := newPlacementState(input, alloc, g.cfg, g.logger)

	state.lockSpecials(input.SpecialConfigs)
	state.advance(StageSpecialsLocked)

	state.placeLabs(input.LabPreferences)
	state.advance(StageLabsPlaced)

	state.reserveOpenElectives(input.OpenElectiveQuota)
	state.advance(StageElectivesReserved)

	state.fillTheory()
	state.advance(StageTheoryFilled)

	state.reallocateGaps()
	state.advance(StageReallocated)

	state.relax()
	state.advance(StageRelaxed)

	return state.result()
}

type placementState struct {
	grid       models.Grid
	alloc      *AllocationMap
	cfg        GeneratorConfig
	logger     *zap.Logger
	subjects   []models.Subject
	remaining  map[string]int
	labNames   map[string]struct{}
	placedLabs map[string]bool
	stages     []GenerationStage
	warnings   []string
}

func newPlacementState(input GenerationInput, alloc *AllocationMap, cfg GeneratorConfig, logger *zap.Logger) *placementState {
	state := &placementState{
		alloc:      alloc,
		cfg:        cfg,
		logger:     logger,
		remaining:  make(map[string]int, len(input.Subjects)),
		labNames:   make(map[string]struct{}),
		placedLabs: make(map[string]bool),
		stages:     []GenerationStage{StageEmpty},
	}
	seen := make(map[string]bool, len(input.Subjects))
	for _, subject := range input.Subjects {
		key := subjectKey(subject)
		if subject.Name == "" || seen[key] {
			continue
		}
		seen[key] = true
		state.subjects = append(state.subjects, subject)
		hours := subject.HoursPerWeek
		if hours < 0 {
			hours = 0
		}
		state.remaining[key] = hours
		if subject.IsLab() {
			state.labNames[subject.Name] = struct{}{}
		}
	}
	return state
}

func subjectKey(subject models.Subject) string {
	if subject.ID != "" {
		return subject.ID
	}
	return "name:" + subject.Name
}

func (s *placementState) advance(stage GenerationStage) {
	s.stages = append(s.stages, stage)
	filled := 0
	for _, slot := range models.AllSlots() {
		if !s.grid.IsFree(slot) {
			filled++
		}
	}
	s.logger.Debug("placement stage completed", zap.String("stage", string(stage)), zap.Int("filled_cells", filled))
}

func (s *placementState) warn(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

func (s *placementState) result() *GenerationResult {
	remaining := make(map[string]int)
	for _, subject := range s.subjects {
		if hours := s.remaining[subjectKey(subject)]; hours > 0 {
			remaining[subject.Name] = hours
		}
	}
	var unplaced []string
	for _, subject := range s.subjects {
		if subject.IsLab() && !s.placedLabs[subjectKey(subject)] {
			unplaced = append(unplaced, subject.Name)
		}
	}
	return &GenerationResult{
		Grid:           s.grid,
		Stages:         s.stages,
		RemainingHours: remaining,
		UnplacedLabs:   unplaced,
		Warnings:       s.warnings,
	}
}

// --- Special hours ---

func (s *placementState) lockSpecials(configs []models.SpecialHoursConfig) {
	counselor := s.alloc.Counselor()
	for _, cfg := range configs {
		specialType := strings.TrimSpace(cfg.Type)
		if !cfg.IsActive || specialType == "" {
			continue
		}
		label := specialType
		if counselor != nil {
			label = AttributedLabel(specialType, counselor.FacultyName)
		}

		placed := 0
		for _, period := range models.ValidPeriods(cfg.SaturdayPeriods) {
			if placed >= cfg.SaturdayHours {
				break
			}
			if s.lockSpecialCell(models.Slot{Day: models.Saturday, Period: period}, label, counselor) {
				placed++
			}
		}
		if placed < cfg.SaturdayHours {
			s.warn("%s: placed %d of %d Saturday hours", specialType, placed, cfg.SaturdayHours)
		}

		placed = s.spreadWeekdaySpecial(models.ValidPeriods(cfg.WeekdaysPeriods), cfg.WeekdaysHours, label, counselor)
		if placed < cfg.WeekdaysHours {
			s.warn("%s: placed %d of %d weekday hours", specialType, placed, cfg.WeekdaysHours)
		}
	}
}

// spreadWeekdaySpecial places at most one cell per weekday per pass, wrapping over Monday to
// Friday until the hours are met or a pass places nothing.
func (s *placementState) spreadWeekdaySpecial(periods []int, hours int, label string, counselor *FacultyAllocation) int {
	placed := 0
	for pass := 0; placed < hours && pass < len(periods); pass++ {
		progressed := false
		for day := 0; day < models.WeekdayCount && placed < hours; day++ {
			for _, period := range periods {
				if s.lockSpecialCell(models.Slot{Day: day, Period: period}, label, counselor) {
					placed++
					progressed = true
					break
				}
			}
		}
		if !progressed {
			break
		}
	}
	return placed
}

func (s *placementState) lockSpecialCell(slot models.Slot, label string, counselor *FacultyAllocation) bool {
	if !s.grid.Set(slot, label) {
		return false
	}
	if counselor != nil {
		s.alloc.Allocate(counselor.FacultyID, slot)
	}
	return true
}

// --- Labs ---

type labPlan struct {
	subject models.Subject
	pref    models.LabPreference
}

func (s *placementState) orderedLabs(prefs []models.LabPreference) []labPlan {
	bySubject := make(map[string]models.LabPreference, len(prefs))
	for _, pref := range prefs {
		bySubject[pref.SubjectID] = pref
	}
	var plans []labPlan
	for _, subject := range s.subjects {
		if !subject.IsLab() {
			continue
		}
		pref, ok := bySubject[subject.ID]
		if !ok {
			pref = models.LabPreference{SubjectID: subject.ID}
		}
		plans = append(plans, labPlan{subject: subject, pref: pref})
	}
	sort.SliceStable(plans, func(i, j int) bool {
		pi, pj := plans[i].pref.Priority, plans[j].pref.Priority
		switch {
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		case pi != nil && pj != nil && *pi != *pj:
			return *pi < *pj
		}
		return plans[i].subject.HoursPerWeek > plans[j].subject.HoursPerWeek
	})
	return plans
}

func (s *placementState) placeLabs(prefs []models.LabPreference) {
	plans := s.orderedLabs(prefs)
	for _, plan := range plans {
		if plan.pref.MorningEnabled {
			s.placeMorningLab(plan)
		}
	}
	for _, plan := range plans {
		if !s.placedLabs[subjectKey(plan.subject)] {
			s.placeRemainingLab(plan)
		}
	}
}

// morningBlock returns the zero-based periods of a morning block, or nil when the block
// cannot fit in a day.
func morningBlock(length, morningStart int) []int {
	if length <= 0 || length > models.PeriodsPerDay {
		return nil
	}
	maxStart := 4
	if length >= 4 {
		maxStart = 3
	}
	start := clampInt(morningStart, 1, maxStart)
	if last := start + length - 1; last > models.PeriodsPerDay {
		start = models.PeriodsPerDay - length + 1
	}
	return periodRange(start-1, length)
}

// labTemplate returns the fixed afternoon block for the remaining lab hours.
func labTemplate(hours int, pref models.LabPreference) []int {
	switch hours {
	case 4:
		return periodRange(3, 4)
	case 3:
		return periodRange(4, 3)
	case 2:
		if pref.EveningTwoHourStartAt5 {
			return periodRange(4, 2)
		}
		return periodRange(5, 2)
	}
	length := hours
	if length > models.PeriodsPerDay {
		length = models.PeriodsPerDay
	}
	if length <= 0 {
		return nil
	}
	return periodRange(models.PeriodsPerDay-length, length)
}

func (s *placementState) placeMorningLab(plan labPlan) {
	key := subjectKey(plan.subject)
	block := morningBlock(s.remaining[key], plan.pref.MorningStart)
	if block == nil {
		return
	}
	for day := 0; day < models.WeekdayCount; day++ {
		if s.dayHasLab(day) {
			continue
		}
		if s.placeBlock(plan.subject, day, block) {
			s.remaining[key] = 0
			s.placedLabs[key] = true
			return
		}
	}
}

func (s *placementState) placeRemainingLab(plan labPlan) {
	key := subjectKey(plan.subject)
	for attempt := 0; s.remaining[key] > 0 && attempt < s.cfg.LabAttempts; attempt++ {
		day := attempt % models.WeekdayCount
		if s.dayHasLab(day) {
			continue
		}
		block := labTemplate(s.remaining[key], plan.pref)
		if len(block) == 0 {
			break
		}
		if s.placeBlock(plan.subject, day, block) {
			s.remaining[key] -= len(block)
		}
	}
	if s.remaining[key] <= 0 {
		s.remaining[key] = 0
		s.placedLabs[key] = true
		return
	}
	s.warn("%s: %d lab hours could not be placed", plan.subject.Name, s.remaining[key])
}

// placeBlock commits a lab block only when every cell is free and every period resolves a
// lab-eligible faculty member.
func (s *placementState) placeBlock(subject models.Subject, day int, periods []int) bool {
	for _, period := range periods {
		if !s.grid.IsFree(models.Slot{Day: day, Period: period}) {
			return false
		}
	}
	resolved := make([]AllocationResult, 0, len(periods))
	for _, period := range periods {
		res := s.alloc.Resolve(subject.ID, models.Slot{Day: day, Period: period}, true)
		if !res.Success {
			return false
		}
		resolved = append(resolved, res)
	}
	for i, period := range periods {
		slot := models.Slot{Day: day, Period: period}
		s.grid.Set(slot, subject.Name)
		s.alloc.Allocate(resolved[i].FacultyID, slot)
	}
	return true
}

func (s *placementState) dayHasLab(day int) bool {
	for period := 0; period < models.PeriodsPerDay; period++ {
		label, ok := s.grid.Label(models.Slot{Day: day, Period: period})
		if !ok {
			continue
		}
		if _, isLab := s.labNames[label]; isLab {
			return true
		}
	}
	return false
}

// --- Open electives ---

func (s *placementState) reserveOpenElectives(quota int) {
	for _, subject := range s.subjects {
		if subject.Type == models.SubjectTypeOpenElective {
			s.remaining[subjectKey(subject)] = 0
		}
	}

	perDay := make([]int, models.DaysPerWeek)
	placed := 0
	for placed < quota {
		progressed := false
		for _, day := range s.daysByCapacity(allDays()) {
			if perDay[day] >= s.cfg.OpenElectivesPerDayCap {
				continue
			}
			slot, ok := s.firstFree(day)
			if !ok {
				continue
			}
			s.grid.Set(slot, models.OpenElectiveLabel)
			perDay[day]++
			placed++
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}
	if placed < quota {
		s.warn("open elective: placed %d of %d hours", placed, quota)
	}
}

// --- Theory and electives ---

func (s *placementState) fillableSubjects() []models.Subject {
	var out []models.Subject
	for _, subject := range s.subjects {
		if subject.Type == models.SubjectTypeTheory || subject.Type == models.SubjectTypeElective {
			out = append(out, subject)
		}
	}
	return out
}

func (s *placementState) byRemainingDesc(subjects []models.Subject) []models.Subject {
	ordered := make([]models.Subject, len(subjects))
	copy(ordered, subjects)
	sort.SliceStable(ordered, func(i, j int) bool {
		return s.remaining[subjectKey(ordered[i])] > s.remaining[subjectKey(ordered[j])]
	})
	return ordered
}

func (s *placementState) fillTheory() {
	ordered := s.byRemainingDesc(s.fillableSubjects())
	for guard := 0; guard < s.cfg.TheoryGuard; guard++ {
		placedAny := false
		for _, subject := range ordered {
			if s.remaining[subjectKey(subject)] <= 0 {
				continue
			}
			if s.placeTheoryHour(subject) {
				placedAny = true
			}
		}
		if !placedAny {
			return
		}
	}
}

func (s *placementState) placeTheoryHour(subject models.Subject) bool {
	for _, day := range s.daysByCapacity(allDays()) {
		if s.grid.DayHas(day, subject.Name) {
			continue
		}
		if subject.WeekdayOnly() && day == models.Saturday {
			continue
		}
		slot, ok := s.firstFree(day)
		if !ok {
			continue
		}
		res := s.alloc.Resolve(subject.ID, slot, false)
		if !res.Success {
			continue
		}
		s.commit(subject, slot, res)
		return true
	}
	return false
}

func (s *placementState) commit(subject models.Subject, slot models.Slot, res AllocationResult) {
	s.grid.Set(slot, subject.Name)
	if res.Success {
		s.alloc.Allocate(res.FacultyID, slot)
	}
	s.remaining[subjectKey(subject)]--
}

// --- Reallocation of gaps ---

func (s *placementState) reallocateGaps() {
	for _, slot := range models.AllSlots() {
		if !s.grid.IsFree(slot) {
			continue
		}
		for _, subject := range s.byRemainingDesc(s.fillableSubjects()) {
			if s.remaining[subjectKey(subject)] <= 0 {
				break
			}
			if subject.WeekdayOnly() && slot.Day == models.Saturday {
				continue
			}
			if s.grid.DayHas(slot.Day, subject.Name) {
				continue
			}
			res := s.alloc.Resolve(subject.ID, slot, false)
			if !res.Success {
				continue
			}
			s.commit(subject, slot, res)
			break
		}
	}
}

// --- helpers ---

func allDays() []int {
	days := make([]int, models.DaysPerWeek)
	for i := range days {
		days[i] = i
	}
	return days
}

// daysByCapacity orders days by descending free cells, earlier days first on ties.
func (s *placementState) daysByCapacity(days []int) []int {
	ordered := make([]int, len(days))
	copy(ordered, days)
	capacity := make(map[int]int, len(days))
	for _, day := range days {
		capacity[day] = s.grid.FreeCount(day)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return capacity[ordered[i]] > capacity[ordered[j]]
	})
	return ordered
}

func (s *placementState) firstFree(day int) (models.Slot, bool) {
	for period := 0; period < models.PeriodsPerDay; period++ {
		slot := models.Slot{Day: day, Period: period}
		if s.grid.IsFree(slot) {
			return slot, true
		}
	}
	return models.Slot{}, false
}

func periodRange(start, length int) []int {
	periods := make([]int, 0, length)
	for p := start; p < start+length; p++ {
		periods = append(periods, p)
	}
	return periods
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
