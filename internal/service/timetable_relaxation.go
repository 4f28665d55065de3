package service

import "github.com/noah-isme/timetable-api/internal/models"

// relaxedCandidate ranks free cells for the relaxed pass. Lower rank wins.
type relaxedCandidate struct {
	slot   models.Slot
	result AllocationResult
	rank   int
}

const (
	rankResolvableFreshDay = iota
	rankResolvable
	rankUnresolvedFreshDay
	rankUnresolved
)

// relaxedEligible is the only placement predicate of the relaxed pass. It drops the
// once-per-day rule and faculty resolution as hard constraints, keeping only the Saturday
// exclusion for weekday-only subjects.
func relaxedEligible(grid *models.Grid, subject models.Subject, slot models.Slot) bool {
	if !grid.IsFree(slot) {
		return false
	}
	return !(subject.WeekdayOnly() && slot.Day == models.Saturday)
}

// relax places every theory or elective hour still outstanding. Labs keep their leftovers
// because a scattered lab hour would break block contiguity.
func (s *placementState) relax() {
	for _, subject := range s.byRemainingDesc(s.fillableSubjects()) {
		key := subjectKey(subject)
		for s.remaining[key] > 0 {
			candidate, ok := s.bestRelaxedCell(subject)
			if !ok {
				break
			}
			if !candidate.result.Success {
				s.warn("%s: placed at %s without an available faculty (%s)",
					subject.Name, candidate.slot.Key(), candidate.result.ConflictReason)
			}
			s.commit(subject, candidate.slot, candidate.result)
		}
	}
	for _, subject := range s.subjects {
		if hours := s.remaining[subjectKey(subject)]; hours > 0 && !subject.IsLab() {
			s.warn("%s: %d hours left unplaced, grid is full", subject.Name, hours)
		}
	}
}

func (s *placementState) bestRelaxedCell(subject models.Subject) (relaxedCandidate, bool) {
	var (
		best  relaxedCandidate
		found bool
	)
	for _, slot := range models.AllSlots() {
		if !relaxedEligible(&s.grid, subject, slot) {
			continue
		}
		res := s.alloc.Resolve(subject.ID, slot, false)
		fresh := !s.grid.DayHas(slot.Day, subject.Name)
		var rank int
		switch {
		case res.Success && fresh:
			rank = rankResolvableFreshDay
		case res.Success:
			rank = rankResolvable
		case fresh:
			rank = rankUnresolvedFreshDay
		default:
			rank = rankUnresolved
		}
		if !found || rank < best.rank {
			best = relaxedCandidate{slot: slot, result: res, rank: rank}
			found = true
			if rank == rankResolvableFreshDay {
				break
			}
		}
	}
	return best, found
}
