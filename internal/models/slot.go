package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// DaysPerWeek covers Monday through Saturday.
	DaysPerWeek = 6
	// PeriodsPerDay is the number of teaching periods per day.
	PeriodsPerDay = 7
	// SlotsPerWeek is the size of the weekly slot universe of one section.
	SlotsPerWeek = DaysPerWeek * PeriodsPerDay

	// Saturday is the zero-based index of the last working day.
	Saturday = 5
	// WeekdayCount is the number of Monday-Friday days.
	WeekdayCount = 5
)

var dayAbbreviations = [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Slot addresses one (day, period) cell of the weekly grid. Both fields are zero-based.
type Slot struct {
	Day    int `json:"day"`
	Period int `json:"period"`
}

// Valid reports whether the slot lies inside the 6x7 grid.
func (s Slot) Valid() bool {
	return s.Day >= 0 && s.Day < DaysPerWeek && s.Period >= 0 && s.Period < PeriodsPerDay
}

// Key renders the canonical slot key, e.g. "Mon-p1".
func (s Slot) Key() string {
	return fmt.Sprintf("%s-p%d", DayAbbreviation(s.Day), s.Period+1)
}

func (s Slot) String() string {
	return s.Key()
}

// DayAbbreviation returns the three letter label of a zero-based day index.
func DayAbbreviation(day int) string {
	if day < 0 || day >= DaysPerWeek {
		return "?"
	}
	return dayAbbreviations[day]
}

// ParseSlotKey parses keys produced by Slot.Key.
func ParseSlotKey(key string) (Slot, error) {
	parts := strings.SplitN(strings.TrimSpace(key), "-p", 2)
	if len(parts) != 2 {
		return Slot{}, fmt.Errorf("invalid slot key %q", key)
	}
	day := -1
	for idx, abbrev := range dayAbbreviations {
		if strings.EqualFold(abbrev, parts[0]) {
			day = idx
			break
		}
	}
	period, err := strconv.Atoi(parts[1])
	if err != nil || day < 0 {
		return Slot{}, fmt.Errorf("invalid slot key %q", key)
	}
	slot := Slot{Day: day, Period: period - 1}
	if !slot.Valid() {
		return Slot{}, fmt.Errorf("slot key %q out of range", key)
	}
	return slot, nil
}

// AllSlots returns the 42-slot universe in day-major order.
func AllSlots() []Slot {
	slots := make([]Slot, 0, SlotsPerWeek)
	for day := 0; day < DaysPerWeek; day++ {
		for period := 0; period < PeriodsPerDay; period++ {
			slots = append(slots, Slot{Day: day, Period: period})
		}
	}
	return slots
}

// SlotSet is an unordered set of slots.
type SlotSet map[Slot]struct{}

// NewSlotSet builds a set containing the given slots.
func NewSlotSet(slots ...Slot) SlotSet {
	set := make(SlotSet, len(slots))
	for _, slot := range slots {
		set[slot] = struct{}{}
	}
	return set
}

// UniverseSlotSet returns a set holding every slot of the week.
func UniverseSlotSet() SlotSet {
	return NewSlotSet(AllSlots()...)
}

func (s SlotSet) Has(slot Slot) bool {
	_, ok := s[slot]
	return ok
}

func (s SlotSet) Add(slot Slot) {
	s[slot] = struct{}{}
}

func (s SlotSet) Remove(slot Slot) {
	delete(s, slot)
}

// Sorted returns the members in day-major order.
func (s SlotSet) Sorted() []Slot {
	out := make([]Slot, 0, len(s))
	for slot := range s {
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day == out[j].Day {
			return out[i].Period < out[j].Period
		}
		return out[i].Day < out[j].Day
	})
	return out
}

// Keys renders the sorted members as slot keys.
func (s SlotSet) Keys() []string {
	sorted := s.Sorted()
	keys := make([]string, len(sorted))
	for i, slot := range sorted {
		keys[i] = slot.Key()
	}
	return keys
}
