package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Grid is the weekly timetable of one section: six days of seven periods holding subject names.
// A nil or empty cell is free.
type Grid [DaysPerWeek][PeriodsPerDay]*string

// Label returns the cell label and whether the cell is occupied.
func (g *Grid) Label(slot Slot) (string, bool) {
	if !slot.Valid() {
		return "", false
	}
	cell := g[slot.Day][slot.Period]
	if cell == nil || *cell == "" {
		return "", false
	}
	return *cell, true
}

// IsFree reports whether the cell can still be written.
func (g *Grid) IsFree(slot Slot) bool {
	if !slot.Valid() {
		return false
	}
	_, occupied := g.Label(slot)
	return !occupied
}

// Set writes a label into a free cell. Occupied cells are never overwritten.
func (g *Grid) Set(slot Slot, label string) bool {
	if !g.IsFree(slot) || label == "" {
		return false
	}
	value := label
	g[slot.Day][slot.Period] = &value
	return true
}

// FreeCount returns the number of free cells on a day.
func (g *Grid) FreeCount(day int) int {
	count := 0
	for period := 0; period < PeriodsPerDay; period++ {
		if g.IsFree(Slot{Day: day, Period: period}) {
			count++
		}
	}
	return count
}

// DayHas reports whether any cell on the day carries the label.
func (g *Grid) DayHas(day int, label string) bool {
	for period := 0; period < PeriodsPerDay; period++ {
		if current, ok := g.Label(Slot{Day: day, Period: period}); ok && current == label {
			return true
		}
	}
	return false
}

// Count returns how many cells carry the label.
func (g *Grid) Count(label string) int {
	count := 0
	for _, slot := range AllSlots() {
		if current, ok := g.Label(slot); ok && current == label {
			count++
		}
	}
	return count
}

// Value implements driver.Valuer storing the grid as JSON.
func (g Grid) Value() (driver.Value, error) {
	payload, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal grid: %w", err)
	}
	return payload, nil
}

// Scan implements sql.Scanner for jsonb columns.
func (g *Grid) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*g = Grid{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported grid source %T", src)
	}
	var decoded Grid
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("unmarshal grid: %w", err)
	}
	*g = decoded
	return nil
}
