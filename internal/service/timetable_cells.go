package service

import (
	"regexp"
	"strings"
)

// CellKind distinguishes how a grid label is interpreted.
type CellKind int

const (
	// CellPlainSubject is a label that names a subject.
	CellPlainSubject CellKind = iota
	// CellSpecialWithAttribution is a "Type (Faculty Name)" label.
	CellSpecialWithAttribution
)

// Cell is the parsed form of a grid label.
type Cell struct {
	Kind        CellKind
	Label       string
	SpecialType string
	FacultyName string
}

var attributionPattern = regexp.MustCompile(`^\s*(.*?\S)\s*\(\s*([^()]*?\S)\s*\)\s*$`)

// ParseCell splits a grid label into its tagged form. Anything that does not match the
// "Type (Name)" pattern is a plain subject.
func ParseCell(label string) Cell {
	trimmed := strings.TrimSpace(label)
	match := attributionPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return Cell{Kind: CellPlainSubject, Label: trimmed}
	}
	return Cell{
		Kind:        CellSpecialWithAttribution,
		Label:       trimmed,
		SpecialType: match[1],
		FacultyName: match[2],
	}
}

// AttributedLabel renders a special hours label attributed to a faculty member.
func AttributedLabel(specialType, facultyName string) string {
	if facultyName == "" {
		return specialType
	}
	return specialType + " (" + facultyName + ")"
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
