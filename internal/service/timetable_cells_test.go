package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCell(t *testing.T) {
	cases := []struct {
		label string
		want  Cell
	}{
		{"Maths", Cell{Kind: CellPlainSubject, Label: "Maths"}},
		{"  DBMS Lab ", Cell{Kind: CellPlainSubject, Label: "DBMS Lab"}},
		{"Counselling (Dr. X)", Cell{Kind: CellSpecialWithAttribution, Label: "Counselling (Dr. X)", SpecialType: "Counselling", FacultyName: "Dr. X"}},
		{"Library Hour ( Ms. Rao )", Cell{Kind: CellSpecialWithAttribution, Label: "Library Hour ( Ms. Rao )", SpecialType: "Library Hour", FacultyName: "Ms. Rao"}},
		{"(Dr. X)", Cell{Kind: CellPlainSubject, Label: "(Dr. X)"}},
		{"Counselling ()", Cell{Kind: CellPlainSubject, Label: "Counselling ()"}},
		{"Counselling (Dr. X) extra", Cell{Kind: CellPlainSubject, Label: "Counselling (Dr. X) extra"}},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseCell(tc.label))
		})
	}
}

func TestAttributedLabelRoundTrip(t *testing.T) {
	label := AttributedLabel("Counselling", "Dr. Dinesh")
	assert.Equal(t, "Counselling (Dr. Dinesh)", label)

	cell := ParseCell(label)
	assert.Equal(t, CellSpecialWithAttribution, cell.Kind)
	assert.Equal(t, "Dr. Dinesh", cell.FacultyName)

	assert.Equal(t, "Counselling", AttributedLabel("Counselling", ""))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "dr. x y", normalizeName("  Dr.   X\tY "))
}
