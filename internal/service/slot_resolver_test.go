package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestResolveNoEligibleFaculty(t *testing.T) {
	alloc := allocationMap(member("x", "Dr. X", true, "physics"))
	res := alloc.Resolve("maths", models.Slot{Day: 1, Period: 2}, false)

	assert.False(t, res.Success)
	assert.Equal(t, ReasonNoFacultyAssigned, res.ConflictReason)
	assert.Equal(t, 1, res.Day)
	assert.Equal(t, 2, res.Period)
}

func TestResolvePrefersLeastLoadedThenRosterOrder(t *testing.T) {
	x := member("x", "Dr. X", false, "maths")
	y := member("y", "Dr. Y", false, "maths")
	alloc := allocationMap(x, y)
	slot := models.Slot{Day: 2, Period: 4}

	res := alloc.Resolve("maths", slot, false)
	require.True(t, res.Success)
	assert.Equal(t, "x", res.FacultyID, "ties go to roster order")

	require.True(t, alloc.Allocate("x", models.Slot{Day: 0, Period: 0}))
	res = alloc.Resolve("maths", slot, false)
	require.True(t, res.Success)
	assert.Equal(t, "y", res.FacultyID)
	assert.Equal(t, "Dr. Y", res.FacultyName)
}

func TestResolveIsPure(t *testing.T) {
	x := member("x", "Dr. X", false, "maths")
	alloc := allocationMap(x)
	slot := models.Slot{Day: 3, Period: 3}

	first := alloc.Resolve("maths", slot, false)
	second := alloc.Resolve("maths", slot, false)
	assert.Equal(t, first, second)
	assert.Empty(t, x.AssignedSlots)
	assert.True(t, x.AvailableSlots.Has(slot))
}

func TestResolveExplainsRejections(t *testing.T) {
	slot := models.Slot{Day: 0, Period: 3}
	busy := member("x", "Dr. X", true, "dbms-lab")
	busy.assign(slot)
	theoryOnly := member("y", "Dr. Y", false, "dbms-lab")
	alloc := allocationMap(busy, theoryOnly)

	res := alloc.Resolve("dbms-lab", slot, true)
	assert.False(t, res.Success)
	assert.Equal(t, "Dr. X: slot conflict at Mon-p4; Dr. Y: lab preference mismatch", res.ConflictReason)

	res = alloc.Resolve("dbms-lab", slot, false)
	require.True(t, res.Success, "lab preference only matters for lab subjects")
	assert.Equal(t, "y", res.FacultyID)
}

func TestAllocateMovesSlot(t *testing.T) {
	x := member("x", "Dr. X", false, "maths")
	alloc := allocationMap(x)
	slot := models.Slot{Day: 4, Period: 6}

	assert.True(t, alloc.Allocate("x", slot))
	assert.True(t, x.AssignedSlots.Has(slot))
	assert.False(t, x.AvailableSlots.Has(slot))
	assert.False(t, alloc.Allocate("x", slot), "a slot cannot be allocated twice")
	assert.False(t, alloc.Allocate("nobody", slot))
	assert.Len(t, x.AssignedSlots, 1)
}

func TestAllocateRespectsReservation(t *testing.T) {
	counselor := member("c", "Dr. C", false)
	counselor.IsClassCounselor = true
	for _, slot := range counselorReservedSlots() {
		counselor.reserve(slot)
	}
	alloc := allocationMap(counselor)

	assert.False(t, alloc.Allocate("c", models.Slot{Day: models.Saturday, Period: 4}))
	assert.True(t, alloc.Allocate("c", models.Slot{Day: models.Saturday, Period: 1}))
	assert.Same(t, counselor, alloc.Counselor())
}
