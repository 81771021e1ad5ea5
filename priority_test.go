package liftplane

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCandidateOrder_HighestPriorityFirstTiesByInsertion(t *testing.T) {
	o := &Output{}
	a := o.NewLayer()
	b := o.NewLayer()
	c := o.NewLayer()

	a.currentPriority = 1
	b.currentPriority = 5
	c.currentPriority = 5

	got := candidateOrder(o)
	require.Equal(t, []*Layer{b, c, a}, got)
}

func TestUpdatePriorities_BumpsPageFlipCounterAndRollsOverOnWindow(t *testing.T) {
	d := NewDevice([]uint32{100}, nil)
	o, err := NewOutput(d, 100)
	require.NoError(t, err)
	l := o.NewLayer()
	require.NoError(t, l.SetProperty(PropFBID, 1))
	l.markClean()

	for i := 0; i < priorityWindow-1; i++ {
		require.NoError(t, l.SetProperty(PropFBID, uint64(i+2)))
		d.updatePriorities() // sees this iteration's FB_ID diff before it's synced away
		l.markClean()
	}
	require.Equal(t, 0, l.currentPriority, "priority shouldn't roll over before the window elapses")

	require.NoError(t, l.SetProperty(PropFBID, 999))
	d.updatePriorities()
	l.markClean()
	require.Equal(t, priorityWindow, d.pageFlipCounter)
	require.Equal(t, priorityWindow, l.currentPriority)
}
