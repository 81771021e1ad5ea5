package liftplane_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kmscompose/liftplane"
	"github.com/kmscompose/liftplane/kmstest"
)

// newTestDevice creates a device with one CRTC (id 100, index 0) and no
// planes registered yet.
func newTestDevice() *liftplane.Device {
	return liftplane.NewDevice([]uint32{100}, nil)
}

const allCRTCs = ^uint32(0)

// setRect sets the geometry properties the search engine reads off a layer.
func setRect(t *testing.T, l *liftplane.Layer, x, y, w, h int64) {
	t.Helper()
	require.NoError(t, l.SetProperty(liftplane.PropCRTCX, uint64(x)))
	require.NoError(t, l.SetProperty(liftplane.PropCRTCY, uint64(y)))
	require.NoError(t, l.SetProperty(liftplane.PropCRTCW, uint64(w)))
	require.NoError(t, l.SetProperty(liftplane.PropCRTCH, uint64(h)))
}

// S1: a single layer covering the whole output goes straight to the lone
// primary plane.
func TestSearch_SinglePrimaryLayer(t *testing.T) {
	fixture := kmstest.NewFixture()
	device := newTestDevice()

	primary, err := kmstest.RegisterPlane(device, 1, allCRTCs, liftplane.PlaneTypePrimary, 0)
	require.NoError(t, err)

	output, err := liftplane.NewOutput(device, 100)
	require.NoError(t, err)

	l1 := output.NewLayer()
	setRect(t, l1, 0, 0, 1920, 1080)
	fb := fixture.CreateFB(l1)
	require.NoError(t, l1.SetProperty(liftplane.PropFBID, uint64(fb)))
	fixture.AllowLayer(primary.ID(), l1)

	req := fixture.NewRequest()
	require.NoError(t, device.Apply(output, req, 0))

	require.Equal(t, primary, l1.Plane())
}

// S2: primary + overlay + cursor, three layers compatible everywhere in
// increasing zpos, each lands on a distinct plane.
func TestSearch_ThreeLayersThreePlanes(t *testing.T) {
	fixture := kmstest.NewFixture()
	device := newTestDevice()

	primary, err := kmstest.RegisterPlane(device, 1, allCRTCs, liftplane.PlaneTypePrimary, 0)
	require.NoError(t, err)
	overlay, err := kmstest.RegisterPlane(device, 2, allCRTCs, liftplane.PlaneTypeOverlay, 1)
	require.NoError(t, err)
	cursor, err := kmstest.RegisterPlane(device, 3, allCRTCs, liftplane.PlaneTypeCursor, 2)
	require.NoError(t, err)

	output, err := liftplane.NewOutput(device, 100)
	require.NoError(t, err)

	l1 := output.NewLayer()
	setRect(t, l1, 0, 0, 1920, 1080)
	require.NoError(t, l1.SetProperty(liftplane.PropZpos, 1))
	fb1 := fixture.CreateFB(l1)
	require.NoError(t, l1.SetProperty(liftplane.PropFBID, uint64(fb1)))
	fixture.AllowLayer(primary.ID(), l1)

	l2 := output.NewLayer()
	setRect(t, l2, 0, 0, 100, 100)
	require.NoError(t, l2.SetProperty(liftplane.PropZpos, 2))
	fb2 := fixture.CreateFB(l2)
	require.NoError(t, l2.SetProperty(liftplane.PropFBID, uint64(fb2)))
	fixture.AllowLayer(overlay.ID(), l2)
	fixture.AllowLayer(cursor.ID(), l2)

	l3 := output.NewLayer()
	setRect(t, l3, 0, 0, 100, 100)
	require.NoError(t, l3.SetProperty(liftplane.PropZpos, 3))
	fb3 := fixture.CreateFB(l3)
	require.NoError(t, l3.SetProperty(liftplane.PropFBID, uint64(fb3)))
	fixture.AllowLayer(overlay.ID(), l3)
	fixture.AllowLayer(cursor.ID(), l3)

	req := fixture.NewRequest()
	require.NoError(t, device.Apply(output, req, 0))

	require.Equal(t, primary, l1.Plane())
	require.Equal(t, overlay, l2.Plane())
	require.Equal(t, cursor, l3.Plane())
}

// S3: L2 can't be placed on any plane at all, and L3 overlaps L2 while
// sitting under it in zpos, so L3 can't be placed under a layer that has
// nowhere else to go. Neither ends up assigned.
func TestSearch_UnplaceableTopLayerBlocksOverlap(t *testing.T) {
	fixture := kmstest.NewFixture()
	device := newTestDevice()

	primary, err := kmstest.RegisterPlane(device, 1, allCRTCs, liftplane.PlaneTypePrimary, 0)
	require.NoError(t, err)
	overlay, err := kmstest.RegisterPlane(device, 2, allCRTCs, liftplane.PlaneTypeOverlay, 1)
	require.NoError(t, err)
	cursor, err := kmstest.RegisterPlane(device, 3, allCRTCs, liftplane.PlaneTypeCursor, 2)
	require.NoError(t, err)

	output, err := liftplane.NewOutput(device, 100)
	require.NoError(t, err)

	l1 := output.NewLayer()
	setRect(t, l1, 0, 0, 1920, 1080)
	require.NoError(t, l1.SetProperty(liftplane.PropZpos, 1))
	fb1 := fixture.CreateFB(l1)
	require.NoError(t, l1.SetProperty(liftplane.PropFBID, uint64(fb1)))
	fixture.AllowLayer(primary.ID(), l1)

	l2 := output.NewLayer() // {none}: never registered as compatible anywhere
	setRect(t, l2, 0, 0, 100, 100)
	require.NoError(t, l2.SetProperty(liftplane.PropZpos, 3))
	fb2 := fixture.CreateFB(l2)
	require.NoError(t, l2.SetProperty(liftplane.PropFBID, uint64(fb2)))

	l3 := output.NewLayer() // overlaps l2, sits underneath it, compatible everywhere
	setRect(t, l3, 0, 0, 100, 100)
	require.NoError(t, l3.SetProperty(liftplane.PropZpos, 2))
	fb3 := fixture.CreateFB(l3)
	require.NoError(t, l3.SetProperty(liftplane.PropFBID, uint64(fb3)))
	fixture.AllowLayer(overlay.ID(), l3)
	fixture.AllowLayer(cursor.ID(), l3)

	req := fixture.NewRequest()
	require.NoError(t, device.Apply(output, req, 0))

	require.Equal(t, primary, l1.Plane())
	require.Nil(t, l2.Plane())
	require.Nil(t, l3.Plane())
}

// S4: same as S3 but L3 no longer overlaps L2, so it's free to take the
// cursor plane despite L2 remaining unplaceable.
func TestSearch_DisjointLayerStillPlaced(t *testing.T) {
	fixture := kmstest.NewFixture()
	device := newTestDevice()

	primary, err := kmstest.RegisterPlane(device, 1, allCRTCs, liftplane.PlaneTypePrimary, 0)
	require.NoError(t, err)
	_, err = kmstest.RegisterPlane(device, 2, allCRTCs, liftplane.PlaneTypeOverlay, 1)
	require.NoError(t, err)
	cursor, err := kmstest.RegisterPlane(device, 3, allCRTCs, liftplane.PlaneTypeCursor, 2)
	require.NoError(t, err)

	output, err := liftplane.NewOutput(device, 100)
	require.NoError(t, err)

	l1 := output.NewLayer()
	setRect(t, l1, 0, 0, 1920, 1080)
	require.NoError(t, l1.SetProperty(liftplane.PropZpos, 1))
	fb1 := fixture.CreateFB(l1)
	require.NoError(t, l1.SetProperty(liftplane.PropFBID, uint64(fb1)))
	fixture.AllowLayer(primary.ID(), l1)

	l2 := output.NewLayer() // {none}, at (0,0)
	setRect(t, l2, 0, 0, 100, 100)
	require.NoError(t, l2.SetProperty(liftplane.PropZpos, 3))
	fb2 := fixture.CreateFB(l2)
	require.NoError(t, l2.SetProperty(liftplane.PropFBID, uint64(fb2)))

	l3 := output.NewLayer() // disjoint from l2, at (100,100); {cursor} only
	setRect(t, l3, 100, 100, 100, 100)
	require.NoError(t, l3.SetProperty(liftplane.PropZpos, 2))
	fb3 := fixture.CreateFB(l3)
	require.NoError(t, l3.SetProperty(liftplane.PropFBID, uint64(fb3)))
	fixture.AllowLayer(cursor.ID(), l3)

	req := fixture.NewRequest()
	require.NoError(t, device.Apply(output, req, 0))

	require.Equal(t, primary, l1.Plane())
	require.Nil(t, l2.Plane())
	require.Equal(t, cursor, l3.Plane())
}

// S5: primary, cursor, and two overlays at equal zpos; four
// mutually-intersecting layers, all but the primary's compatible with
// every non-primary plane. Since the two overlays share a zpos and every
// layer overlaps every other, at most three of the four planes can be
// used; which overlay plane wins is explicitly unspecified, so this only
// asserts the invariant that exactly three layers land on planes, with
// the primary- and cursor-bound layers landing where expected.
func TestSearch_EqualZposOverlaysLeaveOneLayerUnassigned(t *testing.T) {
	fixture := kmstest.NewFixture()
	device := newTestDevice()

	primary, err := kmstest.RegisterPlane(device, 1, allCRTCs, liftplane.PlaneTypePrimary, 0)
	require.NoError(t, err)
	cursor, err := kmstest.RegisterPlane(device, 2, allCRTCs, liftplane.PlaneTypeCursor, 2)
	require.NoError(t, err)
	overlayA, err := kmstest.RegisterPlane(device, 3, allCRTCs, liftplane.PlaneTypeOverlay, 1)
	require.NoError(t, err)
	overlayB, err := kmstest.RegisterPlane(device, 4, allCRTCs, liftplane.PlaneTypeOverlay, 1)
	require.NoError(t, err)

	output, err := liftplane.NewOutput(device, 100)
	require.NoError(t, err)

	l1 := output.NewLayer() // fullscreen, primary only, lowest zpos
	setRect(t, l1, 0, 0, 1920, 1080)
	require.NoError(t, l1.SetProperty(liftplane.PropZpos, 1))
	fb1 := fixture.CreateFB(l1)
	require.NoError(t, l1.SetProperty(liftplane.PropFBID, uint64(fb1)))
	fixture.AllowLayer(primary.ID(), l1)

	l2 := output.NewLayer() // highest zpos, compatible everywhere
	setRect(t, l2, 0, 0, 100, 100)
	require.NoError(t, l2.SetProperty(liftplane.PropZpos, 4))
	fb2 := fixture.CreateFB(l2)
	require.NoError(t, l2.SetProperty(liftplane.PropFBID, uint64(fb2)))
	fixture.AllowLayer(primary.ID(), l2)
	fixture.AllowLayer(cursor.ID(), l2)
	fixture.AllowLayer(overlayA.ID(), l2)
	fixture.AllowLayer(overlayB.ID(), l2)

	l3 := output.NewLayer() // zpos 2, compatible everywhere
	setRect(t, l3, 0, 0, 100, 100)
	require.NoError(t, l3.SetProperty(liftplane.PropZpos, 2))
	fb3 := fixture.CreateFB(l3)
	require.NoError(t, l3.SetProperty(liftplane.PropFBID, uint64(fb3)))
	fixture.AllowLayer(primary.ID(), l3)
	fixture.AllowLayer(cursor.ID(), l3)
	fixture.AllowLayer(overlayA.ID(), l3)
	fixture.AllowLayer(overlayB.ID(), l3)

	l4 := output.NewLayer() // zpos 3, compatible everywhere
	setRect(t, l4, 0, 0, 100, 100)
	require.NoError(t, l4.SetProperty(liftplane.PropZpos, 3))
	fb4 := fixture.CreateFB(l4)
	require.NoError(t, l4.SetProperty(liftplane.PropFBID, uint64(fb4)))
	fixture.AllowLayer(primary.ID(), l4)
	fixture.AllowLayer(cursor.ID(), l4)
	fixture.AllowLayer(overlayA.ID(), l4)
	fixture.AllowLayer(overlayB.ID(), l4)

	req := fixture.NewRequest()
	require.NoError(t, device.Apply(output, req, 0))

	require.Equal(t, primary, l1.Plane())
	require.Equal(t, cursor, l2.Plane())
	require.Nil(t, l3.Plane())
	require.NotNil(t, l4.Plane())
	require.True(t, l4.Plane() == overlayA || l4.Plane() == overlayB)

	placed := 0
	for _, l := range []*liftplane.Layer{l1, l2, l3, l4} {
		if l.Plane() != nil {
			placed++
		}
	}
	require.Equal(t, 3, placed, "exactly one of four mutually-intersecting layers should be left unassigned across four planes with two equal-zpos overlays")
}

// S6: an unchanged allocation is replayed by the reuse cache on the second
// Apply, costing exactly one test commit instead of a fresh search.
func TestSearch_ReuseOnSecondApply(t *testing.T) {
	fixture := kmstest.NewFixture()
	device := newTestDevice()

	primary, err := kmstest.RegisterPlane(device, 1, allCRTCs, liftplane.PlaneTypePrimary, 0)
	require.NoError(t, err)

	output, err := liftplane.NewOutput(device, 100)
	require.NoError(t, err)

	l1 := output.NewLayer()
	setRect(t, l1, 0, 0, 1920, 1080)
	fb := fixture.CreateFB(l1)
	require.NoError(t, l1.SetProperty(liftplane.PropFBID, uint64(fb)))
	fixture.AllowLayer(primary.ID(), l1)

	req1 := fixture.NewRequest()
	require.NoError(t, device.Apply(output, req1, 0))
	require.Equal(t, primary, l1.Plane())

	statsAfterFirst := device.Stats()
	require.GreaterOrEqual(t, statsAfterFirst.TestCommits, int64(1))

	req2 := fixture.NewRequest()
	require.NoError(t, device.Apply(output, req2, 0))

	statsAfterSecond := device.Stats()
	require.Equal(t, statsAfterFirst.TestCommits+1, statsAfterSecond.TestCommits)
	require.Equal(t, int64(1), statsAfterSecond.ReuseHits)
}

// A layer with alpha == 0 is invisible and never lands on a plane, even
// though it would otherwise be perfectly compatible.
func TestSearch_FullyTransparentLayerNeverPlaced(t *testing.T) {
	fixture := kmstest.NewFixture()
	device := newTestDevice()

	primary, err := kmstest.RegisterPlane(device, 1, allCRTCs, liftplane.PlaneTypePrimary, 0)
	require.NoError(t, err)

	output, err := liftplane.NewOutput(device, 100)
	require.NoError(t, err)

	l1 := output.NewLayer()
	setRect(t, l1, 0, 0, 1920, 1080)
	fb := fixture.CreateFB(l1)
	require.NoError(t, l1.SetProperty(liftplane.PropFBID, uint64(fb)))
	require.NoError(t, l1.SetProperty(liftplane.PropAlpha, 0))
	fixture.AllowLayer(primary.ID(), l1)

	req := fixture.NewRequest()
	require.NoError(t, device.Apply(output, req, 0))

	require.Nil(t, l1.Plane())
	require.False(t, l1.Visible())
}

// A layer with ForceComposition set is never assigned a plane even if it
// would otherwise pass every compatibility check.
func TestSearch_ForceCompositionNeverPlaced(t *testing.T) {
	fixture := kmstest.NewFixture()
	device := newTestDevice()

	primary, err := kmstest.RegisterPlane(device, 1, allCRTCs, liftplane.PlaneTypePrimary, 0)
	require.NoError(t, err)

	output, err := liftplane.NewOutput(device, 100)
	require.NoError(t, err)

	l1 := output.NewLayer()
	setRect(t, l1, 0, 0, 1920, 1080)
	fb := fixture.CreateFB(l1)
	require.NoError(t, l1.SetProperty(liftplane.PropFBID, uint64(fb)))
	l1.SetFBComposited()
	fixture.AllowLayer(primary.ID(), l1)

	req := fixture.NewRequest()
	require.NoError(t, device.Apply(output, req, 0))

	require.Nil(t, l1.Plane())
	require.True(t, l1.ForceComposition())
}
