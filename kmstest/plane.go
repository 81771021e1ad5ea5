package kmstest

import "github.com/kmscompose/liftplane"

// standardProps is the name→property-id table every fixture plane gets.
// The concrete numbers only need to be consistent within a fixture; tests
// never see them directly. FB_ID's id is pinned to fbIDPropertyID so
// Request.Commit can recognize it without per-plane bookkeeping.
var standardProps = map[string]uint32{
	liftplane.PropType:     0,
	liftplane.PropFBID:     fbIDPropertyID,
	liftplane.PropCRTCID:   2,
	liftplane.PropCRTCX:    3,
	liftplane.PropCRTCY:    4,
	liftplane.PropCRTCW:    5,
	liftplane.PropCRTCH:    6,
	liftplane.PropSRCX:     7,
	liftplane.PropSRCY:     8,
	liftplane.PropSRCW:     9,
	liftplane.PropSRCH:     10,
	liftplane.PropZpos:     11,
	liftplane.PropAlpha:    12,
	liftplane.PropRotation: 13,
}

// RegisterPlane creates a plane on both device and fixture with the
// fixture's standard property table, mirroring
// liftoff_mock_drm_create_plane followed by liftoff_plane_create.
func RegisterPlane(device *liftplane.Device, id, possibleCRTCs uint32, kind liftplane.PlaneType, zpos int64) (*liftplane.Plane, error) {
	props := make(map[string]uint32, len(standardProps))
	for name, propID := range standardProps {
		props[name] = propID
	}
	return device.RegisterPlane(id, possibleCRTCs, kind, zpos, props)
}

var errUnknownFB = fixtureError("FB_ID not registered with fixture")

type fixtureError string

func (e fixtureError) Error() string { return "kmstest: " + string(e) }
