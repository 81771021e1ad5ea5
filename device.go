package liftplane

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/multierr"
)

// DeviceStats is additive telemetry; it never participates in allocation
// decisions and exists purely for callers who want visibility into how
// expensive recent frames were.
type DeviceStats struct {
	TestCommits int64
	RealCommits int64
	ReuseHits   int64
}

// Device owns the set of registered planes and outputs for one DRM node.
// It tracks monotonic counters: pageFlipCounter (bumped once per Apply
// call, drives the priority tracker's window), testCommitCounter (bumped
// once per probe commit), realCommitCounter (bumped once per Apply call)
// and reuseHitCounter; the last three are what DeviceStats reports.
type Device struct {
	planes []*Plane
	byID   map[uint32]*Plane

	outputs []*Output

	crtcIDs []uint32

	pageFlipCounter   int
	testCommitCounter int64
	realCommitCounter int64
	reuseHitCounter   int64

	log *zap.Logger
}

// NewDevice creates a Device tracking the given ordered list of CRTC ids
// (a CRTC's index within this list is what planes' possible-CRTC masks are
// tested against). log may be nil, in which case logging is a no-op.
func NewDevice(crtcIDs []uint32, log *zap.Logger) *Device {
	if log == nil {
		log = zap.NewNop()
	}
	return &Device{
		byID:    make(map[uint32]*Plane),
		crtcIDs: append([]uint32(nil), crtcIDs...),
		log:     log,
	}
}

// RegisterPlane adds a plane to the device. Registering the same plane id
// twice is a programming error.
func (d *Device) RegisterPlane(id, possibleCRTCs uint32, kind PlaneType, zpos int64, props map[string]uint32) (*Plane, error) {
	if _, exists := d.byID[id]; exists {
		return nil, ErrInvalidArgument
	}
	p := newPlane(id, possibleCRTCs, kind, zpos, props)
	d.byID[id] = p
	d.planes = append(d.planes, p)
	d.planes = planeOrder(d.planes)
	return p, nil
}

// UnregisterPlane removes a plane from the device, clearing its layer
// binding if it has one. Idempotent on an id that isn't registered.
func (d *Device) UnregisterPlane(id uint32) {
	p, ok := d.byID[id]
	if !ok {
		return
	}
	if p.layer != nil {
		p.layer.plane = nil
		p.layer = nil
	}
	delete(d.byID, id)
	for i, cur := range d.planes {
		if cur == p {
			d.planes = append(d.planes[:i], d.planes[i+1:]...)
			break
		}
	}
}

// Planes returns the device's planes in their fixed registration order
// (primaries first, then non-primaries in decreasing zpos).
func (d *Device) Planes() []*Plane {
	return append([]*Plane(nil), d.planes...)
}

// CRTCIndex returns the index of a CRTC id within the device's CRTC list,
// or -1 if it isn't one of the device's CRTCs.
func (d *Device) CRTCIndex(crtcID uint32) int {
	for i, id := range d.crtcIDs {
		if id == crtcID {
			return i
		}
	}
	return -1
}

// Stats returns the device's cumulative commit counters.
func (d *Device) Stats() DeviceStats {
	return DeviceStats{
		TestCommits: d.testCommitCounter,
		RealCommits: d.realCommitCounter,
		ReuseHits:   d.reuseHitCounter,
	}
}

// Close tears down every output still registered on the device. An output
// destroyed with layers still attached is a caller bug, not a reason to
// abort the rest of the teardown: each offending output contributes an
// independent error and Close keeps going, returning them combined.
func (d *Device) Close() error {
	var err error
	for _, o := range append([]*Output(nil), d.outputs...) {
		if len(o.layers) > 0 {
			err = multierr.Append(err, fmt.Errorf("liftplane: output (crtc id %d) closed with %d layer(s) still attached", o.crtcID, len(o.layers)))
		}
		o.Destroy()
	}
	d.planes = nil
	d.byID = make(map[uint32]*Plane)
	return err
}

func (d *Device) registerOutput(o *Output) {
	d.outputs = append(d.outputs, o)
}

func (d *Device) unregisterOutput(o *Output) {
	for i, cur := range d.outputs {
		if cur == o {
			d.outputs = append(d.outputs[:i], d.outputs[i+1:]...)
			return
		}
	}
}
