package kms

import (
	"fmt"
	"os"
	"unsafe"

	"go.uber.org/zap"

	"github.com/kmscompose/liftplane"
)

// Backend is an open DRM/KMS node. It implements just enough of the kernel
// API for liftplane's Device to discover planes, their properties, and the
// set of CRTCs planes can scan out to.
type Backend struct {
	f   *os.File
	log *zap.Logger
}

// Open opens the DRM render/primary node at path (typically /dev/dri/card0)
// and enables the universal-planes and atomic client capabilities, both of
// which are required for plane enumeration and atomic commits.
func Open(path string, log *zap.Logger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("kms: open %s: %w", path, err)
	}
	b := &Backend{f: f, log: log}
	if err := b.setClientCap(drmClientCapUniversalPlanes, 1); err != nil {
		f.Close()
		return nil, fmt.Errorf("kms: enable universal planes: %w", err)
	}
	if err := b.setClientCap(drmClientCapAtomic, 1); err != nil {
		f.Close()
		return nil, fmt.Errorf("kms: enable atomic modesetting: %w", err)
	}
	return b, nil
}

// Close releases the underlying file descriptor.
func (b *Backend) Close() error { return b.f.Close() }

const (
	drmIoctlSetClientCap = 0x0D
	drmClientCapUniversalPlanes = 2
	drmClientCapAtomic           = 3
)

type drmSetClientCap struct {
	capability uint64
	value      uint64
}

func (b *Backend) setClientCap(cap, value uint64) error {
	arg := drmSetClientCap{capability: cap, value: value}
	return ioctl(int(b.f.Fd()), drmIoctlSetClientCap, unsafe.Sizeof(arg), unsafe.Pointer(&arg))
}

// CRTCIDs returns every CRTC object id this node exposes, in kernel order
// (the index within this slice is the bit position planes' possible-CRTC
// masks are tested against).
func (b *Backend) CRTCIDs() ([]uint32, error) {
	var res drmModeCardRes
	if err := ioctl(int(b.f.Fd()), drmIoctlModeGetResources, unsafe.Sizeof(res), unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("kms: get resources: %w", err)
	}
	ids := make([]uint32, res.countCRTCs)
	res.crtcIDPtr = sliceToPtr(ids)
	if err := ioctl(int(b.f.Fd()), drmIoctlModeGetResources, unsafe.Sizeof(res), unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("kms: get resources: %w", err)
	}
	return ids, nil
}

// PlaneIDs returns the object id of every plane on this node.
func (b *Backend) PlaneIDs() ([]uint32, error) {
	var res drmModeGetPlaneRes
	if err := ioctl(int(b.f.Fd()), drmIoctlModeGetPlaneResources, unsafe.Sizeof(res), unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("kms: get plane resources: %w", err)
	}
	ids := make([]uint32, res.countPlanes)
	res.planeIDPtr = sliceToPtr(ids)
	if err := ioctl(int(b.f.Fd()), drmIoctlModeGetPlaneResources, unsafe.Sizeof(res), unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("kms: get plane resources: %w", err)
	}
	return ids, nil
}

// PlaneInfo describes one plane's static attributes as needed by
// liftplane.Device.RegisterPlane.
type PlaneInfo struct {
	ID            uint32
	PossibleCRTCs uint32
	Type          liftplane.PlaneType
	Zpos          int64
	Properties    map[string]uint32
}

// PlaneProperties reads a plane's possible-CRTC mask, type, zpos, and
// name→property-id table.
func (b *Backend) PlaneProperties(id uint32) (PlaneInfo, error) {
	var gp drmModeGetPlane
	gp.planeID = id
	if err := ioctl(int(b.f.Fd()), drmIoctlModeGetPlane, unsafe.Sizeof(gp), unsafe.Pointer(&gp)); err != nil {
		return PlaneInfo{}, fmt.Errorf("kms: get plane %d: %w", id, err)
	}

	var op drmModeObjGetProperties
	op.objID = id
	op.objType = drmModeObjectPlane
	if err := ioctl(int(b.f.Fd()), drmIoctlModeObjGetProperties, unsafe.Sizeof(op), unsafe.Pointer(&op)); err != nil {
		return PlaneInfo{}, fmt.Errorf("kms: get plane %d properties: %w", id, err)
	}

	propIDs := make([]uint32, op.countProps)
	propVals := make([]uint64, op.countProps)
	op.propsPtr = sliceToPtr(propIDs)
	op.propValuesPtr = sliceToPtr(propVals)
	if err := ioctl(int(b.f.Fd()), drmIoctlModeObjGetProperties, unsafe.Sizeof(op), unsafe.Pointer(&op)); err != nil {
		return PlaneInfo{}, fmt.Errorf("kms: get plane %d properties: %w", id, err)
	}

	info := PlaneInfo{
		ID:            id,
		PossibleCRTCs: gp.possibleCRTCs,
		Properties:    make(map[string]uint32, len(propIDs)),
	}

	for i, propID := range propIDs {
		var prop drmModeGetProperty
		prop.propID = propID
		if err := ioctl(int(b.f.Fd()), drmIoctlModeGetProperty, unsafe.Sizeof(prop), unsafe.Pointer(&prop)); err != nil {
			return PlaneInfo{}, fmt.Errorf("kms: get property %d: %w", propID, err)
		}
		name := cString(prop.name[:])
		info.Properties[name] = propID

		switch name {
		case liftplane.PropType:
			switch propVals[i] {
			case drmPlaneTypePrimary:
				info.Type = liftplane.PlaneTypePrimary
			case drmPlaneTypeCursor:
				info.Type = liftplane.PlaneTypeCursor
			default:
				info.Type = liftplane.PlaneTypeOverlay
			}
		case liftplane.PropZpos:
			info.Zpos = int64(propVals[i])
		}
	}

	return info, nil
}

const (
	drmModeObjectPlane = 0xeeeeeeee

	drmPlaneTypeOverlay = 0
	drmPlaneTypePrimary = 1
	drmPlaneTypeCursor  = 2
)

func cString(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}
