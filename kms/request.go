package kms

import (
	"unsafe"

	"github.com/kmscompose/liftplane"
)

type atomicProp struct {
	objID, propID uint32
	value         uint64
}

// Request is the real kernel-backed liftplane.AtomicRequest: an
// append-only list of (object, property, value) triples plus a cursor,
// committed via DRM_IOCTL_MODE_ATOMIC.
type Request struct {
	b     *Backend
	props []atomicProp
}

// NewRequest creates an empty atomic request against this backend.
func (b *Backend) NewRequest() *Request {
	return &Request{b: b}
}

func (r *Request) AddProperty(objectID, propertyID uint32, value uint64) error {
	r.props = append(r.props, atomicProp{objID: objectID, propID: propertyID, value: value})
	return nil
}

func (r *Request) Mark() int { return len(r.props) }

func (r *Request) Restore(mark int) { r.props = r.props[:mark] }

func (r *Request) Commit(flags liftplane.CommitFlags) error {
	objIDs := make([]uint32, 0, len(r.props))
	countProps := make([]uint32, 0, len(r.props))
	propIDs := make([]uint32, len(r.props))
	propVals := make([]uint64, len(r.props))

	for i, p := range r.props {
		propIDs[i] = p.propID
		propVals[i] = p.value

		if len(objIDs) == 0 || objIDs[len(objIDs)-1] != p.objID {
			objIDs = append(objIDs, p.objID)
			countProps = append(countProps, 0)
		}
		countProps[len(countProps)-1]++
	}

	arg := drmModeAtomic{
		flags:         drmFlags(flags),
		countObjs:     uint32(len(objIDs)),
		objsPtr:       sliceToPtr(objIDs),
		countPropsPtr: sliceToPtr(countProps),
		propsPtr:      sliceToPtr(propIDs),
		propValuesPtr: sliceToPtr(propVals),
	}

	if err := ioctl(int(r.b.f.Fd()), drmIoctlModeAtomic, unsafe.Sizeof(arg), unsafe.Pointer(&arg)); err != nil {
		return &liftplane.KernelError{Op: "DRM_IOCTL_MODE_ATOMIC", Err: err}
	}
	return nil
}

const (
	drmModeAtomicFlagAllowModeset  = 0x0400
	drmModeAtomicFlagNonblock      = 0x0200
	drmModeAtomicFlagTestOnly      = 0x0100
	drmModePageFlipEvent           = 0x01
)

func drmFlags(flags liftplane.CommitFlags) uint32 {
	var out uint32
	if flags&liftplane.CommitAllowModeset != 0 {
		out |= drmModeAtomicFlagAllowModeset
	}
	if flags&liftplane.CommitNonblock != 0 {
		out |= drmModeAtomicFlagNonblock
	}
	if flags&liftplane.CommitTestOnly != 0 {
		out |= drmModeAtomicFlagTestOnly
	}
	if flags&liftplane.CommitPageFlipEvent != 0 {
		out |= drmModePageFlipEvent
	}
	return out
}
