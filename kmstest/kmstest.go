// Package kmstest is an in-memory stand-in for a DRM/KMS node: a fake
// liftplane.AtomicRequest plus a Fixture for registering plane compatibility
// rules, modeled on the mock DRM ioctl layer real libliftoff test suites
// commit against instead of a physical GPU.
package kmstest

import (
	"golang.org/x/sys/unix"

	"github.com/kmscompose/liftplane"
)

// Fixture is a fake device: a set of planes, each carrying the set of
// layers (identified by an opaque comparable key) it will accept a commit
// for. Any plane/layer pairing not registered via AllowLayer fails the test
// commit exactly the way an incompatible real plane would.
type Fixture struct {
	nextFBID uint32
	fbLayers map[uint32]any // FB_ID -> caller-supplied layer key

	compatible map[uint32]map[any]bool // plane id -> allowed layer keys
	forbidAll  map[uint32]bool         // plane id -> reject every commit touching it
}

// NewFixture creates an empty fixture.
func NewFixture() *Fixture {
	return &Fixture{
		nextFBID:   1,
		fbLayers:   make(map[uint32]any),
		compatible: make(map[uint32]map[any]bool),
		forbidAll:  make(map[uint32]bool),
	}
}

// CreateFB allocates a fake framebuffer id bound to layerKey, mirroring
// liftoff_mock_drm_create_fb. layerKey is whatever the caller uses to
// identify a layer across SetProperty(FB_ID, ...) calls and AllowLayer
// registrations; tests typically pass the *liftplane.Layer pointer itself.
func (f *Fixture) CreateFB(layerKey any) uint32 {
	id := f.nextFBID
	f.nextFBID++
	f.fbLayers[id] = layerKey
	return id
}

// AllowLayer registers that planeID will accept a commit whose FB_ID
// resolves to layerKey. Planes otherwise reject every non-zero FB_ID.
func (f *Fixture) AllowLayer(planeID uint32, layerKey any) {
	if f.compatible[planeID] == nil {
		f.compatible[planeID] = make(map[any]bool)
	}
	f.compatible[planeID][layerKey] = true
}

// ForbidPlane makes every commit touching planeID with a non-zero FB_ID
// fail, regardless of AllowLayer registrations. Useful for simulating a
// plane that's otherwise idle but can never scan out anything (e.g. one
// reserved by another client).
func (f *Fixture) ForbidPlane(planeID uint32) {
	f.forbidAll[planeID] = true
}

// NewRequest creates a fresh AtomicRequest against this fixture.
func (f *Fixture) NewRequest() *Request {
	return &Request{fixture: f}
}

type prop struct {
	objID, propID uint32
	value         uint64
}

// Request is the fake liftplane.AtomicRequest. It accepts any
// AddProperty call unconditionally (real kernels validate property ids
// too, but that's out of scope for this fixture) and only rejects at
// Commit time, based on the fixture's compatibility rules.
type Request struct {
	fixture *Fixture
	props   []prop
	commits int
}

func (r *Request) AddProperty(objectID, propertyID uint32, value uint64) error {
	r.props = append(r.props, prop{objID: objectID, propID: propertyID, value: value})
	return nil
}

func (r *Request) Mark() int { return len(r.props) }

func (r *Request) Restore(mark int) { r.props = r.props[:mark] }

// Commits returns how many times Commit has been called, test or real.
func (r *Request) Commits() int { return r.commits }

// Commit evaluates every (plane, FB_ID) pair currently in the request
// against the fixture's compatibility rules. Commit does not clear the
// request: a fixture request is reusable across repeated probes the way a
// real drmModeAtomicReq is, and each probe sees every property added and
// not since dropped by Restore.
func (r *Request) Commit(flags liftplane.CommitFlags) error {
	r.commits++

	fbByObj := make(map[uint32]uint64)
	touched := make(map[uint32]bool)
	for _, p := range r.props {
		touched[p.objID] = true
		if isFBIDProp(p) {
			fbByObj[p.objID] = p.value
		}
	}

	for planeID := range touched {
		fbID, ok := fbByObj[planeID]
		if !ok || fbID == 0 {
			continue // disabling a plane always succeeds
		}
		if r.fixture.forbidAll[planeID] {
			// EINVAL: a real kernel rejects an incompatible plane
			// configuration the same routine way.
			return &liftplane.KernelError{Op: "mock atomic commit", Err: unix.EINVAL}
		}
		layerKey, ok := r.fixture.fbLayers[uint32(fbID)]
		if !ok {
			return &liftplane.KernelError{Op: "mock atomic commit", Err: errUnknownFB}
		}
		allowed := r.fixture.compatible[planeID]
		if !allowed[layerKey] {
			return &liftplane.KernelError{Op: "mock atomic commit", Err: unix.EINVAL}
		}
	}

	return nil
}

// isFBIDProp reports whether p sets a plane's FB_ID. The fixture doesn't
// track per-object property-name mappings (tests build requests straight
// from plane ids and raw property ids handed out by the same fixture
// registration that created the plane), so this matches on the
// convention that FB_ID is always property id 1 for planes in this
// fixture. See RegisterPlane in plane.go.
func isFBIDProp(p prop) bool {
	return p.propID == fbIDPropertyID
}

const fbIDPropertyID = 1
