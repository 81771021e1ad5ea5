package liftplane

// PlaneType identifies a hardware plane's conventional role.
type PlaneType int

const (
	PlaneTypeOverlay PlaneType = iota
	PlaneTypePrimary
	PlaneTypeCursor
)

// planeProperty is an immutable (name, DRM property id) pair discovered at
// registration time.
type planeProperty struct {
	name string
	id   uint32
}

// Plane is a hardware plane handle. Everything but the layer back-pointer
// is immutable once registered.
type Plane struct {
	id            uint32
	possibleCRTCs uint32
	kind          PlaneType
	zpos          int64

	props    []planeProperty
	basicIdx [numBasicProps]int

	layer *Layer
}

func newPlane(id, possibleCRTCs uint32, kind PlaneType, zpos int64, props map[string]uint32) *Plane {
	p := &Plane{
		id:            id,
		possibleCRTCs: possibleCRTCs,
		kind:          kind,
		zpos:          zpos,
	}
	for i := range p.basicIdx {
		p.basicIdx[i] = -1
	}
	for name, propID := range props {
		p.props = append(p.props, planeProperty{name: name, id: propID})
		if bp, ok := internBasicProp(name); ok {
			p.basicIdx[bp] = len(p.props) - 1
		}
	}
	return p
}

// ID returns the plane's DRM object id.
func (p *Plane) ID() uint32 { return p.id }

// Type returns the plane's conventional role.
func (p *Plane) Type() PlaneType { return p.kind }

// Zpos returns the plane's z-position; larger values are closer to the
// viewer.
func (p *Plane) Zpos() int64 { return p.zpos }

// Layer returns the layer currently bound to this plane, or nil.
func (p *Plane) Layer() *Layer { return p.layer }

func (p *Plane) supportsCRTC(crtcIndex int) bool {
	return p.possibleCRTCs&(1<<uint(crtcIndex)) != 0
}

func (p *Plane) getProperty(name string) (*planeProperty, bool) {
	if bp, ok := internBasicProp(name); ok {
		idx := p.basicIdx[bp]
		if idx < 0 {
			return nil, false
		}
		return &p.props[idx], true
	}
	for i := range p.props {
		if p.props[i].name == name {
			return &p.props[i], true
		}
	}
	return nil, false
}

// planeOrder imposes a fixed ordering on a set of planes: all primary
// planes first, then non-primary planes in strictly decreasing
// zpos, with equal-zpos non-primary planes keeping their insertion order.
// That tie-break is unspecified to userspace; callers must not depend on
// it distinguishing two equal-zpos overlays.
func planeOrder(planes []*Plane) []*Plane {
	primaries := make([]*Plane, 0, len(planes))
	rest := make([]*Plane, 0, len(planes))
	for _, p := range planes {
		if p.kind == PlaneTypePrimary {
			primaries = append(primaries, p)
		} else {
			rest = append(rest, p)
		}
	}
	// Stable insertion sort on zpos descending: preserves insertion order
	// for ties, matching the original project's linked-list insert-before
	// behavior.
	for i := 1; i < len(rest); i++ {
		j := i
		for j > 0 && rest[j-1].zpos < rest[j].zpos {
			rest[j-1], rest[j] = rest[j], rest[j-1]
			j--
		}
	}
	return append(primaries, rest...)
}
