package liftplane

// property is a single (name, value, previous_value) triple on a layer.
// previous only changes when markClean runs, at the end of a successful
// apply; everything in between compares against it to decide whether a
// change is meaningful enough to force reallocation.
type property struct {
	name     string
	value    uint64
	previous uint64
}

// Layer is a virtual scanout unit the caller wants mapped to a hardware
// plane. It belongs to exactly one Output.
type Layer struct {
	output *Output

	props    []property
	basicIdx [numBasicProps]int // index into props, or -1 if unset

	plane *Plane

	forceComposition bool
	changed          bool

	currentPriority int
	pendingPriority int
}

func newLayer(output *Output) *Layer {
	l := &Layer{output: output}
	for i := range l.basicIdx {
		l.basicIdx[i] = -1
	}
	return l
}

// Output returns the output this layer belongs to.
func (l *Layer) Output() *Output { return l.output }

func (l *Layer) getProperty(name string) (*property, bool) {
	if bp, ok := internBasicProp(name); ok {
		idx := l.basicIdx[bp]
		if idx < 0 {
			return nil, false
		}
		return &l.props[idx], true
	}
	for i := range l.props {
		if l.props[i].name == name {
			return &l.props[i], true
		}
	}
	return nil, false
}

func (l *Layer) propValueOr(name string, def uint64) uint64 {
	if p, ok := l.getProperty(name); ok {
		return p.value
	}
	return def
}

// SetProperty sets a named property on the layer. Setting CRTC_ID is
// rejected: the engine owns that property entirely. Setting FB_ID clears
// ForceComposition, since a layer with real frame content is a candidate
// for scan-out again.
func (l *Layer) SetProperty(name string, value uint64) error {
	if name == PropCRTCID {
		return ErrInvalidArgument
	}
	if len(name) > maxPropNameLen {
		return ErrInvalidArgument
	}

	if p, ok := l.getProperty(name); ok {
		p.value = value
	} else {
		l.props = append(l.props, property{name: name, value: value})
		if bp, ok := internBasicProp(name); ok {
			l.basicIdx[bp] = len(l.props) - 1
		}
		l.changed = true
	}

	if name == PropFBID {
		l.forceComposition = false
	}
	return nil
}

// SetFBComposited marks the layer as GPU-composited: it will never be
// assigned a plane by the search engine. Its FB_ID is cleared, since the
// composition pass owns its own framebuffer via the output's composition
// layer instead.
func (l *Layer) SetFBComposited() {
	_ = l.SetProperty(PropFBID, 0) // also clears forceComposition; restored below
	l.forceComposition = true
	l.changed = true
}

// ForceComposition reports whether this layer refuses direct scan-out.
func (l *Layer) ForceComposition() bool { return l.forceComposition }

// Visible reports whether the layer currently contributes pixels: it has
// a non-zero framebuffer and, if it has an alpha property, isn't fully
// transparent. An invisible layer is never assigned a plane.
func (l *Layer) Visible() bool {
	if l.propValueOr(PropFBID, 0) == 0 {
		return false
	}
	if p, ok := l.getProperty(PropAlpha); ok && p.value == 0 {
		return false
	}
	return true
}

// Plane returns the plane bound to this layer after the most recent
// successful apply, or nil if the layer isn't scanned out directly.
func (l *Layer) Plane() *Plane { return l.plane }

// NeedsComposition reports whether the layer is visible but currently has
// no plane, i.e. a software compositor must draw it.
func (l *Layer) NeedsComposition() bool {
	return l.Visible() && l.plane == nil
}

func (l *Layer) isComposition() bool {
	return l.output.compositionLayer == l
}

func (l *Layer) zpos() (int64, bool) {
	p, ok := l.getProperty(PropZpos)
	if !ok {
		return 0, false
	}
	return int64(p.value), true
}

func (l *Layer) markClean() {
	for i := range l.props {
		l.props[i].previous = l.props[i].value
	}
	l.changed = false
}

// needsRealloc implements the per-layer half of the reuse cache's
// reusability test: a structural change (changed == true) or a property
// diff that crosses a boundary the cache can't assume is benign.
func (l *Layer) needsRealloc() bool {
	if l.changed {
		return true
	}
	for i := range l.props {
		p := &l.props[i]
		if p.value == p.previous {
			continue
		}
		switch p.name {
		case PropFBID:
			if (p.value == 0) != (p.previous == 0) {
				return true
			}
		case PropAlpha:
			crossesBoundary := func(v uint64) bool { return v == 0 || v == AlphaOpaque }
			if crossesBoundary(p.value) != crossesBoundary(p.previous) ||
				(crossesBoundary(p.value) && p.value != p.previous) {
				return true
			}
		case "IN_FENCE_FD", "FB_DAMAGE_CLIPS":
			// never forces reallocation
		default:
			return true
		}
	}
	return false
}

// updatePriority bumps the layer's pending priority whenever its FB_ID
// changed since the last apply, and rolls pending into current once the
// priority tracker's window elapses.
func (l *Layer) updatePriority(elapsed bool) {
	if p, ok := l.getProperty(PropFBID); ok && p.value != p.previous {
		l.pendingPriority++
	}
	if elapsed {
		l.currentPriority = l.pendingPriority
		l.pendingPriority = 0
	}
}
