package liftplane

// Rect is a layer's on-CRTC destination rectangle, extracted from its
// CRTC_X/Y/W/H properties. Missing components default to zero.
type Rect struct {
	X, Y, W, H int64
}

func rectOf(l *Layer) Rect {
	return Rect{
		X: int64(l.propValueOr(PropCRTCX, 0)),
		Y: int64(l.propValueOr(PropCRTCY, 0)),
		W: int64(l.propValueOr(PropCRTCW, 0)),
		H: int64(l.propValueOr(PropCRTCH, 0)),
	}
}

// Intersects reports whether two rectangles have positive overlap, using
// the standard open half-plane test on all four edges.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && r.Y < o.Y+o.H &&
		r.X+r.W > o.X && r.Y+r.H > o.Y
}

// layerIntersects reports whether two layers' CRTC rectangles overlap.
func layerIntersects(a, b *Layer) bool {
	return rectOf(a).Intersects(rectOf(b))
}
