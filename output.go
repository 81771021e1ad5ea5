package liftplane

// Output is bound to one CRTC and owns an ordered list of layers plus an
// optional composition layer representing the GPU-composited fallback.
type Output struct {
	device    *Device
	crtcID    uint32
	crtcIndex int

	layers           []*Layer
	compositionLayer *Layer

	layersChanged      bool
	allocReusedCounter int
}

// NewOutput creates an Output bound to crtcID, which must be one of
// device's CRTCs.
func NewOutput(device *Device, crtcID uint32) (*Output, error) {
	idx := device.CRTCIndex(crtcID)
	if idx < 0 {
		return nil, ErrInvalidArgument
	}
	o := &Output{device: device, crtcID: crtcID, crtcIndex: idx}
	device.registerOutput(o)
	return o, nil
}

// Destroy removes the output from its device. It does not destroy the
// output's layers; callers must destroy them first.
func (o *Output) Destroy() {
	if o == nil {
		return
	}
	o.device.unregisterOutput(o)
}

// CRTCID returns the output's bound CRTC id.
func (o *Output) CRTCID() uint32 { return o.crtcID }

// Device returns the output's owning device.
func (o *Output) Device() *Device { return o.device }

// Layers returns the output's layers in creation order.
func (o *Output) Layers() []*Layer {
	return append([]*Layer(nil), o.layers...)
}

// NewLayer creates a new layer on this output.
func (o *Output) NewLayer() *Layer {
	l := newLayer(o)
	o.layers = append(o.layers, l)
	o.layersChanged = true
	return l
}

// DestroyLayer removes a layer from its output, clearing its plane
// binding and, if it was the composition layer, that pointer too.
func (o *Output) DestroyLayer(l *Layer) {
	if l == nil {
		return
	}
	o.layersChanged = true
	if o.compositionLayer == l {
		o.compositionLayer = nil
	}
	if l.plane != nil {
		l.plane.layer = nil
		l.plane = nil
	}
	for i, cur := range o.layers {
		if cur == l {
			o.layers = append(o.layers[:i], o.layers[i+1:]...)
			break
		}
	}
}

// SetCompositionLayer designates the layer representing the GPU-composited
// fallback image. l must already belong to this output.
func (o *Output) SetCompositionLayer(l *Layer) error {
	if l != nil && l.output != o {
		return ErrInvalidArgument
	}
	if o.compositionLayer != l {
		o.layersChanged = true
	}
	o.compositionLayer = l
	return nil
}

// CompositionLayer returns the output's designated composition layer, or
// nil.
func (o *Output) CompositionLayer() *Layer { return o.compositionLayer }

func (o *Output) nonCompositionLayerCount() int {
	n := 0
	for _, l := range o.layers {
		if l == o.compositionLayer {
			continue
		}
		if l.Visible() {
			n++
		}
	}
	return n
}
