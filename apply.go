package liftplane

// apply serializes layer's properties onto plane into req. A nil layer
// disables the plane (FB_ID=0, CRTC_ID=0). If the plane lacks a property
// the layer sets to a non-default value, apply returns ErrIncompatible and
// rewinds req back to its entry cursor; any other failure from req itself
// is propagated, also after rewinding.
func (p *Plane) apply(req AtomicRequest, layer *Layer) error {
	mark := req.Mark()

	if layer == nil {
		if err := p.setProp(req, PropFBID, 0); err != nil {
			req.Restore(mark)
			return err
		}
		if err := p.setProp(req, PropCRTCID, 0); err != nil {
			req.Restore(mark)
			return err
		}
		return nil
	}

	if err := p.setProp(req, PropCRTCID, uint64(layer.output.crtcID)); err != nil {
		req.Restore(mark)
		return err
	}

	for i := range layer.props {
		lp := &layer.props[i]
		if lp.name == PropZpos {
			// Read-only to the engine: used only during allocation.
			continue
		}

		pp, ok := p.getProperty(lp.name)
		if !ok {
			switch {
			case lp.name == PropAlpha && lp.value == AlphaOpaque:
				continue // plane is implicitly opaque
			case lp.name == PropRotation && lp.value == RotationNone:
				continue // plane implicitly applies no rotation
			default:
				req.Restore(mark)
				return ErrIncompatible
			}
		}

		if err := req.AddProperty(p.id, pp.id, lp.value); err != nil {
			req.Restore(mark)
			return err
		}
	}

	return nil
}

func (p *Plane) setProp(req AtomicRequest, name string, value uint64) error {
	pp, ok := p.getProperty(name)
	if !ok {
		// A plane missing its own CRTC_ID/FB_ID property is a
		// registration-time invariant violation, not a routine
		// incompatibility.
		return ErrInvalidArgument
	}
	return req.AddProperty(p.id, pp.id, value)
}
