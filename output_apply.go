package liftplane

import "go.uber.org/zap"

// Apply runs one allocation pass for output: it updates layer priorities,
// attempts to reuse the previous allocation, and otherwise searches for a
// new one, leaving req holding the winning plane/layer property writes. The
// caller is responsible for issuing the real (non-test) commit. On error,
// req is rewound to its state on entry.
func (d *Device) Apply(output *Output, req AtomicRequest, flags CommitFlags) error {
	d.updatePriorities()
	d.realCommitCounter++

	mark := req.Mark()
	reused, err := tryReuse(d, output, req, flags)
	if err != nil {
		return err
	}
	if reused {
		d.log.Debug("reused previous allocation", zap.Uint32("crtc_id", output.crtcID))
		return nil
	}

	d.log.Debug("reuse unavailable, running search", zap.Uint32("crtc_id", output.crtcID))

	unbound := d.unbindOutputPlanes(output)
	for _, p := range unbound {
		if err := p.apply(req, nil); err != nil {
			req.Restore(mark)
			return err
		}
	}

	best, err := search(d, output, d.planes, req, flags)
	if err != nil {
		req.Restore(mark)
		return err
	}

	for i, layer := range best {
		if layer == nil {
			continue
		}
		plane := d.planes[i]
		plane.layer = layer
		layer.plane = plane
	}

	// One final pass over every device plane re-emits the complete,
	// current device-wide binding into req — including plane/layer pairs
	// that belong to sibling outputs and were left untouched above.
	for _, p := range d.planes {
		if err := p.apply(req, p.layer); err != nil {
			req.Restore(mark)
			return err
		}
	}

	output.layersChanged = false
	for _, l := range output.layers {
		l.markClean()
	}

	return nil
}

// unbindOutputPlanes clears the plane<->layer binding for every plane
// currently assigned to one of output's layers, returning the planes that
// were unbound so the caller can disable them in req.
func (d *Device) unbindOutputPlanes(output *Output) []*Plane {
	var unbound []*Plane
	for _, p := range d.planes {
		if p.layer != nil && p.layer.output == output {
			unbound = append(unbound, p)
		}
	}
	for _, p := range unbound {
		p.layer.plane = nil
		p.layer = nil
	}
	return unbound
}
