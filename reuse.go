package liftplane

// tryReuse attempts to replay the output's previous plane allocation
// without running the search. It returns (true, nil) on a successful
// reuse, (false, nil) if the allocation isn't reusable (the caller should
// fall back to the search engine), or (false, err) on an unexpected
// kernel error.
//
// Scope note: a reuse cache described in terms of "every (plane,
// plane.layer) pair" is ambiguous about whether that means every plane on
// the device or just this output's. Since output_apply is itself scoped to
// a single output, this implementation re-emits only the planes already
// bound to one of this output's layers — the previous allocation for this
// output, and nothing that belongs to a sibling output sharing the same
// device.
func tryReuse(d *Device, output *Output, req AtomicRequest, flags CommitFlags) (bool, error) {
	if output.layersChanged {
		return false, nil
	}
	for _, l := range output.layers {
		if l.needsRealloc() {
			return false, nil
		}
	}

	mark := req.Mark()
	for _, p := range d.planes {
		if p.layer == nil || p.layer.output != output {
			continue
		}
		if err := p.apply(req, p.layer); err != nil {
			if err == ErrIncompatible {
				// The previous allocation was valid; if it no
				// longer applies cleanly, something mutated
				// plane state outside this package.
				panic("liftplane: previous allocation became incompatible with its own plane")
			}
			req.Restore(mark)
			return false, err
		}
	}

	d.testCommitCounter++
	if err := req.Commit(testFlags(flags)); err != nil {
		req.Restore(mark)
		if prunableErrno(err) {
			return false, nil
		}
		return false, err
	}

	d.reuseHitCounter++
	return true, nil
}
