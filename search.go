package liftplane

import "math"

// allocStep is the transient state threaded through one node of the
// search tree. alloc is shared across the whole recursion:
// only the entries below planeIdx are meaningful at any given node.
type allocStep struct {
	planeIdx int
	alloc    []*Layer

	score         int
	lastLayerZpos int64 // math.MaxInt64 means "no non-primary layer placed yet"
	composited    bool
}

// allocResult tracks the best terminal allocation found so far.
type allocResult struct {
	best      []*Layer
	bestScore int

	hasCompositionLayer    bool
	nonCompositionLayerLen int
}

const noZpos = math.MaxInt64

func isLayerAllocated(step *allocStep, layer *Layer) bool {
	for i := 0; i < step.planeIdx; i++ {
		if step.alloc[i] == layer {
			return true
		}
	}
	return false
}

// hasCompositedLayerOver reports whether some layer not yet allocated in
// this branch sits visually above layer (higher zpos) and intersects it —
// i.e. placing layer now would leave that layer with nowhere to go but
// onto a plane under the one it was supposed to be on top of.
func hasCompositedLayerOver(output *Output, step *allocStep, layer *Layer) bool {
	zpos, ok := layer.zpos()
	if !ok {
		return false
	}
	for _, other := range output.layers {
		if isLayerAllocated(step, other) {
			continue
		}
		otherZpos, ok := other.zpos()
		if !ok {
			continue
		}
		if layerIntersects(layer, other) && otherZpos > zpos {
			return true
		}
	}
	return false
}

// hasAllocatedLayerOver reports whether an earlier plane (processed before
// the current one) already holds a layer that, by zpos, should be under
// layer but intersects it — meaning layer, on this later plane, would end
// up beneath it instead of above it.
func hasAllocatedLayerOver(step *allocStep, planes []*Plane, layer *Layer) bool {
	zpos, ok := layer.zpos()
	if !ok {
		return false
	}
	for i := 0; i < step.planeIdx; i++ {
		if planes[i].kind == PlaneTypePrimary {
			continue
		}
		other := step.alloc[i]
		if other == nil {
			continue
		}
		otherZpos, ok := other.zpos()
		if !ok {
			continue
		}
		if zpos > otherZpos && layerIntersects(layer, other) {
			return true
		}
	}
	return false
}

// hasAllocatedPlaneUnder reports whether an earlier, non-primary plane at
// the same or lower plane-zpos than the candidate already holds an
// intersecting layer — meaning the candidate plane isn't actually under
// that plane, so layer can't be placed beneath that layer here.
func hasAllocatedPlaneUnder(step *allocStep, planes []*Plane, plane *Plane, layer *Layer) bool {
	for i := 0; i < step.planeIdx; i++ {
		if planes[i].kind == PlaneTypePrimary {
			continue
		}
		other := step.alloc[i]
		if other == nil {
			continue
		}
		if plane.zpos >= planes[i].zpos && layerIntersects(layer, other) {
			return true
		}
	}
	return false
}

// checkCompatible applies the per-layer candidate rejection rules.
func checkCompatible(output *Output, step *allocStep, planes []*Plane, plane *Plane, layer *Layer) bool {
	if isLayerAllocated(step, layer) {
		return false
	}
	if layer.forceComposition || !layer.Visible() {
		return false
	}

	if zpos, ok := layer.zpos(); ok && plane.kind != PlaneTypePrimary {
		if zpos > step.lastLayerZpos && hasAllocatedLayerOver(step, planes, layer) {
			return false
		}
		if zpos < step.lastLayerZpos && hasAllocatedPlaneUnder(step, planes, plane, layer) {
			return false
		}
	}

	if plane.kind != PlaneTypePrimary && hasCompositedLayerOver(output, step, layer) {
		return false
	}
	if plane.kind != PlaneTypePrimary && layer.isComposition() {
		return false
	}

	return true
}

// checkAllocValid rejects terminal allocations that skip the composition
// layer while some visible layer still has no plane, or that use the
// composition layer even though every visible layer got a plane.
func checkAllocValid(result *allocResult, step *allocStep) bool {
	if result.hasCompositionLayer && !step.composited && step.score < result.nonCompositionLayerLen {
		return false
	}
	if step.composited && step.score == result.nonCompositionLayerLen {
		return false
	}
	return true
}

func nextStep(step *allocStep, planes []*Plane, layer *Layer) allocStep {
	plane := planes[step.planeIdx]
	next := allocStep{
		planeIdx:      step.planeIdx + 1,
		alloc:         step.alloc,
		lastLayerZpos: step.lastLayerZpos,
		composited:    step.composited,
		score:         step.score,
	}
	next.alloc[step.planeIdx] = layer

	if layer != nil {
		if layer.isComposition() {
			next.composited = true
		} else {
			next.score = step.score + 1
		}
	}

	if layer != nil && plane.kind != PlaneTypePrimary {
		if zpos, ok := layer.zpos(); ok {
			next.lastLayerZpos = zpos
		}
	}

	return next
}

// chooseLayers is one node of the depth-first allocation search.
// candidates is the output's layers in priority order: trying
// high-priority layers first finds a good bound earlier, so the
// best_score >= score+remaining prune kicks in sooner on later siblings.
func chooseLayers(output *Output, planes []*Plane, candidates []*Layer, req AtomicRequest, flags CommitFlags,
	result *allocResult, step allocStep, d *Device) error {

	if step.planeIdx == len(planes) {
		if step.score > result.bestScore && checkAllocValid(result, &step) {
			result.bestScore = step.score
			copy(result.best, step.alloc)
		}
		return nil
	}

	remaining := len(planes) - step.planeIdx
	if result.bestScore >= step.score+remaining {
		return nil // no child can beat the current best
	}

	plane := planes[step.planeIdx]
	mark := req.Mark()

	if plane.layer == nil && plane.supportsCRTC(output.crtcIndex) {
		for _, layer := range candidates {
			if layer.plane != nil {
				continue // bound outside this search
			}
			if !checkCompatible(output, &step, planes, plane, layer) {
				continue
			}

			err := plane.apply(req, layer)
			if err == ErrIncompatible {
				continue
			}
			if err != nil {
				return err
			}

			d.testCommitCounter++
			cerr := req.Commit(testFlags(flags))
			if cerr == nil {
				if err := chooseLayers(output, planes, candidates, req, flags, result, nextStep(&step, planes, layer), d); err != nil {
					return err
				}
			} else if !prunableErrno(cerr) {
				return cerr
			}

			req.Restore(mark)
		}
	}

	// Always also explore leaving this plane unused.
	if err := chooseLayers(output, planes, candidates, req, flags, result, nextStep(&step, planes, nil), d); err != nil {
		return err
	}
	req.Restore(mark)

	return nil
}

// search runs the allocation search for output and returns the winning
// plane→layer assignment, indexed the same as planes.
func search(d *Device, output *Output, planes []*Plane, req AtomicRequest, flags CommitFlags) ([]*Layer, error) {
	result := &allocResult{
		best:                   make([]*Layer, len(planes)),
		bestScore:              -1,
		hasCompositionLayer:    output.compositionLayer != nil,
		nonCompositionLayerLen: output.nonCompositionLayerCount(),
	}
	step := allocStep{
		alloc:         make([]*Layer, len(planes)),
		lastLayerZpos: noZpos,
	}
	candidates := candidateOrder(output)
	if err := chooseLayers(output, planes, candidates, req, flags, result, step, d); err != nil {
		return nil, err
	}
	return result.best, nil
}
