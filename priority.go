package liftplane

import "golang.org/x/exp/slices"

// priorityWindow is the number of Apply calls (page flips) that make up one
// rollover period. A layer's pending priority only becomes its current,
// search-visible priority once the window elapses — this keeps one-off
// frame changes from instantly reshuffling candidate order every frame.
const priorityWindow = 60

// updatePriorities bumps device.pageFlipCounter and updates the priority of
// every layer on every output, rolling pending into current whenever the
// window elapses. Layers on sibling outputs participate too: the tracker
// is device-wide even though allocation itself runs per output.
func (d *Device) updatePriorities() {
	d.pageFlipCounter++
	elapsed := d.pageFlipCounter%priorityWindow == 0
	for _, o := range d.outputs {
		for _, l := range o.layers {
			l.updatePriority(elapsed)
		}
	}
}

// candidateOrder returns output's layers in the order the search engine
// should try them: highest current priority first, ties broken by
// insertion order.
func candidateOrder(output *Output) []*Layer {
	ordered := append([]*Layer(nil), output.layers...)
	slices.SortStableFunc(ordered, func(a, b *Layer) int {
		return b.currentPriority - a.currentPriority
	})
	return ordered
}
