// Package liftplane maps a set of user-submitted image layers onto the
// fixed set of hardware planes exposed by a DRM/KMS atomic-modesetting
// device, so that as many layers as possible are scanned out directly by
// the display controller instead of falling back to GPU composition.
//
// Plane compatibility with a given layer configuration can only be
// discovered empirically, by submitting a test-only atomic commit and
// observing whether the kernel accepts it. Device, Output, Layer and Plane
// model the KMS object graph; Device.Apply runs the allocation (either by
// replaying a cached allocation or by searching) and leaves the supplied
// AtomicRequest holding the winning plane/layer property bindings. Callers
// are responsible for performing the final, non-test commit themselves.
package liftplane
