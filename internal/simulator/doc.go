// Package simulator is a synthetic camera platform. It implements the
// inbound APIs of both driver generations (device manager, frame source and
// legacy provider) on top of a ticking frame generator, so the capture
// service can run without hardware. Failures can be injected at open,
// configure and run time.
package simulator
