// Package camera manages a single capture session on a hardware camera.
//
// # Overview
//
// A session is created from three pieces supplied by the owner:
//   - a [Capabilities] describing the device and the requested target
//   - a [Driver] for one of the two camera API generations
//   - a [Looper] that serialises every callback, transition and frame
//
// [CreateSession] opens the device, negotiates the capture format, applies
// the initial request and starts frames. The result arrives once on the
// [CreateCallback]; afterwards runtime problems go to [Events].
//
// # Usage
//
//	loop := camera.NewLooper("camera")
//	caps := camera.NewCapabilities(ch, camera.Target{Width: 1280, Height: 720, MinFps: 30}, camera.Quirks{})
//	driver := camera.NewRequestDriver(manager, frames)
//	camera.CreateSession(loop, driver, caps, callback, events, camera.Options{
//		BlackFrames: camera.BlackFrameFilter{PixelsToCheck: 10, Threshold: 5},
//	})
//
// Control methods on [Session] must run on the looper:
//
//	loop.Invoke(func() { session.SetTorch(true) })
//
// # Frames
//
// Each delivered [Frame] carries the rotation the consumer must apply.
// Front-facing frames are mirrored back before delivery. The frame buffer
// is released as soon as OnFrameCaptured returns.
package camera
