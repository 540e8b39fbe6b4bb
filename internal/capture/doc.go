// Package capture owns the camera. A Service holds the session Looper,
// builds capabilities from the camera profile, creates sessions of the
// configured driver generation and republishes their lifecycle on the
// event bus. It reacquires the camera after a disconnect and applies
// target and profile changes to the running session.
package capture
