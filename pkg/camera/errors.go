package camera

import (
	"errors"
	"fmt"
)

// Error codes for session operations.
const (
	ErrCodeDeviceAccess    = "DEVICE_ACCESS"
	ErrCodeNoFormat        = "NO_FORMAT"
	ErrCodeOpenFailed      = "OPEN_FAILED"
	ErrCodeConfigureFailed = "CONFIGURE_FAILED"
	ErrCodeDeviceError     = "DEVICE_ERROR"
)

// Error is a camera error with a code.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsDeviceAccess reports whether err means the device is no longer open and
// the session has to be recreated.
func IsDeviceAccess(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDeviceAccess
}

// describe turns an error into the message handed to callbacks.
func describe(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// Device error codes reported by the request generation.
const (
	DeviceErrorInUse           = 1
	DeviceErrorMaxCamerasInUse = 2
	DeviceErrorDisabled        = 3
	DeviceErrorDevice          = 4
	DeviceErrorService         = 5
)

// DeviceErrorDescription maps a device error code to a readable message.
func DeviceErrorDescription(code int) string {
	switch code {
	case DeviceErrorDevice:
		return "Camera device has encountered a fatal error."
	case DeviceErrorDisabled:
		return "Camera device could not be opened due to a device policy."
	case DeviceErrorInUse:
		return "Camera device is in use already."
	case DeviceErrorService:
		return "Camera service has encountered a fatal error."
	case DeviceErrorMaxCamerasInUse:
		return "Camera device could not be opened because there are too many other open camera devices."
	default:
		return fmt.Sprintf("Unknown camera error: %d", code)
	}
}

// Legacy error codes.
const (
	LegacyErrorUnknown    = 1
	LegacyErrorEvicted    = 2
	LegacyErrorServerDied = 100
)
