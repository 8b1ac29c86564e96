// Package device picks the device class passed to the engine as an input
// configuration hint.
package device

import (
	"os"
	"runtime"

	"boardsync/internal/engine"
)

// Detect selects one of desktop/touch/pointer. The override, when set,
// wins; otherwise the platform decides: mobile builds report touch,
// everything else desktop unless a pointer device is advertised through
// the environment.
func Detect(override string) engine.DeviceClass {
	switch override {
	case string(engine.DeviceDesktop):
		return engine.DeviceDesktop
	case string(engine.DeviceTouch):
		return engine.DeviceTouch
	case string(engine.DevicePointer):
		return engine.DevicePointer
	}

	switch runtime.GOOS {
	case "android", "ios":
		return engine.DeviceTouch
	}

	if os.Getenv("BOARD_POINTER_DEVICE") != "" {
		return engine.DevicePointer
	}
	return engine.DeviceDesktop
}
