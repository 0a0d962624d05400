package compositor

import "sync"

// The window system may be initialized once per process. The gate is taken
// by the first successful CreateWindow and released by Shutdown.
var windowSystem struct {
	mu   sync.Mutex
	held bool
}

func gateHeld() bool {
	windowSystem.mu.Lock()
	defer windowSystem.mu.Unlock()
	return windowSystem.held
}

func takeGate() bool {
	windowSystem.mu.Lock()
	defer windowSystem.mu.Unlock()
	if windowSystem.held {
		return false
	}
	windowSystem.held = true
	return true
}

func releaseGate() {
	windowSystem.mu.Lock()
	windowSystem.held = false
	windowSystem.mu.Unlock()
}
