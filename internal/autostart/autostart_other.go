//go:build !linux

package autostart

// set is a no-op on platforms Brandy Box doesn't target for autostart
// registration; callers still get a nil error so Set can be called
// unconditionally from shared code.
func set(enabled bool) error {
	return nil
}
