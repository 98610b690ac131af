// Package autostart registers (or unregisters) Brandy Box to launch at
// user login. Only the Linux implementation is real; other platforms
// are no-op stubs behind build tags so callers on any OS can call Set
// unconditionally.
package autostart

// Set enables or disables autostart for the current OS. On platforms
// without an implementation it is a no-op.
func Set(enabled bool) error {
	return set(enabled)
}
