//go:build !linux

package secutil

// Lock is a no-op on platforms without mlock support.
func Lock(buf []byte) error { return nil }

// Unlock is a no-op on platforms without mlock support.
func Unlock(buf []byte) error { return nil }

// Supported reports whether page locking is available on this platform.
func Supported() bool { return false }
