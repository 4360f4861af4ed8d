//go:build linux

package secutil

import "golang.org/x/sys/unix"

// Lock pins buf's pages in RAM so key material in it is never written
// to swap. Returns an error if the calling process lacks CAP_IPC_LOCK
// or RLIMIT_MEMLOCK is exhausted; callers should treat that as
// best-effort and continue, not as fatal.
func Lock(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return unix.Mlock(buf)
}

// Unlock releases a prior Lock on buf.
func Unlock(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return unix.Munlock(buf)
}

// Supported reports whether page locking is available on this platform.
func Supported() bool { return true }
