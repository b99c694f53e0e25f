//go:build !windows

package mpv

// isPipeReady is a no-op on Unix systems; socket readiness is checked by
// the existence of the socket file instead.
func isPipeReady(pipePath string) bool {
	return false
}
