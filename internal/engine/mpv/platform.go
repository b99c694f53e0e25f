package mpv

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

// Platform represents the operating system platform
type Platform int

const (
	PlatformLinux Platform = iota
	PlatformWindows
	PlatformWSL
	PlatformMac
)

// IPCConfig holds IPC connection configuration
type IPCConfig struct {
	Type    IPCType
	Address string
}

// IPCType represents the IPC connection type
type IPCType int

const (
	IPCUnixSocket IPCType = iota
	IPCNamedPipe
)

// IsSocket reports whether the IPC endpoint is a Unix socket file.
func (c *IPCConfig) IsSocket() bool {
	return c.Type == IPCUnixSocket
}

// DetectPlatform detects the current platform
func DetectPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMac
	case "linux":
		if isWSL() {
			return PlatformWSL
		}
		return PlatformLinux
	default:
		return PlatformLinux
	}
}

// isWSL checks if running under Windows Subsystem for Linux
func isWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}

	version := strings.ToLower(string(data))
	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}

// Executable returns the mpv executable name for the platform.
func Executable(platform Platform) string {
	if platform == PlatformWindows {
		return "mpv.exe"
	}
	// WSL included: Linux mpv over a Unix socket, since gopv cannot reach
	// Windows named pipes from inside WSL.
	return "mpv"
}

// FindExecutable attempts to find the mpv executable in PATH.
func FindExecutable(platform Platform) (string, error) {
	executable := Executable(platform)

	path, err := exec.LookPath(executable)
	if err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%s not found in PATH, please install mpv", executable)
}

// NewIPCConfig generates a fresh, unique IPC endpoint for the platform.
func NewIPCConfig(platform Platform) *IPCConfig {
	suffix := uuid.NewString()

	if platform == PlatformWindows {
		return &IPCConfig{
			Type:    IPCNamedPipe,
			Address: fmt.Sprintf(`\\.\pipe\pressplay-mpv-%s`, suffix),
		}
	}

	return &IPCConfig{
		Type:    IPCUnixSocket,
		Address: filepath.Join(os.TempDir(), fmt.Sprintf("pressplay-mpv-%s.sock", suffix)),
	}
}

// IPCArgument returns the mpv command-line argument for the IPC endpoint.
func IPCArgument(config *IPCConfig) string {
	return fmt.Sprintf("--input-ipc-server=%s", config.Address)
}
