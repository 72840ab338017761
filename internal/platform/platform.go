// Package platform detects the host operating system, architecture and the
// Wine compatibility layer used to run Windows-only tools.
package platform

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
)

// OS is a supported host operating system.
type OS string

const (
	Windows OS = "windows"
	MacOS   OS = "macos"
	Linux   OS = "linux"
	Unknown OS = "unknown"
)

// Info describes the host.
type Info struct {
	OS      OS
	Arch    string
	Is64Bit bool

	// Wine is the compatibility layer command, empty when none is installed.
	Wine string

	// Rosetta is set on Apple Silicon hosts with Rosetta 2 installed.
	Rosetta bool
}

func (i Info) String() string {
	wine := i.Wine
	if wine == "" {
		wine = "not found"
	}
	return fmt.Sprintf("OS: %s\nArchitecture: %s\n64-bit: %s\nWine: %s",
		i.OS, i.Arch, strconv.FormatBool(i.Is64Bit), wine)
}

// BinaryExt returns the executable suffix for the host.
func (i Info) BinaryExt() string {
	if i.OS == Windows {
		return ".exe"
	}
	return ""
}

// BinDir returns the per-platform tool subdirectory name.
func (i Info) BinDir() string {
	return string(i.OS)
}

var (
	detectOnce sync.Once
	detected   Info
)

// Detect returns host information. It is computed once per process.
func Detect() Info {
	detectOnce.Do(func() {
		detected = detect(runtime.GOOS, runtime.GOARCH, exec.LookPath)
	})
	return detected
}

func detect(goos, goarch string, lookPath func(string) (string, error)) Info {
	info := Info{OS: hostOS(goos), Arch: arch(goarch)}
	switch goarch {
	case "amd64", "arm64", "ppc64", "ppc64le", "mips64", "mips64le", "riscv64", "s390x", "loong64":
		info.Is64Bit = true
	}
	if info.OS != Windows {
		info.Wine = WineCommand(lookPath)
	}
	if info.OS == MacOS && goarch == "arm64" {
		_, err := os.Stat("/Library/Apple/usr/share/rosetta")
		info.Rosetta = err == nil
	}
	return info
}

func hostOS(goos string) OS {
	switch goos {
	case "windows":
		return Windows
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

func arch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	default:
		return goarch
	}
}

// WineCommand returns the Wine launcher to use, preferring wine64 for
// 64-bit tool builds. It returns "" when neither is on PATH.
func WineCommand(lookPath func(string) (string, error)) string {
	for _, name := range []string{"wine64", "wine"} {
		if _, err := lookPath(name); err == nil {
			return name
		}
	}
	return ""
}
