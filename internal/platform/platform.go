// Package platform enumerates the Docker build platforms rosforge images
// can target.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform describes one Docker build platform.
type Platform struct {
	ID            string   // Docker platform identifier, e.g. "linux/amd64"
	Architectures []string // machine architecture aliases reported by uname
	Description   string
}

var supported = []Platform{
	{
		ID:            "linux/amd64",
		Architectures: []string{"x86_64", "amd64"},
		Description:   "64-bit x86 (Intel/AMD PCs and servers)",
	},
	{
		ID:            "linux/arm64",
		Architectures: []string{"aarch64", "arm64"},
		Description:   "64-bit ARM (Raspberry Pi 4/5, Jetson)",
	},
	{
		ID:            "linux/arm/v7",
		Architectures: []string{"armv7l", "armv7", "armhf"},
		Description:   "32-bit ARMv7-A (Raspberry Pi 2/3 with 32-bit OS)",
	},
}

// All returns every supported platform in declaration order.
func All() []Platform {
	out := make([]Platform, len(supported))
	copy(out, supported)
	return out
}

// IDs returns the supported platform identifiers.
func IDs() []string {
	ids := make([]string, len(supported))
	for i, p := range supported {
		ids[i] = p.ID
	}
	return ids
}

// Lookup returns the platform with the given identifier.
func Lookup(id string) (Platform, error) {
	id = strings.TrimSpace(id)
	for _, p := range supported {
		if p.ID == id {
			return p, nil
		}
	}
	return Platform{}, fmt.Errorf("unsupported platform %q. Supported platforms: %s",
		id, strings.Join(IDs(), ", "))
}

// Detect returns the platform matching the machine rosforge runs on.
func Detect() (Platform, error) {
	return detectFrom(runtime.GOARCH)
}

func detectFrom(goarch string) (Platform, error) {
	var id string
	switch goarch {
	case "amd64":
		id = "linux/amd64"
	case "arm64":
		id = "linux/arm64"
	case "arm":
		id = "linux/arm/v7"
	default:
		return Platform{}, fmt.Errorf("cannot map machine architecture %q to a supported platform. Supported platforms: %s",
			goarch, strings.Join(IDs(), ", "))
	}
	return Lookup(id)
}
