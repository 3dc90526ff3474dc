package gc

import "github.com/kolkov/epochgc/internal/gc/epoch"

// Version information for the epochgc reclamation runtime.
const (
	// Version is the current version of the reclamation runtime.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the reclamation engine.
type Info struct {
	// Version is the runtime version string.
	Version string

	// Algorithm is the reclamation scheme in use.
	Algorithm string

	// ReclaimDistance is the number of epoch advances required before a
	// retired item may be destroyed.
	ReclaimDistance int
}

// GetInfo returns information about the reclamation runtime.
//
// Example:
//
//	info := gc.GetInfo()
//	fmt.Printf("epochgc %s (%s)\n", info.Version, info.Algorithm)
func GetInfo() Info {
	return Info{
		Version:         Version,
		Algorithm:       "Epoch-based reclamation, deferred two advances",
		ReclaimDistance: epoch.ReclaimDistance,
	}
}
