package platform

import (
	"os/exec"
)

// ArchiveTools lists the external binaries used to list and test archives,
// in order of preference.
var ArchiveTools = []string{"unrar", "7z", "7za"}

// RepairTools lists the binaries used by post-processing.
var RepairTools = []string{"par2"}

// LookPath returns the first of names found in PATH, with its path.
func LookPath(names ...string) (name, path string, ok bool) {
	for _, n := range names {
		if p, err := exec.LookPath(n); err == nil {
			return n, p, true
		}
	}
	return "", "", false
}

// MissingTools reports which of the optional tools are not installed, so the
// caller can log which features are degraded.
func MissingTools() []string {
	var missing []string
	if _, _, ok := LookPath(ArchiveTools...); !ok {
		missing = append(missing, "unrar/7z")
	}
	for _, bin := range RepairTools {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	return missing
}
