// Package sandbox detects whether the process runs inside a Flatpak-style
// confinement, in which case external commands only reach the host through
// the portal launcher.
package sandbox

import "os"

// flatpakInfoPath exists inside every Flatpak sandbox.
const flatpakInfoPath = "/.flatpak-info"

// InSandbox reports whether host commands must be re-routed through the
// host-escape launcher. Checked once at controller construction.
func InSandbox() bool {
	if os.Getenv("FLATPAK_ID") != "" {
		return true
	}
	_, err := os.Stat(flatpakInfoPath)
	return err == nil
}
