package env

import (
	"os"
	"path/filepath"
	"strings"
)

// PkgConfigPath is the variable pkg-config searches for .pc files.
const PkgConfigPath = "PKG_CONFIG_PATH"

// PkgConfigDir returns the pkg-config directory of an install prefix.
func PkgConfigDir(installDir string) string {
	return filepath.Join(installDir, "lib", "pkgconfig")
}

// Snapshot records the process environment. Calling the returned function
// replaces the environment with the recorded one.
func Snapshot() (restore func()) {
	saved := os.Environ()
	return func() {
		os.Clearenv()
		for _, e := range saved {
			if k, v, ok := strings.Cut(e, "="); ok {
				os.Setenv(k, v)
			}
		}
	}
}
