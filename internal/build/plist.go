package build

import (
	"os"
	"path/filepath"

	"howett.net/plist"
)

type frameworkInfo struct {
	BundleName         string   `plist:"CFBundleName"`
	BundleExecutable   string   `plist:"CFBundleExecutable"`
	BundleIdentifier   string   `plist:"CFBundleIdentifier,omitempty"`
	PackageType        string   `plist:"CFBundlePackageType"`
	SupportedPlatforms []string `plist:"CFBundleSupportedPlatforms"`
	MinimumOSVersion   string   `plist:"MinimumOSVersion"`
}

// writeInfoPlist writes frameworkPath/Info.plist describing a static
// framework whose binary is named libName. CFBundleIdentifier is left out
// when bundleID is empty.
func writeInfoPlist(frameworkPath, libName, bundleID, deploymentTarget string) error {
	info := frameworkInfo{
		BundleName:         libName,
		BundleExecutable:   libName,
		BundleIdentifier:   bundleID,
		PackageType:        "FMWK",
		SupportedPlatforms: []string{"iPhoneOS", "iPhoneSimulator"},
		MinimumOSVersion:   deploymentTarget,
	}
	data, err := plist.MarshalIndent(info, plist.XMLFormat, "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(frameworkPath, "Info.plist"), data, 0o644)
}
