package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/goplus/iosbuild/internal/config"
)

const manifestFile = ".iosbuild.json"

// buildEntry records one library built for one platform.
type buildEntry struct {
	Library    string          `json:"library"`
	Platform   config.Platform `json:"platform"`
	BuildDir   string          `json:"build_dir"`
	InstallDir string          `json:"install_dir"`
}

// frameworkEntry records the merged output.
type frameworkEntry struct {
	Name      string   `json:"name"`
	Dir       string   `json:"dir"`
	Library   string   `json:"library"`
	Inputs    []string `json:"inputs"`
	Archs     []string `json:"archs,omitempty"`
	HeaderDir string   `json:"header_dir"`
}

// manifest describes a completed run. It is written to outDir/.iosbuild.json.
type manifest struct {
	Configuration    config.Configuration `json:"configuration"`
	Bitcode          bool                 `json:"bitcode"`
	DeploymentTarget string               `json:"deployment_target"`
	Builds           []buildEntry         `json:"builds"`
	Framework        *frameworkEntry      `json:"framework,omitempty"`
	BuildTime        time.Time            `json:"build_time"`
}

func newManifest(cfg config.BuildConfig) *manifest {
	return &manifest{
		Configuration:    cfg.Configuration(),
		Bitcode:          cfg.Bitcode(),
		DeploymentTarget: cfg.DeploymentTarget(),
	}
}

func (m *manifest) addBuild(lib string, platform config.Platform, buildDir, installDir string) {
	m.Builds = append(m.Builds, buildEntry{
		Library:    lib,
		Platform:   platform,
		BuildDir:   buildDir,
		InstallDir: installDir,
	})
}

// loadManifest reads the manifest of a previous run from outDir.
func loadManifest(outDir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(outDir, manifestFile))
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// saveManifest writes m to outDir.
func saveManifest(outDir string, m *manifest) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, manifestFile), data, 0o644)
}
