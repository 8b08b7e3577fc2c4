package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goplus/iosbuild/internal/config"
	"github.com/goplus/iosbuild/internal/env"
	"github.com/goplus/iosbuild/internal/runner"
	"github.com/goplus/iosbuild/pkgs/buildsys"
	"github.com/goplus/iosbuild/pkgs/buildsys/cmake"
	"github.com/rs/zerolog"
)

// Output directory layout:
//
//	outDir/
//	  <lib>/build/<platform>/        # CMake build tree
//	  <platform>/                    # install prefix shared by all libraries
//	    include/
//	    lib/
//	      pkgconfig/
//	  intermediate/<lib>_<platform>.a
//	  <lib>.framework/
//	    <lib>                        # universal static archive
//	    include/
//	    Info.plist
//	  .iosbuild.json

// Options configures a Builder.
type Options struct {
	Config config.BuildConfig
	// SourceRoot is the directory library sources are resolved against.
	SourceRoot string
	// Toolchain is the ios-cmake toolchain file. A relative path is resolved
	// against SourceRoot.
	Toolchain string
	// BundleID is the CFBundleIdentifier of the framework. Empty leaves it out.
	BundleID string
	Runner   runner.Runner
	Logger   zerolog.Logger
}

// Builder cross-compiles CMake projects for every platform in
// config.Platforms and merges the results into a universal framework.
//
// A Builder mutates PKG_CONFIG_PATH in the process environment and must
// not be used concurrently.
type Builder struct {
	cfg        config.BuildConfig
	sourceRoot string
	toolchain  string
	bundleID   string
	runner     runner.Runner
	log        zerolog.Logger
	manifest   *manifest
}

// NewBuilder returns a Builder for opts.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.Runner == nil {
		return nil, errors.New("build: runner is required")
	}
	root, err := filepath.Abs(opts.SourceRoot)
	if err != nil {
		return nil, err
	}
	toolchain := opts.Toolchain
	if toolchain != "" && !filepath.IsAbs(toolchain) {
		toolchain = filepath.Join(root, toolchain)
	}
	return &Builder{
		cfg:        opts.Config,
		sourceRoot: root,
		toolchain:  toolchain,
		bundleID:   opts.BundleID,
		runner:     opts.Runner,
		log:        opts.Logger,
	}, nil
}

// Run builds every library of recipe in order, then merges recipe.Merge
// and writes the build manifest. The process environment is restored before
// Run returns.
func (b *Builder) Run(ctx context.Context, outDir string, recipe config.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return err
	}
	outDir, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}

	restore := env.Snapshot()
	defer restore()

	if prev, err := loadManifest(outDir); err == nil && prev.Configuration != b.cfg.Configuration() {
		b.log.Warn().
			Str("previous", string(prev.Configuration)).
			Str("current", string(b.cfg.Configuration())).
			Msg("output directory holds a build of another configuration, overwriting")
	}

	b.manifest = newManifest(b.cfg)
	for _, lib := range recipe.Libraries {
		if err := b.Build(ctx, outDir, lib); err != nil {
			return fmt.Errorf("build %s: %w", lib.Name, err)
		}
	}
	if err := b.Merge(ctx, outDir, recipe.Merge); err != nil {
		return fmt.Errorf("merge %s: %w", recipe.Merge, err)
	}
	b.manifest.BuildTime = time.Now()
	return saveManifest(outDir, b.manifest)
}

// Build configures, builds and installs lib for every platform.
func (b *Builder) Build(ctx context.Context, outDir string, lib config.Library) error {
	outDir, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	sourceDir := b.sourceDir(lib.Source)
	buildPath := filepath.Join(outDir, lib.Name, "build")

	for _, platform := range config.Platforms() {
		platformBuildDir := filepath.Join(buildPath, string(platform))
		if err := os.MkdirAll(platformBuildDir, 0o755); err != nil {
			return err
		}
		b.log.Info().Str("dir", platformBuildDir).Msg("Creating directory")
		proj := b.project(platform, platformBuildDir, platformInstallDir(outDir, platform), sourceDir)
		if err := b.buildPlatform(ctx, proj, lib.CMakeFlags); err != nil {
			return fmt.Errorf("%s: %w", platform, err)
		}
		if b.manifest != nil {
			b.manifest.addBuild(lib.Name, platform, platformBuildDir, proj.OutputDir())
		}
	}
	return nil
}

func (b *Builder) buildPlatform(ctx context.Context, proj buildsys.BuildSystem, extraFlags []string) error {
	proj.Env(env.PkgConfigPath, env.PkgConfigDir(proj.OutputDir()))
	if err := proj.Configure(ctx, extraFlags...); err != nil {
		return err
	}
	return proj.Build(ctx, string(b.cfg.Configuration()), "install")
}

// project returns the CMake invocation for one platform. The generate
// command is
//
//	cmake <source> -GXcode -DCMAKE_TOOLCHAIN_FILE=<toolchain> -DPLATFORM=<platform>
//	  -DCMAKE_XCODE_ATTRIBUTE_CODE_SIGN_IDENTITY='' -DCMAKE_XCODE_ATTRIBUTE_DEVELOPMENT_TEAM=''
//	  -DBUILD_SHARED_LIBS=OFF -DDEPLOYMENT_TARGET=<target> -DENABLE_BITCODE=ON|OFF
//	  -DCMAKE_INSTALL_PREFIX=<install> <extra flags>
func (b *Builder) project(platform config.Platform, buildDir, installDir, sourceDir string) *cmake.CMake {
	c := cmake.New(b.runner, sourceDir, buildDir, installDir)
	c.Generator("Xcode").Toolchain(b.toolchain)
	c.Define("PLATFORM", string(platform))
	// Passed verbatim, quotes included.
	c.Define("CMAKE_XCODE_ATTRIBUTE_CODE_SIGN_IDENTITY", "''")
	c.Define("CMAKE_XCODE_ATTRIBUTE_DEVELOPMENT_TEAM", "''")
	c.DefineBool("BUILD_SHARED_LIBS", false)
	c.Define("DEPLOYMENT_TARGET", b.cfg.DeploymentTarget())
	c.DefineBool("ENABLE_BITCODE", b.cfg.Bitcode())
	return c
}

func (b *Builder) sourceDir(source string) string {
	if filepath.IsAbs(source) {
		return source
	}
	return filepath.Join(b.sourceRoot, filepath.FromSlash(source))
}

func platformInstallDir(outDir string, platform config.Platform) string {
	return filepath.Join(outDir, string(platform))
}

func platformLibFile(libName string, platform config.Platform) string {
	return fmt.Sprintf("%s_%s.a", libName, platform)
}
