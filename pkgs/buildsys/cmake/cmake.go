package cmake

import (
	"context"
	"os"

	"github.com/goplus/iosbuild/internal/runner"
	"github.com/goplus/iosbuild/pkgs/buildsys"
)

type define struct {
	key   string
	value string
}

// CMake drives the configure and build steps of one CMake project in one
// build directory.
type CMake struct {
	SourceDir  string
	buildDir   string
	installDir string
	generator  string
	toolchain  string
	defines    []define
	env        map[string]string
	runner     runner.Runner
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New returns a CMake for sourceDir that configures in buildDir and installs
// into installDir. Commands are executed by r.
func New(r runner.Runner, sourceDir, buildDir, installDir string) *CMake {
	return &CMake{
		SourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		env:        map[string]string{},
		runner:     r,
	}
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

// Define adds -D<key>=<value>. Redefining a key replaces its value but keeps
// its original position.
func (c *CMake) Define(key, value string) *CMake {
	for i := range c.defines {
		if c.defines[i].key == key {
			c.defines[i].value = value
			return c
		}
	}
	c.defines = append(c.defines, define{key: key, value: value})
	return c
}

// DefineBool adds -D<key>=ON or -D<key>=OFF.
func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		return c.Define(key, "ON")
	}
	return c.Define(key, "OFF")
}

// Env sets key in the process environment and in the environment of every
// command run afterwards.
func (c *CMake) Env(key, value string) {
	if c.env == nil {
		c.env = map[string]string{}
	}
	c.env[key] = value
	_ = os.Setenv(key, value)
}

// Configure runs the project generator inside the build directory:
//
//	cmake <source> -G<generator> -DCMAKE_TOOLCHAIN_FILE=<toolchain> <defines> -DCMAKE_INSTALL_PREFIX=<install> <args>
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	return c.runner.Run(ctx, c.command(c.ConfigureArgs(args...)))
}

// ConfigureArgs returns the arguments Configure passes to cmake.
func (c *CMake) ConfigureArgs(args ...string) []string {
	cmakeArgs := []string{c.SourceDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G"+c.generator)
	}
	if c.toolchain != "" {
		cmakeArgs = append(cmakeArgs, "-DCMAKE_TOOLCHAIN_FILE="+c.toolchain)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	if c.installDir != "" {
		cmakeArgs = append(cmakeArgs, "-DCMAKE_INSTALL_PREFIX="+c.installDir)
	}
	return append(cmakeArgs, args...)
}

// Build runs a clean build of target for the given configuration inside the
// build directory.
func (c *CMake) Build(ctx context.Context, config, target string) error {
	return c.runner.Run(ctx, c.command(BuildArgs(config, target)))
}

// BuildArgs returns the arguments Build passes to cmake.
func BuildArgs(config, target string) []string {
	return []string{"--build", ".", "--clean-first", "--config", config, "--target", target}
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

func (c *CMake) command(args []string) runner.Cmd {
	var env map[string]string
	if len(c.env) > 0 {
		env = make(map[string]string, len(c.env))
		for k, v := range c.env {
			env[k] = v
		}
	}
	return runner.Cmd{Name: "cmake", Args: args, Dir: c.buildDir, Env: env}
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	args := make([]string, 0, len(c.defines))
	for _, d := range c.defines {
		args = append(args, "-D"+d.key+"="+d.value)
	}
	return args
}
