package cmake

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goplus/iosbuild/internal/runner/runnertest"
)

func TestOutputDir(t *testing.T) {
	if got := New(nil, "", "build", "").OutputDir(); got != "build" {
		t.Errorf("OutputDir = %q, want %q", got, "build")
	}
	if got := New(nil, "", "build", "inst").OutputDir(); got != "inst" {
		t.Errorf("OutputDir = %q, want %q", got, "inst")
	}
}

func TestDefinesArgs(t *testing.T) {
	c := New(nil, "", "", "")
	c.Define("FOO", "BAR")
	c.DefineBool("ENABLE", true)
	c.DefineBool("DISABLE", false)

	args := c.definesArgs()
	want := []string{"-DFOO=BAR", "-DENABLE=ON", "-DDISABLE=OFF"}
	if strings.Join(args, " ") != strings.Join(want, " ") {
		t.Errorf("definesArgs = %v, want %v (insertion order)", args, want)
	}
}

func TestDefineReplacesInPlace(t *testing.T) {
	c := New(nil, "", "", "")
	c.Define("A", "1").Define("B", "2").Define("A", "3")
	if got := strings.Join(c.definesArgs(), " "); got != "-DA=3 -DB=2" {
		t.Errorf("definesArgs = %q, want %q", got, "-DA=3 -DB=2")
	}
}

func TestDefinesArgsEmpty(t *testing.T) {
	c := New(nil, "", "", "")
	if args := c.definesArgs(); args != nil {
		t.Errorf("definesArgs on empty = %v, want nil", args)
	}
}

func TestConfigure(t *testing.T) {
	tmp := t.TempDir()
	buildDir := filepath.Join(tmp, "build", "OS64")
	rec := &runnertest.Recorder{}

	c := New(rec, "/src/jansson", buildDir, "/out/OS64")
	c.Generator("Xcode").Toolchain("/src/ios.toolchain.cmake")
	c.Define("PLATFORM", "OS64")
	c.DefineBool("ENABLE_BITCODE", false)

	if err := c.Configure(context.Background(), "-DJANSSON_EXAMPLES=OFF"); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if fi, err := os.Stat(buildDir); err != nil || !fi.IsDir() {
		t.Fatalf("build dir not created: %v", err)
	}

	cmds := rec.Cmds()
	if len(cmds) != 1 {
		t.Fatalf("recorded %d commands, want 1", len(cmds))
	}
	got := cmds[0]
	if got.Name != "cmake" || got.Dir != buildDir {
		t.Errorf("cmd = %s in %s", got.Name, got.Dir)
	}
	want := []string{
		"/src/jansson",
		"-GXcode",
		"-DCMAKE_TOOLCHAIN_FILE=/src/ios.toolchain.cmake",
		"-DPLATFORM=OS64",
		"-DENABLE_BITCODE=OFF",
		"-DCMAKE_INSTALL_PREFIX=/out/OS64",
		"-DJANSSON_EXAMPLES=OFF",
	}
	if strings.Join(got.Args, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v\nwant %v", got.Args, want)
	}
}

func TestBuild(t *testing.T) {
	rec := &runnertest.Recorder{}
	c := New(rec, "/src", "/build", "/inst")
	if err := c.Build(context.Background(), "Release", "install"); err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := rec.Cmds()[0]
	if want := "cmake --build . --clean-first --config Release --target install"; got.String() != want {
		t.Errorf("cmd = %q, want %q", got.String(), want)
	}
	if got.Dir != "/build" {
		t.Errorf("Dir = %q, want /build", got.Dir)
	}
}

func TestBuildFailure(t *testing.T) {
	rec := &runnertest.Recorder{FailOn: map[string]int{"cmake": 2}}
	c := New(rec, "/src", "/build", "/inst")
	if err := c.Build(context.Background(), "Debug", "install"); err == nil {
		t.Fatal("Build succeeded, want error")
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("PKG_CONFIG_PATH", "")
	rec := &runnertest.Recorder{}
	c := New(rec, "/src", "/build", "/inst")
	c.Env("PKG_CONFIG_PATH", "/inst/lib/pkgconfig")

	if got := os.Getenv("PKG_CONFIG_PATH"); got != "/inst/lib/pkgconfig" {
		t.Errorf("process PKG_CONFIG_PATH = %q", got)
	}
	if err := c.Build(context.Background(), "Debug", "install"); err != nil {
		t.Fatal(err)
	}
	if got := rec.Cmds()[0].Env["PKG_CONFIG_PATH"]; got != "/inst/lib/pkgconfig" {
		t.Errorf("command PKG_CONFIG_PATH = %q", got)
	}
}
