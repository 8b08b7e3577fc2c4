package libtool

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goplus/iosbuild/internal/runner/runnertest"
)

func TestMergeDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"libjansson.a", "libavro.a", "libz.a", "README", "libavro.dylib"} {
		if err := runnertest.Touch(filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "pkgconfig"), 0o755); err != nil {
		t.Fatal(err)
	}

	rec := &runnertest.Recorder{}
	out := filepath.Join(t.TempDir(), "avro_OS64.a")
	libs, err := MergeDir(context.Background(), rec, dir, out)
	if err != nil {
		t.Fatalf("MergeDir: %v", err)
	}
	if len(libs) != 3 {
		t.Errorf("libs = %v, want 3 archives", libs)
	}

	cmds := rec.Named("libtool")
	if len(cmds) != 1 {
		t.Fatalf("libtool invoked %d times, want 1", len(cmds))
	}
	want := []string{
		"-static", "-o", out,
		filepath.Join(dir, "libavro.a"),
		filepath.Join(dir, "libjansson.a"),
		filepath.Join(dir, "libz.a"),
	}
	if strings.Join(cmds[0].Args, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v\nwant %v", cmds[0].Args, want)
	}
	outputs := 0
	for _, a := range cmds[0].Args {
		if a == "-o" {
			outputs++
		}
	}
	if outputs != 1 {
		t.Errorf("found %d -o flags, want 1", outputs)
	}
}

func TestMergeDirMissing(t *testing.T) {
	rec := &runnertest.Recorder{}
	_, err := MergeDir(context.Background(), rec, filepath.Join(t.TempDir(), "OS64", "lib"), "out.a")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("MergeDir err = %v, want fs.ErrNotExist", err)
	}
	if n := len(rec.Cmds()); n != 0 {
		t.Errorf("ran %d commands, want 0", n)
	}
}

func TestMergeDirEmpty(t *testing.T) {
	rec := &runnertest.Recorder{}
	_, err := MergeDir(context.Background(), rec, t.TempDir(), "out.a")
	if !errors.Is(err, ErrNoArchives) {
		t.Fatalf("MergeDir err = %v, want ErrNoArchives", err)
	}
}

func TestMergeDirNotDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "lib")
	if err := runnertest.Touch(file); err != nil {
		t.Fatal(err)
	}
	if _, err := MergeDir(context.Background(), &runnertest.Recorder{}, file, "out.a"); err == nil {
		t.Fatal("MergeDir on a file succeeded")
	}
}

func TestStaticFailure(t *testing.T) {
	rec := &runnertest.Recorder{FailOn: map[string]int{"libtool": 1}}
	if err := Static(context.Background(), rec, "out.a", []string{"a.a"}); err == nil {
		t.Fatal("Static succeeded, want error")
	}
}
