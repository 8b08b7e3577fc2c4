package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
}

func newTestExec() (*Exec, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Exec{Stdout: &stdout, Stderr: &stderr, Logger: zerolog.Nop()}, &stdout, &stderr
}

func TestCmdString(t *testing.T) {
	c := Cmd{Name: "libtool", Args: []string{"-static", "-o", "out.a", "a.a"}}
	if got, want := c.String(), "libtool -static -o out.a a.a"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestExecRunSuccess(t *testing.T) {
	requireSh(t)
	r, stdout, _ := newTestExec()
	dir := t.TempDir()
	err := r.Run(context.Background(), Cmd{
		Name: "sh",
		Args: []string{"-c", "pwd; echo $IOSBUILD_TEST"},
		Dir:  dir,
		Env:  map[string]string{"IOSBUILD_TEST": "hello"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("stdout = %q", stdout.String())
	}
	gotDir, _ := filepath.EvalSymlinks(lines[0])
	wantDir, _ := filepath.EvalSymlinks(dir)
	if gotDir != wantDir {
		t.Errorf("dir = %q, want %q", gotDir, wantDir)
	}
	if lines[1] != "hello" {
		t.Errorf("env = %q, want %q", lines[1], "hello")
	}
}

func TestExecRunNonZeroExit(t *testing.T) {
	requireSh(t)
	r, _, stderr := newTestExec()
	err := r.Run(context.Background(), Cmd{Name: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Run err = %v, want *CommandError", err)
	}
	if cmdErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", cmdErr.ExitCode)
	}
	if cmdErr.Error() != "sh: exit status 3" {
		t.Errorf("Error() = %q", cmdErr.Error())
	}
	if !strings.Contains(stderr.String(), "boom") {
		t.Errorf("stderr = %q, want boom", stderr.String())
	}
}

func TestExecRunMissingTool(t *testing.T) {
	r, _, _ := newTestExec()
	err := r.Run(context.Background(), Cmd{Name: "iosbuild-no-such-tool"})
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Run err = %v, want *CommandError", err)
	}
	if cmdErr.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", cmdErr.ExitCode)
	}
}

func TestExecOutput(t *testing.T) {
	requireSh(t)
	r, _, _ := newTestExec()
	out, err := r.Output(context.Background(), Cmd{Name: "sh", Args: []string{"-c", "echo arm64 x86_64"}})
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "arm64 x86_64" {
		t.Errorf("Output = %q", got)
	}
}

func TestExecCanceled(t *testing.T) {
	requireSh(t)
	r, _, _ := newTestExec()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Run(ctx, Cmd{Name: "sh", Args: []string{"-c", "sleep 5"}})
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Run err = %v, want *CommandError", err)
	}
}

func TestMergeEnv(t *testing.T) {
	got := MergeEnv([]string{"B=2", "A=1", "PKG_CONFIG_PATH=/old"}, map[string]string{"PKG_CONFIG_PATH": "/new", "C": "3"})
	want := []string{"A=1", "B=2", "C=3", "PKG_CONFIG_PATH=/new"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("MergeEnv = %v, want %v", got, want)
	}
}
