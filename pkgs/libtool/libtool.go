// Package libtool merges static archives built for one architecture.
package libtool

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/goplus/iosbuild/internal/runner"
)

// ErrNoArchives is returned when a directory holds no .a files.
var ErrNoArchives = errors.New("no static libraries found")

// Archives returns the sorted .a files directly inside dir. A missing dir
// yields an error wrapping fs.ErrNotExist.
func Archives(dir string) ([]string, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, &fs.PathError{Op: "glob", Path: dir, Err: errors.New("not a directory")}
	}
	libs, err := filepath.Glob(filepath.Join(dir, "*.a"))
	if err != nil {
		return nil, err
	}
	sort.Strings(libs)
	return libs, nil
}

// Static runs "libtool -static -o out libs...".
func Static(ctx context.Context, r runner.Runner, out string, libs []string) error {
	if len(libs) == 0 {
		return ErrNoArchives
	}
	args := append([]string{"-static", "-o", out}, libs...)
	return r.Run(ctx, runner.Cmd{Name: "libtool", Args: args})
}

// MergeDir merges every archive in dir into out and returns the inputs.
func MergeDir(ctx context.Context, r runner.Runner, dir, out string) ([]string, error) {
	libs, err := Archives(dir)
	if err != nil {
		return nil, err
	}
	if len(libs) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoArchives)
	}
	if err := Static(ctx, r, out, libs); err != nil {
		return nil, err
	}
	return libs, nil
}
