// Package lipo creates and inspects universal binaries.
package lipo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goplus/iosbuild/internal/runner"
)

// Create runs "lipo -create inputs... -o out".
func Create(ctx context.Context, r runner.Runner, inputs []string, out string) error {
	if len(inputs) == 0 {
		return errors.New("lipo: no input files")
	}
	args := append([]string{"-create"}, inputs...)
	args = append(args, "-o", out)
	return r.Run(ctx, runner.Cmd{Name: "lipo", Args: args})
}

// Archs returns the sorted architectures contained in file, as reported by
// "lipo -info".
func Archs(ctx context.Context, r runner.Runner, file string) ([]string, error) {
	out, err := r.Output(ctx, runner.Cmd{Name: "lipo", Args: []string{"-info", file}})
	if err != nil {
		return nil, err
	}
	return ParseInfo(string(out))
}

// ParseInfo extracts the architecture list from "lipo -info" output, e.g.
//
//	Architectures in the fat file: libavro.a are: x86_64 arm64
//	Non-fat file: libavro.a is architecture: arm64
func ParseInfo(out string) ([]string, error) {
	line := strings.TrimSpace(out)
	i := strings.LastIndex(line, ":")
	if i < 0 {
		return nil, fmt.Errorf("lipo: unexpected -info output %q", line)
	}
	archs := strings.Fields(line[i+1:])
	if len(archs) == 0 {
		return nil, fmt.Errorf("lipo: no architectures in %q", line)
	}
	sort.Strings(archs)
	return archs, nil
}
