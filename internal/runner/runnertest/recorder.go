// Package runnertest provides a recording Runner for tests.
package runnertest

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/goplus/iosbuild/internal/runner"
)

// Recorder records every command instead of running it.
//
// For each command, Hook is called first when set; its error is returned
// as is. Otherwise FailOn, keyed by tool name, turns the call into a
// *runner.CommandError with that exit code.
type Recorder struct {
	Hook    func(cmd runner.Cmd) error
	FailOn  map[string]int
	Outputs map[string][]byte

	mu   sync.Mutex
	cmds []runner.Cmd
	envs []map[string]string
}

var _ runner.Runner = (*Recorder)(nil)

func (r *Recorder) Run(ctx context.Context, cmd runner.Cmd) error {
	r.record(cmd)
	if r.Hook != nil {
		if err := r.Hook(cmd); err != nil {
			return err
		}
	}
	if code, ok := r.FailOn[cmd.Name]; ok {
		return &runner.CommandError{Cmd: cmd, ExitCode: code}
	}
	return nil
}

func (r *Recorder) Output(ctx context.Context, cmd runner.Cmd) ([]byte, error) {
	if err := r.Run(ctx, cmd); err != nil {
		return nil, err
	}
	return r.Outputs[cmd.Name], nil
}

func (r *Recorder) record(cmd runner.Cmd) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd.Args = slices.Clone(cmd.Args)
	cmd.Env = maps.Clone(cmd.Env)
	r.cmds = append(r.cmds, cmd)
	r.envs = append(r.envs, map[string]string{
		"PKG_CONFIG_PATH": os.Getenv("PKG_CONFIG_PATH"),
	})
}

// Cmds returns the recorded commands in call order.
func (r *Recorder) Cmds() []runner.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.cmds)
}

// Named returns the recorded commands invoking the given tool.
func (r *Recorder) Named(name string) []runner.Cmd {
	var out []runner.Cmd
	for _, c := range r.Cmds() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// ProcessEnv returns the value of key in the process environment observed
// when the i-th command was recorded. Only PKG_CONFIG_PATH is captured.
func (r *Recorder) ProcessEnv(i int, key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.envs[i][key]
}

// Touch creates an empty file at path, making parent directories.
func Touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, nil, 0o644)
}
