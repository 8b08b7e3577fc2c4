// Package runner executes external build tools.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/execabs"
)

// Cmd describes one external tool invocation.
type Cmd struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env overrides entries of the process environment for this command only.
	Env map[string]string
}

// String renders the command line for logs.
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner runs external commands to completion.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) error
	// Output runs cmd and returns its standard output.
	Output(ctx context.Context, cmd Cmd) ([]byte, error)
}

// CommandError reports an external command that could not be started or
// exited with a non-zero status.
type CommandError struct {
	Cmd Cmd
	// ExitCode is -1 when the process did not run to completion.
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s: exit status %d", e.Cmd.Name, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", e.Cmd.Name, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Exec runs commands as child processes.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger zerolog.Logger
}

var _ Runner = (*Exec)(nil)

// NewExec returns an Exec that streams child output to the process's
// stdout and stderr.
func NewExec(logger zerolog.Logger) *Exec {
	return &Exec{Stdout: os.Stdout, Stderr: os.Stderr, Logger: logger}
}

func (r *Exec) Run(ctx context.Context, c Cmd) error {
	cmd, err := r.command(ctx, c)
	if err != nil {
		return err
	}
	cmd.Stdout = r.Stdout
	return wrap(c, cmd.Run())
}

func (r *Exec) Output(ctx context.Context, c Cmd) ([]byte, error) {
	cmd, err := r.command(ctx, c)
	if err != nil {
		return nil, err
	}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, wrap(c, err)
	}
	return stdout.Bytes(), nil
}

func (r *Exec) command(ctx context.Context, c Cmd) (*exec.Cmd, error) {
	r.Logger.Info().Str("dir", c.Dir).Msgf("Executing: %s", c)
	path, err := execabs.LookPath(c.Name)
	if err != nil {
		return nil, &CommandError{Cmd: c, ExitCode: -1, Err: err}
	}
	cmd := execabs.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stderr = r.Stderr
	if len(c.Env) > 0 {
		cmd.Env = MergeEnv(os.Environ(), c.Env)
	}
	return cmd, nil
}

func wrap(c Cmd, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return &CommandError{Cmd: c, ExitCode: exitErr.ExitCode(), Err: err}
	}
	return &CommandError{Cmd: c, ExitCode: -1, Err: err}
}

// MergeEnv applies override on top of a KEY=VALUE list and returns the
// result sorted by key.
func MergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
