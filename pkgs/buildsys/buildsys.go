package buildsys

import "context"

// BuildSystem captures the lifecycle shared by project generators driven
// for one platform: environment setup, configure, then build.
type BuildSystem interface {
	// Environment helper.
	Env(key, val string)

	// Lifecycle.
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, config, target string) error

	// Where artifacts land.
	OutputDir() string
}
