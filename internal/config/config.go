// Package config holds the build configuration and the fixed platform set.
package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/mod/semver"
)

// DefaultDeploymentTarget is used when neither the flag nor
// IPHONEOS_DEPLOYMENT_TARGET is set.
const DefaultDeploymentTarget = "13.0"

// DeploymentTargetEnv overrides DefaultDeploymentTarget.
const DeploymentTargetEnv = "IPHONEOS_DEPLOYMENT_TARGET"

// Configuration is the Xcode build configuration.
type Configuration string

const (
	Debug   Configuration = "Debug"
	Release Configuration = "Release"
)

// Configurations returns the accepted configuration values.
func Configurations() []Configuration {
	return []Configuration{Debug, Release}
}

// ParseConfiguration parses s. Matching is case-sensitive.
func ParseConfiguration(s string) (Configuration, error) {
	for _, c := range Configurations() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid configuration %q (choose from %s)", s, choices())
}

func choices() string {
	var names []string
	for _, c := range Configurations() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

// Set implements pflag.Value.
func (c *Configuration) Set(s string) error {
	v, err := ParseConfiguration(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c *Configuration) String() string { return string(*c) }

// Type implements pflag.Value.
func (c *Configuration) Type() string { return "configuration" }

// Platform identifies an ios-cmake PLATFORM value.
type Platform string

const (
	Simulator64 Platform = "SIMULATOR64"
	OS64        Platform = "OS64"
)

// Platforms returns the platforms every library is built for, simulator first.
func Platforms() []Platform {
	return []Platform{Simulator64, OS64}
}

// BuildConfig is the validated, immutable set of options shared by every
// platform build.
type BuildConfig struct {
	configuration    Configuration
	bitcode          bool
	deploymentTarget string
}

// NewBuildConfig validates its arguments and returns a BuildConfig.
func NewBuildConfig(configuration Configuration, bitcode bool, deploymentTarget string) (BuildConfig, error) {
	if _, err := ParseConfiguration(string(configuration)); err != nil {
		return BuildConfig{}, err
	}
	if err := ValidateDeploymentTarget(deploymentTarget); err != nil {
		return BuildConfig{}, err
	}
	return BuildConfig{
		configuration:    configuration,
		bitcode:          bitcode,
		deploymentTarget: deploymentTarget,
	}, nil
}

func (c BuildConfig) Configuration() Configuration { return c.configuration }

func (c BuildConfig) Bitcode() bool { return c.bitcode }

func (c BuildConfig) DeploymentTarget() string { return c.deploymentTarget }

// ValidateDeploymentTarget accepts dotted numeric versions such as "13",
// "13.0" or "12.4.1".
func ValidateDeploymentTarget(v string) error {
	sv := "v" + v
	if v == "" || !semver.IsValid(sv) || semver.Prerelease(sv) != "" || semver.Build(sv) != "" {
		return fmt.Errorf("invalid deployment target %q", v)
	}
	return nil
}

// DefaultDeploymentTargetFromEnv returns IPHONEOS_DEPLOYMENT_TARGET when set,
// DefaultDeploymentTarget otherwise.
func DefaultDeploymentTargetFromEnv() string {
	if v := os.Getenv(DeploymentTargetEnv); v != "" {
		return v
	}
	return DefaultDeploymentTarget
}
