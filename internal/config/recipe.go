package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultToolchain is the ios-cmake toolchain file, relative to the source root.
const DefaultToolchain = "ios-cmake/ios.toolchain.cmake"

// Library is one CMake project to cross-compile.
type Library struct {
	Name       string   `toml:"name"`
	Source     string   `toml:"source"`
	CMakeFlags []string `toml:"cmake_flags"`
}

// Recipe lists the libraries to build, in order, and the one whose install
// tree is merged into the universal framework. BundleID, when set, becomes
// the framework's CFBundleIdentifier.
//
// Configuration, Bitcode and DeploymentTarget are optional defaults that
// explicitly set command line flags take precedence over.
type Recipe struct {
	Toolchain        string    `toml:"toolchain"`
	Merge            string    `toml:"merge"`
	BundleID         string    `toml:"bundle_id"`
	Libraries        []Library `toml:"library"`
	Configuration    string    `toml:"configuration"`
	Bitcode          *bool     `toml:"bitcode"`
	DeploymentTarget string    `toml:"deployment_target"`
}

// DefaultRecipe builds Jansson and then the Avro C library, which finds
// Jansson through pkg-config, and merges both into avro.framework.
func DefaultRecipe() Recipe {
	return Recipe{
		Toolchain: DefaultToolchain,
		Merge:     "avro",
		BundleID:  "org.apache.avro",
		Libraries: []Library{
			{
				Name:   "jansson",
				Source: "jansson",
				CMakeFlags: []string{
					"-DJANSSON_WITHOUT_TESTS=ON",
					"-DJANSSON_EXAMPLES=OFF",
					"-DJANSSON_BUILD_DOCS=OFF",
				},
			},
			{
				Name:   "avro",
				Source: "lang/c",
			},
		},
	}
}

// LoadRecipe reads a TOML recipe. Unknown keys are rejected. An empty
// toolchain falls back to DefaultToolchain.
func LoadRecipe(path string) (Recipe, error) {
	var r Recipe
	b, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return r, fmt.Errorf("parse %s: %w", path, err)
	}
	if r.Toolchain == "" {
		r.Toolchain = DefaultToolchain
	}
	return r, nil
}

// Validate checks that the recipe names at least one library, that names are
// unique and that Merge refers to one of them.
func (r *Recipe) Validate() error {
	if len(r.Libraries) == 0 {
		return errors.New("recipe: no libraries")
	}
	seen := make(map[string]bool, len(r.Libraries))
	for i, lib := range r.Libraries {
		if lib.Name == "" {
			return fmt.Errorf("recipe: library #%d has no name", i+1)
		}
		if lib.Source == "" {
			return fmt.Errorf("recipe: library %q has no source", lib.Name)
		}
		if seen[lib.Name] {
			return fmt.Errorf("recipe: duplicate library %q", lib.Name)
		}
		seen[lib.Name] = true
	}
	if r.Merge == "" {
		return errors.New("recipe: merge is required")
	}
	if !seen[r.Merge] {
		return fmt.Errorf("recipe: merge target %q is not a declared library", r.Merge)
	}
	return nil
}
