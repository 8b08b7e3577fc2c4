package build

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goplus/iosbuild/internal/config"
	"github.com/goplus/iosbuild/pkgs/libtool"
	"github.com/goplus/iosbuild/pkgs/lipo"
)

// Merge combines the static libraries installed for each platform into
// outDir/intermediate/<libName>_<platform>.a, lipo-merges those into
// outDir/<libName>.framework/<libName> and copies the headers of the first
// platform into outDir/<libName>.framework/include.
func (b *Builder) Merge(ctx context.Context, outDir, libName string) error {
	outDir, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}
	platformLibsPath := filepath.Join(outDir, "intermediate")
	if err := os.MkdirAll(platformLibsPath, 0o755); err != nil {
		return err
	}

	platforms := config.Platforms()
	merged := make([]string, 0, len(platforms))
	for _, platform := range platforms {
		platformLibDir := filepath.Join(platformInstallDir(outDir, platform), "lib")
		platformMergedLibFile := filepath.Join(platformLibsPath, platformLibFile(libName, platform))
		b.log.Info().Str("dir", platformLibDir).Msg("Merging libraries")
		libs, err := libtool.MergeDir(ctx, b.runner, platformLibDir, platformMergedLibFile)
		if err != nil {
			return fmt.Errorf("%s: %w", platform, err)
		}
		b.log.Debug().Strs("libs", libs).Str("out", platformMergedLibFile).Msg("merged")
		merged = append(merged, platformMergedLibFile)
	}

	frameworkPath := filepath.Join(outDir, libName+".framework")
	frameworkIncludePath := filepath.Join(frameworkPath, "include")
	if err := os.MkdirAll(frameworkPath, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(frameworkIncludePath, 0o755); err != nil {
		return err
	}

	universal := filepath.Join(frameworkPath, libName)
	b.log.Info().Strs("libs", merged).Msg("Creating universal library")
	if err := lipo.Create(ctx, b.runner, merged, universal); err != nil {
		return err
	}
	archs, err := lipo.Archs(ctx, b.runner, universal)
	if err != nil {
		b.log.Warn().Err(err).Str("file", universal).Msg("cannot read architectures")
	} else {
		b.log.Info().Strs("archs", archs).Str("file", universal).Msg("universal library")
	}

	platformIncludeDir := filepath.Join(platformInstallDir(outDir, platforms[0]), "include")
	if err := copyTree(platformIncludeDir, frameworkIncludePath); err != nil {
		return err
	}
	if err := writeInfoPlist(frameworkPath, libName, b.bundleID, b.cfg.DeploymentTarget()); err != nil {
		return err
	}

	if b.manifest != nil {
		b.manifest.Framework = &frameworkEntry{
			Name:      libName,
			Dir:       frameworkPath,
			Library:   universal,
			Inputs:    merged,
			Archs:     archs,
			HeaderDir: platformIncludeDir,
		}
	}
	return nil
}

// copyTree copies the files and directories under src into dst, overwriting
// files that already exist. Symbolic links are followed and their targets
// copied.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if d.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if info.IsDir() {
				return copyTree(path, target)
			}
			if !info.Mode().IsRegular() {
				return fmt.Errorf("copy %s: unsupported file type %s", path, info.Mode().Type())
			}
			return copyFile(path, target)
		}
		if !d.Type().IsRegular() {
			return fmt.Errorf("copy %s: unsupported file type %s", path, d.Type())
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
