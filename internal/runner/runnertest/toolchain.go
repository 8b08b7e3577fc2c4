package runnertest

import (
	"path/filepath"
	"strings"

	"github.com/goplus/iosbuild/internal/runner"
)

// FakeToolchain returns a Recorder that mimics cmake, libtool and lipo by
// creating the files each step would produce:
//
//   - "cmake --build" in <out>/<lib>/build/<platform> installs
//     lib/lib<lib>.a and include/<lib>/<lib>.h under the last configured
//     CMAKE_INSTALL_PREFIX
//   - "libtool -static -o <out>" and "lipo -create ... -o <out>" create <out>
//   - "lipo -info" reports x86_64 and arm64
func FakeToolchain() *Recorder {
	var installDir string
	rec := &Recorder{
		Outputs: map[string][]byte{
			"lipo": []byte("Architectures in the fat file: avro are: x86_64 arm64\n"),
		},
	}
	rec.Hook = func(cmd runner.Cmd) error {
		switch cmd.Name {
		case "cmake":
			if len(cmd.Args) == 0 || cmd.Args[0] != "--build" {
				for _, a := range cmd.Args {
					if v, ok := strings.CutPrefix(a, "-DCMAKE_INSTALL_PREFIX="); ok {
						installDir = v
					}
				}
				return nil
			}
			lib := filepath.Base(filepath.Dir(filepath.Dir(cmd.Dir)))
			if err := Touch(filepath.Join(installDir, "lib", "lib"+lib+".a")); err != nil {
				return err
			}
			return Touch(filepath.Join(installDir, "include", lib, lib+".h"))
		case "libtool":
			return Touch(cmd.Args[2])
		case "lipo":
			if cmd.Args[0] == "-create" {
				return Touch(cmd.Args[len(cmd.Args)-1])
			}
		}
		return nil
	}
	return rec
}
