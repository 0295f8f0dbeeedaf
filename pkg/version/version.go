// Package version holds build metadata, which is set with -ldflags at
// build time, for example:
//
//	go build -ldflags "-X github.com/mutablelogic/go-pgmq/pkg/version.GitTag=v1.0.0"
package version

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	GitSource   string
	GitTag      string
	GitBranch   string
	GitHash     string
	GoBuildTime string
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ExecName returns the name of the running executable
func ExecName() string {
	name, err := os.Executable()
	if err != nil {
		return "unknown"
	}
	return filepath.Base(name)
}

// Version returns the tag, or the hash and branch, or the module version
// when neither was set at build time
func Version() string {
	switch {
	case GitTag != "":
		return GitTag
	case GitHash != "" && GitBranch != "":
		return fmt.Sprintf("%s@%s", GitBranch, GitHash)
	case GitHash != "":
		return GitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// Compiler returns the go version, os and architecture
func Compiler() string {
	return fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
