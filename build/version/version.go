// Copyright 2021 FerretDB Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package version provides information about randomwinner version and build.
//
// # Extra files
//
// The following text files in this directory are embedded into the binary:
//   - version.txt (required) contains version in a format similar to `git describe` output;
//   - commit.txt (optional) contains the source git commit;
//   - branch.txt (optional) contains the source git branch.
//
// They are (re)generated by `go generate ./build/version`.
package version

import (
	"embed"
	"runtime"
	runtimedebug "runtime/debug"
	"strconv"
	"strings"

	"github.com/FerretDB/randomwinner/internal/util/must"
)

//go:generate go run ./generate.go

//go:embed *.txt
var gen embed.FS

// Info provides details about the current build.
type Info struct {
	Version          string
	Commit           string
	Branch           string
	Dirty            bool
	BuildEnvironment map[string]string
}

// info singleton instance set by init().
var info *Info

// unknown is a placeholder for unknown version, commit, and branch values.
const unknown = "unknown"

// module path from go.mod.
const module = "github.com/FerretDB/randomwinner"

// Get returns current build's info.
//
// It returns a shared instance without any synchronization.
func Get() *Info {
	return info
}

func init() {
	info = &Info{
		Version: unknown,
		Commit:  unknown,
		Branch:  unknown,
		BuildEnvironment: map[string]string{
			"go.runtime": runtime.Version(),
		},
	}

	for f, sp := range map[string]*string{
		"version.txt": &info.Version,
		"commit.txt":  &info.Commit,
		"branch.txt":  &info.Branch,
	} {
		b, _ := gen.ReadFile(f)
		if s := strings.TrimSpace(string(b)); s != "" {
			*sp = s
		}
	}

	buildInfo, ok := runtimedebug.ReadBuildInfo()
	if !ok {
		return
	}

	info.BuildEnvironment["go.version"] = buildInfo.GoVersion

	// settings describe the main module only
	if buildInfo.Main.Path != module {
		return
	}

	for _, s := range buildInfo.Settings {
		if s.Value == "" {
			continue
		}

		info.BuildEnvironment[s.Key] = s.Value

		switch s.Key {
		case "vcs.revision":
			if info.Commit == unknown {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Dirty = must.NotFail(strconv.ParseBool(s.Value))
		}
	}
}
