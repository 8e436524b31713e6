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

//go:build ignore

package main

import (
	"bytes"
	"log"
	"os"
	"os/exec"

	"github.com/FerretDB/randomwinner/internal/util/must"
)

func main() {
	log.SetFlags(0)

	for _, f := range []struct {
		file string
		args []string
	}{
		{"version.txt", []string{"describe", "--tags", "--dirty", "--always"}},
		{"commit.txt", []string{"rev-parse", "HEAD"}},
		{"branch.txt", []string{"branch", "--show-current"}},
	} {
		cmd := exec.Command("git", f.args...)
		cmd.Stderr = os.Stderr

		b, err := cmd.Output()
		if err != nil {
			log.Fatalf("%s: %s", cmd, err)
		}

		b = bytes.TrimSpace(b)
		log.Printf("%s: %s", f.file, b)
		must.NoError(os.WriteFile(f.file, append(b, '\n'), 0o666))
	}
}
