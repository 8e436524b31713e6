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

package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	t.Parallel()

	v := Get()

	assert.NotEmpty(t, v.Version)
	assert.NotEqual(t, unknown, v.Version)
	assert.NotEmpty(t, v.Commit)
	assert.NotEmpty(t, v.Branch)
	assert.Equal(t, runtime.Version(), v.BuildEnvironment["go.runtime"])
}
