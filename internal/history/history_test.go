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

package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rwtestutil "github.com/FerretDB/randomwinner/internal/util/testutil"
)

func TestStore(t *testing.T) {
	t.Parallel()

	ctx := rwtestutil.Ctx(t)
	path := filepath.Join(t.TempDir(), "history.sqlite")

	s, err := Open(ctx, path, rwtestutil.Logger(t))
	require.NoError(t, err)

	res, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, res)

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		err = s.Record(ctx, &Draw{
			ID:        fmt.Sprintf("draw-%02d", i),
			Strategy:  "sample",
			Winner:    fmt.Sprintf("winner %d", i),
			Documents: 40,
			CreatedAt: start.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	err = s.Record(ctx, &Draw{ID: "draw-00", Strategy: "near", Winner: "dup"})
	require.Error(t, err)

	res, err = s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, res, DefaultLimit)

	assert.Equal(t, &Draw{
		ID:        "draw-24",
		Strategy:  "sample",
		Winner:    "winner 24",
		Documents: 40,
		CreatedAt: start.Add(24 * time.Minute),
	}, res[0])
	assert.Equal(t, "draw-05", res[DefaultLimit-1].ID)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	res, err = s.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "draw-22", res[2].ID)

	assert.Equal(t, 2, testutil.CollectAndCount(s))

	require.NoError(t, s.Close())

	// data survives reopening
	s, err = Open(ctx, "file:"+path, rwtestutil.Logger(t))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	res, err = s.List(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, res, 25)
}

func TestRecordNow(t *testing.T) {
	t.Parallel()

	ctx := rwtestutil.Ctx(t)

	s, err := Open(ctx, filepath.Join(t.TempDir(), "history.sqlite"), rwtestutil.Logger(t))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	before := time.Now().Add(-time.Second)
	require.NoError(t, s.Record(ctx, &Draw{ID: "x", Strategy: "bucket", Winner: "w", Documents: 1}))

	res, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].CreatedAt.After(before), "%s", res[0].CreatedAt)
}
