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

package strategy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/FerretDB/randomwinner/internal/data"
	"github.com/FerretDB/randomwinner/internal/util/iterator"
	"github.com/FerretDB/randomwinner/internal/util/testutil"
)

// records returns n records named "r0", "r1", etc.
func records(n int) []bson.D {
	res := make([]bson.D, n)
	for i := range res {
		res[i] = bson.D{{Key: "_id", Value: int32(i)}, {Key: "name", Value: fmt.Sprintf("r%d", i)}}
	}

	return res
}

func TestPick(t *testing.T) {
	t.Parallel()

	for _, name := range Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := testutil.Ctx(t)
			coll := testutil.Collection(t)

			s, err := New(name, &NewOpts{Rand: NewRand(3), Projection: true})
			require.NoError(t, err)

			inserted, err := data.Load(ctx, coll, iterator.ForSlice(records(30)), s.Tag)
			require.NoError(t, err)
			require.NotZero(t, inserted)

			require.NoError(t, s.Prepare(ctx, coll))

			iter, err := data.Get(ctx, coll, nil, nil)
			require.NoError(t, err)

			all, err := iterator.ConsumeValues(iter)
			require.NoError(t, err)
			require.Len(t, all, inserted)

			ids := make(map[any]string, len(all))
			for _, doc := range all {
				ids[field(doc, "_id")] = field(doc, "name").(string)
			}

			for i := 0; i < 10; i++ {
				winner, err := s.Pick(ctx, coll)
				require.NoError(t, err)

				expected, ok := ids[field(winner, "_id")]
				require.True(t, ok, "winner %v is not inserted", winner)
				assert.Equal(t, expected, field(winner, "name"))
			}
		})
	}
}

func TestPickEmpty(t *testing.T) {
	t.Parallel()

	for _, name := range Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := testutil.Ctx(t)
			coll := testutil.Collection(t)

			s, err := New(name, nil)
			require.NoError(t, err)

			require.NoError(t, s.Prepare(ctx, coll))

			_, err = s.Pick(ctx, coll)
			require.ErrorIs(t, err, ErrNoWinner)
		})
	}
}

func TestPickDistinctNeverSkipped(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	coll := testutil.Collection(t)

	s, err := New("distinct", &NewOpts{Rand: NewRand(5), Skip: []int{0, 1, 2, 3, 4, 5, 6, 7}})
	require.NoError(t, err)

	inserted, err := data.Load(ctx, coll, iterator.ForSlice(records(10)), s.Tag)
	require.NoError(t, err)
	require.Equal(t, 2, inserted)

	for i := 0; i < 10; i++ {
		winner, err := s.Pick(ctx, coll)
		require.NoError(t, err)
		assert.Contains(t, []any{int32(8), int32(9)}, field(winner, "_id"))
	}
}
