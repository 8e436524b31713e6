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

package data

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

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

func TestConnect(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	uri := testutil.MongoDBURL(t)

	client, err := Connect(ctx, uri, testutil.Logger(t))
	require.NoError(t, err)
	require.NoError(t, client.Disconnect(ctx))
}

func TestLoadGetDrop(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	coll := testutil.Collection(t)

	// more than one insert batch
	inserted, err := Load(ctx, coll, iterator.ForSlice(records(250)), nil)
	require.NoError(t, err)
	assert.Equal(t, 250, inserted)

	iter, err := Get(ctx, coll, nil, nil)
	require.NoError(t, err)

	n, err := iterator.ConsumeCount(iter)
	require.NoError(t, err)
	assert.Equal(t, 250, n)

	iter, err = Get(ctx, coll, bson.D{{Key: "_id", Value: int32(7)}}, bson.D{{Key: "_id", Value: 0}, {Key: "name", Value: 1}})
	require.NoError(t, err)

	docs, err := iterator.ConsumeValues(iter)
	require.NoError(t, err)
	assert.Equal(t, []bson.D{{{Key: "name", Value: "r7"}}}, docs)

	require.NoError(t, Drop(ctx, coll))

	iter, err = Get(ctx, coll, nil, nil)
	require.NoError(t, err)

	n, err = iterator.ConsumeCount(iter)
	require.NoError(t, err)
	assert.Zero(t, n)

	// dropping again is fine
	require.NoError(t, Drop(ctx, coll))
}

func TestLoadTag(t *testing.T) {
	t.Parallel()

	ctx := testutil.Ctx(t)
	coll := testutil.Collection(t)

	tag := func(seq int, doc bson.D) (bson.D, bool) {
		if seq%2 == 1 {
			return nil, false
		}

		return append(doc, bson.E{Key: "i", Value: int32(seq)}), true
	}

	inserted, err := Load(ctx, coll, iterator.ForSlice(records(10)), tag)
	require.NoError(t, err)
	assert.Equal(t, 5, inserted)

	iter, err := Get(ctx, coll, nil, nil)
	require.NoError(t, err)

	docs, err := iterator.ConsumeValues(iter)
	require.NoError(t, err)
	require.Len(t, docs, 5)

	for _, doc := range docs {
		m := doc.Map()
		assert.Equal(t, m["_id"], m["i"])
		assert.Zero(t, m["i"].(int32)%2)
	}
}
