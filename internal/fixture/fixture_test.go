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

package fixture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/FerretDB/randomwinner/internal/util/iterator"
	"github.com/FerretDB/randomwinner/internal/util/must"
)

const threeRecords = `[
	{"name": "Ada"},
	{"name": "Grace", "since": {"$date": "2020-01-02T03:04:05Z"}},
	{"name": "Linus", "tags": ["a", "b"]}
]`

func TestReadCap(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		n        int
		expected []string
	}{
		"Zero":     {n: 0, expected: nil},
		"Negative": {n: -1, expected: nil},
		"One":      {n: 1, expected: []string{"Ada"}},
		"Exact":    {n: 3, expected: []string{"Ada", "Grace", "Linus"}},
		"Above":    {n: 100, expected: []string{"Ada", "Grace", "Linus"}},
	} {
		name, tc := name, tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			iter, err := Read(strings.NewReader(threeRecords), tc.n)
			require.NoError(t, err)

			defer iter.Close()

			var names []string

			for i := 0; ; i++ {
				seq, doc, err := iter.Next()
				if err != nil {
					require.ErrorIs(t, err, iterator.ErrIteratorDone)
					break
				}

				assert.Equal(t, i, seq)

				name, err := Name(doc)
				require.NoError(t, err)

				names = append(names, name)
			}

			assert.Equal(t, tc.expected, names)
		})
	}
}

func TestReadExtendedJSON(t *testing.T) {
	t.Parallel()

	docs, err := iterator.ConsumeValues(must.NotFail(Read(strings.NewReader(threeRecords), 3)))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	expected := primitive.NewDateTimeFromTime(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, bson.D{{Key: "name", Value: "Grace"}, {Key: "since", Value: expected}}, docs[1])
	assert.Equal(t, bson.D{{Key: "name", Value: "Linus"}, {Key: "tags", Value: bson.A{"a", "b"}}}, docs[2])
}

func TestReadErrors(t *testing.T) {
	t.Parallel()

	t.Run("NotArray", func(t *testing.T) {
		t.Parallel()

		_, err := Read(strings.NewReader(`{"name": "Ada"}`), 10)
		require.ErrorContains(t, err, "fixture must be a JSON array")
	})

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()

		_, err := Read(strings.NewReader(``), 10)
		require.Error(t, err)
	})

	t.Run("NotObject", func(t *testing.T) {
		t.Parallel()

		iter, err := Read(strings.NewReader(`[{"name": "Ada"}, 42]`), 10)
		require.NoError(t, err)

		_, err = iterator.ConsumeValues(iter)
		require.ErrorContains(t, err, "record 1")
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("Default", func(t *testing.T) {
		t.Parallel()

		iter, err := Open("", 1000)
		require.NoError(t, err)

		docs, err := iterator.ConsumeValues(iter)
		require.NoError(t, err)
		require.NotEmpty(t, docs)

		for _, doc := range docs {
			_, err := Name(doc)
			require.NoError(t, err)
		}
	})

	t.Run("File", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "members.json")
		require.NoError(t, os.WriteFile(path, []byte(threeRecords), 0o666))

		iter, err := Open(path, 2)
		require.NoError(t, err)

		n, err := iterator.ConsumeCount(iter)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("Missing", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "absent.json"), 2)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestName(t *testing.T) {
	t.Parallel()

	name, err := Name(bson.D{{Key: "_id", Value: 1}, {Key: "name", Value: "Zo\xffë"}})
	require.NoError(t, err)
	assert.Equal(t, "Zoë", name)

	_, err = Name(bson.D{{Key: "_id", Value: 1}})
	require.ErrorIs(t, err, ErrNoName)

	_, err = Name(bson.D{{Key: "name", Value: int32(42)}})
	require.ErrorIs(t, err, ErrNoName)
}
