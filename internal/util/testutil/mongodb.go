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

package testutil

import (
	"flag"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// mongoDBURLF is the URL of MongoDB-compatible database used by tests.
var mongoDBURLF = flag.String(
	"mongodb-url",
	os.Getenv("RANDOMWINNER_TEST_MONGODB_URL"),
	"MongoDB URL for tests; if empty, tests that need a database are skipped",
)

// testDatabase is the database that holds all test collections.
const testDatabase = "randomwinner_test"

var (
	collectionNamesM sync.Mutex
	collectionNames  = make(map[string]struct{})
)

// MongoDBURL returns the database URL for tests, skipping the test if it is not set.
func MongoDBURL(tb testing.TB) string {
	tb.Helper()

	if *mongoDBURLF == "" {
		tb.Skip("-mongodb-url flag or RANDOMWINNER_TEST_MONGODB_URL environment variable is not set")
	}

	return *mongoDBURLF
}

// CollectionName returns a stable collection name for that test.
func CollectionName(tb testing.TB) string {
	tb.Helper()

	// do not use strings.ToLower because collection names can contain uppercase letters
	name := tb.Name()

	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "$", "_")

	require.Less(tb, len(name), 255)

	collectionNamesM.Lock()
	defer collectionNamesM.Unlock()

	if _, ok := collectionNames[name]; ok {
		panic("duplicate collection name " + name)
	}
	collectionNames[name] = struct{}{}

	return name
}

// Collection returns a test-specific collection.
//
// The collection is empty at the start of the test and dropped after it, unless the test failed.
// The client disconnects automatically when test ends.
func Collection(tb testing.TB) *mongo.Collection {
	tb.Helper()

	uri := MongoDBURL(tb)
	ctx := Ctx(tb)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(tb, err, "URI: %s", uri)

	tb.Cleanup(func() {
		require.NoError(tb, client.Disconnect(ctx))
	})

	require.NoError(tb, client.Ping(ctx, readpref.Primary()))

	name := CollectionName(tb)
	collection := client.Database(testDatabase).Collection(name)

	// drop remnants of the previous failed run
	_ = collection.Drop(ctx)

	tb.Cleanup(func() {
		if tb.Failed() {
			tb.Logf("Keeping %s.%s for debugging.", testDatabase, name)
			return
		}

		require.NoError(tb, collection.Drop(ctx))
	})

	return collection
}
