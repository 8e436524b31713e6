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

// Package data provides helpers for loading, reading, and dropping collections.
package data

import (
	"context"
	"errors"

	"github.com/AlekSi/pointer"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"

	"github.com/FerretDB/randomwinner/internal/util/iterator"
	"github.com/FerretDB/randomwinner/internal/util/lazyerrors"
	"github.com/FerretDB/randomwinner/internal/util/observability"
)

// batchSize is the number of documents per insert and per cursor batch.
const batchSize = 100

// TagFunc decorates a record before insertion.
// It returns false if the record should be skipped.
type TagFunc func(seq int, doc bson.D) (bson.D, bool)

// Connect returns a new client connected to the given MongoDB URI.
//
// It pings the server to fail fast on unreachable databases.
func Connect(ctx context.Context, uri string, l *zap.Logger) (*mongo.Client, error) {
	defer observability.FuncCall(ctx)()

	opts := options.Client().
		ApplyURI(uri).
		SetAppName("randomwinner").
		SetMonitor(otelmongo.NewMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, lazyerrors.Error(err)
	}

	l.Debug("Connected", zap.Strings("hosts", opts.Hosts))

	return client, nil
}

// Load inserts records from iter into the collection, decorating each one with tag, if set.
// It returns the number of inserted documents.
//
// Iterator is always closed at the end.
func Load(ctx context.Context, coll *mongo.Collection, iter iterator.Interface[int, bson.D], tag TagFunc) (int, error) {
	defer observability.FuncCall(ctx)()

	defer iter.Close()

	var inserted int
	batch := make([]any, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		res, err := coll.InsertMany(ctx, batch)
		if err != nil {
			return lazyerrors.Error(err)
		}

		inserted += len(res.InsertedIDs)
		batch = batch[:0]

		return nil
	}

	for {
		seq, doc, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.ErrIteratorDone) {
				break
			}

			return inserted, lazyerrors.Error(err)
		}

		if tag != nil {
			var ok bool
			if doc, ok = tag(seq, doc); !ok {
				continue
			}
		}

		batch = append(batch, doc)

		if len(batch) == batchSize {
			if err = flush(); err != nil {
				return inserted, err
			}
		}
	}

	if err := flush(); err != nil {
		return inserted, err
	}

	return inserted, nil
}

// Get returns an iterator over documents matching filter.
// Nil filter matches all documents; nil projection returns whole documents.
//
// Iterator yields (n, document) pairs where n starts at 0.
// Closing the iterator closes the cursor.
func Get(ctx context.Context, coll *mongo.Collection, filter, projection any) (iterator.Interface[int, bson.D], error) {
	defer observability.FuncCall(ctx)()

	if filter == nil {
		filter = bson.D{}
	}

	opts := &options.FindOptions{
		BatchSize:  pointer.ToInt32(batchSize),
		Projection: projection,
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	var n int

	next := func() (int, bson.D, error) {
		if !cursor.Next(ctx) {
			if err := cursor.Err(); err != nil {
				return 0, nil, lazyerrors.Error(err)
			}

			return 0, nil, iterator.ErrIteratorDone
		}

		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return 0, nil, lazyerrors.Error(err)
		}

		i := n
		n++

		return i, doc, nil
	}

	return iterator.ForFunc(next, func() { _ = cursor.Close(ctx) }), nil
}

// Drop drops the collection.
// Dropping a collection that does not exist is not an error.
func Drop(ctx context.Context, coll *mongo.Collection) error {
	defer observability.FuncCall(ctx)()

	if err := coll.Drop(ctx); err != nil {
		return lazyerrors.Error(err)
	}

	return nil
}
