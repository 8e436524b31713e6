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
	"context"
	"math/rand/v2"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FerretDB/randomwinner/internal/data"
	"github.com/FerretDB/randomwinner/internal/util/iterator"
	"github.com/FerretDB/randomwinner/internal/util/lazyerrors"
)

// DefaultBuckets is the largest bucket number used by "bucket" by default.
const DefaultBuckets = 10

// bucket tags records with a random bucket number in [0, buckets],
// then picks a random bucket and a random record in it.
type bucket struct {
	noPrepare

	r       *rand.Rand
	buckets int
}

// newBucket creates a new bucket strategy.
func newBucket(opts *NewOpts) Strategy {
	buckets := opts.Buckets
	if buckets <= 0 {
		buckets = DefaultBuckets
	}

	return &bucket{
		r:       opts.Rand,
		buckets: buckets,
	}
}

// Name implements Strategy.
func (s *bucket) Name() string {
	return "bucket"
}

// Tag implements Strategy.
func (s *bucket) Tag(_ int, doc bson.D) (bson.D, bool) {
	return set(doc, "i", int64(s.r.IntN(s.buckets+1))), true
}

// Pick implements Strategy.
//
// Empty buckets are skipped; the first bucket tried is uniformly random.
func (s *bucket) Pick(ctx context.Context, coll *mongo.Collection) (bson.D, error) {
	for _, b := range s.r.Perm(s.buckets + 1) {
		iter, err := data.Get(ctx, coll, bson.D{{Key: "i", Value: int64(b)}}, nil)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		docs, err := iterator.ConsumeValues(iter)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		if len(docs) > 0 {
			return docs[s.r.IntN(len(docs))], nil
		}
	}

	return nil, lazyerrors.Error(ErrNoWinner)
}

// check interfaces
var (
	_ Strategy = (*bucket)(nil)
)
