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

	"github.com/FerretDB/randomwinner/internal/util/lazyerrors"
)

// nearBound limits both coordinates to [-nearBound, nearBound),
// the default bounds of a 2d index.
const nearBound = 180

// near tags every record with a random point and picks the record nearest to another random point.
type near struct {
	r *rand.Rand
}

// newNear creates a new near strategy.
func newNear(opts *NewOpts) Strategy {
	return &near{r: opts.Rand}
}

// point returns a random point within the index bounds.
func (s *near) point() bson.A {
	return bson.A{
		int32(s.r.IntN(2*nearBound) - nearBound),
		int32(s.r.IntN(2*nearBound) - nearBound),
	}
}

// Name implements Strategy.
func (s *near) Name() string {
	return "near"
}

// Tag implements Strategy.
func (s *near) Tag(_ int, doc bson.D) (bson.D, bool) {
	return set(doc, "rand", s.point()), true
}

// Prepare implements Strategy.
func (s *near) Prepare(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "rand", Value: "2d"}},
	})
	if err != nil {
		return lazyerrors.Error(err)
	}

	return nil
}

// Pick implements Strategy.
func (s *near) Pick(ctx context.Context, coll *mongo.Collection) (bson.D, error) {
	filter := bson.D{{Key: "rand", Value: bson.D{{Key: "$near", Value: s.point()}}}}
	return findOne(ctx, coll, filter)
}

// check interfaces
var (
	_ Strategy = (*near)(nil)
)
