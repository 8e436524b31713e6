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

// sequence tags records with their sequence numbers and picks a random one in [0, count).
//
// It relies on sequence numbers having no gaps.
type sequence struct {
	noPrepare

	r *rand.Rand
}

// newSequence creates a new sequence strategy.
func newSequence(opts *NewOpts) Strategy {
	return &sequence{r: opts.Rand}
}

// Name implements Strategy.
func (s *sequence) Name() string {
	return "sequence"
}

// Tag implements Strategy.
func (s *sequence) Tag(seq int, doc bson.D) (bson.D, bool) {
	return set(doc, "i", int64(seq)), true
}

// Pick implements Strategy.
func (s *sequence) Pick(ctx context.Context, coll *mongo.Collection) (bson.D, error) {
	count, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if count == 0 {
		return nil, lazyerrors.Error(ErrNoWinner)
	}

	return findOne(ctx, coll, bson.D{{Key: "i", Value: s.r.Int64N(count)}})
}

// check interfaces
var (
	_ Strategy = (*sequence)(nil)
)
