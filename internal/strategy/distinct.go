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
	"golang.org/x/exp/slices"

	"github.com/FerretDB/randomwinner/internal/util/lazyerrors"
)

// DefaultSkip lists sequence numbers that are not inserted by "distinct" by default.
var DefaultSkip = []int{10, 12, 231, 2, 4}

// distinct tags records with their sequence numbers, leaving gaps,
// and picks one of the distinct values present.
type distinct struct {
	noPrepare

	r    *rand.Rand
	skip []int
}

// newDistinct creates a new distinct strategy.
func newDistinct(opts *NewOpts) Strategy {
	skip := opts.Skip
	if skip == nil {
		skip = DefaultSkip
	}

	return &distinct{
		r:    opts.Rand,
		skip: slices.Clone(skip),
	}
}

// Name implements Strategy.
func (s *distinct) Name() string {
	return "distinct"
}

// Tag implements Strategy.
func (s *distinct) Tag(seq int, doc bson.D) (bson.D, bool) {
	if slices.Contains(s.skip, seq) {
		return nil, false
	}

	return set(doc, "i", int64(seq)), true
}

// Pick implements Strategy.
func (s *distinct) Pick(ctx context.Context, coll *mongo.Collection) (bson.D, error) {
	values, err := coll.Distinct(ctx, "i", bson.D{})
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if len(values) == 0 {
		return nil, lazyerrors.Error(ErrNoWinner)
	}

	v := values[s.r.IntN(len(values))]

	return findOne(ctx, coll, bson.D{{Key: "i", Value: v}})
}

// check interfaces
var (
	_ Strategy = (*distinct)(nil)
)
