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

// shuffle fetches all documents and picks one on the client side.
type shuffle struct {
	noTag
	noPrepare

	r          *rand.Rand
	projection bool
}

// newShuffle creates a new shuffle strategy.
func newShuffle(opts *NewOpts) Strategy {
	return &shuffle{
		r:          opts.Rand,
		projection: opts.Projection,
	}
}

// Name implements Strategy.
func (s *shuffle) Name() string {
	return "shuffle"
}

// Pick implements Strategy.
func (s *shuffle) Pick(ctx context.Context, coll *mongo.Collection) (bson.D, error) {
	var projection any
	if s.projection {
		projection = bson.D{{Key: "name", Value: int32(1)}}
	}

	iter, err := data.Get(ctx, coll, nil, projection)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	docs, err := iterator.ConsumeValues(iter)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if len(docs) == 0 {
		return nil, lazyerrors.Error(ErrNoWinner)
	}

	return docs[s.r.IntN(len(docs))], nil
}

// check interfaces
var (
	_ Strategy = (*shuffle)(nil)
)
