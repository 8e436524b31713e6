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

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FerretDB/randomwinner/internal/util/lazyerrors"
)

// sample delegates the choice to the $sample aggregation stage.
type sample struct {
	noTag
	noPrepare
}

// newSample creates a new sample strategy.
func newSample(*NewOpts) Strategy {
	return new(sample)
}

// Name implements Strategy.
func (s *sample) Name() string {
	return "sample"
}

// Pick implements Strategy.
func (s *sample) Pick(ctx context.Context, coll *mongo.Collection) (bson.D, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: int32(1)}}}},
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err = cursor.Err(); err != nil {
			return nil, lazyerrors.Error(err)
		}

		return nil, lazyerrors.Error(ErrNoWinner)
	}

	var doc bson.D
	if err = cursor.Decode(&doc); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return doc, nil
}

// check interfaces
var (
	_ Strategy = (*sample)(nil)
)
