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

// Package strategy provides different ways to pick a random document from a collection.
//
// Each strategy decorates records before they are loaded (see [Strategy.Tag]),
// optionally prepares the collection (indexes, etc.), and then picks a single winner.
package strategy

import (
	"context"
	"errors"
	"math/rand/v2"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slices"

	"github.com/FerretDB/randomwinner/internal/util/lazyerrors"
)

var (
	// ErrNoWinner is returned when there is nothing to pick from.
	ErrNoWinner = errors.New("no documents to pick a winner from")

	// ErrUnknown is returned for unknown strategy names.
	ErrUnknown = errors.New("unknown strategy")
)

// Strategy is a common interface for all strategies.
//
// Strategies are not safe for concurrent use because they share a random source.
type Strategy interface {
	// Name returns strategy name.
	Name() string

	// Tag decorates a record with sequence number seq before it is inserted.
	// It returns false if the record should not be inserted at all.
	Tag(seq int, doc bson.D) (bson.D, bool)

	// Prepare is called after all records are inserted.
	Prepare(ctx context.Context, coll *mongo.Collection) error

	// Pick returns a random document from the collection.
	// It returns (possibly wrapped) ErrNoWinner if the collection is empty.
	Pick(ctx context.Context, coll *mongo.Collection) (bson.D, error)
}

// NewOpts represents common configuration for constructing strategies.
type NewOpts struct {
	// Random source; if nil, a randomly seeded one is used.
	Rand *rand.Rand

	// Fetch only names for "shuffle".
	Projection bool

	// Sequence numbers that "distinct" does not insert; if nil, DefaultSkip is used.
	Skip []int

	// The largest bucket number for "bucket"; if zero, DefaultBuckets is used.
	Buckets int
}

// newFunc constructs a strategy.
type newFunc func(opts *NewOpts) Strategy

// entry is a registered strategy.
type entry struct {
	name string
	f    newFunc
}

// registry maps strategy names to constructors, in the order they are listed.
var registry = []entry{
	{"near", newNear},
	{"sample", newSample},
	{"shuffle", newShuffle},
	{"distinct", newDistinct},
	{"sequence", newSequence},
	{"bucket", newBucket},
}

// Names returns all strategy names.
func Names() []string {
	res := make([]string, len(registry))
	for i, e := range registry {
		res[i] = e.name
	}

	return res
}

// New constructs a strategy by name.
func New(name string, opts *NewOpts) (Strategy, error) {
	i := slices.IndexFunc(registry, func(e entry) bool { return e.name == name })
	if i < 0 {
		return nil, lazyerrors.Errorf("%w: %q", ErrUnknown, name)
	}

	if opts == nil {
		opts = new(NewOpts)
	}

	o := *opts
	if o.Rand == nil {
		o.Rand = NewRand(0)
	}

	return registry[i].f(&o), nil
}

// NewRand returns a new random source with the given seed.
// Zero seed means a random one.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return rand.New(rand.NewPCG(seed, seed))
}

// set sets the field to the given value, replacing the existing field, if any.
func set(doc bson.D, key string, value any) bson.D {
	for i, e := range doc {
		if e.Key == key {
			doc[i].Value = value
			return doc
		}
	}

	return append(doc, bson.E{Key: key, Value: value})
}

// findOne returns a single document matching filter.
func findOne(ctx context.Context, coll *mongo.Collection, filter any) (bson.D, error) {
	var doc bson.D

	err := coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, lazyerrors.Errorf("%w: nothing matches %v", ErrNoWinner, filter)
	}

	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return doc, nil
}

// noPrepare is embedded by strategies that do not need preparation.
type noPrepare struct{}

// Prepare implements Strategy.
func (noPrepare) Prepare(context.Context, *mongo.Collection) error {
	return nil
}

// noTag is embedded by strategies that insert records as is.
type noTag struct{}

// Tag implements Strategy.
func (noTag) Tag(_ int, doc bson.D) (bson.D, bool) {
	return doc, true
}
