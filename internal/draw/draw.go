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

// Package draw runs a single draw: load, prepare, pick, announce, clean up.
package draw

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/FerretDB/randomwinner/internal/data"
	"github.com/FerretDB/randomwinner/internal/fixture"
	"github.com/FerretDB/randomwinner/internal/strategy"
	"github.com/FerretDB/randomwinner/internal/util/lazyerrors"
	"github.com/FerretDB/randomwinner/internal/util/observability"
)

// dropTimeout limits the final drop that runs even if the draw context is canceled.
const dropTimeout = 10 * time.Second

// RunOpts represents Run options.
type RunOpts struct {
	Collection *mongo.Collection
	Strategy   strategy.Strategy

	// Fixture file path; the embedded fixture is used if empty.
	Fixture string

	// Maximum number of records to load; all if not positive.
	Docs int

	// Keep the collection after the draw.
	Keep bool

	Logger  *zap.Logger
	Metrics *Metrics
}

// Result represents a draw result.
type Result struct {
	ID       uuid.UUID
	Strategy string
	Winner   bson.D
	Name     string
	Inserted int
}

// run holds the state of a single draw.
type run struct {
	opts *RunOpts
	name string
	l    *zap.Logger
}

// Run performs a single draw.
//
// Remnants of a previous run are dropped first.
// Unless Keep is set, the collection is dropped afterwards, even if the draw failed.
func Run(ctx context.Context, opts *RunOpts) (res *Result, err error) {
	r := &run{
		opts: opts,
		name: opts.Strategy.Name(),
	}

	id := uuid.New()

	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}

	r.l = l.With(zap.String("draw", id.String()), zap.String("strategy", r.name))

	ctx, span := observability.Tracer().Start(ctx, "draw")
	span.SetAttributes(
		attribute.String("randomwinner.draw", id.String()),
		attribute.String("randomwinner.strategy", r.name),
	)

	defer func() {
		opts.Metrics.observeDraw(r.name, err)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	if err = r.stage(ctx, "cleanup", func(ctx context.Context) error {
		return data.Drop(ctx, opts.Collection)
	}); err != nil {
		return
	}

	if !opts.Keep {
		defer func() {
			dropCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dropTimeout)
			defer cancel()

			dropErr := r.stage(dropCtx, "drop", func(ctx context.Context) error {
				return data.Drop(ctx, opts.Collection)
			})
			if dropErr == nil {
				return
			}

			r.l.Error("Failed to drop collection", zap.Error(dropErr))

			if err == nil {
				res, err = nil, dropErr
			}
		}()
	}

	res = &Result{
		ID:       id,
		Strategy: r.name,
	}

	if err = r.stage(ctx, "load", func(ctx context.Context) error {
		docs := opts.Docs
		if docs <= 0 {
			docs = math.MaxInt
		}

		iter, e := fixture.Open(opts.Fixture, docs)
		if e != nil {
			return lazyerrors.Error(e)
		}

		res.Inserted, e = data.Load(ctx, opts.Collection, iter, opts.Strategy.Tag)
		return e
	}); err != nil {
		res = nil
		return
	}

	opts.Metrics.observeLoaded(r.name, res.Inserted)
	r.l.Debug("Documents loaded", zap.Int("inserted", res.Inserted))

	if err = r.stage(ctx, "prepare", func(ctx context.Context) error {
		return opts.Strategy.Prepare(ctx, opts.Collection)
	}); err != nil {
		res = nil
		return
	}

	if err = r.stage(ctx, "pick", func(ctx context.Context) error {
		var e error
		res.Winner, e = opts.Strategy.Pick(ctx, opts.Collection)
		return e
	}); err != nil {
		res = nil
		return
	}

	if res.Name, err = fixture.Name(res.Winner); err != nil {
		res, err = nil, lazyerrors.Error(err)
		return
	}

	r.l.Info("Winner picked", zap.String("name", res.Name), zap.Int("inserted", res.Inserted))

	return
}

// stage runs a single named draw stage inside its own span.
func (r *run) stage(ctx context.Context, stage string, f func(context.Context) error) error {
	defer r.opts.Metrics.observeStage(r.name, stage, time.Now())

	ctx, span := observability.Tracer().Start(ctx, stage)
	defer span.End()

	r.l.Debug("Stage started", zap.String("stage", stage))

	if err := f(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return lazyerrors.Errorf("%s: %w", stage, err)
	}

	return nil
}

// Announce writes the winner's name to w.
func Announce(w io.Writer, name string) error {
	_, err := fmt.Fprintf(w, "AND THE WINNER IS ..... %s\n", name)
	return err
}
