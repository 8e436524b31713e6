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

// Command randomwinner picks a random winner from a fixture loaded into MongoDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FerretDB/randomwinner/build/version"
	"github.com/FerretDB/randomwinner/internal/data"
	"github.com/FerretDB/randomwinner/internal/draw"
	"github.com/FerretDB/randomwinner/internal/history"
	"github.com/FerretDB/randomwinner/internal/strategy"
	"github.com/FerretDB/randomwinner/internal/util/ctxutil"
	"github.com/FerretDB/randomwinner/internal/util/logging"
	"github.com/FerretDB/randomwinner/internal/util/must"
	"github.com/FerretDB/randomwinner/internal/util/observability"
)

// The cli struct represents all command-line commands, fields and flags.
// It's used for parsing the user input.
//
//nolint:lll // some tags are long
var cli struct {
	Version kong.VersionFlag `help:"Print version to stdout and exit." env:"-"`

	MongoDBURL string        `name:"mongodb-url" default:"mongodb://127.0.0.1:27017/" help:"MongoDB URL."`
	Database   string        `default:"simplerandom"                                  help:"Database name."`
	Collection string        `default:"names"                                         help:"Collection name."`
	Fixture    string        `default:""                                              help:"Fixture JSON file; the embedded one is used if empty."`
	Docs       int           `default:"100"                                           help:"Maximum number of records to load; all if not positive."`
	Seed       uint64        `default:"0"                                             help:"Random seed; 0 picks a random one."`
	Keep       bool          `default:"false"                                         help:"Keep the collection after the draw."`
	Timeout    time.Duration `default:"1m"                                            help:"Timeout for all draws; 0 disables it."`
	History    string        `default:""                                              help:"SQLite URI or file path for draw history; disabled if empty."`

	Log struct {
		Level  string `default:"${default_log_level}" help:"${help_log_level}"  enum:"${enum_log_level}"`
		Format string `default:"console"              help:"${help_log_format}" enum:"${enum_log_format}"`
	} `embed:"" prefix:"log-"`

	OTLPEndpoint string `name:"otlp-endpoint" default:"" help:"OTLP/HTTP endpoint for traces; disabled if empty."`
	Metrics      bool   `default:"false"                 help:"Dump metrics to stderr on exit."`

	Near   struct{} `cmd:"" help:"Pick the record nearest to a random point."`
	Sample struct{} `cmd:"" help:"Pick a record with the sample aggregation stage."`

	Shuffle struct {
		Projection bool `default:"false" help:"Fetch names only."`
	} `cmd:"" help:"Fetch all records and pick one on the client."`

	Distinct struct {
		Skip []int `default:"${default_skip}" help:"Record numbers that are not loaded."`
	} `cmd:"" help:"Pick a random distinct record number, then the record."`

	Sequence struct{} `cmd:"" help:"Pick a random record number in [0, count), then the record."`

	Bucket struct {
		Buckets int `default:"${default_buckets}" help:"Largest bucket number."`
	} `cmd:"" help:"Pick a random non-empty bucket, then a record in it."`

	All struct{} `cmd:"" help:"Run all strategies, one draw each."`

	HistoryCmd struct {
		List struct {
			Limit int `default:"${default_limit}" help:"Maximum number of draws to show."`
		} `cmd:"" help:"List past draws, newest first."`
	} `cmd:"" name:"history" help:"Draw history commands."`
}

// disconnectTimeout limits disconnecting from MongoDB, even after the run context is canceled.
const disconnectTimeout = 5 * time.Second

// Additional variables for the kong parsers.
var kongOptions = []kong.Option{
	kong.Vars{
		"default_buckets":   strconv.Itoa(strategy.DefaultBuckets),
		"default_limit":     strconv.Itoa(history.DefaultLimit),
		"default_log_level": zap.InfoLevel.String(),
		"default_skip":      joinInts(strategy.DefaultSkip),

		"enum_log_format": strings.Join(logging.Formats, ","),
		"enum_log_level":  strings.Join(logging.Levels, ","),

		"help_log_format": fmt.Sprintf("Log format: '%s'.", strings.Join(logging.Formats, "', '")),
		"help_log_level":  fmt.Sprintf("Log level: '%s'.", strings.Join(logging.Levels, "', '")),

		"version": versionInfo(),
	},
	kong.DefaultEnvars("RANDOMWINNER"),
}

// joinInts returns comma-separated integers.
func joinInts(ints []int) string {
	s := make([]string, len(ints))
	for i, v := range ints {
		s[i] = strconv.Itoa(v)
	}

	return strings.Join(s, ",")
}

// versionInfo returns the text printed by --version.
func versionInfo() string {
	info := version.Get()

	return strings.Join([]string{
		"version: " + info.Version,
		"commit: " + info.Commit,
		"branch: " + info.Branch,
		"dirty: " + strconv.FormatBool(info.Dirty),
	}, "\n")
}

// loadDotEnv loads environment variables from .env file, if present.
//
// Already set variables are not overridden.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to load .env file: %s.", err)
	}
}

func main() {
	loadDotEnv()

	kctx := kong.Parse(&cli, kongOptions...)

	runID := uuid.NewString()

	level, err := zapcore.ParseLevel(cli.Log.Level)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.Setup(level, cli.Log.Format, runID)

	if _, err = maxprocs.Set(maxprocs.Logger(logger.Sugar().Debugf)); err != nil {
		logger.Sugar().Warnf("Failed to set GOMAXPROCS: %s.", err)
	}

	info := version.Get()
	logger.Debug(
		"Starting randomwinner "+info.Version+"...",
		zap.String("commit", info.Commit),
		zap.String("branch", info.Branch),
		zap.Bool("dirty", info.Dirty),
		zap.Any("buildEnvironment", info.BuildEnvironment),
	)

	err = run(kctx.Command(), prometheus.DefaultRegisterer, os.Stdout, logger)

	if cli.Metrics {
		dumpMetrics()
	}

	if err != nil {
		logger.Error("Failed", zap.String("command", kctx.Command()), zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	_ = logger.Sync()
}

// dumpMetrics dumps all Prometheus metrics to stderr.
func dumpMetrics() {
	mfs := must.NotFail(prometheus.DefaultGatherer.Gather())

	for _, mf := range mfs {
		must.NotFail(expfmt.MetricFamilyToText(os.Stderr, mf))
	}
}

// run sets up context and tracing, then runs the given command.
func run(command string, reg prometheus.Registerer, w io.Writer, l *zap.Logger) error {
	ctx, stop := ctxutil.SigTerm(context.Background())
	defer stop()

	ctx, cancel := ctxutil.WithTimeout(ctx, cli.Timeout)
	defer cancel()

	shutdown, err := observability.SetupOtel("randomwinner", cli.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			l.Warn("Failed to shut down tracing", zap.Error(err))
		}
	}()

	switch command {
	case "history list":
		return listHistory(ctx, w, l)
	case "all":
		return runDraws(ctx, strategy.Names(), reg, w, l)
	default:
		return runDraws(ctx, []string{command}, reg, w, l)
	}
}

// runDraws runs draws for the given strategies in order, one draw each.
func runDraws(ctx context.Context, names []string, reg prometheus.Registerer, w io.Writer, l *zap.Logger) error {
	client, err := data.Connect(ctx, cli.MongoDBURL, l.Named("mongodb"))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cli.MongoDBURL, err)
	}

	defer disconnect(ctx, client, l)

	var store *history.Store

	if cli.History != "" {
		if store, err = history.Open(ctx, cli.History, l.Named("history")); err != nil {
			return err
		}

		defer store.Close()

		reg.MustRegister(store)
	}

	m := draw.NewMetrics()
	reg.MustRegister(m)

	coll := client.Database(cli.Database).Collection(cli.Collection)
	r := strategy.NewRand(cli.Seed)

	for _, name := range names {
		s, err := strategy.New(name, &strategy.NewOpts{
			Rand:       r,
			Projection: cli.Shuffle.Projection,
			Skip:       cli.Distinct.Skip,
			Buckets:    cli.Bucket.Buckets,
		})
		if err != nil {
			return err
		}

		res, err := draw.Run(ctx, &draw.RunOpts{
			Collection: coll,
			Strategy:   s,
			Fixture:    cli.Fixture,
			Docs:       cli.Docs,
			Keep:       cli.Keep,
			Logger:     l.Named("draw"),
			Metrics:    m,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		if err = draw.Announce(w, res.Name); err != nil {
			return err
		}

		if store == nil {
			continue
		}

		err = store.Record(ctx, &history.Draw{
			ID:        res.ID.String(),
			Strategy:  res.Strategy,
			Winner:    res.Name,
			Documents: res.Inserted,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// disconnect disconnects the client within disconnectTimeout, even if ctx is already canceled.
func disconnect(ctx context.Context, client *mongo.Client, l *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		l.Warn("Failed to disconnect", zap.Error(err))
	}
}

// listHistory prints recorded draws as a table.
func listHistory(ctx context.Context, w io.Writer, l *zap.Logger) error {
	if cli.History == "" {
		return errors.New("--history is not set")
	}

	store, err := history.Open(ctx, cli.History, l.Named("history"))
	if err != nil {
		return err
	}

	defer store.Close()

	draws, err := store.List(ctx, cli.HistoryCmd.List.Limit)
	if err != nil {
		return err
	}

	total, err := store.Count(ctx)
	if err != nil {
		return err
	}

	l.Debug("Listing draws", zap.Int("shown", len(draws)), zap.Int("total", total))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "CREATED\tSTRATEGY\tDOCUMENTS\tWINNER\tID")

	for _, d := range draws {
		fmt.Fprintf(
			tw, "%s\t%s\t%d\t%s\t%s\n",
			d.CreatedAt.Format(time.RFC3339), d.Strategy, d.Documents, d.Winner, d.ID,
		)
	}

	return tw.Flush()
}
