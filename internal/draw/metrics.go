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

package draw

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FerretDB/randomwinner/internal/strategy"
)

const (
	namespace = "randomwinner"
	subsystem = "draw"
)

// Metrics represents draw metrics.
//
// Nil *Metrics is valid and records nothing.
type Metrics struct {
	draws    *prometheus.CounterVec
	loaded   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates draw metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		draws: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "total",
				Help:      "Total number of draws.",
			},
			[]string{"strategy", "result"},
		),
		loaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "documents_loaded_total",
				Help:      "Total number of documents loaded for draws.",
			},
			[]string{"strategy"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stage_duration_seconds",
				Help:      "Duration of draw stages.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"strategy", "stage"},
		),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.draws.Describe(ch)
	m.loaded.Describe(ch)
	m.duration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.draws.Collect(ch)
	m.loaded.Collect(ch)
	m.duration.Collect(ch)
}

// result returns result label value for the given error.
func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, strategy.ErrNoWinner):
		return "no_winner"
	default:
		return "error"
	}
}

// observeDraw records the draw outcome.
func (m *Metrics) observeDraw(strategy string, err error) {
	if m == nil {
		return
	}

	m.draws.WithLabelValues(strategy, result(err)).Inc()
}

// observeLoaded records the number of loaded documents.
func (m *Metrics) observeLoaded(strategy string, n int) {
	if m == nil {
		return
	}

	m.loaded.WithLabelValues(strategy).Add(float64(n))
}

// observeStage records the duration of the stage that started at the given time.
func (m *Metrics) observeStage(strategy, stage string, start time.Time) {
	if m == nil {
		return
	}

	m.duration.WithLabelValues(strategy, stage).Observe(time.Since(start).Seconds())
}

// check interfaces
var (
	_ prometheus.Collector = (*Metrics)(nil)
)
