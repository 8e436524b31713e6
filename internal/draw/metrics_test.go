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
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerretDB/randomwinner/internal/strategy"
	"github.com/FerretDB/randomwinner/internal/util/lazyerrors"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := NewMetrics()

	m.observeDraw("sample", nil)
	m.observeDraw("sample", nil)
	m.observeDraw("bucket", lazyerrors.Error(strategy.ErrNoWinner))
	m.observeDraw("near", errors.New("boom"))
	m.observeLoaded("sample", 40)
	m.observeLoaded("sample", 2)
	m.observeStage("sample", "load", time.Now())

	expected := `
		# HELP randomwinner_draw_documents_loaded_total Total number of documents loaded for draws.
		# TYPE randomwinner_draw_documents_loaded_total counter
		randomwinner_draw_documents_loaded_total{strategy="sample"} 42
		# HELP randomwinner_draw_total Total number of draws.
		# TYPE randomwinner_draw_total counter
		randomwinner_draw_total{result="error",strategy="near"} 1
		randomwinner_draw_total{result="no_winner",strategy="bucket"} 1
		randomwinner_draw_total{result="ok",strategy="sample"} 2
	`
	err := testutil.CollectAndCompare(
		m, strings.NewReader(expected),
		"randomwinner_draw_total", "randomwinner_draw_documents_loaded_total",
	)
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(m, "randomwinner_draw_stage_duration_seconds"))
}

func TestMetricsNil(t *testing.T) {
	t.Parallel()

	var m *Metrics

	assert.NotPanics(t, func() {
		m.observeDraw("sample", nil)
		m.observeLoaded("sample", 1)
		m.observeStage("sample", "load", time.Now())
	})
}

func TestMetricsStageDuration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewPedanticRegistry()
	m := NewMetrics()
	require.NoError(t, reg.Register(m))

	m.observeStage("near", "pick", time.Now())
	m.observeStage("near", "pick", time.Now().Add(-time.Second))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	var mf *dto.MetricFamily

	for _, f := range mfs {
		if f.GetName() == "randomwinner_draw_stage_duration_seconds" {
			mf = f
		}
	}

	require.NotNil(t, mf)
	assert.Equal(t, dto.MetricType_HISTOGRAM, mf.GetType())
	require.Len(t, mf.GetMetric(), 1)

	h := mf.GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), h.GetSampleCount())
	assert.GreaterOrEqual(t, h.GetSampleSum(), float64(1))
}
