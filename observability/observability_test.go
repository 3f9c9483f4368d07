// Copyright 2025 The Real Router Authors
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

package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	router "github.com/greydragon888/real-router-sub007"
	"github.com/greydragon888/real-router-sub007/route"
)

func TestRecorderWithCustomProvider(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	rec, err := New(WithMeterProvider(mp), WithServiceName("nav-test"))
	require.NoError(t, err)

	to := &router.State{Name: "users.view", Path: "/users/1"}
	ctx := rec.OnTransitionStart(context.Background(), to, nil)
	rec.OnTransitionEnd(ctx, "success", to, nil, nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["router.transitions"])
	assert.True(t, names["router.transition.duration"])
	assert.True(t, names["router.transitions.active"])

	// The provider belongs to the caller; Shutdown must leave it alone.
	require.NoError(t, rec.Shutdown(context.Background()))
	require.NoError(t, reader.Collect(context.Background(), &rm))
}

func TestRecorderPrometheus(t *testing.T) {
	t.Parallel()

	rec, err := New(WithPrometheus())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Shutdown(context.Background()) })

	require.NotNil(t, rec.Handler())

	to := &router.State{Name: "home", Path: "/"}
	ctx := rec.OnTransitionStart(context.Background(), to, nil)
	rec.OnTransitionEnd(ctx, "error", to, nil,
		&router.NavError{NavCode: router.CodeCannotActivate, Message: "denied"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "router_transitions")
}

func TestRecorderHandlerNilWithoutPrometheus(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	rec, err := New(WithMeterProvider(mp))
	require.NoError(t, err)
	assert.Nil(t, rec.Handler())
}

func TestRecorderDrivesRouter(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	rec := MustNew(WithMeterProvider(mp))

	r := router.MustNew(
		[]route.Route{
			{Name: "home", Path: "/"},
			{Name: "about", Path: "/about"},
		},
		router.WithObservability(rec),
	)
	t.Cleanup(r.Dispose)

	require.NoError(t, r.Start("/"))
	require.NoError(t, r.Navigate("about", nil).Wait())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var count int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "router.transitions" {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					count += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), count, "one recorded navigation")
}
