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

// Package observability provides an OpenTelemetry-based transition
// recorder for the router. It counts transitions by outcome and times
// the pipeline, exporting through Prometheus, stdout, or a caller
// provided meter provider.
//
// Basic usage with Prometheus:
//
//	rec := observability.MustNew(observability.WithPrometheus())
//	r := router.MustNew(routes, router.WithObservability(rec))
//	http.Handle("/metrics", rec.Handler())
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/greydragon888/real-router-sub007"
)

const meterName = "real-router/observability"

// startTimeKey carries the transition start time through the pipeline
// context.
type startTimeKey struct{}

// Recorder implements router.ObservabilityRecorder on OpenTelemetry
// instruments. All methods are safe for concurrent use.
//
// By default the recorder does not touch the global OpenTelemetry
// meter provider, so multiple recorders can coexist in one process.
type Recorder struct {
	meter         metric.Meter
	meterProvider metric.MeterProvider

	transitionCount    metric.Int64Counter
	transitionDuration metric.Float64Histogram
	activeTransitions  metric.Int64UpDownCounter

	prometheusHandler http.Handler

	serviceName    string
	serviceAttr    attribute.KeyValue
	exportInterval time.Duration

	provider            provider
	customMeterProvider bool
	registerGlobal      bool
}

// New creates a recorder with the given options. The default provider
// is stdout; pass WithPrometheus or WithMeterProvider for production
// setups.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		serviceName:    "real-router",
		exportInterval: 30 * time.Second,
		provider:       stdoutProvider,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.serviceAttr = attribute.String("service.name", r.serviceName)

	if err := r.initializeProvider(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("observability: %v", err))
	}
	return r
}

// initializeMetrics creates the instruments on the configured meter.
func (r *Recorder) initializeMetrics() error {
	var err error

	r.transitionCount, err = r.meter.Int64Counter(
		"router.transitions",
		metric.WithDescription("Completed navigation transitions by outcome"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return fmt.Errorf("creating transition counter: %w", err)
	}

	r.transitionDuration, err = r.meter.Float64Histogram(
		"router.transition.duration",
		metric.WithDescription("Navigation pipeline duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("creating duration histogram: %w", err)
	}

	r.activeTransitions, err = r.meter.Int64UpDownCounter(
		"router.transitions.active",
		metric.WithDescription("Transitions currently in flight"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return fmt.Errorf("creating active gauge: %w", err)
	}
	return nil
}

// OnTransitionStart marks the pipeline start. The returned context
// carries the start time for OnTransitionEnd.
func (r *Recorder) OnTransitionStart(ctx context.Context, to, from *router.State) context.Context {
	r.activeTransitions.Add(ctx, 1, metric.WithAttributes(r.serviceAttr))
	return context.WithValue(ctx, startTimeKey{}, time.Now())
}

// OnTransitionEnd records one completed transition. Outcome is
// "success", "error", or "cancelled".
func (r *Recorder) OnTransitionEnd(ctx context.Context, outcome string, to, from *router.State, err error) {
	attrs := []attribute.KeyValue{
		r.serviceAttr,
		attribute.String("outcome", outcome),
	}
	if to != nil {
		attrs = append(attrs, attribute.String("route", to.Name))
	}
	if err != nil {
		if code := router.CodeOf(err); code != "" {
			attrs = append(attrs, attribute.String("error.code", code))
		}
	}

	set := metric.WithAttributes(attrs...)
	r.activeTransitions.Add(ctx, -1, metric.WithAttributes(r.serviceAttr))
	r.transitionCount.Add(ctx, 1, set)

	if start, ok := ctx.Value(startTimeKey{}).(time.Time); ok {
		r.transitionDuration.Record(ctx, time.Since(start).Seconds(), set)
	}
}

// Handler returns the Prometheus scrape handler, or nil when the
// recorder was not configured with WithPrometheus.
func (r *Recorder) Handler() http.Handler {
	return r.prometheusHandler
}

// Shutdown flushes and stops an owned meter provider. Recorders built
// on a caller provided meter provider leave its lifecycle to the
// caller.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r.customMeterProvider {
		return nil
	}
	if shutdowner, ok := r.meterProvider.(interface{ Shutdown(context.Context) error }); ok {
		return shutdowner.Shutdown(ctx)
	}
	return nil
}
