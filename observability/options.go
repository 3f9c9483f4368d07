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
	"time"

	"go.opentelemetry.io/otel/metric"
)

// provider selects the built-in exporter backend.
type provider string

const (
	prometheusProvider provider = "prometheus"
	stdoutProvider     provider = "stdout"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithPrometheus exports through a Prometheus registry owned by the
// recorder. Scrape it via [Recorder.Handler].
func WithPrometheus() Option {
	return func(r *Recorder) {
		r.provider = prometheusProvider
	}
}

// WithStdout exports periodically to stdout. Intended for development
// and tests.
func WithStdout() Option {
	return func(r *Recorder) {
		r.provider = stdoutProvider
	}
}

// WithMeterProvider uses a caller managed OpenTelemetry meter
// provider. Built-in provider options are ignored and the caller owns
// the provider's lifecycle.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(r *Recorder) {
		r.meterProvider = mp
		r.customMeterProvider = true
	}
}

// WithGlobalMeterProvider additionally registers the recorder's meter
// provider as the process-wide OpenTelemetry default. Off by default
// so multiple recorders can coexist.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) {
		r.registerGlobal = true
	}
}

// WithServiceName sets the service.name attribute attached to every
// measurement.
func WithServiceName(name string) Option {
	return func(r *Recorder) {
		if name != "" {
			r.serviceName = name
		}
	}
}

// WithExportInterval sets the export period for the stdout provider.
func WithExportInterval(interval time.Duration) Option {
	return func(r *Recorder) {
		if interval > 0 {
			r.exportInterval = interval
		}
	}
}
