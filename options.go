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

package router

import (
	"context"
	"io"
	"log/slog"

	"github.com/greydragon888/real-router-sub007/route"
	"github.com/greydragon888/real-router-sub007/searchparams"
)

// noopLogger discards all log output. Shared by every router that does
// not configure logging.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// options holds the router configuration assembled from functional
// options.
type options struct {
	defaultRoute  string
	defaultParams route.Params
	allowNotFound bool
	autoCleanUp   bool

	match route.MatchOptions

	limits ListenerLimits

	logger   *slog.Logger
	diag     DiagnosticHandler
	recorder ObservabilityRecorder

	deps map[string]any
}

func defaultOptions() options {
	return options{
		autoCleanUp: true,
		limits:      ListenerLimits{}.normalize(),
		logger:      noopLogger,
	}
}

// validate rejects option combinations the router cannot honor. Route
// names themselves are validated later against the tree.
func (o options) validate() error {
	if err := o.match.Validate(); err != nil {
		return wrapNavError(CodeInvalidOptions, err)
	}
	if err := o.limits.validate(); err != nil {
		return err
	}
	if o.defaultRoute == "" && len(o.defaultParams) > 0 {
		return newNavError(CodeInvalidOptions, "default params given without a default route")
	}
	return nil
}

// Option configures a router at construction time.
type Option func(*options)

// WithDefaultRoute sets the route used by NavigateToDefault and as the
// fallback when Start is given no path.
func WithDefaultRoute(name string, params route.Params) Option {
	return func(o *options) {
		o.defaultRoute = name
		o.defaultParams = params
	}
}

// WithAllowNotFound makes unmatched paths resolve to a reserved
// not-found state instead of failing the navigation.
func WithAllowNotFound() Option {
	return func(o *options) { o.allowNotFound = true }
}

// WithTrailingSlash sets the trailing-slash handling for matching and
// building.
func WithTrailingSlash(mode route.TrailingSlashMode) Option {
	return func(o *options) { o.match.TrailingSlash = mode }
}

// WithCaseSensitive enables case-sensitive path matching.
func WithCaseSensitive() Option {
	return func(o *options) { o.match.CaseSensitive = true }
}

// WithQueryParamsMode sets the treatment of query parameters not
// declared by the matched route chain.
func WithQueryParamsMode(mode route.QueryParamsMode) Option {
	return func(o *options) { o.match.QueryParamsMode = mode }
}

// WithURLParamsEncoding sets the escaping applied to path parameter
// values.
func WithURLParamsEncoding(enc route.URLParamsEncoding) Option {
	return func(o *options) { o.match.URLParamsEncoding = enc }
}

// WithNoValidate skips route name and pattern validation at
// registration time. Forward targets are still type-checked.
func WithNoValidate() Option {
	return func(o *options) { o.match.NoValidate = true }
}

// WithQueryOptions sets the query-string serialization conventions
// (array, boolean and null formats).
func WithQueryOptions(qo searchparams.Options) Option {
	return func(o *options) { o.match.QueryParams = qo }
}

// WithListenerLimits overrides the event-listener guard rails. Zero
// fields keep their defaults.
func WithListenerLimits(limits ListenerLimits) Option {
	return func(o *options) { o.limits = limits.normalize() }
}

// WithoutAutoCleanUp keeps event listeners registered across Stop.
// By default Stop clears them.
func WithoutAutoCleanUp() Option {
	return func(o *options) { o.autoCleanUp = false }
}

// WithLogger sets the structured logger for router internals. The
// default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDiagnostics registers a handler for diagnostic events such as
// deprecated API use and listener-threshold warnings.
func WithDiagnostics(h DiagnosticHandler) Option {
	return func(o *options) { o.diag = h }
}

// WithObservability installs a transition recorder, typically from the
// observability subpackage.
func WithObservability(r ObservabilityRecorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithDependency seeds one injected dependency available to guards and
// middleware through the router.
func WithDependency(key string, value any) Option {
	return func(o *options) {
		if o.deps == nil {
			o.deps = make(map[string]any)
		}
		o.deps[key] = value
	}
}

// WithDependencies seeds the injected dependency map.
func WithDependencies(deps map[string]any) Option {
	return func(o *options) {
		if o.deps == nil {
			o.deps = make(map[string]any, len(deps))
		}
		for k, v := range deps {
			o.deps[k] = v
		}
	}
}

// ObservabilityRecorder receives transition telemetry. Implementations
// live in the observability subpackage; custom recorders only need
// these two hooks.
type ObservabilityRecorder interface {
	// OnTransitionStart is called when a transition begins. The returned
	// context is carried through the pipeline, so recorders can attach
	// spans or timers.
	OnTransitionStart(ctx context.Context, to, from *State) context.Context

	// OnTransitionEnd is called exactly once per transition with the
	// outcome: "success", "error" or "cancelled".
	OnTransitionEnd(ctx context.Context, outcome string, to, from *State, err error)
}
