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

// DiagnosticEvent represents a router diagnostic or anomaly.
// These are informational events that may indicate configuration
// issues. The router functions correctly whether diagnostics are
// collected or not.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any // Structured context
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind string

const (
	// DiagDeprecatedAPI is emitted at most once per deprecated entry
	// point per router when a deprecated alias is used.
	DiagDeprecatedAPI DiagnosticKind = "deprecated_api_use"

	// DiagListenerThreshold is emitted when event-listener registration
	// crosses the configured warn threshold.
	DiagListenerThreshold DiagnosticKind = "listener_warn_threshold"

	// DiagEmitDepthExceeded is emitted when re-entrant event emission
	// exceeds the configured maximum depth; the nested emission is
	// dropped.
	DiagEmitDepthExceeded DiagnosticKind = "emit_depth_exceeded"

	// DiagMiddlewareCeiling is emitted when a middleware batch is
	// rejected by the registration ceiling.
	DiagMiddlewareCeiling DiagnosticKind = "middleware_ceiling_reached"
)

// DiagnosticHandler receives diagnostic events from the router.
// Implementations may log, emit metrics, or ignore them.
//
// This interface is optional - if not provided, diagnostics are
// silently dropped.
//
// Example with logging:
//
//	import "log/slog"
//
//	handler := router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
//	    slog.Warn(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	r := router.MustNew(routes, router.WithDiagnostics(handler))
type DiagnosticHandler interface {
	OnDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc is a function adapter for DiagnosticHandler.
type DiagnosticHandlerFunc func(DiagnosticEvent)

func (f DiagnosticHandlerFunc) OnDiagnostic(e DiagnosticEvent) {
	f(e)
}
