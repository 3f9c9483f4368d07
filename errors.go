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
	"errors"
	"fmt"

	"github.com/greydragon888/real-router-sub007/route"
)

// Stable error codes carried by every fallible router operation.
// Callers should match on codes (via CodeOf or NavError.Code), never
// on message text.
const (
	CodeRouteNotFound       = "route-not-found"
	CodeSameStates          = "same-states"
	CodeCannotDeactivate    = "cannot-deactivate"
	CodeCannotActivate      = "cannot-activate"
	CodeTransitionError     = "transition-error"
	CodeTransitionCancelled = "transition-cancelled"
	CodeNotStarted          = "not-started"
	CodeAlreadyStarted      = "already-started"
	CodeNoStartPath         = "no-start-path"
	CodeForwardCycle        = "forward-cycle"
	CodeForwardNotSync      = "forward-not-sync"
	CodeInvalidOptions      = "invalid-options"
	CodeInvalidRoute        = "invalid-route"
	CodeLimitExceeded       = "limit-exceeded"
	CodeInvalidEvent        = "invalid-event"
	CodeInvalidArgument     = "invalid-argument"
	CodeDisposed            = "disposed"
)

// NavError is the typed error for all router operations. It carries a
// stable code, an optional route segment, and the underlying cause.
type NavError struct {
	NavCode string
	Message string
	Segment string
	Err     error
}

func (e *NavError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Segment != "" {
		return fmt.Sprintf("%s: %s (route %q)", e.NavCode, msg, e.Segment)
	}
	return fmt.Sprintf("%s: %s", e.NavCode, msg)
}

// Code returns the stable error code.
func (e *NavError) Code() string {
	return e.NavCode
}

// Details returns structured context for error formatters.
func (e *NavError) Details() map[string]any {
	details := map[string]any{"code": e.NavCode}
	if e.Segment != "" {
		details["route"] = e.Segment
	}
	return details
}

func (e *NavError) Unwrap() error {
	return e.Err
}

// newNavError builds a coded error with a formatted message.
func newNavError(code, format string, args ...any) *NavError {
	return &NavError{NavCode: code, Message: fmt.Sprintf(format, args...)}
}

// wrapNavError attaches a code to an underlying error, preserving an
// existing NavError's code.
func wrapNavError(code string, err error) *NavError {
	var nav *NavError
	if errors.As(err, &nav) {
		return nav
	}
	return &NavError{NavCode: code, Err: err}
}

// CodeOf extracts the stable code from an error, or "" if the error
// carries none.
func CodeOf(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// Redirect is returned by a guard or middleware to replace the target
// of the in-flight transition. The pipeline restarts from forward
// resolution of the replacement; it is not a failure.
type Redirect struct {
	Name   string
	Params route.Params
}

func (r *Redirect) Error() string {
	return fmt.Sprintf("redirect to %q", r.Name)
}

// RedirectTo is a convenience constructor for guard and middleware
// implementations.
func RedirectTo(name string, params route.Params) *Redirect {
	return &Redirect{Name: name, Params: params}
}

// routeErrorCode maps route-tree errors onto stable codes.
func routeErrorCode(err error) string {
	switch {
	case errors.Is(err, route.ErrNotFound):
		return CodeRouteNotFound
	case errors.Is(err, route.ErrForwardCycle):
		return CodeForwardCycle
	case errors.Is(err, route.ErrForwardNotSync):
		return CodeForwardNotSync
	case errors.Is(err, route.ErrForwardUnknownTarget):
		return CodeRouteNotFound
	case errors.Is(err, route.ErrInvalidOptions):
		return CodeInvalidOptions
	case errors.Is(err, route.ErrInvalidName),
		errors.Is(err, route.ErrInvalidPattern),
		errors.Is(err, route.ErrDuplicateName),
		errors.Is(err, route.ErrMissingParam),
		errors.Is(err, route.ErrUnknownParam):
		return CodeInvalidRoute
	default:
		return CodeTransitionError
	}
}
