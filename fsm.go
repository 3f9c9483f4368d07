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
	"fmt"

	"go.uber.org/atomic"
)

// Status is the router lifecycle state. The lifecycle machine is the
// single authority on which operations are currently legal.
type Status int32

const (
	// StatusIdle is the initial state; the router is configured but
	// not started.
	StatusIdle Status = iota

	// StatusStarting means Start is resolving the initial state.
	StatusStarting

	// StatusReady means the router has a current state and accepts
	// navigations.
	StatusReady

	// StatusTransitioning means a navigation pipeline is in flight.
	StatusTransitioning

	// StatusDisposed is terminal; every subsequent operation fails.
	StatusDisposed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStarting:
		return "starting"
	case StatusReady:
		return "ready"
	case StatusTransitioning:
		return "transitioning"
	case StatusDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// lifecycleEvent is an input to the lifecycle machine.
type lifecycleEvent int

const (
	evStart lifecycleEvent = iota
	evStarted
	evStop
	evNavigate
	evComplete
	evCancel
	evFail
	evDispose
)

func (e lifecycleEvent) String() string {
	switch e {
	case evStart:
		return "START"
	case evStarted:
		return "STARTED"
	case evStop:
		return "STOP"
	case evNavigate:
		return "NAVIGATE"
	case evComplete:
		return "COMPLETE"
	case evCancel:
		return "CANCEL"
	case evFail:
		return "FAIL"
	case evDispose:
		return "DISPOSE"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

type lifecycleKey struct {
	status Status
	event  lifecycleEvent
}

// lifecycleTable is the complete transition relation, except for
// evDispose which is legal from every non-disposed state. An absent
// key means the event is rejected with no mutation and no side
// effects.
var lifecycleTable = map[lifecycleKey]Status{
	{StatusIdle, evStart}:             StatusStarting,
	{StatusStarting, evStarted}:       StatusReady,
	{StatusStarting, evFail}:          StatusIdle,
	{StatusReady, evNavigate}:         StatusTransitioning,
	{StatusReady, evStop}:             StatusIdle,
	{StatusReady, evFail}:             StatusIdle,
	{StatusTransitioning, evComplete}: StatusReady,
	{StatusTransitioning, evCancel}:   StatusReady,
	{StatusTransitioning, evFail}:     StatusReady,
}

// lifecycle holds the current status. Fire is always called with the
// owning router's mutex held; the atomic lets Status() be read without
// the lock.
type lifecycle struct {
	status atomic.Int32
}

func newLifecycle() *lifecycle {
	return &lifecycle{}
}

func (l *lifecycle) current() Status {
	return Status(l.status.Load())
}

// fire applies an event. Invalid transitions are rejected without
// mutating the status.
func (l *lifecycle) fire(ev lifecycleEvent) (Status, error) {
	from := l.current()
	if from == StatusDisposed {
		return from, newNavError(CodeDisposed, "router is disposed")
	}
	if ev == evDispose {
		l.status.Store(int32(StatusDisposed))
		return StatusDisposed, nil
	}

	to, ok := lifecycleTable[lifecycleKey{from, ev}]
	if !ok {
		return from, newNavError(statusErrorCode(from, ev), "event %s is not legal in status %s", ev, from)
	}
	l.status.Store(int32(to))
	return to, nil
}

// statusErrorCode picks the most descriptive code for an illegal
// event.
func statusErrorCode(from Status, ev lifecycleEvent) string {
	switch {
	case ev == evStart && from != StatusIdle:
		return CodeAlreadyStarted
	case (ev == evNavigate || ev == evStop) && from == StatusIdle:
		return CodeNotStarted
	default:
		return CodeInvalidArgument
	}
}
