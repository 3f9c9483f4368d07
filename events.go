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
	"sync"

	"github.com/google/uuid"
)

// Event identifies a router notification. The set is closed: internal
// emitters cannot produce an unknown event, and the public API
// validates names at its boundary.
type Event int

const (
	// RouterStart fires when startup completes and the router becomes
	// ready.
	RouterStart Event = iota

	// RouterStop fires when a started router stops or is disposed.
	RouterStop

	// TransitionStart fires when a navigation pipeline begins.
	TransitionStart

	// TransitionSuccess fires when a transition commits a new state.
	TransitionSuccess

	// TransitionCancel fires when an in-flight transition is cancelled.
	TransitionCancel

	// TransitionError fires when a transition fails; the payload
	// carries the coded error.
	TransitionError
)

var eventNames = map[Event]string{
	RouterStart:       "ROUTER_START",
	RouterStop:        "ROUTER_STOP",
	TransitionStart:   "TRANSITION_START",
	TransitionSuccess: "TRANSITION_SUCCESS",
	TransitionCancel:  "TRANSITION_CANCEL",
	TransitionError:   "TRANSITION_ERROR",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "UNKNOWN_EVENT"
}

// valid reports whether the event belongs to the closed set.
func (e Event) valid() bool {
	_, ok := eventNames[e]
	return ok
}

// ParseEvent resolves an event name at the public API edge. Unknown
// names fail with a descriptive coded error rather than silently
// registering.
func ParseEvent(name string) (Event, error) {
	for ev, n := range eventNames {
		if n == name {
			return ev, nil
		}
	}
	return 0, newNavError(CodeInvalidEvent, "unknown event name %q", name)
}

// EventPayload is delivered to event listeners. ToState and FromState
// are the transition's states (nil where not applicable); Err is set
// for TransitionError only.
type EventPayload struct {
	Event     Event
	ToState   *State
	FromState *State
	Options   NavigationOptions
	Err       error
}

// Listener receives event payloads. Listeners run synchronously on the
// emitting goroutine; they must not block.
type Listener func(EventPayload)

// ListenerLimits guards against runaway listener accumulation from
// forgotten unsubscribes.
type ListenerLimits struct {
	// WarnThreshold emits a diagnostic when the listener count for one
	// event crosses it. Zero uses the default.
	WarnThreshold int

	// MaxListeners rejects registration beyond this per-event count.
	// Zero uses the default.
	MaxListeners int

	// MaxEmitDepth bounds synchronous re-entrant emission (a listener
	// triggering another emission). Deeper emissions are dropped with
	// a diagnostic. Zero uses the default.
	MaxEmitDepth int
}

const (
	defaultWarnThreshold = 32
	defaultMaxListeners  = 256
	defaultMaxEmitDepth  = 16
)

// normalize fills zero fields with defaults.
func (l ListenerLimits) normalize() ListenerLimits {
	if l.WarnThreshold == 0 {
		l.WarnThreshold = defaultWarnThreshold
	}
	if l.MaxListeners == 0 {
		l.MaxListeners = defaultMaxListeners
	}
	if l.MaxEmitDepth == 0 {
		l.MaxEmitDepth = defaultMaxEmitDepth
	}
	return l
}

func (l ListenerLimits) validate() error {
	if l.WarnThreshold < 0 || l.MaxListeners < 0 || l.MaxEmitDepth < 0 {
		return newNavError(CodeInvalidOptions, "listener limits must be non-negative")
	}
	if l.WarnThreshold > 0 && l.MaxListeners > 0 && l.WarnThreshold > l.MaxListeners {
		return newNavError(CodeInvalidOptions, "listener warn threshold exceeds hard maximum")
	}
	return nil
}

type busEntry struct {
	token string
	fn    Listener
}

// eventBus is the validated publish/subscribe layer over the lifecycle
// machine. Listener registration and emission may interleave with a
// pending transition; the bus has its own lock and never takes the
// router's.
type eventBus struct {
	mu        sync.Mutex
	listeners map[Event][]busEntry
	limits    ListenerLimits
	depth     int
	diag      func(DiagnosticEvent)
}

func newEventBus(limits ListenerLimits, diag func(DiagnosticEvent)) *eventBus {
	return &eventBus{
		listeners: make(map[Event][]busEntry),
		limits:    limits.normalize(),
		diag:      diag,
	}
}

// add registers a listener and returns its idempotent unsubscribe.
func (b *eventBus) add(ev Event, fn Listener) (func(), error) {
	if !ev.valid() {
		return nil, newNavError(CodeInvalidEvent, "unknown event %d", int(ev))
	}
	if fn == nil {
		return nil, newNavError(CodeInvalidArgument, "listener must not be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	count := len(b.listeners[ev])
	if count >= b.limits.MaxListeners {
		return nil, newNavError(CodeLimitExceeded,
			"listener limit reached for %s (%d registered)", ev, count)
	}

	token := uuid.NewString()
	b.listeners[ev] = append(b.listeners[ev], busEntry{token: token, fn: fn})

	if count+1 == b.limits.WarnThreshold {
		b.diag(DiagnosticEvent{
			Kind:    DiagListenerThreshold,
			Message: "event listener count crossed warn threshold",
			Fields:  map[string]any{"event": ev.String(), "count": count + 1},
		})
	}

	return func() { b.remove(ev, token) }, nil
}

// remove is idempotent: a second call with the same token is a no-op.
func (b *eventBus) remove(ev Event, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.listeners[ev]
	for i, entry := range entries {
		if entry.token == token {
			b.listeners[ev] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// emit delivers the payload to a snapshot of the listeners, so a
// listener may subscribe or unsubscribe during delivery. Re-entrant
// emission beyond the depth limit is dropped.
func (b *eventBus) emit(payload EventPayload) {
	b.mu.Lock()
	if b.depth >= b.limits.MaxEmitDepth {
		b.mu.Unlock()
		b.diag(DiagnosticEvent{
			Kind:    DiagEmitDepthExceeded,
			Message: "re-entrant event emission exceeded the depth limit",
			Fields:  map[string]any{"event": payload.Event.String(), "depth": b.limits.MaxEmitDepth},
		})
		return
	}
	b.depth++
	snapshot := make([]busEntry, len(b.listeners[payload.Event]))
	copy(snapshot, b.listeners[payload.Event])
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.depth--
		b.mu.Unlock()
	}()

	for _, entry := range snapshot {
		entry.fn(payload)
	}
}

// clear drops every listener. Used on dispose.
func (b *eventBus) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[Event][]busEntry)
}
