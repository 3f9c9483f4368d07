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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	t.Parallel()

	ev, err := ParseEvent("TRANSITION_SUCCESS")
	require.NoError(t, err)
	assert.Equal(t, TransitionSuccess, ev)

	_, err = ParseEvent("ROUTER_EXPLODE")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidEvent, CodeOf(err))
}

func TestEventString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ROUTER_START", RouterStart.String())
	assert.Equal(t, "UNKNOWN_EVENT", Event(99).String())
}

func TestAddEventListenerValidation(t *testing.T) {
	t.Parallel()
	r := MustNew(navRoutes())
	t.Cleanup(r.Dispose)

	_, err := r.AddEventListener(Event(99), func(EventPayload) {})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidEvent, CodeOf(err))

	_, err = r.AddEventListener(RouterStart, nil)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestBusListenerLimit(t *testing.T) {
	t.Parallel()

	var diags []DiagnosticEvent
	bus := newEventBus(ListenerLimits{WarnThreshold: 2, MaxListeners: 3}, func(e DiagnosticEvent) {
		diags = append(diags, e)
	})

	noop := func(EventPayload) {}
	_, err := bus.add(RouterStart, noop)
	require.NoError(t, err)
	require.Empty(t, diags)

	// Crossing the warn threshold emits exactly one diagnostic.
	_, err = bus.add(RouterStart, noop)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, DiagListenerThreshold, diags[0].Kind)
	assert.Equal(t, 2, diags[0].Fields["count"])

	_, err = bus.add(RouterStart, noop)
	require.NoError(t, err)

	_, err = bus.add(RouterStart, noop)
	require.Error(t, err)
	assert.Equal(t, CodeLimitExceeded, CodeOf(err))

	// The limit is per event, not global.
	_, err = bus.add(RouterStop, noop)
	require.NoError(t, err)
}

func TestBusUnsubscribeIdempotent(t *testing.T) {
	t.Parallel()

	bus := newEventBus(ListenerLimits{}, func(DiagnosticEvent) {})

	calls := 0
	unsub, err := bus.add(RouterStart, func(EventPayload) { calls++ })
	require.NoError(t, err)

	bus.emit(EventPayload{Event: RouterStart})
	assert.Equal(t, 1, calls)

	unsub()
	unsub()
	bus.emit(EventPayload{Event: RouterStart})
	assert.Equal(t, 1, calls)
}

// TestBusEmitDepth verifies a listener that re-emits is cut off at the
// depth limit with a diagnostic instead of recursing unbounded
func TestBusEmitDepth(t *testing.T) {
	t.Parallel()

	var diags []DiagnosticEvent
	bus := newEventBus(ListenerLimits{MaxEmitDepth: 3}, func(e DiagnosticEvent) {
		diags = append(diags, e)
	})

	deliveries := 0
	_, err := bus.add(RouterStart, func(EventPayload) {
		deliveries++
		bus.emit(EventPayload{Event: RouterStart})
	})
	require.NoError(t, err)

	bus.emit(EventPayload{Event: RouterStart})

	assert.Equal(t, 3, deliveries)
	require.Len(t, diags, 1)
	assert.Equal(t, DiagEmitDepthExceeded, diags[0].Kind)
}

func TestBusEmitSnapshot(t *testing.T) {
	t.Parallel()

	bus := newEventBus(ListenerLimits{}, func(DiagnosticEvent) {})

	// A listener unsubscribing itself mid-delivery must not disturb the
	// in-flight emission.
	firstCalls, secondCalls := 0, 0
	var unsubFirst func()
	var err error
	unsubFirst, err = bus.add(RouterStart, func(EventPayload) {
		firstCalls++
		unsubFirst()
	})
	require.NoError(t, err)
	_, err = bus.add(RouterStart, func(EventPayload) { secondCalls++ })
	require.NoError(t, err)

	bus.emit(EventPayload{Event: RouterStart})
	bus.emit(EventPayload{Event: RouterStart})

	assert.Equal(t, 1, firstCalls)
	assert.Equal(t, 2, secondCalls)
}

func TestListenerLimitsValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ListenerLimits{}.validate())
	assert.NoError(t, ListenerLimits{WarnThreshold: 8, MaxListeners: 16}.validate())

	err := ListenerLimits{WarnThreshold: -1}.validate()
	require.Error(t, err)
	assert.Equal(t, CodeInvalidOptions, CodeOf(err))

	err = ListenerLimits{WarnThreshold: 20, MaxListeners: 10}.validate()
	require.Error(t, err)
	assert.Equal(t, CodeInvalidOptions, CodeOf(err))
}

func TestListenerLimitsNormalize(t *testing.T) {
	t.Parallel()

	l := ListenerLimits{}.normalize()
	assert.Equal(t, defaultWarnThreshold, l.WarnThreshold)
	assert.Equal(t, defaultMaxListeners, l.MaxListeners)
	assert.Equal(t, defaultMaxEmitDepth, l.MaxEmitDepth)

	l = ListenerLimits{WarnThreshold: 5, MaxListeners: 9, MaxEmitDepth: 2}.normalize()
	assert.Equal(t, ListenerLimits{WarnThreshold: 5, MaxListeners: 9, MaxEmitDepth: 2}, l)
}
