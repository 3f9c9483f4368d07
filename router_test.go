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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greydragon888/real-router-sub007/route"
)

func navRoutes() []route.Route {
	return []route.Route{
		{Name: "home", Path: "/"},
		{Name: "users", Path: "/users", Children: []route.Route{
			{Name: "list", Path: "/list"},
			{Name: "view", Path: "/:id"},
		}},
		{Name: "login", Path: "/login"},
		{Name: "admin", Path: "/admin"},
	}
}

// startedRouter builds a router on the shared test routes and starts it
// at the given path.
func startedRouter(t *testing.T, path string, opts ...Option) *Router {
	t.Helper()
	r := MustNew(navRoutes(), opts...)
	require.NoError(t, r.Start(path))
	t.Cleanup(r.Dispose)
	return r
}

// mockDiagnosticHandler implements the DiagnosticHandler interface for
// testing
type mockDiagnosticHandler struct {
	events []DiagnosticEvent
}

func (m *mockDiagnosticHandler) OnDiagnostic(e DiagnosticEvent) {
	m.events = append(m.events, e)
}

func (m *mockDiagnosticHandler) kinds() []DiagnosticKind {
	out := make([]DiagnosticKind, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Kind)
	}
	return out
}

func TestNewValidatesRoutes(t *testing.T) {
	t.Parallel()

	_, err := New([]route.Route{
		{Name: "a", Path: "/a"},
		{Name: "a", Path: "/b"},
	})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidRoute, CodeOf(err))

	_, err = New([]route.Route{{Name: "a", Path: "/a", ForwardTo: 3.14}})
	require.Error(t, err)
	assert.Equal(t, CodeForwardNotSync, CodeOf(err))

	_, err = New([]route.Route{
		{Name: "a", Path: "/a", ForwardTo: "b"},
		{Name: "b", Path: "/b", ForwardTo: "a"},
	})
	require.Error(t, err)
	assert.Equal(t, CodeForwardCycle, CodeOf(err))
}

func TestNewValidatesOptions(t *testing.T) {
	t.Parallel()

	_, err := New(nil, WithListenerLimits(ListenerLimits{WarnThreshold: -1}))
	require.Error(t, err)
	assert.Equal(t, CodeInvalidOptions, CodeOf(err))

	_, err = New(nil, WithTrailingSlash("sometimes"))
	require.Error(t, err)
	assert.Equal(t, CodeInvalidOptions, CodeOf(err))

	assert.Panics(t, func() {
		MustNew(nil, WithTrailingSlash("sometimes"))
	})
}

func TestStartResolvesPath(t *testing.T) {
	t.Parallel()
	r := MustNew(navRoutes())
	t.Cleanup(r.Dispose)

	var started, succeeded []EventPayload
	_, err := r.AddEventListener(RouterStart, func(p EventPayload) { started = append(started, p) })
	require.NoError(t, err)
	_, err = r.AddEventListener(TransitionSuccess, func(p EventPayload) { succeeded = append(succeeded, p) })
	require.NoError(t, err)

	require.NoError(t, r.Start("/users/list"))

	assert.Equal(t, StatusReady, r.Status())
	assert.True(t, r.IsStarted())

	st := r.GetState()
	require.NotNil(t, st)
	assert.Equal(t, "users.list", st.Name)
	assert.Equal(t, int64(1), st.Meta.ID)

	require.Len(t, started, 1)
	require.Len(t, succeeded, 1)
	assert.Equal(t, "users.list", succeeded[0].ToState.Name)
}

func TestStartFallbacks(t *testing.T) {
	t.Parallel()

	// Empty path resolves through the default route.
	r := startedRouter(t, "", WithDefaultRoute("home", nil))
	assert.Equal(t, "home", r.GetState().Name)

	// Unmatched path falls back to the default route.
	r2 := startedRouter(t, "/no/such/path", WithDefaultRoute("home", nil))
	assert.Equal(t, "home", r2.GetState().Name)

	// Unmatched path with AllowNotFound yields the reserved state.
	r3 := startedRouter(t, "/no/such/path", WithAllowNotFound())
	assert.True(t, r3.GetState().IsNotFound())

	// Nothing to resolve at all.
	r4 := MustNew(navRoutes())
	err := r4.Start("")
	require.Error(t, err)
	assert.Equal(t, CodeNoStartPath, CodeOf(err))
	assert.Equal(t, StatusIdle, r4.Status(), "failed start must return to idle")

	// Unmatched path with no fallback configured.
	r5 := MustNew(navRoutes())
	err = r5.Start("/no/such/path")
	require.Error(t, err)
	assert.Equal(t, CodeRouteNotFound, CodeOf(err))
}

// TestStartFailureEmitsTransitionError covers both Start failure paths:
// a pipeline rejection and a resolution failure each notify listeners
func TestStartFailureEmitsTransitionError(t *testing.T) {
	t.Parallel()
	r := MustNew(navRoutes())
	t.Cleanup(r.Dispose)
	failures := collect(t, r, TransitionError)

	require.NoError(t, r.AddActivateGuard("home", func(*Router) (Guard, error) {
		return func(context.Context, *State, *State) error {
			return errors.New("forbidden")
		}, nil
	}))

	err := r.Start("/")
	require.Error(t, err)
	assert.Equal(t, CodeCannotActivate, CodeOf(err))
	assert.Equal(t, StatusIdle, r.Status())

	require.Equal(t, 1, failures.len())
	assert.Equal(t, CodeCannotActivate, CodeOf(failures.last().Err))
	assert.Equal(t, "home", failures.last().ToState.Name)

	// A path that resolves to nothing reports the same way.
	err = r.Start("/no/such/path")
	require.Error(t, err)
	assert.Equal(t, CodeRouteNotFound, CodeOf(err))
	require.Equal(t, 2, failures.len())
	assert.Equal(t, CodeRouteNotFound, CodeOf(failures.last().Err))
}

// TestStartLosesRaceToDispose drives Dispose from inside the start
// pipeline: the router must end up disposed with no state installed and
// no RouterStart emitted
func TestStartLosesRaceToDispose(t *testing.T) {
	t.Parallel()
	r := MustNew(navRoutes())
	starts := collect(t, r, RouterStart)

	require.NoError(t, r.UseMiddleware(func(rt *Router) (Middleware, error) {
		return func(context.Context, *State, *State) (*State, error) {
			rt.Dispose()
			return nil, nil
		}, nil
	}))

	err := r.Start("/")
	require.Error(t, err)
	assert.Equal(t, CodeDisposed, CodeOf(err))
	assert.Equal(t, StatusDisposed, r.Status())
	assert.Nil(t, r.GetState())
	assert.Equal(t, 0, starts.len())
}

func TestStartTwice(t *testing.T) {
	t.Parallel()
	r := startedRouter(t, "/")

	err := r.Start("/")
	require.Error(t, err)
	assert.Equal(t, CodeAlreadyStarted, CodeOf(err))
}

func TestStopReturnsToIdle(t *testing.T) {
	t.Parallel()
	r := startedRouter(t, "/")

	var stopped []EventPayload
	_, err := r.AddEventListener(RouterStop, func(p EventPayload) { stopped = append(stopped, p) })
	require.NoError(t, err)

	require.NoError(t, r.Stop())
	assert.Equal(t, StatusIdle, r.Status())
	assert.Nil(t, r.GetState())
	require.Len(t, stopped, 1)
	assert.Equal(t, "home", stopped[0].FromState.Name)

	// Stopping an idle router is rejected.
	err = r.Stop()
	require.Error(t, err)
	assert.Equal(t, CodeNotStarted, CodeOf(err))

	// The router can start again.
	require.NoError(t, r.Start("/login"))
	assert.Equal(t, "login", r.GetState().Name)
}

func TestDisposeIsTerminal(t *testing.T) {
	t.Parallel()
	r := startedRouter(t, "/")

	r.Dispose()
	assert.Equal(t, StatusDisposed, r.Status())
	assert.Nil(t, r.GetState())

	// Dispose is idempotent.
	r.Dispose()

	err := r.AddRoute(route.Route{Name: "late", Path: "/late"})
	require.Error(t, err)
	assert.Equal(t, CodeDisposed, CodeOf(err))

	tr := r.Navigate("home", nil)
	require.Error(t, tr.Wait())
	assert.Equal(t, CodeDisposed, CodeOf(tr.Err()))

	err = r.Start("/")
	require.Error(t, err)
	assert.Equal(t, CodeDisposed, CodeOf(err))
}

func TestRouteManagement(t *testing.T) {
	t.Parallel()
	r := MustNew(navRoutes())
	t.Cleanup(r.Dispose)

	assert.True(t, r.HasRoute("users.view"))
	assert.False(t, r.HasRoute("ghost"))

	require.NoError(t, r.AddRoute(route.Route{Name: "users.settings", Path: "/settings"}))
	assert.True(t, r.HasRoute("users.settings"))

	spec, ok := r.GetRoute("users")
	require.True(t, ok)
	assert.Equal(t, "users", spec.Name)
	assert.Len(t, spec.Children, 3)

	require.NoError(t, r.UpdateRoute("login", route.Route{Path: "/sign-in"}))
	path, err := r.BuildPath("login", nil)
	require.NoError(t, err)
	assert.Equal(t, "/sign-in", path)

	require.NoError(t, r.RemoveRoute("admin"))
	assert.False(t, r.HasRoute("admin"))

	err = r.RemoveRoute("admin")
	require.Error(t, err)
	assert.Equal(t, CodeRouteNotFound, CodeOf(err))

	assert.Len(t, r.Routes(), 3)
}

func TestMatchPath(t *testing.T) {
	t.Parallel()
	r := MustNew(navRoutes())
	t.Cleanup(r.Dispose)

	st, err := r.MatchPath("/users/42")
	require.NoError(t, err)
	assert.Equal(t, "users.view", st.Name)
	assert.Equal(t, route.Params{"id": "42"}, st.Params)
	assert.Equal(t, int64(0), st.Meta.ID, "matching assigns no transition id")

	_, err = r.MatchPath("/nope")
	require.Error(t, err)
	assert.Equal(t, CodeRouteNotFound, CodeOf(err))
}

func TestForwardState(t *testing.T) {
	t.Parallel()
	r := MustNew([]route.Route{
		{Name: "old", Path: "/old", ForwardTo: "new"},
		{Name: "new", Path: "/new/:page", DefaultParams: route.Params{"page": "1"}},
	})
	t.Cleanup(r.Dispose)

	name, params, err := r.ForwardState("old", route.Params{"q": "x"})
	require.NoError(t, err)
	assert.Equal(t, "new", name)
	assert.Equal(t, route.Params{"page": "1", "q": "x"}, params)

	// Caller params win over chain defaults.
	_, params, err = r.ForwardState("old", route.Params{"page": "9"})
	require.NoError(t, err)
	assert.Equal(t, route.Params{"page": "9"}, params)
}

func TestMakeStates(t *testing.T) {
	t.Parallel()
	r := MustNew(navRoutes())
	t.Cleanup(r.Dispose)

	st := r.MakeState("users.view", route.Params{"id": "3"}, "/users/3")
	assert.Equal(t, "users.view", st.Name)
	assert.False(t, st.IsNotFound())

	nf := r.MakeNotFoundState("/missing")
	assert.True(t, nf.IsNotFound())
	assert.Equal(t, route.Params{"path": "/missing"}, nf.Params)
}

func TestAreStatesEqual(t *testing.T) {
	t.Parallel()

	a := &State{Name: "x", Params: route.Params{"id": "1"}, Meta: &StateMeta{ID: 1}}
	b := &State{Name: "x", Params: route.Params{"id": "1"}, Meta: &StateMeta{ID: 99}}
	c := &State{Name: "x", Params: route.Params{"id": "2"}}

	assert.True(t, AreStatesEqual(a, b), "meta must not participate in equality")
	assert.False(t, AreStatesEqual(a, c))
	assert.False(t, AreStatesEqual(a, nil))
	assert.True(t, AreStatesEqual(nil, nil))
}

func TestDependencies(t *testing.T) {
	t.Parallel()
	r := MustNew(navRoutes(), WithDependency("db", "primary"))
	t.Cleanup(r.Dispose)

	v, ok := r.GetDependency("db")
	require.True(t, ok)
	assert.Equal(t, "primary", v)

	r.SetDependency("cache", 42)
	r.SetDependencies(map[string]any{"db": "replica"})

	deps := r.GetDependencies()
	assert.Equal(t, map[string]any{"db": "replica", "cache": 42}, deps)

	// The returned map is a copy.
	deps["db"] = "mutated"
	v, _ = r.GetDependency("db")
	assert.Equal(t, "replica", v)

	_, ok = r.GetDependency("missing")
	assert.False(t, ok)
}

// TestDeprecatedAliasesWarnOnce verifies each deprecated entry point
// emits a single diagnostic per router
func TestDeprecatedAliasesWarnOnce(t *testing.T) {
	t.Parallel()
	diag := &mockDiagnosticHandler{}
	r := MustNew(navRoutes(), WithDiagnostics(diag))
	t.Cleanup(r.Dispose)

	guard := func(*Router) (Guard, error) {
		return func(context.Context, *State, *State) error { return nil }, nil
	}

	require.NoError(t, r.CanActivate("home", guard))
	require.NoError(t, r.CanActivate("login"))
	require.NoError(t, r.CanDeactivate("home"))

	assert.Equal(t, []DiagnosticKind{DiagDeprecatedAPI, DiagDeprecatedAPI}, diag.kinds())
}

func TestGuardRegistrationValidation(t *testing.T) {
	t.Parallel()
	r := MustNew(navRoutes())
	t.Cleanup(r.Dispose)

	err := r.AddActivateGuard("ghost", func(*Router) (Guard, error) {
		return func(context.Context, *State, *State) error { return nil }, nil
	})
	require.Error(t, err)
	assert.Equal(t, CodeRouteNotFound, CodeOf(err))

	err = r.AddActivateGuard("home", func(*Router) (Guard, error) {
		return nil, nil
	})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}
