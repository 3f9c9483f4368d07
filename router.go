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
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/atomic"

	"github.com/greydragon888/real-router-sub007/route"
)

// Router is a hierarchical navigation engine. It owns a route tree, a
// lifecycle machine, a navigation pipeline, and an event bus. All
// methods are safe for concurrent use.
//
// A router is built with New, started with Start, and driven with
// Navigate. Dispose is terminal.
type Router struct {
	mu   sync.Mutex
	opts options
	tree *route.Tree
	lc   *lifecycle
	bus  *eventBus

	logger *slog.Logger

	depsMu sync.RWMutex
	deps   map[string]any

	middlewares      registry[MiddlewareFactory, Middleware]
	activateGuards   map[string]*registry[GuardFactory, Guard]
	deactivateGuards map[string]*registry[GuardFactory, Guard]
	plugins          registry[PluginFactory, *pluginEntry]

	current  *State
	inflight *Transition
	nextID   atomic.Int64

	warnCanActivate   sync.Once
	warnCanDeactivate sync.Once
}

// New builds a router from top-level route specifications. The routes
// and options are validated eagerly; a misconfigured router is a
// construction error, never a latent runtime failure.
func New(routes []route.Route, opts ...Option) (*Router, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	tree, err := route.NewTree(routes, o.match)
	if err != nil {
		return nil, wrapNavError(routeErrorCode(err), err)
	}

	r := &Router{
		opts:             o,
		tree:             tree,
		lc:               newLifecycle(),
		logger:           o.logger,
		deps:             make(map[string]any, len(o.deps)),
		middlewares:      registry[MiddlewareFactory, Middleware]{limit: middlewareCeiling},
		activateGuards:   make(map[string]*registry[GuardFactory, Guard]),
		deactivateGuards: make(map[string]*registry[GuardFactory, Guard]),
	}
	for k, v := range o.deps {
		r.deps[k] = v
	}
	r.bus = newEventBus(o.limits, r.emitDiagnostic)
	return r, nil
}

// MustNew is like New but panics on error. For initialization paths
// where the configuration is static.
func MustNew(routes []route.Route, opts ...Option) *Router {
	r, err := New(routes, opts...)
	if err != nil {
		panic(fmt.Sprintf("router: %v", err))
	}
	return r
}

func (r *Router) emitDiagnostic(e DiagnosticEvent) {
	if r.opts.diag != nil {
		r.opts.diag.OnDiagnostic(e)
	}
}

// Status returns the current lifecycle status. It is safe to call from
// listeners and guards.
func (r *Router) Status() Status {
	return r.lc.current()
}

// IsStarted reports whether the router has a current state and accepts
// navigations.
func (r *Router) IsStarted() bool {
	s := r.lc.current()
	return s == StatusReady || s == StatusTransitioning
}

// GetState returns the current navigation state, or nil before the
// first successful transition.
func (r *Router) GetState() *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// AddRoute registers route specifications on a live router. Dotted
// names attach under existing ancestors.
func (r *Router) AddRoute(routes ...route.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lc.current() == StatusDisposed {
		return newNavError(CodeDisposed, "router is disposed")
	}
	if err := r.tree.Add(routes...); err != nil {
		return wrapNavError(routeErrorCode(err), err)
	}
	return nil
}

// RemoveRoute detaches a route and its descendants. Forwards pointing
// at the removed route fail at resolution until re-targeted.
func (r *Router) RemoveRoute(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.tree.Remove(name); err != nil {
		return wrapNavError(routeErrorCode(err), err)
	}
	delete(r.activateGuards, name)
	delete(r.deactivateGuards, name)
	return nil
}

// UpdateRoute replaces a route's specification in place, keeping its
// children unless the new spec provides its own.
func (r *Router) UpdateRoute(name string, spec route.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.tree.Update(name, spec); err != nil {
		return wrapNavError(routeErrorCode(err), err)
	}
	return nil
}

// HasRoute reports whether a route with the given full name exists.
func (r *Router) HasRoute(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.Has(name)
}

// GetRoute returns a copy of the route specification for the given
// full name.
func (r *Router) GetRoute(name string) (route.Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.Get(name)
}

// Routes returns copies of all top-level route specifications.
func (r *Router) Routes() []route.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.Routes()
}

// BuildPath composes the path for a route from the given parameters.
func (r *Router) BuildPath(name string, params route.Params) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, err := r.tree.BuildPath(name, params)
	if err != nil {
		return "", wrapNavError(routeErrorCode(err), err)
	}
	return path, nil
}

// MatchPath resolves a path to a state without navigating. The
// returned state has no transition id.
func (r *Router) MatchPath(path string) (*State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matchPathLocked(path)
}

func (r *Router) matchPathLocked(path string) (*State, error) {
	m, err := r.tree.Match(path)
	if err != nil {
		return nil, wrapNavError(routeErrorCode(err), err)
	}
	return &State{
		Name:   m.Name,
		Params: m.Params,
		Path:   path,
		Meta:   &StateMeta{Params: m.MetaParams},
	}, nil
}

// MakeState assembles a state value without consulting the route tree.
// For consumers reconstructing states from persisted data.
func (r *Router) MakeState(name string, params route.Params, path string) *State {
	return &State{
		Name:   name,
		Params: params.Clone(),
		Path:   path,
		Meta:   &StateMeta{Params: map[string]map[string]string{}},
	}
}

// MakeNotFoundState returns the reserved state representing an
// unmatched path.
func (r *Router) MakeNotFoundState(path string) *State {
	return &State{
		Name:   notFoundName,
		Params: route.Params{"path": path},
		Path:   path,
		Meta:   &StateMeta{Params: map[string]map[string]string{}},
	}
}

// ForwardState follows forward links from name to the terminal route
// and overlays the terminal chain's default parameters under the given
// ones.
func (r *Router) ForwardState(name string, params route.Params) (string, route.Params, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forwardStateLocked(name, params)
}

func (r *Router) forwardStateLocked(name string, params route.Params) (string, route.Params, error) {
	terminal, err := r.tree.ResolveForward(name, params)
	if err != nil {
		return "", nil, wrapNavError(routeErrorCode(err), err)
	}

	merged := route.Params{}
	if defaults, ok := r.tree.ChainDefaults(terminal); ok {
		for k, v := range defaults {
			merged[k] = v
		}
	}
	for k, v := range params {
		merged[k] = v
	}
	return terminal, merged, nil
}

// SetDependency stores one injected dependency, visible to guard,
// middleware, and plugin factories.
func (r *Router) SetDependency(key string, value any) {
	r.depsMu.Lock()
	defer r.depsMu.Unlock()
	r.deps[key] = value
}

// SetDependencies stores a batch of injected dependencies.
func (r *Router) SetDependencies(deps map[string]any) {
	r.depsMu.Lock()
	defer r.depsMu.Unlock()
	for k, v := range deps {
		r.deps[k] = v
	}
}

// GetDependency returns one injected dependency.
func (r *Router) GetDependency(key string) (any, bool) {
	r.depsMu.RLock()
	defer r.depsMu.RUnlock()
	v, ok := r.deps[key]
	return v, ok
}

// GetDependencies returns a copy of the dependency map.
func (r *Router) GetDependencies() map[string]any {
	r.depsMu.RLock()
	defer r.depsMu.RUnlock()
	out := make(map[string]any, len(r.deps))
	for k, v := range r.deps {
		out[k] = v
	}
	return out
}

// AddEventListener registers a listener for one router event and
// returns its idempotent unsubscribe. Unknown events are rejected.
func (r *Router) AddEventListener(ev Event, fn Listener) (func(), error) {
	return r.bus.add(ev, fn)
}

// Subscribe delivers {Route, PreviousRoute} on every successful
// transition. It is a convenience layer over AddEventListener.
func (r *Router) Subscribe(fn func(SubscribeState)) (func(), error) {
	if fn == nil {
		return nil, newNavError(CodeInvalidArgument, "subscriber must not be nil")
	}
	return r.bus.add(TransitionSuccess, func(p EventPayload) {
		fn(SubscribeState{Route: p.ToState, PreviousRoute: p.FromState})
	})
}

// Start resolves the initial state and brings the router to Ready.
// Resolution order: the given path, then the configured default route,
// then the not-found state when AllowNotFound is set. Guards and
// middleware run for the initial transition with a nil from state.
func (r *Router) Start(path string) error {
	r.mu.Lock()
	if _, err := r.lc.fire(evStart); err != nil {
		r.mu.Unlock()
		return err
	}

	target, err := r.resolveStartState(path)
	if err != nil {
		r.lc.fire(evFail) //nolint:errcheck // Starting+Fail is always legal.
		r.mu.Unlock()
		r.bus.emit(EventPayload{Event: TransitionError, Err: err})
		return err
	}
	r.mu.Unlock()

	final, err := r.runPipeline(context.Background(), target, nil, NavigationOptions{})
	r.mu.Lock()
	if err != nil {
		r.lc.fire(evFail) //nolint:errcheck
		r.mu.Unlock()
		r.bus.emit(EventPayload{Event: TransitionError, ToState: target, Err: err})
		return err
	}

	// The pipeline ran unlocked; Dispose may have won the race in the
	// meantime. Started is only legal from Starting, so the fire result
	// decides whether the initial state is installed at all.
	if _, err := r.lc.fire(evStarted); err != nil {
		r.mu.Unlock()
		return err
	}
	r.installLocked(final)
	r.mu.Unlock()

	r.logger.Info("router started", "route", final.Name, "path", final.Path)
	r.bus.emit(EventPayload{Event: RouterStart, ToState: final})
	r.bus.emit(EventPayload{Event: TransitionSuccess, ToState: final})
	return nil
}

// resolveStartState picks the initial navigation target. Called with
// the router lock held, in status Starting.
func (r *Router) resolveStartState(path string) (*State, error) {
	if path != "" {
		st, err := r.matchPathLocked(path)
		if err == nil {
			return st, nil
		}
		if r.opts.allowNotFound {
			return r.MakeNotFoundState(path), nil
		}
		if r.opts.defaultRoute == "" {
			return nil, err
		}
	}
	if r.opts.defaultRoute != "" {
		return r.stateForRouteLocked(r.opts.defaultRoute, r.opts.defaultParams)
	}
	if path == "" && r.opts.allowNotFound {
		return r.MakeNotFoundState(""), nil
	}
	return nil, newNavError(CodeNoStartPath, "no start path and no default route configured")
}

// stateForRouteLocked builds the state addressed by name and params,
// following forwards and overlaying chain defaults.
func (r *Router) stateForRouteLocked(name string, params route.Params) (*State, error) {
	terminal, merged, err := r.forwardStateLocked(name, params)
	if err != nil {
		return nil, err
	}
	path, err := r.tree.BuildPath(terminal, merged)
	if err != nil {
		return nil, wrapNavError(routeErrorCode(err), err)
	}
	st, err := r.matchPathLocked(path)
	if err != nil {
		return nil, err
	}
	// Keep the caller's merged params: defaults that never appear in
	// the path would otherwise be lost on the round trip.
	for k, v := range merged {
		if _, ok := st.Params[k]; !ok {
			st.Params[k] = v
		}
	}
	return st, nil
}

// installLocked makes st the current state, assigning the next
// transition id. Called with the router lock held.
func (r *Router) installLocked(st *State) {
	if st.Meta == nil {
		st.Meta = &StateMeta{Params: map[string]map[string]string{}}
	}
	st.Meta.ID = r.nextID.Inc()
	r.current = st
}

// Stop returns a started router to Idle. An in-flight transition is
// cancelled first. Plugins receive OnStop and are torn down; event
// listeners are cleared unless auto clean-up is disabled.
func (r *Router) Stop() error {
	r.mu.Lock()
	var cancelled *EventPayload
	if t := r.inflight; t != nil {
		payload := t.cancelLocked(newNavError(CodeTransitionCancelled, "router stopped"))
		cancelled = &payload
	}
	if _, err := r.lc.fire(evStop); err != nil {
		r.mu.Unlock()
		return err
	}
	from := r.current
	r.current = nil
	plugins := r.plugins.instances()
	r.mu.Unlock()

	if cancelled != nil {
		r.bus.emit(*cancelled)
	}
	r.logger.Info("router stopped")
	r.bus.emit(EventPayload{Event: RouterStop, FromState: from})
	for _, p := range plugins {
		p.teardown()
	}
	if r.opts.autoCleanUp {
		r.bus.clear()
	}
	return nil
}

// Dispose permanently shuts the router down. Safe to call from any
// state; every subsequent operation fails with CodeDisposed.
func (r *Router) Dispose() {
	r.mu.Lock()
	if r.lc.current() == StatusDisposed {
		r.mu.Unlock()
		return
	}
	var cancelled *EventPayload
	if t := r.inflight; t != nil {
		payload := t.cancelLocked(newNavError(CodeDisposed, "router disposed"))
		cancelled = &payload
	}
	started := r.IsStarted()
	from := r.current
	r.current = nil
	plugins := r.plugins.instances()
	r.lc.fire(evDispose) //nolint:errcheck // dispose is legal from any live state.
	r.mu.Unlock()

	if cancelled != nil {
		r.bus.emit(*cancelled)
	}
	if started {
		r.bus.emit(EventPayload{Event: RouterStop, FromState: from})
	}
	for _, p := range plugins {
		p.teardown()
	}
	r.mu.Lock()
	r.plugins.clear()
	r.middlewares.clear()
	r.activateGuards = make(map[string]*registry[GuardFactory, Guard])
	r.deactivateGuards = make(map[string]*registry[GuardFactory, Guard])
	r.mu.Unlock()
	r.bus.clear()
	r.logger.Info("router disposed")
}
