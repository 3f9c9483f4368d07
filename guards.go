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

import "context"

// Guard decides whether a route segment may be activated or
// deactivated during a transition. A nil return allows the step, any
// other error denies it, and a *Redirect error replaces the transition
// target.
//
// Guards run sequentially on the pipeline goroutine and must honor ctx
// cancellation for long checks.
type Guard func(ctx context.Context, to, from *State) error

// GuardFactory builds a guard against a specific router, typically
// closing over its injected dependencies.
type GuardFactory func(r *Router) (Guard, error)

// AddActivateGuard registers guards that must pass before the named
// route segment is activated. The batch is all-or-nothing: if any
// factory fails, no guard from the batch is registered. Factories are
// rejected when registered twice for the same segment.
func (r *Router) AddActivateGuard(name string, factories ...GuardFactory) error {
	return r.addGuards(r.activateGuards, name, factories)
}

// AddDeactivateGuard registers guards that must pass before the named
// route segment is deactivated, with the same batch semantics as
// AddActivateGuard.
func (r *Router) AddDeactivateGuard(name string, factories ...GuardFactory) error {
	return r.addGuards(r.deactivateGuards, name, factories)
}

// CanActivate is a deprecated alias for AddActivateGuard.
//
// Deprecated: use AddActivateGuard. The first use per router emits a
// diagnostic.
func (r *Router) CanActivate(name string, factories ...GuardFactory) error {
	r.warnCanActivate.Do(func() {
		r.emitDiagnostic(DiagnosticEvent{
			Kind:    DiagDeprecatedAPI,
			Message: "CanActivate is deprecated, use AddActivateGuard",
			Fields:  map[string]any{"api": "CanActivate"},
		})
	})
	return r.AddActivateGuard(name, factories...)
}

// CanDeactivate is a deprecated alias for AddDeactivateGuard.
//
// Deprecated: use AddDeactivateGuard. The first use per router emits a
// diagnostic.
func (r *Router) CanDeactivate(name string, factories ...GuardFactory) error {
	r.warnCanDeactivate.Do(func() {
		r.emitDiagnostic(DiagnosticEvent{
			Kind:    DiagDeprecatedAPI,
			Message: "CanDeactivate is deprecated, use AddDeactivateGuard",
			Fields:  map[string]any{"api": "CanDeactivate"},
		})
	})
	return r.AddDeactivateGuard(name, factories...)
}

// ClearActivateGuards removes every activation guard for the named
// segment.
func (r *Router) ClearActivateGuards(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.activateGuards, name)
}

// ClearDeactivateGuards removes every deactivation guard for the named
// segment.
func (r *Router) ClearDeactivateGuards(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.deactivateGuards, name)
}

func (r *Router) addGuards(set map[string]*registry[GuardFactory, Guard], name string, factories []GuardFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lc.current() == StatusDisposed {
		return newNavError(CodeDisposed, "router is disposed")
	}
	if !r.tree.Has(name) {
		return newNavError(CodeRouteNotFound, "unknown route %q", name)
	}

	reg, ok := set[name]
	if !ok {
		reg = &registry[GuardFactory, Guard]{}
		set[name] = reg
	}
	_, err := reg.register(factories, func(f GuardFactory) (Guard, error) {
		g, err := f(r)
		if err != nil {
			return nil, wrapNavError(CodeInvalidArgument, err)
		}
		if g == nil {
			return nil, newNavError(CodeInvalidArgument, "guard factory for %q returned nil", name)
		}
		return g, nil
	})
	return err
}

// guardsLocked snapshots the guard instances for one segment. Called
// with the router lock held.
func (r *Router) guardsLocked(set map[string]*registry[GuardFactory, Guard], name string) []Guard {
	reg, ok := set[name]
	if !ok {
		return nil
	}
	return reg.instances()
}
