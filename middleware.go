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

// middlewareCeiling is the hard cap on registered middleware. The cap
// is checked before any factory in a batch executes, so a rejected
// batch leaves the registration count untouched.
const middlewareCeiling = 50

// Middleware observes or rewrites the transition after all guards have
// passed. Returning a non-nil state with the same route name replaces
// the pending target; a *Redirect error restarts the pipeline; any
// other error aborts the transition.
type Middleware func(ctx context.Context, to, from *State) (*State, error)

// MiddlewareFactory builds a middleware against a specific router.
type MiddlewareFactory func(r *Router) (Middleware, error)

// UseMiddleware registers middleware factories. The batch is
// all-or-nothing: a failing factory, a duplicate, or the registration
// ceiling rejects the entire batch without registering anything.
// Side effects of factories that already ran are not undone.
func (r *Router) UseMiddleware(factories ...MiddlewareFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lc.current() == StatusDisposed {
		return newNavError(CodeDisposed, "router is disposed")
	}

	_, err := r.middlewares.register(factories, func(f MiddlewareFactory) (Middleware, error) {
		m, err := f(r)
		if err != nil {
			return nil, wrapNavError(CodeInvalidArgument, err)
		}
		if m == nil {
			return nil, newNavError(CodeInvalidArgument, "middleware factory returned nil")
		}
		return m, nil
	})
	if err != nil && CodeOf(err) == CodeLimitExceeded {
		r.emitDiagnostic(DiagnosticEvent{
			Kind:    DiagMiddlewareCeiling,
			Message: "middleware registration ceiling reached",
			Fields:  map[string]any{"limit": middlewareCeiling, "registered": r.middlewares.len()},
		})
	}
	return err
}

// MiddlewareCount returns the number of registered middleware.
func (r *Router) MiddlewareCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.middlewares.len()
}

// ClearMiddleware removes every registered middleware.
func (r *Router) ClearMiddleware() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares.clear()
}
