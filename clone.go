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
	"dario.cat/mergo"
)

// Clone builds an independent router from this one: a deep copy of the
// route tree, the same options, and the same guard, middleware, and
// plugin factories re-instantiated against the clone. The clone starts
// at Idle with no current state and no event listeners.
//
// Extra dependency maps are merged over a copy of the original's
// dependencies, later maps overriding earlier ones. Factories observe
// the merged dependencies.
func (r *Router) Clone(extraDeps ...map[string]any) (*Router, error) {
	for i, deps := range extraDeps {
		if deps == nil {
			return nil, newNavError(CodeInvalidArgument, "extra dependency map %d is nil", i)
		}
	}

	r.mu.Lock()
	if r.lc.current() == StatusDisposed {
		r.mu.Unlock()
		return nil, newNavError(CodeDisposed, "router is disposed")
	}

	clone := &Router{
		opts:             r.opts,
		tree:             r.tree.Clone(),
		lc:               newLifecycle(),
		logger:           r.logger,
		middlewares:      registry[MiddlewareFactory, Middleware]{limit: middlewareCeiling},
		activateGuards:   make(map[string]*registry[GuardFactory, Guard]),
		deactivateGuards: make(map[string]*registry[GuardFactory, Guard]),
	}
	clone.bus = newEventBus(r.opts.limits, clone.emitDiagnostic)

	middlewareFactories := r.middlewares.factories()
	pluginFactories := r.plugins.factories()
	activate := guardFactorySets(r.activateGuards)
	deactivate := guardFactorySets(r.deactivateGuards)
	r.mu.Unlock()

	r.depsMu.RLock()
	deps := make(map[string]any, len(r.deps))
	for k, v := range r.deps {
		deps[k] = v
	}
	r.depsMu.RUnlock()
	for _, extra := range extraDeps {
		if err := mergo.Merge(&deps, extra, mergo.WithOverride); err != nil {
			return nil, wrapNavError(CodeInvalidArgument, err)
		}
	}
	clone.deps = deps

	for name, factories := range activate {
		if err := clone.AddActivateGuard(name, factories...); err != nil {
			return nil, err
		}
	}
	for name, factories := range deactivate {
		if err := clone.AddDeactivateGuard(name, factories...); err != nil {
			return nil, err
		}
	}
	if err := clone.UseMiddleware(middlewareFactories...); err != nil {
		return nil, err
	}
	if err := clone.UsePlugin(pluginFactories...); err != nil {
		return nil, err
	}
	return clone, nil
}

func guardFactorySets(set map[string]*registry[GuardFactory, Guard]) map[string][]GuardFactory {
	out := make(map[string][]GuardFactory, len(set))
	for name, reg := range set {
		out[name] = reg.factories()
	}
	return out
}
