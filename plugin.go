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

// Plugin is a bundle of optional lifecycle observers. Nil hooks are
// skipped. Hooks run synchronously on the emitting goroutine, like any
// event listener.
type Plugin struct {
	OnStart             func(toState *State)
	OnStop              func(fromState *State)
	OnTransitionStart   func(toState, fromState *State)
	OnTransitionSuccess func(toState, fromState *State, opts NavigationOptions)
	OnTransitionError   func(toState, fromState *State, err error)
	OnTransitionCancel  func(toState, fromState *State)

	// Teardown runs when the router stops or is disposed, after the
	// plugin's hooks have been detached.
	Teardown func()
}

// PluginFactory builds a plugin against a specific router.
type PluginFactory func(r *Router) (Plugin, error)

// pluginEntry is a wired plugin instance: the hooks plus the
// unsubscribes detaching them from the event bus.
type pluginEntry struct {
	plugin Plugin
	unsubs []func()
}

func (p *pluginEntry) teardown() {
	for _, unsub := range p.unsubs {
		unsub()
	}
	p.unsubs = nil
	if p.plugin.Teardown != nil {
		p.plugin.Teardown()
	}
}

// UsePlugin registers plugin factories. The batch is all-or-nothing:
// a failing factory rejects the whole batch and detaches any hooks the
// batch already wired.
func (r *Router) UsePlugin(factories ...PluginFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lc.current() == StatusDisposed {
		return newNavError(CodeDisposed, "router is disposed")
	}

	var wired []*pluginEntry
	_, err := r.plugins.register(factories, func(f PluginFactory) (*pluginEntry, error) {
		p, err := f(r)
		if err != nil {
			return nil, wrapNavError(CodeInvalidArgument, err)
		}
		entry, err := r.wirePlugin(p)
		if err != nil {
			return nil, err
		}
		wired = append(wired, entry)
		return entry, nil
	})
	if err != nil {
		for _, entry := range wired {
			for _, unsub := range entry.unsubs {
				unsub()
			}
		}
		return err
	}
	return nil
}

// wirePlugin subscribes the plugin's non-nil hooks to the event bus.
func (r *Router) wirePlugin(p Plugin) (*pluginEntry, error) {
	entry := &pluginEntry{plugin: p}

	type hook struct {
		event Event
		fn    Listener
	}
	var hooks []hook
	if p.OnStart != nil {
		hooks = append(hooks, hook{RouterStart, func(e EventPayload) { p.OnStart(e.ToState) }})
	}
	if p.OnStop != nil {
		hooks = append(hooks, hook{RouterStop, func(e EventPayload) { p.OnStop(e.FromState) }})
	}
	if p.OnTransitionStart != nil {
		hooks = append(hooks, hook{TransitionStart, func(e EventPayload) { p.OnTransitionStart(e.ToState, e.FromState) }})
	}
	if p.OnTransitionSuccess != nil {
		hooks = append(hooks, hook{TransitionSuccess, func(e EventPayload) { p.OnTransitionSuccess(e.ToState, e.FromState, e.Options) }})
	}
	if p.OnTransitionError != nil {
		hooks = append(hooks, hook{TransitionError, func(e EventPayload) { p.OnTransitionError(e.ToState, e.FromState, e.Err) }})
	}
	if p.OnTransitionCancel != nil {
		hooks = append(hooks, hook{TransitionCancel, func(e EventPayload) { p.OnTransitionCancel(e.ToState, e.FromState) }})
	}

	for _, h := range hooks {
		unsub, err := r.bus.add(h.event, h.fn)
		if err != nil {
			for _, u := range entry.unsubs {
				u()
			}
			return nil, err
		}
		entry.unsubs = append(entry.unsubs, unsub)
	}
	return entry, nil
}
