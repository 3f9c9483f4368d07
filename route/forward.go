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

package route

import "fmt"

// rebuildForward recomputes the forward-resolution cache by following
// static forwardTo chains to their fixed point. It runs after every
// tree mutation, so resolution never observes a stale entry.
//
// Chains are walked eagerly and cycles are a configuration error.
// A chain ending at a function-valued forward stops there: the
// function's result is resolved at navigation time, against the same
// cache. A chain naming a missing route simply gets no cache entry;
// the dangling link surfaces at resolution time, which allows removing
// and re-adding routes in any order.
func (t *Tree) rebuildForward() error {
	t.forward = make(map[string]string)

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)

	var resolve func(name string) (string, error)
	resolve = func(name string) (string, error) {
		if state[name] == visiting {
			return "", fmt.Errorf("%w: at route %q", ErrForwardCycle, name)
		}
		if terminal, ok := t.forward[name]; ok {
			return terminal, nil
		}

		n, ok := t.byName[name]
		if !ok || (n.forwardName == "" && n.forwardFn == nil) {
			// Terminal: unknown targets terminate too (dangling link).
			return name, nil
		}
		if n.forwardFn != nil {
			// Runtime-resolved link; static chain stops here.
			return name, nil
		}

		state[name] = visiting
		terminal, err := resolve(n.forwardName)
		state[name] = done
		if err != nil {
			return "", err
		}
		t.forward[name] = terminal
		return terminal, nil
	}

	for name := range t.byName {
		if _, err := resolve(name); err != nil {
			return err
		}
	}
	return nil
}

// ResolveForward follows forward links from name to the terminal route
// name. Static segments of the chain come straight from the cache;
// function-valued forwards are invoked with the navigation params and
// their result is resolved further. A chain revisiting a name or
// naming a missing route is an error.
func (t *Tree) ResolveForward(name string, params Params) (string, error) {
	if _, ok := t.byName[name]; !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	visited := map[string]bool{name: true}
	cur := name
	for {
		if terminal, ok := t.forward[cur]; ok {
			if visited[terminal] && terminal != cur {
				return "", fmt.Errorf("%w: at route %q", ErrForwardCycle, terminal)
			}
			visited[terminal] = true
			cur = terminal
		}

		n, ok := t.byName[cur]
		if !ok {
			return "", fmt.Errorf("%w: %q (forwarded from %q)", ErrForwardUnknownTarget, cur, name)
		}
		if n.forwardFn == nil {
			if n.forwardName != "" {
				// Static link with no cache entry: the target vanished.
				return "", fmt.Errorf("%w: %q (forwarded from %q)", ErrForwardUnknownTarget, n.forwardName, name)
			}
			return cur, nil
		}

		next := n.forwardFn(params)
		if next == "" {
			return "", fmt.Errorf("%w: resolver on %q returned an empty name", ErrForwardUnknownTarget, cur)
		}
		if visited[next] {
			return "", fmt.Errorf("%w: at route %q", ErrForwardCycle, next)
		}
		visited[next] = true
		cur = next
	}
}
