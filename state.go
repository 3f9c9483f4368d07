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

import "github.com/greydragon888/real-router-sub007/route"

// notFoundName is the reserved route name for unmatched paths when
// AllowNotFound is enabled.
const notFoundName = "@@router/UNKNOWN_ROUTE"

// NavigationOptions modify how a single navigation is performed.
type NavigationOptions struct {
	// Replace indicates the navigation replaces the current entry in
	// whatever history the consumer maintains. The engine records it
	// for observers but attaches no behavior.
	Replace bool

	// Reload re-runs the full pipeline even when the target equals the
	// current state.
	Reload bool

	// Force skips the same-state rejection like Reload and is recorded
	// separately for observers.
	Force bool

	// SkipTransition installs the new state without running guards or
	// middleware. Used by consumers restoring a known-good state.
	SkipTransition bool
}

// NavigateOption mutates NavigationOptions, in the style of functional
// options.
type NavigateOption func(*NavigationOptions)

// WithReplace marks the navigation as replacing the current history entry.
func WithReplace() NavigateOption {
	return func(o *NavigationOptions) { o.Replace = true }
}

// WithReload re-runs the pipeline even for a same-state navigation.
func WithReload() NavigateOption {
	return func(o *NavigationOptions) { o.Reload = true }
}

// WithForce bypasses the same-state rejection.
func WithForce() NavigateOption {
	return func(o *NavigationOptions) { o.Force = true }
}

// WithSkipTransition installs the target state without running guards
// or middleware.
func WithSkipTransition() NavigateOption {
	return func(o *NavigationOptions) { o.SkipTransition = true }
}

// StateMeta carries bookkeeping attached to a navigation state.
type StateMeta struct {
	// ID is the monotonically increasing transition id, assigned when
	// the state is installed as current.
	ID int64

	// Params records, per route node, which parameters that node
	// contributed and from where ("url" or "query").
	Params map[string]map[string]string

	// Options are the navigation options that produced this state.
	Options NavigationOptions

	// Redirected is true when the state was produced by a guard or
	// middleware redirect rather than the original navigation target.
	Redirected bool
}

// State is an immutable navigation state. A new state is always a new
// value; the engine never patches an installed state.
type State struct {
	Name   string
	Params route.Params
	Path   string
	Meta   *StateMeta
}

// Clone returns a deep-enough copy: params and meta are copied, so
// mutating the clone cannot affect the original.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{
		Name:   s.Name,
		Params: s.Params.Clone(),
		Path:   s.Path,
	}
	if s.Meta != nil {
		meta := *s.Meta
		meta.Params = make(map[string]map[string]string, len(s.Meta.Params))
		for node, params := range s.Meta.Params {
			inner := make(map[string]string, len(params))
			for k, v := range params {
				inner[k] = v
			}
			meta.Params[node] = inner
		}
		out.Meta = &meta
	}
	return out
}

// IsNotFound reports whether the state represents an unmatched path.
func (s *State) IsNotFound() bool {
	return s != nil && s.Name == notFoundName
}

// AreStatesEqual reports whether two states address the same route
// with equal parameters. Meta is ignored: two states produced by
// different transitions are equal if name and params agree.
func AreStatesEqual(a, b *State) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name == b.Name && a.Params.Equal(b.Params)
}

// SubscribeState is the simplified payload delivered to Subscribe
// callbacks on successful transitions.
type SubscribeState struct {
	Route         *State
	PreviousRoute *State
}
