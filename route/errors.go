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

import "errors"

var (
	// ErrNotFound indicates that no route matches the given name or path.
	ErrNotFound = errors.New("route not found")

	// ErrInvalidName indicates a route name that is empty or contains dots.
	ErrInvalidName = errors.New("route name must be a non-empty segment without dots")

	// ErrDuplicateName indicates two sibling routes sharing a name.
	ErrDuplicateName = errors.New("duplicate route name within parent")

	// ErrInvalidPattern indicates a malformed path pattern.
	ErrInvalidPattern = errors.New("invalid path pattern")

	// ErrMissingParam indicates a required path parameter was not supplied.
	ErrMissingParam = errors.New("missing required parameter")

	// ErrUnknownParam indicates a parameter not declared by the route
	// was supplied while the tree is in strict query-params mode.
	ErrUnknownParam = errors.New("unknown parameter in strict mode")

	// ErrForwardCycle indicates a forwardTo chain that revisits a route.
	ErrForwardCycle = errors.New("forward chain contains a cycle")

	// ErrForwardNotSync indicates a forwardTo value that is neither a
	// route name nor a synchronous resolver function. Deferred
	// resolution cannot be reconciled with cache invalidation, so this
	// is rejected eagerly and unconditionally.
	ErrForwardNotSync = errors.New("forwardTo must be a route name or a synchronous resolver")

	// ErrForwardUnknownTarget indicates a forwardTo naming a route that
	// does not exist in the tree.
	ErrForwardUnknownTarget = errors.New("forward target does not exist")

	// ErrInvalidOptions indicates an unknown match-option enum value.
	ErrInvalidOptions = errors.New("invalid match options")
)
