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

// Package route implements the hierarchical route tree: named, nested
// route specifications, path building and matching, and resolution of
// forward (alias) chains with an eagerly maintained cache.
//
// Route names are single dot-free segments; a route's full name is the
// dot-join of its ancestors' names, and path patterns compose by
// concatenation down the tree:
//
//	users          /users
//	users.view     /users/view/:id    → full path /users/view/:id
//
// Pattern syntax: literal segments, ":name" required parameters,
// ":name?" optional parameters, "*splat" catch-all, and a trailing
// "?q1&q2" suffix declaring query parameters recognized by the route.
//
// The tree is exclusively owned by one router configuration. Every
// mutation (Add, Remove, Update) rebuilds the forward-resolution
// cache; forward cycles are rejected at mutation time, never deferred
// to resolution.
package route
