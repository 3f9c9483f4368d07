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

// Package router is a hierarchical navigation engine. It resolves
// paths against a tree of named routes, computes the difference
// between navigation states, and drives transitions through a
// cancellable pipeline of guards and middleware.
//
// The engine is UI and history agnostic: it computes and announces
// transitions, and consumers decide what activation means (rendering,
// data loading, focus management).
//
// # Quick start
//
//	r := router.MustNew([]route.Route{
//	    {Name: "home", Path: "/"},
//	    {Name: "users", Path: "/users", Children: []route.Route{
//	        {Name: "view", Path: "/:id"},
//	    }},
//	}, router.WithDefaultRoute("home", nil))
//
//	if err := r.Start(""); err != nil {
//	    log.Fatal(err)
//	}
//
//	t := r.Navigate("users.view", route.Params{"id": "42"})
//	if err := t.Wait(); err != nil {
//	    log.Println("navigation failed:", err)
//	}
//
// # Transitions
//
// Navigate returns a *Transition immediately; guards and middleware
// run on a dedicated goroutine. A newer navigation cancels the older
// in-flight one, and Cancel aborts cooperatively. A cancelled pipeline
// never alters the current state.
//
// # Events
//
// AddEventListener observes the router's lifecycle (RouterStart,
// TransitionSuccess, ...). Subscribe is the common case: it delivers
// the new and previous state on every successful transition.
//
// # Errors
//
// Every failure carries a stable code retrievable with CodeOf.
// Match on codes, not on message text.
package router
