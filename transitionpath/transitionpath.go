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

// Package transitionpath computes which route nodes a transition
// between two navigation states activates, deactivates, or leaves
// untouched. The result is ephemeral: it is derived fresh for every
// transition and never cached.
package transitionpath

import (
	"reflect"
	"strings"

	"github.com/greydragon888/real-router-sub007/route"
)

// Fragment is the slice of a navigation state the calculator needs:
// the full route name, the extracted params, and the per-node
// parameter-source metadata produced by the route matcher.
type Fragment struct {
	Name       string
	Params     route.Params
	MetaParams map[string]map[string]string
}

// Path lists the node ids involved in a transition. Node ids are
// dot-joined name prefixes ("users", "users.view"). ToDeactivate is
// ordered most specific first, ToActivate least specific first, which
// is the order guards run in.
type Path struct {
	Intersection string
	ToDeactivate []string
	ToActivate   []string
}

// Compute derives the transition path from one state to another.
// A nil from denotes initial navigation: everything activates and the
// intersection is empty. A node survives the transition only if its
// name segment and every parameter relevant to it (per the fragment
// metadata) are unchanged; a parameter change re-activates the node
// and everything below it.
func Compute(to, from *Fragment) Path {
	toIDs := nodeIDs(to.Name)

	if from == nil {
		return Path{ToActivate: toIDs}
	}

	fromIDs := nodeIDs(from.Name)

	shared := 0
	for shared < len(toIDs) && shared < len(fromIDs) {
		id := toIDs[shared]
		if id != fromIDs[shared] || !nodeParamsEqual(id, to, from) {
			break
		}
		shared++
	}

	intersection := ""
	if shared > 0 {
		intersection = toIDs[shared-1]
	}

	deactivate := make([]string, 0, len(fromIDs)-shared)
	for i := len(fromIDs) - 1; i >= shared; i-- {
		deactivate = append(deactivate, fromIDs[i])
	}

	return Path{
		Intersection: intersection,
		ToDeactivate: deactivate,
		ToActivate:   toIDs[shared:],
	}
}

// ShouldUpdate reports whether a node is affected by the transition,
// either by activation or because an ancestor re-activated.
func (p Path) ShouldUpdate(nodeID string) bool {
	for _, id := range p.ToActivate {
		if id == nodeID || strings.HasPrefix(nodeID, id+".") {
			return true
		}
	}
	return false
}

// nodeIDs expands "a.b.c" into ["a", "a.b", "a.b.c"].
func nodeIDs(name string) []string {
	if name == "" {
		return nil
	}
	segments := strings.Split(name, ".")
	out := make([]string, len(segments))
	for i := range segments {
		out[i] = strings.Join(segments[:i+1], ".")
	}
	return out
}

// nodeParamsEqual compares the parameters relevant to one node in both
// states. Relevance comes from the fragments' metadata; a parameter
// listed by either side must agree in both parameter maps.
func nodeParamsEqual(id string, to, from *Fragment) bool {
	relevant := make(map[string]bool)
	for name := range to.MetaParams[id] {
		relevant[name] = true
	}
	for name := range from.MetaParams[id] {
		relevant[name] = true
	}

	for name := range relevant {
		if !reflect.DeepEqual(to.Params[name], from.Params[name]) {
			return false
		}
	}
	return true
}
