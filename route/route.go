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

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// Params holds route parameters keyed by name. Values are typically
// strings extracted from the path, but defaults and query values may
// be any scalar, []string, bool, or nil.
type Params map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty map so
// callers can mutate the result unconditionally.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Equal reports deep equality of two parameter maps.
func (p Params) Equal(other Params) bool {
	if len(p) != len(other) {
		return false
	}
	for k, v := range p {
		ov, ok := other[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// ForwardFunc computes a forward target from the parameters of the
// navigation being resolved. It must return synchronously; the result
// is resolved through the forward cache like a static target.
type ForwardFunc func(params Params) string

// EncodeFunc transforms parameters before they are substituted into a
// built path; DecodeFunc is its inverse applied after matching.
type (
	EncodeFunc func(params Params) Params
	DecodeFunc func(params Params) Params
)

// Route is a single route specification. Name is one dot-free segment,
// unique within its parent; the full hierarchical name is derived by
// the tree.
type Route struct {
	// Name is the route's own segment of the hierarchical name.
	Name string

	// Path is the pattern the route contributes to the composed path.
	// May be empty for pure grouping nodes.
	Path string

	// ForwardTo aliases this route to another. Accepts a full route
	// name (string) or a ForwardFunc / func(Params) string computing
	// one. Any other value is rejected at registration with
	// ErrForwardNotSync, regardless of validation settings.
	ForwardTo any

	// DefaultParams supply values for parameters omitted by callers.
	DefaultParams Params

	// EncodeParams and DecodeParams translate between caller-facing
	// and path-facing parameter representations.
	EncodeParams EncodeFunc
	DecodeParams DecodeFunc

	// Children are nested route specifications.
	Children []Route
}

// forwardTarget normalizes ForwardTo into its static name and resolver
// function forms. Exactly one of the returns is non-zero for a
// forwarding route; both are zero when the route does not forward.
func (r Route) forwardTarget() (name string, fn ForwardFunc, err error) {
	switch v := r.ForwardTo.(type) {
	case nil:
		return "", nil, nil
	case string:
		if v == "" {
			return "", nil, fmt.Errorf("%w: route %q has an empty forward target", ErrForwardUnknownTarget, r.Name)
		}
		return v, nil, nil
	case ForwardFunc:
		return "", v, nil
	case func(Params) string:
		return "", ForwardFunc(v), nil
	default:
		return "", nil, fmt.Errorf("%w: route %q forwards to %T", ErrForwardNotSync, r.Name, r.ForwardTo)
	}
}

// validate checks the spec's own shape; tree-level invariants
// (duplicates, cycles) are checked by the tree.
func (r Route) validate() error {
	if r.Name == "" || strings.Contains(r.Name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, r.Name)
	}
	if _, _, err := r.forwardTarget(); err != nil {
		return err
	}
	return nil
}

// paramString renders a parameter value for use in a path segment.
func paramString(v any) string {
	return cast.ToString(v)
}
