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
	"reflect"
	"unsafe"

	"github.com/google/uuid"
)

// registryEntry pairs a factory with its instantiated value. The token
// is a stable identity for removal; key is the factory's function
// pointer, used only for duplicate detection.
type registryEntry[F any, I any] struct {
	token    string
	key      uintptr
	factory  F
	instance I
}

// registry is an ordered collection of factories and their instances.
// Registration is all-or-nothing per batch: if any factory fails to
// instantiate, the whole batch is discarded and the registry is left
// exactly as it was. Side effects a factory performed before failing
// are not undone; only registry entries are rolled back.
//
// Not safe for concurrent use; the owning router serializes access.
type registry[F any, I any] struct {
	entries []registryEntry[F, I]

	// limit caps the number of entries; zero means unbounded. The cap
	// is checked before any factory in a batch executes.
	limit int
}

// register instantiates and appends a batch of factories.
// instantiate returns an error for factories producing unusable
// instances (nil functions); the returned tokens parallel the batch.
func (r *registry[F, I]) register(factories []F, instantiate func(F) (I, error)) ([]string, error) {
	if len(factories) == 0 {
		return nil, nil
	}

	if r.limit > 0 && len(r.entries)+len(factories) > r.limit {
		return nil, newNavError(CodeLimitExceeded,
			"registration would exceed the limit of %d (have %d, adding %d)",
			r.limit, len(r.entries), len(factories))
	}

	seen := make(map[uintptr]bool, len(r.entries)+len(factories))
	for _, e := range r.entries {
		seen[e.key] = true
	}

	staged := make([]registryEntry[F, I], 0, len(factories))
	tokens := make([]string, 0, len(factories))
	for _, f := range factories {
		key := factoryKey(f)
		if key == 0 {
			return nil, newNavError(CodeInvalidArgument, "factory must not be nil")
		}
		if seen[key] {
			return nil, newNavError(CodeInvalidArgument, "duplicate factory registration")
		}
		seen[key] = true

		instance, err := instantiate(f)
		if err != nil {
			// Staged entries are discarded; the registry is untouched.
			return nil, err
		}

		token := uuid.NewString()
		staged = append(staged, registryEntry[F, I]{
			token:    token,
			key:      key,
			factory:  f,
			instance: instance,
		})
		tokens = append(tokens, token)
	}

	r.entries = append(r.entries, staged...)
	return tokens, nil
}

// remove deletes the entry with the given token; unknown tokens are a
// no-op, making removal idempotent.
func (r *registry[F, I]) remove(token string) {
	for i, e := range r.entries {
		if e.token == token {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

// clear drops every entry.
func (r *registry[F, I]) clear() {
	r.entries = nil
}

// instances returns the instantiated values in registration order.
func (r *registry[F, I]) instances() []I {
	out := make([]I, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.instance
	}
	return out
}

// factories returns the factories in registration order, for cloning.
func (r *registry[F, I]) factories() []F {
	out := make([]F, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.factory
	}
	return out
}

func (r *registry[F, I]) len() int {
	return len(r.entries)
}

// factoryKey derives the duplicate-detection key from the factory's
// identity. The interface data word points at the closure instance,
// so two closures built from the same literal stay distinct while the
// same value registered twice collides. Nil factories yield zero.
func factoryKey(f any) uintptr {
	v := reflect.ValueOf(f)
	if v.Kind() != reflect.Func || v.IsNil() {
		return 0
	}
	type eface struct {
		typ  unsafe.Pointer
		data unsafe.Pointer
	}
	return uintptr((*eface)(unsafe.Pointer(&f)).data)
}
