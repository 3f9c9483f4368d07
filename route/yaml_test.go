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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromYAML(t *testing.T) {
	t.Parallel()

	routes, err := FromYAML([]byte(`
- name: users
  path: /users
  defaultParams:
    sort: name
  children:
    - name: view
      path: /:id
    - name: list
      path: /list
- name: admin
  path: /admin
  forwardTo: users.list
`))
	require.NoError(t, err)
	require.Len(t, routes, 2)

	assert.Equal(t, "users", routes[0].Name)
	assert.Equal(t, Params{"sort": "name"}, routes[0].DefaultParams)
	require.Len(t, routes[0].Children, 2)
	assert.Equal(t, "view", routes[0].Children[0].Name)
	assert.Equal(t, "users.list", routes[1].ForwardTo)

	// Loaded definitions go through the same validation as programmatic
	// ones.
	tree, err := NewTree(routes, MatchOptions{})
	require.NoError(t, err)

	terminal, err := tree.ResolveForward("admin", nil)
	require.NoError(t, err)
	assert.Equal(t, "users.list", terminal)

	m, err := tree.Match("/users/7")
	require.NoError(t, err)
	assert.Equal(t, "users.view", m.Name)
}

func TestFromYAMLInvalid(t *testing.T) {
	t.Parallel()

	_, err := FromYAML([]byte("{not valid yaml"))
	require.Error(t, err)

	// Structural validation happens at tree construction, not decode.
	// A dotted top-level name addresses an existing ancestor, so with no
	// "a" registered the attach fails.
	routes, err := FromYAML([]byte("- name: a.b\n  path: /x\n"))
	require.NoError(t, err)
	_, err = NewTree(routes, MatchOptions{})
	require.ErrorIs(t, err, ErrNotFound)

	// A dotted name nested under children is plainly invalid.
	routes, err = FromYAML([]byte("- name: a\n  path: /a\n  children:\n    - name: b.c\n      path: /x\n"))
	require.NoError(t, err)
	_, err = NewTree(routes, MatchOptions{})
	require.ErrorIs(t, err, ErrInvalidName)
}
