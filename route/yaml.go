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

	"github.com/goccy/go-yaml"
)

// yamlRoute mirrors Route for declarative definitions. Function-valued
// fields (forward resolvers, encoders) cannot be expressed in YAML and
// must be attached programmatically after loading.
type yamlRoute struct {
	Name          string         `yaml:"name"`
	Path          string         `yaml:"path"`
	ForwardTo     string         `yaml:"forwardTo"`
	DefaultParams map[string]any `yaml:"defaultParams"`
	Children      []yamlRoute    `yaml:"children"`
}

// FromYAML decodes a declarative route tree:
//
//	- name: users
//	  path: /users
//	  children:
//	    - name: view
//	      path: /view/:id
//	    - name: list
//	      path: /list
//	- name: admin
//	  path: /admin
//	  forwardTo: users.list
//
// The result carries the same validation obligations as programmatic
// specs; pass it to NewTree or Tree.Add to validate.
func FromYAML(data []byte) ([]Route, error) {
	var raw []yamlRoute
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding route definitions: %w", err)
	}
	return convertYAML(raw), nil
}

func convertYAML(raw []yamlRoute) []Route {
	out := make([]Route, 0, len(raw))
	for _, yr := range raw {
		r := Route{
			Name: yr.Name,
			Path: yr.Path,
		}
		if yr.ForwardTo != "" {
			r.ForwardTo = yr.ForwardTo
		}
		if len(yr.DefaultParams) > 0 {
			r.DefaultParams = Params(yr.DefaultParams)
		}
		if len(yr.Children) > 0 {
			r.Children = convertYAML(yr.Children)
		}
		out = append(out, r)
	}
	return out
}
