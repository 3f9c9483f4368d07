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

package searchparams

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseBasic tests plain key=value decoding
func TestParseBasic(t *testing.T) {
	t.Parallel()

	got := Parse("a=1&b=two&c=hello%20world", Options{})
	assert.Equal(t, map[string]any{"a": "1", "b": "two", "c": "hello world"}, got)
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Parse("", Options{}))
	assert.Empty(t, Parse("?", Options{}))
}

// TestParseRepeatedKeys tests promotion of repeated bare keys to arrays
func TestParseRepeatedKeys(t *testing.T) {
	t.Parallel()

	got := Parse("a=1&a=2&a=3", Options{})
	assert.Equal(t, map[string]any{"a": []string{"1", "2", "3"}}, got)
}

func TestParseArrayFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  map[string]any
	}{
		{"brackets", "a[]=1&a[]=2", map[string]any{"a": []string{"1", "2"}}},
		{"indexed", "a[1]=2&a[0]=1", map[string]any{"a": []string{"1", "2"}}},
		{"indexed with gap", "a[2]=x", map[string]any{"a": []string{"", "", "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Parse(tt.query, Options{}))
		})
	}
}

func TestParseBooleanFormats(t *testing.T) {
	t.Parallel()

	// BooleanNone keeps the raw strings.
	got := Parse("a=true&b=false", Options{})
	assert.Equal(t, map[string]any{"a": "true", "b": "false"}, got)

	// BooleanString decodes the exact literals.
	got = Parse("a=true&b=false&c=truthy", Options{BooleanFormat: BooleanString})
	assert.Equal(t, map[string]any{"a": true, "b": false, "c": "truthy"}, got)

	// BooleanEmpty decodes a valueless key to true.
	got = Parse("flag&b=false", Options{BooleanFormat: BooleanEmpty})
	assert.Equal(t, map[string]any{"flag": true, "b": false}, got)
}

func TestParseNullFormats(t *testing.T) {
	t.Parallel()

	// Default: valueless key is nil.
	got := Parse("a&b=1", Options{})
	assert.Equal(t, map[string]any{"a": nil, "b": "1"}, got)

	// NullString decodes the literal "null".
	got = Parse("a=null", Options{NullFormat: NullString})
	assert.Equal(t, map[string]any{"a": nil}, got)
}

// TestBuildStableOrder verifies output ordering does not depend on map
// iteration order
func TestBuildStableOrder(t *testing.T) {
	t.Parallel()

	params := map[string]any{"zebra": "1", "alpha": "2", "mid": "3"}
	for range 20 {
		assert.Equal(t, "alpha=2&mid=3&zebra=1", Build(params, Options{}))
	}
}

func TestBuildArrayFormats(t *testing.T) {
	t.Parallel()

	params := map[string]any{"a": []string{"1", "2"}}

	assert.Equal(t, "a=1&a=2", Build(params, Options{ArrayFormat: ArrayNone}))
	assert.Equal(t, "a%5B%5D=1&a%5B%5D=2", Build(params, Options{ArrayFormat: ArrayBrackets}))
	assert.Equal(t, "a%5B0%5D=1&a%5B1%5D=2", Build(params, Options{ArrayFormat: ArrayIndex}))
}

func TestBuildBooleanAndNull(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "flag=true", Build(map[string]any{"flag": true}, Options{}))
	assert.Equal(t, "flag", Build(map[string]any{"flag": true}, Options{BooleanFormat: BooleanEmpty}))
	assert.Equal(t, "flag=false", Build(map[string]any{"flag": false}, Options{BooleanFormat: BooleanEmpty}))

	assert.Equal(t, "a", Build(map[string]any{"a": nil}, Options{}))
	assert.Equal(t, "", Build(map[string]any{"a": nil}, Options{NullFormat: NullHidden}))
	assert.Equal(t, "a=null", Build(map[string]any{"a": nil}, Options{NullFormat: NullString}))
}

func TestBuildScalarCoercion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "n=42&pi=3.14", Build(map[string]any{"n": 42, "pi": 3.14}, Options{}))
}

// TestRoundTrip checks Parse(Build(x)) preserves values for the common
// encodings
func TestRoundTrip(t *testing.T) {
	t.Parallel()

	o := Options{BooleanFormat: BooleanString, ArrayFormat: ArrayBrackets}
	params := map[string]any{
		"q":    "search term",
		"page": "2",
		"tags": []string{"go", "router"},
		"full": true,
	}
	assert.Equal(t, params, Parse(Build(params, o), o))
}

func TestKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b"}, Keys("a=1&b=2&a=3"))
	assert.Equal(t, []string{"tags", "q"}, Keys("tags[]=x&tags[0]=y&q"))
	assert.Nil(t, Keys(""))
}
