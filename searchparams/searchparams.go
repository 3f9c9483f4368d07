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

// Package searchparams parses and builds URL query strings under
// pluggable array, boolean, and null encoding strategies.
//
// The package is purely functional: Parse and Build never mutate their
// inputs and carry no state between calls. It exists as a standalone
// codec so the route matcher can treat query-string handling as a
// black box.
package searchparams

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ArrayFormat controls how multi-value parameters are encoded.
type ArrayFormat int

const (
	// ArrayNone repeats the bare key: a=1&a=2.
	ArrayNone ArrayFormat = iota

	// ArrayBrackets appends empty brackets to the key: a[]=1&a[]=2.
	ArrayBrackets

	// ArrayIndex appends the element index to the key: a[0]=1&a[1]=2.
	ArrayIndex
)

// BooleanFormat controls how boolean parameters are encoded.
type BooleanFormat int

const (
	// BooleanNone encodes booleans as plain strings: flag=true.
	// Parse keeps them as strings.
	BooleanNone BooleanFormat = iota

	// BooleanString encodes booleans as flag=true / flag=false and
	// Parse decodes those exact values back to bool.
	BooleanString

	// BooleanEmpty encodes true as a valueless key (flag) and false as
	// flag=false. Parse decodes a valueless key to true.
	BooleanEmpty
)

// NullFormat controls how nil parameter values are encoded.
type NullFormat int

const (
	// NullDefault encodes nil as a valueless key. Parse decodes a
	// valueless key to nil (unless BooleanEmpty claims it first).
	NullDefault NullFormat = iota

	// NullHidden omits nil parameters entirely.
	NullHidden

	// NullString encodes nil as key=null and Parse decodes the exact
	// value "null" back to nil.
	NullString
)

// Options selects the encoding strategies used by Parse and Build.
// The zero value matches the most common query-string conventions.
type Options struct {
	ArrayFormat   ArrayFormat
	BooleanFormat BooleanFormat
	NullFormat    NullFormat
}

// Parse decodes a query string (without the leading "?") into a map.
// Values are string, []string, bool, or nil depending on the options.
// Malformed percent escapes leave the raw text in place rather than
// failing the whole query.
func Parse(query string, o Options) map[string]any {
	params := make(map[string]any)
	if query == "" {
		return params
	}
	query = strings.TrimPrefix(query, "?")

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}

		rawKey, rawVal, hasVal := strings.Cut(pair, "=")
		key := unescape(rawKey)
		name, isArray, index := splitArrayKey(key)

		if !hasVal {
			// Valueless key: boolean true or null depending on options.
			if o.BooleanFormat == BooleanEmpty {
				setValue(params, name, true, isArray, index)
			} else {
				setValue(params, name, nil, isArray, index)
			}
			continue
		}

		val := unescape(rawVal)
		var decoded any = val
		switch {
		case o.NullFormat == NullString && val == "null":
			decoded = nil
		case o.BooleanFormat != BooleanNone && (val == "true" || val == "false"):
			decoded = val == "true"
		}
		setValue(params, name, decoded, isArray, index)
	}

	return params
}

// Build encodes a parameter map into a query string without the
// leading "?". Keys are emitted in sorted order so output is stable
// regardless of map iteration order.
func Build(params map[string]any, o Options) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, encodeValue(k, params[k], o)...)
	}
	return strings.Join(parts, "&")
}

// Keys returns the parameter names declared in a query string, in
// order of first appearance, with array suffixes stripped.
func Keys(query string) []string {
	query = strings.TrimPrefix(query, "?")
	if query == "" {
		return nil
	}

	seen := make(map[string]bool)
	var keys []string
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		rawKey, _, _ := strings.Cut(pair, "=")
		name, _, _ := splitArrayKey(unescape(rawKey))
		if !seen[name] {
			seen[name] = true
			keys = append(keys, name)
		}
	}
	return keys
}

// encodeValue encodes a single key and its value into query fragments.
func encodeValue(key string, value any, o Options) []string {
	ek := url.QueryEscape(key)

	switch v := value.(type) {
	case nil:
		switch o.NullFormat {
		case NullHidden:
			return nil
		case NullString:
			return []string{ek + "=null"}
		default:
			return []string{ek}
		}
	case bool:
		if o.BooleanFormat == BooleanEmpty {
			if v {
				return []string{ek}
			}
			return []string{ek + "=false"}
		}
		return []string{ek + "=" + strconv.FormatBool(v)}
	case []string:
		parts := make([]string, 0, len(v))
		for i, item := range v {
			switch o.ArrayFormat {
			case ArrayBrackets:
				parts = append(parts, ek+"%5B%5D="+url.QueryEscape(item))
			case ArrayIndex:
				parts = append(parts, ek+"%5B"+strconv.Itoa(i)+"%5D="+url.QueryEscape(item))
			default:
				parts = append(parts, ek+"="+url.QueryEscape(item))
			}
		}
		return parts
	default:
		return []string{ek + "=" + url.QueryEscape(toString(v))}
	}
}

// setValue stores a decoded value, promoting repeated keys to arrays.
func setValue(params map[string]any, name string, value any, isArray bool, index int) {
	existing, exists := params[name]

	if isArray {
		arr, _ := existing.([]string)
		str := toString(value)
		if index >= 0 {
			for len(arr) <= index {
				arr = append(arr, "")
			}
			arr[index] = str
		} else {
			arr = append(arr, str)
		}
		params[name] = arr
		return
	}

	if !exists {
		params[name] = value
		return
	}

	// Repeated bare key: collapse into a string array.
	switch prev := existing.(type) {
	case []string:
		params[name] = append(prev, toString(value))
	default:
		params[name] = []string{toString(prev), toString(value)}
	}
}

// splitArrayKey splits "a[]" or "a[2]" into the base name, an array
// flag, and the numeric index (-1 when absent).
func splitArrayKey(key string) (name string, isArray bool, index int) {
	open := strings.Index(key, "[")
	if open < 0 || !strings.HasSuffix(key, "]") {
		return key, false, -1
	}
	inner := key[open+1 : len(key)-1]
	if inner == "" {
		return key[:open], true, -1
	}
	if i, err := strconv.Atoi(inner); err == nil && i >= 0 {
		return key[:open], true, i
	}
	return key, false, -1
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}
