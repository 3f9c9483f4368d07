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

	"github.com/greydragon888/real-router-sub007/searchparams"
)

// TrailingSlashMode controls how trailing slashes are treated when
// building and matching paths.
type TrailingSlashMode string

const (
	// TrailingSlashNever strips trailing slashes.
	TrailingSlashNever TrailingSlashMode = "never"

	// TrailingSlashAlways appends a trailing slash.
	TrailingSlashAlways TrailingSlashMode = "always"

	// TrailingSlashStrict requires the path to match the pattern's own
	// trailing slash exactly.
	TrailingSlashStrict TrailingSlashMode = "strict"
)

// QueryParamsMode controls the treatment of parameters not declared by
// any route in the matched chain.
type QueryParamsMode string

const (
	// QueryParamsDefault ignores undeclared parameters.
	QueryParamsDefault QueryParamsMode = "default"

	// QueryParamsStrict rejects undeclared parameters: building fails
	// and matching reports not-found.
	QueryParamsStrict QueryParamsMode = "strict"

	// QueryParamsLoose passes undeclared parameters through: building
	// appends them to the query string and matching merges them into
	// the extracted params.
	QueryParamsLoose QueryParamsMode = "loose"
)

// URLParamsEncoding selects the escaping applied to parameter values
// substituted into path segments.
type URLParamsEncoding string

const (
	// EncodingDefault percent-escapes values as path segments.
	EncodingDefault URLParamsEncoding = "default"

	// EncodingURIComponent percent-escapes values strictly, including
	// characters legal in path segments.
	EncodingURIComponent URLParamsEncoding = "uriComponent"

	// EncodingURI percent-escapes values as full URIs, leaving
	// sub-delimiters intact.
	EncodingURI URLParamsEncoding = "uri"

	// EncodingNone performs no escaping.
	EncodingNone URLParamsEncoding = "none"
)

// MatchOptions configures path building and matching for a Tree.
// The zero value selects never-trailing-slash, case-insensitive
// matching, default query-params mode, and default encoding.
type MatchOptions struct {
	TrailingSlash     TrailingSlashMode
	CaseSensitive     bool
	QueryParamsMode   QueryParamsMode
	URLParamsEncoding URLParamsEncoding
	QueryParams       searchparams.Options

	// NoValidate skips name and pattern validation on registration.
	// Forward targets are still type-checked: a non-synchronous
	// ForwardTo is rejected even here.
	NoValidate bool
}

// normalize fills zero-valued fields with their documented defaults.
func (o MatchOptions) normalize() MatchOptions {
	if o.TrailingSlash == "" {
		o.TrailingSlash = TrailingSlashNever
	}
	if o.QueryParamsMode == "" {
		o.QueryParamsMode = QueryParamsDefault
	}
	if o.URLParamsEncoding == "" {
		o.URLParamsEncoding = EncodingDefault
	}
	return o
}

// Validate rejects unknown enum values. Called once at tree
// construction so later operations can trust the options.
func (o MatchOptions) Validate() error {
	switch o.TrailingSlash {
	case "", TrailingSlashNever, TrailingSlashAlways, TrailingSlashStrict:
	default:
		return fmt.Errorf("%w: trailingSlash %q", ErrInvalidOptions, o.TrailingSlash)
	}
	switch o.QueryParamsMode {
	case "", QueryParamsDefault, QueryParamsStrict, QueryParamsLoose:
	default:
		return fmt.Errorf("%w: queryParamsMode %q", ErrInvalidOptions, o.QueryParamsMode)
	}
	switch o.URLParamsEncoding {
	case "", EncodingDefault, EncodingURIComponent, EncodingURI, EncodingNone:
	default:
		return fmt.Errorf("%w: urlParamsEncoding %q", ErrInvalidOptions, o.URLParamsEncoding)
	}
	return nil
}
