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
	"net/url"
	"sort"
	"strings"

	"github.com/greydragon888/real-router-sub007/searchparams"
)

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenParam
	tokenOptionalParam
	tokenSplat
)

// token is one path segment of a pattern.
type token struct {
	kind tokenKind
	// value is the literal text for tokenLiteral, the parameter name
	// otherwise.
	value string
}

// pattern is a parsed path pattern for a single route node. Patterns
// compose by concatenation down the tree, so a pattern only describes
// the segments the node itself contributes.
type pattern struct {
	raw           string
	tokens        []token
	queryParams   []string
	literalCount  int
	trailingSlash bool
}

// candidate is one way a pattern can consume a prefix of the remaining
// path segments. Optional parameters make the consumption ambiguous,
// so matching produces every viable candidate and lets the tree pick.
type candidate struct {
	consumed int
	params   Params
}

// parsePattern parses a route path pattern. An empty pattern is legal
// and contributes no segments (the node groups children only).
func parsePattern(path string) (*pattern, error) {
	p := &pattern{raw: path}

	pathPart, queryPart, hasQuery := splitQueryDeclarations(path)
	if hasQuery {
		p.queryParams = searchparams.Keys(queryPart)
	}

	if strings.HasSuffix(pathPart, "/") && len(pathPart) > 1 {
		p.trailingSlash = true
	}

	trimmed := strings.Trim(pathPart, "/")
	if trimmed == "" {
		return p, nil
	}

	segments := strings.Split(trimmed, "/")
	for i, seg := range segments {
		switch {
		case seg == "":
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPattern, path)
		case strings.HasPrefix(seg, "*"):
			name := seg[1:]
			if name == "" {
				return nil, fmt.Errorf("%w: unnamed splat in %q", ErrInvalidPattern, path)
			}
			if i != len(segments)-1 {
				return nil, fmt.Errorf("%w: splat must be the last segment in %q", ErrInvalidPattern, path)
			}
			p.tokens = append(p.tokens, token{kind: tokenSplat, value: name})
		case strings.HasPrefix(seg, ":"):
			name := strings.TrimPrefix(seg, ":")
			kind := tokenParam
			if strings.HasSuffix(name, "?") {
				kind = tokenOptionalParam
				name = strings.TrimSuffix(name, "?")
			}
			if name == "" {
				return nil, fmt.Errorf("%w: unnamed parameter in %q", ErrInvalidPattern, path)
			}
			p.tokens = append(p.tokens, token{kind: kind, value: name})
		default:
			p.tokens = append(p.tokens, token{kind: tokenLiteral, value: seg})
			p.literalCount++
		}
	}

	return p, nil
}

// splitQueryDeclarations separates the path part of a pattern from its
// trailing query-parameter declarations. A "?" immediately terminating
// a ":name" parameter is the optional marker and belongs to the path
// part; the first "?" anywhere else starts the declaration list, so
// "/files/:name?" declares an optional param and no query params while
// "/files/:name??sort" declares both.
func splitQueryDeclarations(path string) (string, string, bool) {
	inParam := false
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '/':
			inParam = false
		case ':':
			inParam = true
		case '?':
			if inParam && path[i-1] != ':' {
				// Optional marker: the param name ends here.
				inParam = false
				continue
			}
			return path[:i], path[i+1:], true
		}
	}
	return path, "", false
}

// paramNames returns the names of all path parameters in the pattern.
func (p *pattern) paramNames() []string {
	var names []string
	for _, tok := range p.tokens {
		if tok.kind != tokenLiteral {
			names = append(names, tok.value)
		}
	}
	return names
}

// matchPrefix returns every candidate consumption of a prefix of segs.
// Candidates are ordered longest-consumption first so the tree's DFS
// prefers the most specific interpretation.
func (p *pattern) matchPrefix(segs []string, caseSensitive bool, enc URLParamsEncoding) []candidate {
	cands := matchTokens(p.tokens, segs, caseSensitive, enc)
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].consumed > cands[j].consumed
	})
	return cands
}

func matchTokens(tokens []token, segs []string, caseSensitive bool, enc URLParamsEncoding) []candidate {
	if len(tokens) == 0 {
		return []candidate{{consumed: 0, params: Params{}}}
	}

	tok := tokens[0]
	rest := tokens[1:]

	switch tok.kind {
	case tokenLiteral:
		if len(segs) == 0 || !segmentEqual(tok.value, segs[0], caseSensitive) {
			return nil
		}
		return extend(matchTokens(rest, segs[1:], caseSensitive, enc), 1, "", "")

	case tokenParam:
		if len(segs) == 0 || segs[0] == "" {
			return nil
		}
		return extend(matchTokens(rest, segs[1:], caseSensitive, enc), 1, tok.value, decodeSegment(segs[0], enc))

	case tokenOptionalParam:
		// Both branches are viable; matchPrefix sorts longest first so
		// consumption wins when both fit.
		out := matchTokens(rest, segs, caseSensitive, enc)
		if len(segs) > 0 && segs[0] != "" {
			out = append(out, extend(matchTokens(rest, segs[1:], caseSensitive, enc), 1, tok.value, decodeSegment(segs[0], enc))...)
		}
		return out

	case tokenSplat:
		// Consumes every remaining segment, raw.
		value := strings.Join(segs, "/")
		return []candidate{{consumed: len(segs), params: Params{tok.value: value}}}
	}

	return nil
}

// extend shifts candidate consumption by n and optionally binds a
// parameter, returning nil when the tail produced no candidates.
func extend(cands []candidate, n int, name, value string) []candidate {
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		params := c.params
		if name != "" {
			params = params.Clone()
			params[name] = value
		}
		out = append(out, candidate{consumed: c.consumed + n, params: params})
	}
	return out
}

func segmentEqual(a, b string, caseSensitive bool) bool {
	if caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

// build substitutes params into the pattern's tokens, returning the
// produced segments and the set of parameter names consumed.
func (p *pattern) build(params Params, enc URLParamsEncoding) ([]string, map[string]bool, error) {
	segments := make([]string, 0, len(p.tokens))
	consumed := make(map[string]bool)

	for _, tok := range p.tokens {
		switch tok.kind {
		case tokenLiteral:
			segments = append(segments, tok.value)
		case tokenParam:
			val, ok := params[tok.value]
			if !ok || val == nil {
				return nil, nil, fmt.Errorf("%w: %q", ErrMissingParam, tok.value)
			}
			segments = append(segments, encodeSegment(paramString(val), enc))
			consumed[tok.value] = true
		case tokenOptionalParam:
			val, ok := params[tok.value]
			if !ok || val == nil {
				continue
			}
			segments = append(segments, encodeSegment(paramString(val), enc))
			consumed[tok.value] = true
		case tokenSplat:
			val, ok := params[tok.value]
			if !ok || val == nil {
				continue
			}
			// Splat values may span several segments; escape each one.
			for _, part := range strings.Split(paramString(val), "/") {
				segments = append(segments, encodeSegment(part, enc))
			}
			consumed[tok.value] = true
		}
	}

	return segments, consumed, nil
}

func encodeSegment(value string, enc URLParamsEncoding) string {
	switch enc {
	case EncodingNone:
		return value
	case EncodingURIComponent:
		return url.QueryEscape(value)
	default: // EncodingDefault, EncodingURI
		return url.PathEscape(value)
	}
}

func decodeSegment(value string, enc URLParamsEncoding) string {
	if enc == EncodingNone {
		return value
	}
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}
