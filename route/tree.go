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
	"sort"
	"strings"

	"dario.cat/mergo"

	"github.com/greydragon888/real-router-sub007/searchparams"
)

// node is one route in the tree. Children are kept sorted by
// specificity (literal segment count descending, then registration
// order) so the matcher's first full match is the winning candidate.
type node struct {
	spec     Route // Children field is not used on nodes
	pat      *pattern
	fullName string
	parent   *node
	children []*node
	seq      int

	forwardName string
	forwardFn   ForwardFunc
}

// Match is the result of matching a path against the tree.
type Match struct {
	// Name is the full dot-joined name of the matched route.
	Name string

	// Params are the extracted path and query parameters.
	Params Params

	// MetaParams records, per route node in the matched chain, which
	// parameters that node contributed and from where ("url" or
	// "query"). The transition-path calculator uses it to decide which
	// nodes a parameter change invalidates.
	MetaParams map[string]map[string]string
}

// Tree owns all route specifications for one router configuration.
// It is not safe for concurrent mutation; the owning router serializes
// access.
type Tree struct {
	root    *node
	byName  map[string]*node
	forward map[string]string // full name -> terminal name, static chains only
	opts    MatchOptions
	seq     int
}

// NewTree builds a route tree from top-level specifications.
// Specifications are validated eagerly: malformed names or patterns,
// duplicate siblings, non-synchronous forwards, and forward cycles are
// all construction errors.
func NewTree(routes []Route, opts MatchOptions) (*Tree, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	t := &Tree{
		root:    &node{},
		byName:  make(map[string]*node),
		forward: make(map[string]string),
		opts:    opts.normalize(),
	}
	if err := t.Add(routes...); err != nil {
		return nil, err
	}
	return t, nil
}

// Options returns the tree's match options.
func (t *Tree) Options() MatchOptions {
	return t.opts
}

// Add registers route specifications. A top-level Name may be dotted
// ("users.view") to attach under an existing ancestor; Children names
// must be plain segments. The forward cache is rebuilt after the whole
// batch so later entries may be targets of earlier ones. The batch is
// all-or-nothing: a rejected spec or a forward cycle detaches every
// route the batch attached.
func (t *Tree) Add(routes ...Route) error {
	var added []*node
	rollback := func() {
		for i := len(added) - 1; i >= 0; i-- {
			t.detach(added[i])
		}
		t.rebuildForward() //nolint:errcheck // prior state already passed validation.
	}

	for _, r := range routes {
		parent := t.root
		spec := r
		if strings.Contains(r.Name, ".") {
			idx := strings.LastIndex(r.Name, ".")
			anc, ok := t.byName[r.Name[:idx]]
			if !ok {
				rollback()
				return fmt.Errorf("%w: parent %q", ErrNotFound, r.Name[:idx])
			}
			parent = anc
			spec.Name = r.Name[idx+1:]
		}

		fullName := spec.Name
		if parent != t.root {
			fullName = parent.fullName + "." + spec.Name
		}
		_, existed := t.byName[fullName]

		if err := t.insert(parent, spec); err != nil {
			// A failure below the top level leaves the partially built
			// subtree attached; detach it before unwinding the batch.
			if n, ok := t.byName[fullName]; ok && !existed {
				t.detach(n)
			}
			rollback()
			return err
		}
		added = append(added, t.byName[fullName])
	}

	if err := t.rebuildForward(); err != nil {
		rollback()
		return err
	}
	return nil
}

// Remove detaches a route and all its descendants. Forwards pointing
// at removed routes lose their cache entries; they fail at resolution
// time unless re-targeted.
func (t *Tree) Remove(name string) error {
	n, ok := t.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	t.detach(n)
	return t.rebuildForward()
}

// detach unlinks a node from its parent and forgets its subtree.
func (t *Tree) detach(n *node) {
	siblings := n.parent.children
	for i, child := range siblings {
		if child == n {
			n.parent.children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	t.forget(n)
}

// Update replaces a route's specification in place. The existing
// children are kept unless the new spec provides its own.
func (t *Tree) Update(name string, spec Route) error {
	n, ok := t.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if spec.Name == "" {
		spec.Name = n.spec.Name
	}
	if spec.Name != n.spec.Name {
		return fmt.Errorf("%w: update cannot rename %q to %q", ErrInvalidName, n.spec.Name, spec.Name)
	}
	if !t.opts.NoValidate {
		if err := spec.validate(); err != nil {
			return err
		}
	}

	pat, err := parsePattern(spec.Path)
	if err != nil {
		return err
	}
	fwdName, fwdFn, err := spec.forwardTarget()
	if err != nil {
		return err
	}

	children := spec.Children
	spec.Children = nil

	// Stage the mutation so a rejected update (bad child, forward
	// cycle) leaves the tree exactly as it was.
	prev := *n
	restore := func() {
		for _, child := range n.children {
			t.forget(child)
		}
		n.spec = prev.spec
		n.pat = prev.pat
		n.forwardName = prev.forwardName
		n.forwardFn = prev.forwardFn
		n.children = prev.children
		for _, child := range n.children {
			t.remember(child)
		}
		t.rebuildForward() //nolint:errcheck // prior state already passed validation.
	}

	n.spec = spec
	n.pat = pat
	n.forwardName = fwdName
	n.forwardFn = fwdFn

	if children != nil {
		for _, child := range n.children {
			t.forget(child)
		}
		n.children = nil
		for _, child := range children {
			if err := t.insert(n, child); err != nil {
				restore()
				return err
			}
		}
	}
	if err := t.rebuildForward(); err != nil {
		restore()
		return err
	}
	return nil
}

// Has reports whether a route with the given full name exists.
func (t *Tree) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Get returns a deep copy of the route specification for the given
// full name, including its children.
func (t *Tree) Get(name string) (Route, bool) {
	n, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return t.export(n), true
}

// Routes returns deep copies of all top-level route specifications.
func (t *Tree) Routes() []Route {
	out := make([]Route, 0, len(t.root.children))
	for _, child := range t.root.children {
		out = append(out, t.export(child))
	}
	return out
}

// Clone returns an independent copy of the tree. Mutations to either
// tree are invisible to the other.
func (t *Tree) Clone() *Tree {
	clone, err := NewTree(t.Routes(), t.opts)
	if err != nil {
		// The source tree already passed validation; re-validating its
		// own export cannot fail.
		panic(fmt.Sprintf("route: clone of validated tree failed: %v", err))
	}
	return clone
}

// ChainDefaults merges the DefaultParams of every route on the chain
// from the top-level ancestor down to name, deeper routes overriding
// shallower ones.
func (t *Tree) ChainDefaults(name string) (Params, bool) {
	n, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	out := Params{}
	for _, cn := range n.chain() {
		for k, v := range cn.spec.DefaultParams {
			out[k] = v
		}
	}
	return out, true
}

// insert validates and attaches one spec (and its children) under
// parent.
func (t *Tree) insert(parent *node, spec Route) error {
	if !t.opts.NoValidate {
		if err := spec.validate(); err != nil {
			return err
		}
	}
	for _, sibling := range parent.children {
		if sibling.spec.Name == spec.Name {
			return fmt.Errorf("%w: %q under %q", ErrDuplicateName, spec.Name, parent.fullName)
		}
	}

	pat, err := parsePattern(spec.Path)
	if err != nil {
		return err
	}
	fwdName, fwdFn, err := spec.forwardTarget()
	if err != nil {
		return err
	}

	children := spec.Children
	spec.Children = nil

	t.seq++
	n := &node{
		spec:        spec,
		pat:         pat,
		parent:      parent,
		seq:         t.seq,
		forwardName: fwdName,
		forwardFn:   fwdFn,
	}
	if parent == t.root {
		n.fullName = spec.Name
	} else {
		n.fullName = parent.fullName + "." + spec.Name
	}

	parent.children = append(parent.children, n)
	sort.SliceStable(parent.children, func(i, j int) bool {
		a, b := parent.children[i], parent.children[j]
		if a.pat.literalCount != b.pat.literalCount {
			return a.pat.literalCount > b.pat.literalCount
		}
		return a.seq < b.seq
	})
	t.byName[n.fullName] = n

	for _, child := range children {
		if err := t.insert(n, child); err != nil {
			return err
		}
	}
	return nil
}

// forget removes a node and its descendants from the name index.
func (t *Tree) forget(n *node) {
	delete(t.byName, n.fullName)
	for _, child := range n.children {
		t.forget(child)
	}
}

// remember re-registers a node and its descendants in the name index,
// undoing a forget.
func (t *Tree) remember(n *node) {
	t.byName[n.fullName] = n
	for _, child := range n.children {
		t.remember(child)
	}
}

// export reconstructs the public spec for a node.
func (t *Tree) export(n *node) Route {
	spec := n.spec
	spec.DefaultParams = n.spec.DefaultParams.Clone()
	if len(n.spec.DefaultParams) == 0 {
		spec.DefaultParams = nil
	}
	for _, child := range n.children {
		spec.Children = append(spec.Children, t.export(child))
	}
	return spec
}

// chain returns the nodes from the first named ancestor down to n.
func (n *node) chain() []*node {
	var out []*node
	for cur := n; cur != nil && cur.parent != nil; cur = cur.parent {
		out = append(out, cur)
	}
	for i := 0; i < len(out)/2; i++ {
		out[i], out[len(out)-1-i] = out[len(out)-1-i], out[i]
	}
	return out
}

// matchResult is one complete consumption of the path by a node chain.
type matchResult struct {
	node   *node
	frames []matchFrame
}

type matchFrame struct {
	node   *node
	params Params
}

// Match resolves a path (with optional query string) to a route. The
// most specific match wins: highest total literal segment count, then
// earliest registration.
func (t *Tree) Match(path string) (*Match, error) {
	pathPart, queryPart, _ := strings.Cut(path, "?")

	trailing := strings.HasSuffix(pathPart, "/") && len(pathPart) > 1
	trimmed := strings.Trim(pathPart, "/")
	var segs []string
	if trimmed != "" {
		segs = strings.Split(trimmed, "/")
	}

	var results []matchResult
	t.search(t.root, segs, nil, &results)
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: path %q", ErrNotFound, path)
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := chainLiterals(results[i].frames), chainLiterals(results[j].frames)
		if a != b {
			return a > b
		}
		return results[i].node.seq < results[j].node.seq
	})

	var best *matchResult
	for i := range results {
		if t.opts.TrailingSlash == TrailingSlashStrict && results[i].node.pat.trailingSlash != trailing && len(segs) > 0 {
			continue
		}
		best = &results[i]
		break
	}
	if best == nil {
		return nil, fmt.Errorf("%w: path %q", ErrNotFound, path)
	}

	return t.finalize(best, queryPart, path)
}

// search walks the tree depth-first, collecting every chain that
// consumes all remaining segments.
func (t *Tree) search(n *node, segs []string, frames []matchFrame, out *[]matchResult) {
	for _, child := range n.children {
		for _, cand := range child.pat.matchPrefix(segs, t.opts.CaseSensitive, t.opts.URLParamsEncoding) {
			next := make([]matchFrame, len(frames), len(frames)+1)
			copy(next, frames)
			next = append(next, matchFrame{node: child, params: cand.params})

			rest := segs[cand.consumed:]
			if len(rest) == 0 {
				*out = append(*out, matchResult{node: child, frames: next})
			}
			t.search(child, rest, next, out)
		}
	}
}

func chainLiterals(frames []matchFrame) int {
	total := 0
	for _, f := range frames {
		total += f.node.pat.literalCount
	}
	return total
}

// finalize merges frame params, applies query handling and per-route
// decoders, and assembles the parameter-source metadata.
func (t *Tree) finalize(res *matchResult, queryPart, path string) (*Match, error) {
	params := Params{}
	meta := make(map[string]map[string]string, len(res.frames))

	for _, f := range res.frames {
		nodeMeta := map[string]string{}
		for k, v := range f.params {
			params[k] = v
			nodeMeta[k] = "url"
		}
		meta[f.node.fullName] = nodeMeta
	}

	query := searchparams.Parse(queryPart, t.opts.QueryParams)
	declared := make(map[string]*node)
	for _, f := range res.frames {
		for _, q := range f.node.pat.queryParams {
			declared[q] = f.node
		}
	}

	for key, val := range query {
		owner, ok := declared[key]
		if ok {
			params[key] = val
			meta[owner.fullName][key] = "query"
			continue
		}
		switch t.opts.QueryParamsMode {
		case QueryParamsStrict:
			return nil, fmt.Errorf("%w: path %q (undeclared query parameter %q)", ErrNotFound, path, key)
		case QueryParamsLoose:
			params[key] = val
		}
	}

	for _, f := range res.frames {
		if f.node.spec.DecodeParams != nil {
			params = f.node.spec.DecodeParams(params)
		}
	}

	return &Match{Name: res.node.fullName, Params: params, MetaParams: meta}, nil
}

// BuildPath composes the path for a route from the given parameters.
// Missing parameters fall back to the chain's default params; query
// parameters declared by the chain are appended; undeclared leftovers
// follow the tree's QueryParamsMode.
func (t *Tree) BuildPath(name string, params Params) (string, error) {
	n, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	chain := n.chain()

	merged := params.Clone()
	for _, cn := range chain {
		if len(cn.spec.DefaultParams) > 0 {
			if err := mergo.Merge(&merged, cn.spec.DefaultParams); err != nil {
				return "", fmt.Errorf("merging default params for %q: %w", cn.fullName, err)
			}
		}
	}

	encoded := merged
	for _, cn := range chain {
		if cn.spec.EncodeParams != nil {
			encoded = cn.spec.EncodeParams(encoded)
		}
	}

	var segments []string
	consumed := make(map[string]bool)
	declared := make(map[string]bool)
	for _, cn := range chain {
		segs, used, err := cn.pat.build(encoded, t.opts.URLParamsEncoding)
		if err != nil {
			return "", fmt.Errorf("building %q: %w", name, err)
		}
		segments = append(segments, segs...)
		for k := range used {
			consumed[k] = true
		}
		for _, q := range cn.pat.queryParams {
			declared[q] = true
		}
	}

	query := make(map[string]any)
	for key, val := range encoded {
		if consumed[key] {
			continue
		}
		if declared[key] {
			query[key] = val
			continue
		}
		switch t.opts.QueryParamsMode {
		case QueryParamsStrict:
			return "", fmt.Errorf("%w: %q on route %q", ErrUnknownParam, key, name)
		case QueryParamsLoose:
			query[key] = val
		}
	}

	path := "/" + strings.Join(segments, "/")
	path = t.applyTrailingSlash(path, n)

	if qs := searchparams.Build(query, t.opts.QueryParams); qs != "" {
		path += "?" + qs
	}
	return path, nil
}

func (t *Tree) applyTrailingSlash(path string, n *node) string {
	switch t.opts.TrailingSlash {
	case TrailingSlashAlways:
		if !strings.HasSuffix(path, "/") {
			path += "/"
		}
	case TrailingSlashNever:
		if len(path) > 1 {
			path = strings.TrimRight(path, "/")
		}
	case TrailingSlashStrict:
		if n.pat.trailingSlash && !strings.HasSuffix(path, "/") {
			path += "/"
		}
	}
	return path
}
