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
	"context"
	"errors"
	"sync"

	"github.com/greydragon888/real-router-sub007/route"
	"github.com/greydragon888/real-router-sub007/transitionpath"
)

// maxRedirects bounds guard and middleware redirect chains within one
// navigation. Chains this deep are configuration bugs.
const maxRedirects = 25

// Transition is the handle for one navigation. The pipeline runs on
// its own goroutine; callers observe completion through Done and the
// outcome through Err and State.
type Transition struct {
	r      *Router
	ctx    context.Context
	cancel context.CancelFunc

	to   *State
	from *State
	opts NavigationOptions

	done     chan struct{}
	finishMu sync.Mutex
	once     sync.Once
	err      error
	final    *State
}

func newTransition(r *Router, to, from *State, opts NavigationOptions) *Transition {
	ctx, cancel := context.WithCancel(context.Background())
	return &Transition{
		r:      r,
		ctx:    ctx,
		cancel: cancel,
		to:     to,
		from:   from,
		opts:   opts,
		done:   make(chan struct{}),
	}
}

// failedTransition is an already-completed handle for synchronous
// rejections, so Navigate always returns a usable value.
func failedTransition(r *Router, err error) *Transition {
	t := &Transition{r: r, done: make(chan struct{})}
	t.finish(nil, err)
	return t
}

// completedTransition is an already-successful handle, used when the
// state is installed without running the pipeline.
func completedTransition(r *Router, st *State) *Transition {
	t := &Transition{r: r, done: make(chan struct{})}
	t.finish(st, nil)
	return t
}

// Done is closed when the transition has completed, failed, or been
// cancelled.
func (t *Transition) Done() <-chan struct{} {
	return t.done
}

// Err returns the transition outcome: nil on success, a coded error
// otherwise. Valid after Done is closed.
func (t *Transition) Err() error {
	t.finishMu.Lock()
	defer t.finishMu.Unlock()
	return t.err
}

// State returns the committed state on success, nil otherwise. Valid
// after Done is closed.
func (t *Transition) State() *State {
	t.finishMu.Lock()
	defer t.finishMu.Unlock()
	return t.final
}

// Wait blocks until the transition completes and returns its outcome.
func (t *Transition) Wait() error {
	<-t.done
	return t.Err()
}

// Cancel aborts the transition if it is still in flight. The pipeline
// stops cooperatively; the router's current state is never altered by
// a cancelled transition.
func (t *Transition) Cancel() {
	if t.cancel == nil {
		return
	}
	t.r.mu.Lock()
	if t.r.inflight != t {
		t.r.mu.Unlock()
		return
	}
	payload := t.cancelLocked(newNavError(CodeTransitionCancelled, "transition cancelled"))
	t.r.mu.Unlock()

	t.r.bus.emit(payload)
}

// cancelLocked marks the transition cancelled and returns the
// TransitionCancel payload for the caller to emit after unlocking.
// Called with the router lock held.
func (t *Transition) cancelLocked(reason error) EventPayload {
	t.cancel()
	t.finish(nil, reason)
	if t.r.inflight == t {
		t.r.inflight = nil
		t.r.lc.fire(evCancel) //nolint:errcheck // Transitioning+Cancel is always legal.
	}
	return EventPayload{Event: TransitionCancel, ToState: t.to, FromState: t.from, Err: reason}
}

// finish records the outcome exactly once.
func (t *Transition) finish(final *State, err error) {
	t.once.Do(func() {
		t.finishMu.Lock()
		t.final = final
		t.err = err
		t.finishMu.Unlock()
		close(t.done)
	})
}

// Navigate starts a transition to the named route. It never blocks on
// guards or middleware: synchronous rejections (unknown route, same
// state, router not started) come back as an already-failed handle,
// everything else resolves through the returned Transition.
//
// A navigation issued while another is in flight cancels the earlier
// one first; the last call wins.
func (r *Router) Navigate(name string, params route.Params, opts ...NavigateOption) *Transition {
	var navOpts NavigationOptions
	for _, opt := range opts {
		opt(&navOpts)
	}

	r.mu.Lock()
	if !r.IsStarted() {
		status := r.lc.current()
		r.mu.Unlock()
		if status == StatusDisposed {
			return failedTransition(r, newNavError(CodeDisposed, "router is disposed"))
		}
		return failedTransition(r, newNavError(CodeNotStarted, "navigate called on a router that is not started"))
	}

	target, err := r.stateForRouteLocked(name, params)
	if err != nil {
		r.mu.Unlock()
		return failedTransition(r, err)
	}
	target.Meta.Options = navOpts

	if !navOpts.Reload && !navOpts.Force && AreStatesEqual(target, r.current) {
		r.mu.Unlock()
		return failedTransition(r, newNavError(CodeSameStates, "already at %q with equal params", target.Name))
	}

	if navOpts.SkipTransition {
		from := r.current
		r.installLocked(target)
		r.mu.Unlock()
		r.bus.emit(EventPayload{Event: TransitionSuccess, ToState: target, FromState: from, Options: navOpts})
		return completedTransition(r, target)
	}

	var cancelled *EventPayload
	if prev := r.inflight; prev != nil {
		payload := prev.cancelLocked(newNavError(CodeTransitionCancelled, "superseded by navigation to %q", target.Name))
		cancelled = &payload
	}

	if _, err := r.lc.fire(evNavigate); err != nil {
		r.mu.Unlock()
		return failedTransition(r, err)
	}

	t := newTransition(r, target, r.current, navOpts)
	r.inflight = t
	r.mu.Unlock()

	if cancelled != nil {
		r.bus.emit(*cancelled)
	}
	r.logger.Debug("transition started", "to", target.Name, "from", stateName(t.from))
	r.bus.emit(EventPayload{Event: TransitionStart, ToState: target, FromState: t.from, Options: navOpts})

	go t.run()
	return t
}

// NavigateToDefault navigates to the route configured with
// WithDefaultRoute.
func (r *Router) NavigateToDefault(opts ...NavigateOption) *Transition {
	if r.opts.defaultRoute == "" {
		return failedTransition(r, newNavError(CodeNoStartPath, "no default route configured"))
	}
	return r.Navigate(r.opts.defaultRoute, r.opts.defaultParams, opts...)
}

// NavigateToState navigates to the route addressed by an existing
// state value, typically one previously returned by MatchPath or
// GetState.
func (r *Router) NavigateToState(st *State, opts ...NavigateOption) *Transition {
	if st == nil {
		return failedTransition(r, newNavError(CodeInvalidArgument, "state must not be nil"))
	}
	return r.Navigate(st.Name, st.Params, opts...)
}

// run executes the pipeline for one transition on its own goroutine.
func (t *Transition) run() {
	r := t.r

	ctx := t.ctx
	if rec := r.opts.recorder; rec != nil {
		ctx = rec.OnTransitionStart(ctx, t.to, t.from)
	}

	final, err := r.runPipeline(ctx, t.to, t.from, t.opts)

	if t.ctx.Err() != nil {
		// Cancelled: the canceller already detached the transition,
		// fired the lifecycle event, and emitted TransitionCancel. The
		// recorder end call stays here so every OnTransitionStart is
		// paired exactly once, whichever goroutine cancelled.
		cancelErr := newNavError(CodeTransitionCancelled, "transition cancelled")
		if rec := r.opts.recorder; rec != nil {
			rec.OnTransitionEnd(ctx, "cancelled", t.to, t.from, cancelErr)
		}
		t.finish(nil, cancelErr)
		return
	}

	if err != nil {
		r.mu.Lock()
		if r.inflight == t {
			r.inflight = nil
			r.lc.fire(evFail) //nolint:errcheck // Transitioning+Fail is always legal.
		}
		r.mu.Unlock()

		r.logger.Debug("transition failed", "to", t.to.Name, "error", err)
		r.bus.emit(EventPayload{Event: TransitionError, ToState: t.to, FromState: t.from, Options: t.opts, Err: err})
		if rec := r.opts.recorder; rec != nil {
			rec.OnTransitionEnd(ctx, "error", t.to, t.from, err)
		}
		t.finish(nil, err)
		return
	}

	r.mu.Lock()
	if r.inflight != t {
		// Lost the race against a cancel between the last step and the
		// commit; the result is discarded.
		r.mu.Unlock()
		cancelErr := newNavError(CodeTransitionCancelled, "transition cancelled")
		if rec := r.opts.recorder; rec != nil {
			rec.OnTransitionEnd(ctx, "cancelled", t.to, t.from, cancelErr)
		}
		t.finish(nil, cancelErr)
		return
	}
	final.Meta.Options = t.opts
	r.installLocked(final)
	r.inflight = nil
	r.lc.fire(evComplete) //nolint:errcheck // Transitioning+Complete is always legal.
	r.mu.Unlock()

	r.logger.Debug("transition committed", "to", final.Name, "id", final.Meta.ID)
	r.bus.emit(EventPayload{Event: TransitionSuccess, ToState: final, FromState: t.from, Options: t.opts})
	if rec := r.opts.recorder; rec != nil {
		rec.OnTransitionEnd(ctx, "success", final, t.from, nil)
	}
	t.finish(final, nil)
}

// runPipeline executes guards and middleware, restarting from forward
// resolution whenever a step redirects. It never installs the result.
func (r *Router) runPipeline(ctx context.Context, to, from *State, opts NavigationOptions) (*State, error) {
	for redirects := 0; ; redirects++ {
		if redirects > maxRedirects {
			return nil, newNavError(CodeTransitionError, "redirect chain exceeded %d hops", maxRedirects)
		}

		redirect, final, err := r.runSteps(ctx, to, from, opts)
		if err != nil {
			return nil, err
		}
		if redirect == nil {
			return final, nil
		}

		r.mu.Lock()
		next, err := r.stateForRouteLocked(redirect.Name, redirect.Params)
		r.mu.Unlock()
		if err != nil {
			return nil, err
		}
		next.Meta.Options = opts
		next.Meta.Redirected = true
		to = next
	}
}

// runSteps executes one pass of the pipeline: deactivate guards (most
// specific first), activate guards (least specific first), then
// middleware in registration order. A *Redirect from any step aborts
// the pass and is returned for the caller to restart.
func (r *Router) runSteps(ctx context.Context, to, from *State, opts NavigationOptions) (*Redirect, *State, error) {
	p := r.transitionPath(to, from, opts)

	for _, segment := range p.ToDeactivate {
		r.mu.Lock()
		guards := r.guardsLocked(r.deactivateGuards, segment)
		r.mu.Unlock()
		if redirect, err := r.runGuards(ctx, guards, segment, CodeCannotDeactivate, to, from); redirect != nil || err != nil {
			return redirect, nil, err
		}
	}

	for _, segment := range p.ToActivate {
		r.mu.Lock()
		guards := r.guardsLocked(r.activateGuards, segment)
		r.mu.Unlock()
		if redirect, err := r.runGuards(ctx, guards, segment, CodeCannotActivate, to, from); redirect != nil || err != nil {
			return redirect, nil, err
		}
	}

	r.mu.Lock()
	middlewares := r.middlewares.instances()
	r.mu.Unlock()

	for _, m := range middlewares {
		if err := ctx.Err(); err != nil {
			return nil, nil, wrapNavError(CodeTransitionCancelled, err)
		}
		next, err := m(ctx, to, from)
		if err != nil {
			var redirect *Redirect
			if errors.As(err, &redirect) {
				return redirect, nil, nil
			}
			return nil, nil, wrapNavError(CodeTransitionError, err)
		}
		if next == nil {
			continue
		}
		if next.Name != to.Name {
			// A middleware steering to a different route restarts the
			// pipeline, exactly like an explicit redirect.
			return &Redirect{Name: next.Name, Params: next.Params}, nil, nil
		}
		if next.Meta == nil {
			next.Meta = to.Meta
		}
		to = next
	}

	return nil, to, nil
}

// runGuards executes the guards of one segment sequentially.
func (r *Router) runGuards(ctx context.Context, guards []Guard, segment, denyCode string, to, from *State) (*Redirect, error) {
	for _, g := range guards {
		if err := ctx.Err(); err != nil {
			return nil, wrapNavError(CodeTransitionCancelled, err)
		}
		if err := g(ctx, to, from); err != nil {
			var redirect *Redirect
			if errors.As(err, &redirect) {
				return redirect, nil
			}
			return nil, &NavError{NavCode: denyCode, Message: "guard denied the transition", Segment: segment, Err: err}
		}
	}
	return nil, nil
}

// transitionPath computes which segments deactivate and activate for
// this navigation. Reload forces the full chains on both sides.
func (r *Router) transitionPath(to, from *State, opts NavigationOptions) transitionpath.Path {
	toFrag := stateFragment(to)
	fromFrag := stateFragment(from)

	if (opts.Reload || opts.Force) && fromFrag != nil {
		deactivate := transitionpath.Compute(fromFrag, nil).ToActivate
		for i, j := 0, len(deactivate)-1; i < j; i, j = i+1, j-1 {
			deactivate[i], deactivate[j] = deactivate[j], deactivate[i]
		}
		return transitionpath.Path{
			ToDeactivate: deactivate,
			ToActivate:   transitionpath.Compute(toFrag, nil).ToActivate,
		}
	}
	return transitionpath.Compute(toFrag, fromFrag)
}

// ShouldUpdateNode returns a predicate reporting whether the named
// route node is re-activated by a transition. Consumers rendering one
// component per node use it to skip unaffected subtrees.
func ShouldUpdateNode(nodeName string) func(to, from *State) bool {
	return func(to, from *State) bool {
		if to == nil {
			return false
		}
		if to.Meta != nil && (to.Meta.Options.Reload || to.Meta.Options.Force) {
			return true
		}
		p := transitionpath.Compute(stateFragment(to), stateFragment(from))
		return p.ShouldUpdate(nodeName)
	}
}

func stateFragment(st *State) *transitionpath.Fragment {
	if st == nil {
		return nil
	}
	frag := &transitionpath.Fragment{Name: st.Name, Params: st.Params}
	if st.Meta != nil {
		frag.MetaParams = st.Meta.Params
	}
	return frag
}

func stateName(st *State) string {
	if st == nil {
		return ""
	}
	return st.Name
}
