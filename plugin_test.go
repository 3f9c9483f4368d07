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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPlugin captures hook invocations as tagged strings.
type recordingPlugin struct {
	mu   sync.Mutex
	tags []string
}

func (p *recordingPlugin) record(tag string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tags = append(p.tags, tag)
}

func (p *recordingPlugin) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.tags...)
}

func (p *recordingPlugin) factory() PluginFactory {
	return func(*Router) (Plugin, error) {
		return Plugin{
			OnStart:           func(to *State) { p.record("start:" + to.Name) },
			OnStop:            func(from *State) { p.record("stop:" + from.Name) },
			OnTransitionStart: func(to, _ *State) { p.record("ts:" + to.Name) },
			OnTransitionSuccess: func(to, _ *State, _ NavigationOptions) {
				p.record("ok:" + to.Name)
			},
			OnTransitionError: func(to, _ *State, err error) {
				p.record("err:" + to.Name + ":" + CodeOf(err))
			},
			OnTransitionCancel: func(to, _ *State) { p.record("cancel:" + to.Name) },
			Teardown:          func() { p.record("teardown") },
		}, nil
	}
}

func TestPluginLifecycleHooks(t *testing.T) {
	t.Parallel()
	r := MustNew(navRoutes())
	t.Cleanup(r.Dispose)

	p := &recordingPlugin{}
	require.NoError(t, r.UsePlugin(p.factory()))

	require.NoError(t, r.Start("/"))
	require.NoError(t, r.Navigate("login", nil).Wait())

	require.NoError(t, r.AddActivateGuard("admin", func(*Router) (Guard, error) {
		return func(context.Context, *State, *State) error {
			return errors.New("no")
		}, nil
	}))
	_ = r.Navigate("admin", nil).Wait()

	require.NoError(t, r.Stop())

	assert.Equal(t, []string{
		"start:home",
		"ok:home",
		"ts:login",
		"ok:login",
		"ts:admin",
		"err:admin:" + CodeCannotActivate,
		"stop:login",
		"teardown",
	}, p.seen())
}

func TestPluginCancelHook(t *testing.T) {
	t.Parallel()
	r := startedRouter(t, "/")

	p := &recordingPlugin{}
	require.NoError(t, r.UsePlugin(p.factory()))

	entered := make(chan struct{})
	require.NoError(t, r.AddActivateGuard("admin", func(*Router) (Guard, error) {
		return func(ctx context.Context, _, _ *State) error {
			close(entered)
			<-ctx.Done()
			return ctx.Err()
		}, nil
	}))

	tr := r.Navigate("admin", nil)
	<-entered
	tr.Cancel()
	require.Error(t, tr.Wait())

	assert.Contains(t, p.seen(), "cancel:admin")
}

func TestPluginBatchRollback(t *testing.T) {
	t.Parallel()
	r := MustNew(navRoutes())
	t.Cleanup(r.Dispose)

	p := &recordingPlugin{}
	bad := PluginFactory(func(*Router) (Plugin, error) {
		return Plugin{}, errors.New("misconfigured")
	})

	err := r.UsePlugin(p.factory(), bad)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))

	// The first plugin's hooks were detached with the failed batch.
	require.NoError(t, r.Start("/"))
	assert.Empty(t, p.seen())
}

func TestPluginTeardownOnDispose(t *testing.T) {
	t.Parallel()
	r := MustNew(navRoutes())

	p := &recordingPlugin{}
	require.NoError(t, r.UsePlugin(p.factory()))

	r.Dispose()
	assert.Equal(t, []string{"teardown"}, p.seen())

	// Dispose is idempotent; teardown runs once.
	r.Dispose()
	assert.Equal(t, []string{"teardown"}, p.seen())

	err := r.UsePlugin(p.factory())
	require.Error(t, err)
	assert.Equal(t, CodeDisposed, CodeOf(err))
}
