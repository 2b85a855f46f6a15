package site

import (
	"context"
	"sync"
)

// Navigator performs navigation side effects on behalf of a flow.
type Navigator interface {
	// NavigateExternal leaves the site for an absolute URL.
	NavigateExternal(ctx context.Context, url string)
	// NavigateInternal moves to another in-app route.
	NavigateInternal(ctx context.Context, route Route)
}

// Discard ignores every navigation.
type Discard struct{}

func (Discard) NavigateExternal(context.Context, string) {}
func (Discard) NavigateInternal(context.Context, Route)  {}

// Navigation is one recorded navigation. Exactly one of URL or Route is set.
type Navigation struct {
	URL   string `json:"url,omitempty"`
	Route Route  `json:"route,omitempty"`
	Path  string `json:"path,omitempty"`
}

// Recorder keeps navigations in arrival order. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	items []Navigation
}

func (r *Recorder) NavigateExternal(_ context.Context, url string) {
	r.mu.Lock()
	r.items = append(r.items, Navigation{URL: url})
	r.mu.Unlock()
}

func (r *Recorder) NavigateInternal(_ context.Context, route Route) {
	path, _ := Path(route)
	r.mu.Lock()
	r.items = append(r.items, Navigation{Route: route, Path: path})
	r.mu.Unlock()
}

// All returns a copy of the recorded navigations.
func (r *Recorder) All() []Navigation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Navigation, len(r.items))
	copy(out, r.items)
	return out
}

// Drain returns the recorded navigations and resets the recorder.
func (r *Recorder) Drain() []Navigation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}
