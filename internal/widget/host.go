package widget

import (
	"context"
	"sync"
)

// Host owns at most one widget at a time, like the page-level embed loader.
type Host struct {
	deps Deps

	mu      sync.Mutex
	current *Widget
}

func NewHost(deps Deps) *Host {
	return &Host{deps: deps}
}

// Init replaces any existing widget with a new one built from opts.
func (h *Host) Init(ctx context.Context, opts Options) (*Widget, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		h.current.Destroy()
		h.current = nil
	}
	w, err := New(ctx, h.deps, opts)
	if err != nil {
		return nil, err
	}
	h.current = w
	return w, nil
}

func (h *Host) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current != nil {
		h.current.Destroy()
		h.current = nil
	}
}

func (h *Host) Current() (*Widget, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.current != nil
}
