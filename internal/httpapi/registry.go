package httpapi

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/notify"
	"github.com/MrEthical07/authflow/site"
)

var (
	errFlowNotFound = errors.New("flow not found")
	errTooManyFlows = errors.New("too many open flows")
)

// mounted is one form instance owned by an HTTP client. Notifications and
// navigations produced by the flow queue in its outbox until the client
// polls for them.
type mounted struct {
	id       uuid.UUID
	kind     string
	created  time.Time
	login    *authflow.LoginFlow
	register *authflow.RegisterFlow
	logout   *authflow.LogoutFlow
	notes    *notify.Recorder
	nav      *site.Recorder
}

func (m *mounted) state() authflow.FlowState {
	switch {
	case m.login != nil:
		return m.login.State()
	case m.register != nil:
		return m.register.State()
	default:
		return m.logout.State()
	}
}

func (m *mounted) close() {
	switch {
	case m.login != nil:
		m.login.Close()
	case m.register != nil:
		m.register.Close()
	case m.logout != nil:
		m.logout.Close()
	}
}

type registry struct {
	mu    sync.Mutex
	flows map[uuid.UUID]*mounted
	max   int
}

func newRegistry(max int) *registry {
	return &registry{flows: make(map[uuid.UUID]*mounted), max: max}
}

func (r *registry) full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.max > 0 && len(r.flows) >= r.max
}

func (r *registry) add(m *mounted) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.flows) >= r.max {
		return errTooManyFlows
	}
	r.flows[m.id] = m
	return nil
}

func (r *registry) get(id uuid.UUID) (*mounted, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.flows[id]
	if !ok {
		return nil, errFlowNotFound
	}
	return m, nil
}

func (r *registry) remove(id uuid.UUID) (*mounted, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.flows[id]
	if !ok {
		return nil, errFlowNotFound
	}
	delete(r.flows, id)
	return m, nil
}

// expired removes and returns flows created before cutoff.
func (r *registry) expired(cutoff time.Time) []*mounted {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*mounted
	for id, m := range r.flows {
		if m.created.Before(cutoff) {
			out = append(out, m)
			delete(r.flows, id)
		}
	}
	return out
}

func (r *registry) drain() []*mounted {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*mounted, 0, len(r.flows))
	for id, m := range r.flows {
		out = append(out, m)
		delete(r.flows, id)
	}
	return out
}
