// Package filters holds the dashboard-wide filter selection.
package filters

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

// All is the sentinel value meaning "no constraint on this dimension".
const All = ""

// State is a snapshot of the filter selection. Snapshots are never
// mutated after they are published.
type State map[string]string

// Key is the canonical form of the state: a JSON object with sorted keys
// and All entries omitted. A state with no active constraint yields "".
func (s State) Key() string {
	active := make(map[string]string, len(s))
	for k, v := range s {
		if v != All {
			active[k] = v
		}
	}
	if len(active) == 0 {
		return ""
	}
	// encoding/json writes map keys sorted
	b, _ := json.Marshal(active)
	return string(b)
}

// Active returns the names with a concrete selection, sorted.
func (s State) Active() []string {
	var names []string
	for k, v := range s {
		if v != All {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func (s State) with(name, value string) State {
	next := make(State, len(s)+1)
	for k, v := range s {
		next[k] = v
	}
	next[name] = value
	return next
}

// Parse decodes a canonical key back into a state.
func Parse(key string) (State, error) {
	if key == "" {
		return State{}, nil
	}
	var s State
	if err := json.Unmarshal([]byte(key), &s); err != nil {
		return nil, err
	}
	return s, nil
}

type Manager struct {
	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

func NewManager() *Manager {
	return &Manager{state: State{}, subs: make(map[int]func(State))}
}

// Seed resets the state to All for every declared filter.
func (m *Manager) Seed(defs models.GlobalFilters) {
	next := make(State, len(defs))
	for _, d := range defs {
		next[d.Name] = All
	}
	m.publish(func(State) State { return next })
}

// Set records a selection and notifies subscribers synchronously. Names
// need not be declared and values are not checked against the options.
func (m *Manager) Set(name, value string) {
	m.publish(func(cur State) State { return cur.with(name, value) })
}

func (m *Manager) Active() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn for every new snapshot. The returned func removes it.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) publish(update func(State) State) {
	m.mu.Lock()
	next := update(m.state)
	m.state = next
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), len(ids))
	for i, id := range ids {
		fns[i] = m.subs[id]
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}
