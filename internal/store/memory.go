package store

import (
	"slices"
	"sync"

	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/geom"
	"github.com/specialistvlad/texpen/internal/objectid"
)

// DefaultHistoryLimit bounds the undo stack.
const DefaultHistoryLimit = 100

type snapshot struct {
	order   []objectid.ID
	objects map[objectid.ID]*equation.Object
}

// Memory is an in-memory Store.
type Memory struct {
	mu      sync.RWMutex
	order   []objectid.ID
	objects map[objectid.ID]*equation.Object

	limit int
	undo  []snapshot
	redo  []snapshot
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[objectid.ID]*equation.Object),
		limit:   DefaultHistoryLimit,
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Insert(obj *equation.Object) objectid.ID {
	id := objectid.New()
	m.Put(id, obj)
	return id
}

func (m *Memory) Put(id objectid.ID, obj *equation.Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[id]; !exists {
		m.order = append(m.order, id)
	}
	m.objects[id] = obj
}

func (m *Memory) Get(id objectid.ID) (*equation.Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[id]
	return obj, ok
}

func (m *Memory) Remove(id objectid.ID) (*equation.Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[id]
	if !ok {
		return nil, false
	}
	delete(m.objects, id)
	m.order = slices.DeleteFunc(m.order, func(o objectid.ID) bool { return o == id })
	return obj, true
}

func (m *Memory) IDs() []objectid.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

func (m *Memory) HitTest(p geom.Vec2) []objectid.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var hits []objectid.ID
	for i := len(m.order) - 1; i >= 0; i-- {
		id := m.order[i]
		if m.objects[id].Contains(p) {
			hits = append(hits, id)
		}
	}
	return hits
}

func (m *Memory) Record() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = append(m.undo, m.snapshotLocked())
	if len(m.undo) > m.limit {
		m.undo = slices.Delete(m.undo, 0, len(m.undo)-m.limit)
	}
	m.redo = nil
}

func (m *Memory) Undo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undo) == 0 {
		return false
	}
	m.redo = append(m.redo, m.snapshotLocked())
	m.restoreLocked(m.undo[len(m.undo)-1])
	m.undo = m.undo[:len(m.undo)-1]
	return true
}

func (m *Memory) Redo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.redo) == 0 {
		return false
	}
	m.undo = append(m.undo, m.snapshotLocked())
	m.restoreLocked(m.redo[len(m.redo)-1])
	m.redo = m.redo[:len(m.redo)-1]
	return true
}

func (m *Memory) snapshotLocked() snapshot {
	s := snapshot{
		order:   slices.Clone(m.order),
		objects: make(map[objectid.ID]*equation.Object, len(m.objects)),
	}
	for id, obj := range m.objects {
		s.objects[id] = obj.Clone()
	}
	return s
}

func (m *Memory) restoreLocked(s snapshot) {
	m.order = slices.Clone(s.order)
	m.objects = make(map[objectid.ID]*equation.Object, len(s.objects))
	for id, obj := range s.objects {
		m.objects[id] = obj.Clone()
	}
}
