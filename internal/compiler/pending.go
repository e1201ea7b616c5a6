package compiler

import (
	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/objectid"
)

// pendingTable holds at most one task per object. Dispatch order is the
// order in which objects first entered the table; overwriting a task keeps
// its position.
type pendingTable struct {
	tasks map[objectid.ID]equation.Task
	order []objectid.ID
}

func newPendingTable() *pendingTable {
	return &pendingTable{tasks: make(map[objectid.ID]equation.Task)}
}

// put inserts or overwrites the task for id and reports whether an older
// task was replaced.
func (p *pendingTable) put(id objectid.ID, task equation.Task) bool {
	_, replaced := p.tasks[id]
	if !replaced {
		p.order = append(p.order, id)
	}
	p.tasks[id] = task
	return replaced
}

// pop removes and returns the oldest entry.
func (p *pendingTable) pop() (objectid.ID, equation.Task, bool) {
	if len(p.order) == 0 {
		return objectid.Nil, equation.Task{}, false
	}
	id := p.order[0]
	p.order[0] = objectid.Nil
	p.order = p.order[1:]
	task := p.tasks[id]
	delete(p.tasks, id)
	return id, task, true
}

func (p *pendingTable) len() int {
	return len(p.order)
}
