package engine

import "github.com/specialistvlad/texpen/internal/compiler"

// Task is a unit of work for the engine loop.
type Task interface {
	isTask()
}

// CheckCompilation is sent by the pen's periodic timer.
type CheckCompilation struct{}

// CompilerEvent wraps a result reported by the compiler worker.
type CompilerEvent struct {
	Event compiler.Event
}

// funcTask runs fn on the engine goroutine and closes done afterwards.
type funcTask struct {
	fn   func(*Engine)
	done chan struct{}
}

func (CheckCompilation) isTask() {}
func (CompilerEvent) isTask()    {}
func (funcTask) isTask()         {}
