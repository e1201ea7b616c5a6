package store

import (
	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/geom"
	"github.com/specialistvlad/texpen/internal/objectid"
)

// Store is the document store.
type Store interface {
	// Insert adds obj under a fresh ID.
	Insert(obj *equation.Object) objectid.ID
	// Put adds or replaces obj under id.
	Put(id objectid.ID, obj *equation.Object)
	// Get returns the live object for id.
	Get(id objectid.ID) (*equation.Object, bool)
	// Remove deletes id and returns what was stored.
	Remove(id objectid.ID) (*equation.Object, bool)
	// IDs returns every ID in stacking order, bottom first.
	IDs() []objectid.ID
	// HitTest returns the IDs of objects containing p, topmost first.
	HitTest(p geom.Vec2) []objectid.ID
	// Record pushes the current state onto the undo history.
	Record()
	// Undo and Redo step through the history and report whether they did.
	Undo() bool
	Redo() bool
}
