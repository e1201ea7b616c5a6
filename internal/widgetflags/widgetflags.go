// Package widgetflags carries the UI refresh requests produced by engine
// operations.
package widgetflags

// Flags tells the hosting UI what needs refreshing after an operation.
type Flags struct {
	Redraw              bool
	RefreshUI           bool
	RefreshEquationUI   bool
	ShowEquationSidebar bool
	UpdateEquationError bool
	StoreModified       bool
}

// Merge ORs o into f.
func (f *Flags) Merge(o Flags) {
	f.Redraw = f.Redraw || o.Redraw
	f.RefreshUI = f.RefreshUI || o.RefreshUI
	f.RefreshEquationUI = f.RefreshEquationUI || o.RefreshEquationUI
	f.ShowEquationSidebar = f.ShowEquationSidebar || o.ShowEquationSidebar
	f.UpdateEquationError = f.UpdateEquationError || o.UpdateEquationError
	f.StoreModified = f.StoreModified || o.StoreModified
}

// Any reports whether any flag is set.
func (f Flags) Any() bool {
	return f != Flags{}
}
