package app

import (
	"github.com/specialistvlad/texpen/internal/backend"
	"github.com/specialistvlad/texpen/internal/config"
	"github.com/specialistvlad/texpen/modules/latex"
	"github.com/specialistvlad/texpen/modules/startex"
)

// coreModules is the definitive list of all backends that are compiled into
// the texpen binary.
func coreModules(s *config.Settings) []backend.Module {
	return []backend.Module{
		&latex.Module{Options: s.LatexOptions()},
		&startex.Module{},
	}
}
