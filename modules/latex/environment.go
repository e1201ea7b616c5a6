package latex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/texpen/internal/equation"
)

// environment wraps equation source into a complete standalone document.
type environment struct {
	prePreamble string
	preCode     string
	postCode    string
}

func standalone(pageWidth float64) environment {
	return environment{
		prePreamble: fmt.Sprintf("\\documentclass[varwidth=%smm, border=10pt]{standalone}\n",
			strconv.FormatFloat(pageWidth, 'f', -1, 64)),
		preCode:  "\\begin{document}\n",
		postCode: "\\end{document}\n",
	}
}

func preamble(fontSize uint32, extra string) string {
	var b strings.Builder
	b.WriteString("\\usepackage{amsmath}\n")
	b.WriteString("\\usepackage{amssymb}\n")
	b.WriteString("\\usepackage[usenames]{color}\n")
	b.WriteString("\\usepackage{ifxetex}\n")
	b.WriteString("\\usepackage{ifluatex}\n")
	b.WriteString("\\usepackage{fix-cm}\n")
	fmt.Fprintf(&b, "\\usepackage[fontsize=%dpt]{fontsize}\n", fontSize)
	if extra != "" {
		b.WriteString(strings.TrimRight(extra, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// Document returns the full LaTeX document typesetting source with cfg.
func Document(source string, cfg equation.Config, extraPreamble string) string {
	env := standalone(cfg.PageWidth)
	var b strings.Builder
	b.WriteString(env.prePreamble)
	b.WriteString(preamble(cfg.FontSize, extraPreamble))
	b.WriteString(env.preCode)
	b.WriteString(source)
	b.WriteString("\n")
	b.WriteString(env.postCode)
	return b.String()
}
